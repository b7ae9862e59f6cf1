package cmd

import (
	"fmt"

	"github.com/sandeepkv93/voxdash/internal/commands"
	"github.com/sandeepkv93/voxdash/internal/storage"
	"github.com/spf13/cobra"
)

func collectionKey(k commands.Kind) string {
	switch k {
	case commands.KindReminder:
		return storage.KeyReminders
	case commands.KindEvent:
		return storage.KeyCalendarEvents
	default:
		return storage.KeyTodos
	}
}

func newRemoveCmd(app *app, kind commands.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: fmt.Sprintf("Remove a %s", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := app.store.TargetID(collectionKey(kind), args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			switch kind {
			case commands.KindTodo:
				err = app.store.RemoveTodo(ctx, id)
			case commands.KindReminder:
				err = app.store.RemoveReminder(ctx, id)
			case commands.KindEvent:
				err = app.store.RemoveEvent(ctx, id)
			}
			if err != nil {
				return err
			}
			return writeResult(cmd, app, map[string]string{"removed": id}, "removed %s %s", kind, id)
		},
	}
}

func newShareCmd(app *app, kind commands.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "share <id> <email>",
		Short: fmt.Sprintf("Share a %s with another user", kind),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := app.store.TargetID(collectionKey(kind), args[0])
			if err != nil {
				return err
			}
			ctx, email := cmd.Context(), args[1]
			switch kind {
			case commands.KindTodo:
				err = app.store.ShareTodo(ctx, id, email)
			case commands.KindReminder:
				err = app.store.ShareReminder(ctx, id, email)
			case commands.KindEvent:
				err = app.store.ShareEvent(ctx, id, email)
			}
			if err != nil {
				return err
			}
			return writeResult(cmd, app, map[string]string{"shared": id, "with": email}, "shared %s %s with %s", kind, id, email)
		},
	}
}
