package cmd

import (
	"fmt"
	"strings"

	"github.com/sandeepkv93/voxdash/internal/backend"
	"github.com/sandeepkv93/voxdash/internal/commands"
	"github.com/sandeepkv93/voxdash/internal/model"
	"github.com/sandeepkv93/voxdash/internal/storage"
	"github.com/spf13/cobra"
)

func newTodoCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "todo",
		Aliases: []string{"todos"},
		Short:   "Manage todos",
	}

	cmd.AddCommand(
		newTodoAddCmd(app),
		newTodoListCmd(app),
		newTodoDoneCmd(app),
		newRemoveCmd(app, commands.KindTodo),
		newShareCmd(app, commands.KindTodo),
	)

	return cmd
}

func newTodoAddCmd(app *app) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			todo, err := app.store.AddTodo(cmd.Context(), model.TodoFields{
				Title:       strings.Join(args, " "),
				Description: description,
				CreatedBy:   app.directory.Creator(),
			})
			if err != nil {
				return err
			}
			return writeResult(cmd, app, todo, "added todo %s", todo.ID)
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "longer description")
	return cmd
}

func newTodoListCmd(app *app) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List todos",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if remote {
				rows, err := app.backend.ListTodos(cmd.Context(), app.directory.Creator())
				if err != nil {
					return err
				}
				return writeRemote(cmd, app, rows, func(t backend.RemoteTodo) string {
					return fmt.Sprintf("%d\t%t\t%s\t%s", t.ID, t.Completed, t.Title, t.CreatedBy)
				})
			}
			todos := app.store.Todos()
			if app.asJSON {
				return writeJSON(cmd, todos)
			}
			for _, t := range todos {
				box := "[ ]"
				if t.Completed {
					box = "[x]"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%s\n", t.ID, box, t.Title, t.CreatedBy, sharedList(t.SharedWith))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "list the signed-in user's todos from the backend instead")
	return cmd
}

func newTodoDoneCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a todo completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := app.store.TargetID(storage.KeyTodos, args[0])
			if err != nil {
				return err
			}
			if err := app.store.CompleteTodo(cmd.Context(), id); err != nil {
				return err
			}
			return writeResult(cmd, app, map[string]string{"completed": id}, "completed todo %s", id)
		},
	}
}
