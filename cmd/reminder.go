package cmd

import (
	"fmt"
	"strings"

	"github.com/sandeepkv93/voxdash/internal/backend"
	"github.com/sandeepkv93/voxdash/internal/commands"
	"github.com/sandeepkv93/voxdash/internal/model"
	"github.com/spf13/cobra"
)

func newReminderCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reminder",
		Aliases: []string{"reminders"},
		Short:   "Manage reminders",
	}

	cmd.AddCommand(
		newReminderAddCmd(app),
		newReminderListCmd(app),
		newRemoveCmd(app, commands.KindReminder),
		newShareCmd(app, commands.KindReminder),
	)

	return cmd
}

func newReminderAddCmd(app *app) *cobra.Command {
	var importance string
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a reminder",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imp, err := model.ParseImportance(importance)
			if err != nil {
				return err
			}
			rem, err := app.store.AddReminder(cmd.Context(), model.ReminderFields{
				Text:       strings.Join(args, " "),
				Importance: imp,
				CreatedBy:  app.directory.Creator(),
			})
			if err != nil {
				return err
			}
			return writeResult(cmd, app, rem, "added %s reminder %s", rem.Importance, rem.ID)
		},
	}
	cmd.Flags().StringVarP(&importance, "importance", "i", string(model.ImportanceMedium), "low, medium or high")
	return cmd
}

func newReminderListCmd(app *app) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reminders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if remote {
				rows, err := app.backend.ListReminders(cmd.Context(), app.directory.Creator())
				if err != nil {
					return err
				}
				return writeRemote(cmd, app, rows, func(r backend.RemoteReminder) string {
					return fmt.Sprintf("%d\t%s\t%s\t%s", r.ID, r.Importance, r.Text, r.CreatedBy)
				})
			}
			reminders := app.store.Reminders()
			if app.asJSON {
				return writeJSON(cmd, reminders)
			}
			for _, r := range reminders {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Importance, r.Text, r.CreatedBy, sharedList(r.SharedWith))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "list the signed-in user's reminders from the backend instead")
	return cmd
}
