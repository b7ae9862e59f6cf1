package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/voxdash/internal/backend"
	"github.com/sandeepkv93/voxdash/internal/commands"
	"github.com/sandeepkv93/voxdash/internal/model"
	"github.com/spf13/cobra"
)

func newEventCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "event",
		Aliases: []string{"events", "cal"},
		Short:   "Manage calendar events",
	}

	cmd.AddCommand(
		newEventAddCmd(app),
		newEventListCmd(app),
		newRemoveCmd(app, commands.KindEvent),
		newShareCmd(app, commands.KindEvent),
	)

	return cmd
}

func newEventAddCmd(app *app) *cobra.Command {
	var from, to, description string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a calendar event",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			start, err := commands.ParseTime(from, now)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			end, err := commands.ParseTime(to, now)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			ev, err := app.store.AddEvent(cmd.Context(), model.EventFields{
				Title:       strings.Join(args, " "),
				Description: description,
				EventFrom:   start,
				EventTo:     end,
				CreatedBy:   app.directory.Creator(),
			})
			if err != nil {
				return err
			}
			return writeResult(cmd, app, ev, "added event %s", ev.ID)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "start time (2006-01-02T15:04 or 15:04)")
	cmd.Flags().StringVar(&to, "to", "", "end time (2006-01-02T15:04 or 15:04)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "longer description")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newEventListCmd(app *app) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List calendar events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if remote {
				rows, err := app.backend.ListCalendarEntries(cmd.Context(), app.directory.Creator())
				if err != nil {
					return err
				}
				return writeRemote(cmd, app, rows, func(e backend.RemoteCalendarEntry) string {
					return fmt.Sprintf("%d\t%s\t%s\t%s", e.ID, e.EventFrom, e.EventTo, e.Title)
				})
			}
			events := app.store.Events()
			if app.asJSON {
				return writeJSON(cmd, events)
			}
			for _, e := range events {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%s\n",
					e.ID,
					e.EventFrom.Local().Format("2006-01-02 15:04"),
					e.EventTo.Local().Format("2006-01-02 15:04"),
					e.Title,
					sharedList(e.SharedWith))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "list the signed-in user's events from the backend instead")
	return cmd
}
