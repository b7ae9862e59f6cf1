package cmd

import (
	"fmt"

	"github.com/sandeepkv93/voxdash/internal/model"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type exportDoc struct {
	Todos          []model.Todo          `json:"todos" yaml:"todos"`
	Reminders      []model.Reminder      `json:"reminders" yaml:"reminders"`
	CalendarEvents []model.CalendarEvent `json:"calendar_events" yaml:"calendar_events"`
}

func newExportCmd(app *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump every collection as YAML or JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc := exportDoc{
				Todos:          app.store.Todos(),
				Reminders:      app.store.Reminders(),
				CalendarEvents: app.store.Events(),
			}
			if app.asJSON {
				format = "json"
			}
			switch format {
			case "json":
				return writeJSON(cmd, doc)
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(doc); err != nil {
					return err
				}
				return enc.Close()
			default:
				return fmt.Errorf("unknown export format %q (want yaml or json)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "yaml or json")
	return cmd
}
