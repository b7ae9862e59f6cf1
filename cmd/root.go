package cmd

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
	as         string
	asJSON     bool
}

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	app := &app{}

	rootCmd := &cobra.Command{
		Use:           "voxdash",
		Short:         "Voice productivity dashboard: todos, reminders, calendar and a voice assistant",
		Long:          "voxdash keeps todos, reminders and calendar events in a local store and lets you talk to a voice assistant about them. Run without a subcommand to open the dashboard.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return app.wire(cmd.Context(), *opts)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return app.close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, app)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "path to a config file (default: config.yaml in the data directory)")
	flags.StringVar(&opts.as, "as", "", "sign in as this user email before running the command")
	flags.BoolVar(&opts.asJSON, "json", false, "write command output as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newTodoCmd(app),
		newReminderCmd(app),
		newEventCmd(app),
		newUserCmd(app),
		newRemoteCmd(app),
		newExportCmd(app),
	)

	return rootCmd
}
