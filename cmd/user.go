package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errNotSignedIn = errors.New("not signed in (use --as <email>)")

func newUserCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "user",
		Aliases: []string{"users"},
		Short:   "Inspect the user directory",
	}

	cmd.AddCommand(
		newUserListCmd(app),
		newUserWhoamiCmd(app),
	)

	return cmd
}

func newUserListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			users := app.directory.Users()
			if app.asJSON {
				return writeJSON(cmd, users)
			}
			for _, u := range users {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", u.Email, u.FullName(), u.Phone)
			}
			return nil
		},
	}
}

func newUserWhoamiCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, ok := app.directory.Current()
			if !ok {
				return errNotSignedIn
			}
			return writeResult(cmd, app, u, "%s <%s>", u.FullName(), u.Email)
		},
	}
}
