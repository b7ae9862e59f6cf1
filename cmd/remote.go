package cmd

import (
	"fmt"
	"strings"

	"github.com/sandeepkv93/voxdash/internal/apperr"
	"github.com/sandeepkv93/voxdash/internal/backend"
	"github.com/spf13/cobra"
)

func newRemoteCmd(app *app) *cobra.Command {
	var pairs []string
	cmd := &cobra.Command{
		Use:   "remote <operation>",
		Short: "Invoke an operation on the persistence backend",
		Long:  "remote sends one tool call to the backend, the same way the voice assistant does, and prints the result. Run 'remote ops' to list operations.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op, ok := backend.Lookup(args[0])
			if !ok {
				return apperr.Validation("remote", fmt.Errorf("%w: %s", backend.ErrUnknownOperation, args[0]))
			}
			callArgs, err := parseArgPairs(pairs)
			if err != nil {
				return err
			}
			out, err := app.backend.Invoke(cmd.Context(), op, callArgs)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	cmd.Flags().StringArrayVar(&pairs, "arg", nil, "operation argument as key=value (repeatable)")

	cmd.AddCommand(&cobra.Command{
		Use:   "ops",
		Short: "List backend operations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, op := range backend.Operations() {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", op, op.Path())
			}
			return nil
		},
	})
	return cmd
}

func parseArgPairs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, apperr.Validation("remote", fmt.Errorf("bad --arg %q (want key=value)", p))
		}
		out[k] = v
	}
	return out, nil
}
