package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeResult prints a one-line confirmation, or v as JSON with --json.
func writeResult(cmd *cobra.Command, app *app, v any, format string, args ...any) error {
	if app.asJSON {
		return writeJSON(cmd, v)
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
	return err
}

func sharedList(with []string) string {
	if len(with) == 0 {
		return "-"
	}
	return strings.Join(with, ",")
}

func writeRemote[T any](cmd *cobra.Command, app *app, rows []T, line func(T) string) error {
	if app.asJSON {
		return writeJSON(cmd, rows)
	}
	for _, r := range rows {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), line(r))
	}
	return nil
}
