package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/voxdash/internal/update"
	"github.com/spf13/cobra"
)

func runTUI(cmd *cobra.Command, app *app) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := app.session.Run(ctx); err != nil && ctx.Err() == nil {
			app.log.Error().Err(err).Msg("session controller stopped")
		}
	}()

	stopMetrics := app.serveMetrics(app.cfg.Metrics.Addr)
	defer stopMetrics()

	app.alerts.Start()
	defer app.alerts.Stop()
	if err := app.alerts.Sync(app.store.Events(), app.cfg.Alerts.Lead); err != nil {
		app.log.Warn().Err(err).Msg("schedule calendar alerts")
	}

	model := update.NewModel(update.Deps{
		Store:       app.store,
		Directory:   app.directory,
		Session:     app.session,
		Alerts:      app.alerts,
		Log:         app.log,
		CallTimeout: app.cfg.Backend.Timeout,
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	cancel()
	<-done
	if err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}
