package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sandeepkv93/voxdash/internal/backend"
	"github.com/sandeepkv93/voxdash/internal/calls"
	"github.com/sandeepkv93/voxdash/internal/config"
	"github.com/sandeepkv93/voxdash/internal/directory"
	"github.com/sandeepkv93/voxdash/internal/logging"
	"github.com/sandeepkv93/voxdash/internal/model"
	"github.com/sandeepkv93/voxdash/internal/provider"
	"github.com/sandeepkv93/voxdash/internal/provider/relay"
	"github.com/sandeepkv93/voxdash/internal/provider/simulated"
	"github.com/sandeepkv93/voxdash/internal/scheduler"
	"github.com/sandeepkv93/voxdash/internal/session"
	"github.com/sandeepkv93/voxdash/internal/storage"
	"github.com/sandeepkv93/voxdash/internal/store"
	"github.com/spf13/viper"
)

type app struct {
	cfg       config.Config
	log       zerolog.Logger
	asJSON    bool
	store     *store.Store
	directory *directory.Directory
	backend   *backend.Client
	session   *session.Controller
	alerts    *scheduler.Engine

	closers []func() error
}

func (a *app) wire(ctx context.Context, opts rootOptions) error {
	cfg, err := config.Load(viper.New(), opts.configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg
	a.asJSON = opts.asJSON

	logger, closeLog, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return fmt.Errorf("wire logger: %w", err)
	}
	a.log = logger
	a.closers = append(a.closers, closeLog)

	snaps, err := a.openSnapshots(cfg.Storage)
	if err != nil {
		return err
	}
	a.store, err = store.Open(ctx, snaps,
		store.WithCommitMode(store.CommitMode(cfg.Store.CommitMode)),
		store.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	a.directory = directory.New(directory.SeedUsers())
	for _, u := range cfg.Users {
		user := model.User{FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, Phone: u.Phone}
		if err := a.directory.Register(user); err != nil {
			return fmt.Errorf("register configured user: %w", err)
		}
	}
	if opts.as != "" {
		if _, err := a.directory.SignIn(opts.as); err != nil {
			return fmt.Errorf("sign in as %s: %w", opts.as, err)
		}
	}

	a.backend = backend.New(cfg.Backend.URL, cfg.Backend.Timeout, logger)

	var (
		p       provider.Provider
		details session.DetailsFetcher
	)
	switch cfg.Provider.Kind {
	case "relay":
		client := relay.New(relay.Config{
			URL:         cfg.Provider.URL,
			APIKey:      cfg.Provider.APIKey,
			VolumeScale: cfg.Provider.VolumeScale,
		}, logger)
		a.closers = append(a.closers, client.Close)
		p = client
		details = calls.New(cfg.Backend.URL, cfg.Backend.Timeout, logger)
	default:
		sim := simulated.New(simulated.Config{}, logger)
		a.closers = append(a.closers, sim.Close)
		p = sim
		details = sim
	}
	a.session = session.New(session.Config{
		AssistantID:  cfg.Provider.AssistantID,
		Functions:    backend.FunctionDefs(),
		UpdateBuffer: cfg.Session.Buffer,
		FetchTimeout: cfg.Backend.Timeout,
	}, p, details, a.directory, logger)
	a.directory.OnSignOut(a.session.Reset)

	a.alerts = scheduler.NewEngine(cfg.Alerts.Buffer)
	a.store.OnChange(func(key string) {
		if key != storage.KeyCalendarEvents {
			return
		}
		if err := a.alerts.Sync(a.store.Events(), cfg.Alerts.Lead); err != nil {
			a.log.Warn().Err(err).Msg("resync calendar alerts")
		}
	})

	logger.Debug().
		Str("storage", cfg.Storage.Driver).
		Str("provider", cfg.Provider.Kind).
		Str("data_dir", cfg.DataDir).
		Msg("app wired")
	return nil
}

func (a *app) openSnapshots(cfg config.StorageConfig) (storage.SnapshotStore, error) {
	switch cfg.Driver {
	case "file":
		snaps, err := storage.NewFileSnapshotStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("wire file snapshots: %w", err)
		}
		return snaps, nil
	default:
		snaps, err := storage.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("wire sqlite snapshots: %w", err)
		}
		a.closers = append(a.closers, snaps.Close)
		return snaps, nil
	}
}

// close runs closers in reverse wiring order.
func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
