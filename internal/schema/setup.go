package schema

import (
	"context"
	"database/sql"
	"time"

	"github.com/dbsmedya/historytracker/internal/config"
	"github.com/dbsmedya/historytracker/internal/logger"
	"github.com/dbsmedya/historytracker/internal/store"
	"github.com/dbsmedya/historytracker/internal/tracker"
)

// RegistryOptions derives registry options from the tracking section.
func RegistryOptions(cfg *config.Config, log *logger.Logger) []tracker.RegistryOption {
	return []tracker.RegistryOption{
		tracker.WithIgnoredAttributes(cfg.Tracking.IgnoredAttributes...),
		tracker.WithRegistryLogger(log),
	}
}

// RecorderOptions derives recorder options from the tracking section.
func RecorderOptions(cfg *config.Config, log *logger.Logger) []tracker.RecorderOption {
	opts := []tracker.RecorderOption{tracker.WithLogger(log)}
	if cfg.Tracking.CaptureTimeoutSeconds > 0 {
		timeout := time.Duration(cfg.Tracking.CaptureTimeoutSeconds * float64(time.Second))
		opts = append(opts, tracker.WithCaptureTimeout(timeout))
	}
	return opts
}

// Tracker is a registry, recorder and MySQL history store built from one
// configuration file.
type Tracker struct {
	Inspector *Inspector
	Registry  *tracker.Registry
	Recorder  *tracker.Recorder
	Store     *store.MySQLStore
	Configs   []*tracker.Configuration
}

// Setup registers every configured entity against its live table definition
// and returns a recorder writing to the configured history table. The
// history table itself is not created; see MySQLStore.InitializeTable.
func Setup(ctx context.Context, db *sql.DB, cfg *config.Config, log *logger.Logger) (*Tracker, error) {
	if log == nil {
		log = logger.NewDefault()
	}

	inspector, err := NewInspector(db, cfg.HistoryStore.Database, log)
	if err != nil {
		return nil, err
	}
	historyStore, err := store.NewMySQLStore(db, cfg.Tracking.Table, log)
	if err != nil {
		return nil, err
	}

	registry := tracker.NewRegistry(RegistryOptions(cfg, log)...)
	configs, err := RegisterAll(ctx, registry, inspector, cfg)
	if err != nil {
		return nil, err
	}

	recorder, err := tracker.NewRecorder(registry, historyStore, RecorderOptions(cfg, log)...)
	if err != nil {
		return nil, err
	}

	return &Tracker{
		Inspector: inspector,
		Registry:  registry,
		Recorder:  recorder,
		Store:     historyStore,
		Configs:   configs,
	}, nil
}
