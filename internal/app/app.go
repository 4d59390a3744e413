package app

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"SpectraDL/internal/config"
	"SpectraDL/internal/infrastructure/dace"
	"SpectraDL/internal/infrastructure/simbad"
	"SpectraDL/internal/infrastructure/storage"
	"SpectraDL/internal/logging"
	"SpectraDL/internal/ports"
	"SpectraDL/internal/star"
)

// Application wires config to the archive and catalog adapters and hands out
// Star instances for targets.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	archive ports.ArchiveClient
	catalog ports.CatalogClient
	ledger  ports.DownloadLedger
	db      *sql.DB
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	a := &Application{
		cfg:     cfg,
		logger:  baseLogger,
		archive: dace.NewClient(cfg.Archive, baseLogger.With("component", "dace")),
		catalog: simbad.NewClient(cfg.Catalog, baseLogger.With("component", "simbad")),
	}

	if cfg.Database.DSN != "" {
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open ledger database: %w", err)
		}
		a.db = db
		a.ledger = storage.NewPostgresLedger(db)
	}

	return a, nil
}

// Star builds the entity for one named target. Each call returns a fresh
// instance with an empty cache.
func (a *Application) Star(name string) *star.Star {
	return star.New(
		star.Params{
			Name:          name,
			PipelineHints: a.cfg.PipelineHints,
			Profile:       a.cfg.Archive.Profile,
		},
		star.Deps{
			Archive: a.archive,
			Catalog: a.catalog,
			Ledger:  a.ledger,
			Logger:  a.logger.With("component", "star", "target", name),
		},
	)
}

// Config exposes the loaded configuration.
func (a *Application) Config() config.Config { return a.cfg }

// Close releases the ledger connection, if any.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
