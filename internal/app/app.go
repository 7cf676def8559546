package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/a-luna/vigorish-sub003/internal/config"
	"github.com/a-luna/vigorish-sub003/internal/domain/patch"
	"github.com/a-luna/vigorish-sub003/internal/domain/reconcile"
	"github.com/a-luna/vigorish-sub003/internal/domain/status"
	"github.com/a-luna/vigorish-sub003/internal/infrastructure/repository/memory"
	"github.com/a-luna/vigorish-sub003/internal/infrastructure/repository/postgres"
	"github.com/a-luna/vigorish-sub003/internal/infrastructure/storage/jsonfile"
	"github.com/a-luna/vigorish-sub003/internal/platform/logging"
	"github.com/a-luna/vigorish-sub003/internal/platform/metrics"
	"github.com/a-luna/vigorish-sub003/internal/usecase"
)

// App is the wired set of services used by the CLI.
type App struct {
	Config    config.Config
	Reconcile *usecase.ReconcileService
	Status    *usecase.StatusService
	Patches   *patch.Registry
	Metrics   *metrics.Recorder
	Logger    *logging.Logger

	db *sqlx.DB
}

// New wires the services. Without a db_url the status store lives in
// memory for the life of the process.
func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	inputs, err := jsonfile.NewStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open input store: %w", err)
	}

	registry, err := jsonfile.LoadPatches(cfg.PatchDir)
	if err != nil {
		return nil, fmt.Errorf("load patches: %w", err)
	}

	var (
		repo status.Repository
		db   *sqlx.DB
	)
	if cfg.DBURL == "" {
		logger.Info("status store in memory", "reason", "db_url empty")
		repo = memory.NewStatusRepository()
	} else {
		db, err = openDB(cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("status store in postgres", "db_name", dbName(cfg.DBURL), "dsn", redactDSN(DSN(cfg)))
		repo = postgres.NewStatusRepository(db)
	}

	opts := reconcile.DefaultOptions()
	opts.DuplicateWindow = cfg.DuplicateWindow

	recorder := metrics.NewRecorder()
	statusSvc := usecase.NewStatusService(repo, logger)
	reconcileSvc := usecase.NewReconcileService(
		usecase.ReconcileConfig{Workers: cfg.Workers},
		inputs,
		jsonfile.NewCombinedWriter(cfg.CombinedDir),
		statusSvc,
		registry,
		reconcile.NewEngine(opts),
		recorder,
		logger,
	)

	return &App{
		Config:    cfg,
		Reconcile: reconcileSvc,
		Status:    statusSvc,
		Patches:   registry,
		Metrics:   recorder,
		Logger:    logger,
		db:        db,
	}, nil
}

// Close flushes the metrics textfile and releases the database.
func (a *App) Close(_ context.Context) error {
	var firstErr error
	if err := a.Metrics.WriteTextfile(a.Config.MetricsTextfile); err != nil {
		firstErr = fmt.Errorf("write metrics textfile: %w", err)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close db: %w", err)
		}
	}
	return firstErr
}

func openDB(cfg config.Config) (*sqlx.DB, error) {
	dsn := DSN(cfg)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbName(dsn)),
		otelsql.WithQueryFormatter(formatStatusQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(cfg.Workers + 2)
	return db, nil
}
