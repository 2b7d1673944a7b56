package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/eventbot/core/config"
	coredatabase "github.com/m3rciful/eventbot/core/database"
	"github.com/m3rciful/eventbot/core/logger"
	"github.com/m3rciful/eventbot/internal/diary"
	"github.com/m3rciful/eventbot/internal/store"
)

// Options control the bootstrap pipeline. Zero hooks use the real implementations.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coreconfig.DatabaseConfig) (*sqlx.DB, error)
	Migrate    func(coreconfig.DatabaseConfig) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	// DB is nil for the memory driver.
	DB    *sqlx.DB
	Store diary.Store
}

// Close releases the database pool, if any.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Run initializes the logger and opens the store selected by storage.driver.
// The postgres driver connects and migrates first; a failed migration closes the pool.
func Run(opts Options) (*Result, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("bootstrap: nil config")
	}
	initLogger := opts.LoggerInit
	if initLogger == nil {
		initLogger = logger.InitLogger
	}
	if err := initLogger(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: init logger: %w", err)
	}

	switch cfg.Storage.Driver {
	case coreconfig.StorageMemory:
		logger.LogEvent(context.Background(), logger.DB, slog.LevelWarn, "store.select",
			slog.String("db", coreconfig.StorageMemory),
			slog.String("cause", "entries are lost on restart"),
		)
		return &Result{Store: store.NewMemory()}, nil
	case coreconfig.StoragePostgres:
		return openPostgres(cfg.Database, opts)
	}
	return nil, fmt.Errorf("bootstrap: unsupported storage driver %q", cfg.Storage.Driver)
}

func openPostgres(dbCfg coreconfig.DatabaseConfig, opts Options) (*Result, error) {
	connect, migrate := opts.Connect, opts.Migrate
	if connect == nil {
		connect = coredatabase.Connect
	}
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	db, err := connect(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect: %w", err)
	}
	if err := migrate(dbCfg); err != nil {
		return nil, errors.Join(fmt.Errorf("bootstrap: migrate: %w", err), db.Close())
	}
	return &Result{DB: db, Store: store.NewPostgres(db)}, nil
}
