// Package bootstrap runs the infrastructure start-up shared by bots:
// logger, database connection and schema migrations.
package bootstrap

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/finbot/core/config"
	coredatabase "github.com/m3rciful/finbot/core/database"
	"github.com/m3rciful/finbot/core/logger"
)

// Options control the generic bootstrap pipeline. Nil hooks fall back to the
// core implementations.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config

	LoggerInit func(*coreconfig.Config) error
	Wait       func(dsn string, timeout time.Duration) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	DB *sqlx.DB
}

// Run initializes the logger, optionally waits for the database, connects
// and applies migrations.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	if opts.Database.WaitSeconds > 0 {
		wait := opts.Wait
		if wait == nil {
			wait = coredatabase.WaitForPostgres
		}
		if err := wait(opts.Database.DSN(), time.Duration(opts.Database.WaitSeconds)*time.Second); err != nil {
			return nil, fmt.Errorf("bootstrap: database not reachable: %w", err)
		}
	}

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if err := migrate(opts.Database); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}

	return &Result{DB: db}, nil
}
