package subwaydb

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/omarthenmalai/SubwayScheduler/internal/appconf"
	"github.com/omarthenmalai/SubwayScheduler/internal/logging"
)

//go:embed schema.sql
var ddl string

// Client is the main entry point to the subway stores: the graph store, the
// timetable store, and the trip log all live behind one SQLite handle.
type Client struct {
	config  Config
	DB      *sql.DB
	Queries *Queries
	logger  *slog.Logger
}

// NewClient opens (or creates) the database and applies the schema.
func NewClient(config Config, logger *slog.Logger) (*Client, error) {
	if config.Env == appconf.Test && config.DBPath != ":memory:" {
		return nil, fmt.Errorf("test environment must use an in-memory database, got %q", config.DBPath)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", config.DBPath)
	if config.DBPath == ":memory:" {
		dsn = "file::memory:?_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// An in-memory database exists per connection; keep a single one so
	// every query sees the same data.
	if config.DBPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close() // nolint:errcheck
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrate(context.Background(), db); err != nil {
		db.Close() // nolint:errcheck
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	if config.verbose {
		logger.Info("database opened", "path", config.DBPath)
	}

	return &Client{
		config:  config,
		DB:      db,
		Queries: New(db),
		logger:  logger,
	}, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}

func migrate(ctx context.Context, db *sql.DB) error {
	statements := strings.Split(ddl, "-- migrate")
	for _, stmt := range statements {
		trimmed := strings.TrimSpace(stmt)
		if trimmed == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, trimmed); err != nil {
			return fmt.Errorf("error executing DDL statement [%s]: %w", trimmed, err)
		}
	}
	return nil
}

// Transact runs fn against a Queries instance bound to a single transaction.
// Graph rewiring relies on this so a concurrent reader never observes a
// station mid-detach.
func (c *Client) Transact(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer logging.SafeRollbackWithLogging(tx, c.logger, "subwaydb.Transact")

	if err := fn(c.Queries.WithTx(tx)); err != nil {
		return err
	}
	return tx.Commit()
}
