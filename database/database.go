package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/retry"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

const (
	defaultBusyTimeout = 5 * time.Second
	openRetryDelay     = 100 * time.Millisecond
	openRetryMaxDelay  = 2 * time.Second
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

type Config struct {
	Driver       string
	Path         string // sqlite file path
	URL          string // postgres connection string
	BusyTimeout  time.Duration
	OpenAttempts int
	Clock        clock.Clock
}

// DB is the single process-wide handle.
type DB struct {
	*sql.DB
	driver string
}

func (db *DB) Driver() string {
	return db.driver
}

func (c Config) dsn() string {
	if c.Driver == DriverPostgres {
		return c.URL
	}
	busy := c.BusyTimeout
	if busy <= 0 {
		busy = defaultBusyTimeout
	}
	path := c.Path
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_foreign_keys=on&_journal_mode=WAL&_busy_timeout=%d&_txlock=immediate",
		path, sep, busy.Milliseconds())
}

// Open opens and pings the database. SQLite contention while opening
// (SQLITE_BUSY, locked WAL) is retried with a doubling delay.
func Open(cfg Config) (*DB, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}
	if cfg.Driver != DriverSQLite && cfg.Driver != DriverPostgres {
		return nil, errors.NotValidf("database driver %q", cfg.Driver)
	}
	attempts := cfg.OpenAttempts
	if attempts < 1 {
		attempts = 1
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.WallClock
	}

	var handle *sql.DB
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			conn, err := sql.Open(cfg.Driver, cfg.dsn())
			if err != nil {
				return err
			}
			if err := conn.Ping(); err != nil {
				conn.Close()
				return err
			}
			handle = conn
			return nil
		},
		IsFatalError: func(err error) bool {
			return !IsErrRetryable(err)
		},
		NotifyFunc: func(err error, attempt int) {
			logrus.Warnf("database open attempt %d failed: %v", attempt, err)
		},
		Attempts:    attempts,
		Delay:       openRetryDelay,
		MaxDelay:    openRetryMaxDelay,
		BackoffFunc: retry.DoubleDelay,
		Clock:       clk,
	})
	if err != nil {
		if retry.IsAttemptsExceeded(err) {
			err = retry.LastError(err)
		}
		return nil, errors.Annotatef(err, "opening %s database", cfg.Driver)
	}

	if cfg.Driver == DriverSQLite {
		// one writer; WAL readers share the same connection
		handle.SetMaxOpenConns(1)
	}
	return &DB{DB: handle, driver: cfg.Driver}, nil
}

// Migrate applies every embedded migration for the handle's driver.
func (db *DB) Migrate() error {
	src, err := iofs.New(migrations, "migrations/"+migrationDir(db.driver))
	if err != nil {
		return errors.Trace(err)
	}

	var m *migrate.Migrate
	switch db.driver {
	case DriverPostgres:
		driver, err := migratepostgres.WithInstance(db.DB, &migratepostgres.Config{})
		if err != nil {
			return errors.Trace(err)
		}
		m, err = migrate.NewWithInstance("iofs", src, DriverPostgres, driver)
		if err != nil {
			return errors.Trace(err)
		}
	default:
		driver, err := migratesqlite.WithInstance(db.DB, &migratesqlite.Config{})
		if err != nil {
			return errors.Trace(err)
		}
		m, err = migrate.NewWithInstance("iofs", src, DriverSQLite, driver)
		if err != nil {
			return errors.Trace(err)
		}
	}
	// m.Close would close the shared handle too, so it is left open.
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return errors.Annotate(err, "running migrations")
	}
	return nil
}

func migrationDir(driver string) string {
	if driver == DriverPostgres {
		return "postgres"
	}
	return "sqlite"
}

// ConnectAndMigrate opens the database and brings the schema up to date.
func ConnectAndMigrate(cfg Config) (*DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Tx runs fn inside a transaction, committing when fn returns nil.
func (db *DB) Tx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Annotate(err, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			if rollBackErr := tx.Rollback(); rollBackErr != nil {
				logrus.Errorf("failed to rollback tx: %s", rollBackErr)
			}
			return
		}
		if commitErr := tx.Commit(); commitErr != nil {
			err = errors.Annotate(commitErr, "failed to commit transaction")
		}
	}()
	return fn(tx)
}

// HealthCheck pings the database and runs a trivial query.
func (db *DB) HealthCheck(ctx context.Context) error {
	if err := db.PingContext(ctx); err != nil {
		return errors.Annotate(err, "database ping failed")
	}
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return errors.Annotate(err, "database query test failed")
	}
	return nil
}

func (db *DB) Shutdown() error {
	return db.Close()
}
