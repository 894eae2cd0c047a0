// Package sql stores the header chain in postgres or sqlite.
package sql

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/settings"
	"github.com/bitcoin-sv/btcx/ulogger"
	"github.com/bitcoin-sv/btcx/util"
	"github.com/bitcoin-sv/btcx/util/usql"
	_ "github.com/lib/pq"
	"github.com/ordishs/gocore"
	_ "modernc.org/sqlite"
)

type SQL struct {
	db     *usql.DB
	engine util.SQLEngine
	logger ulogger.Logger
}

func init() {
	gocore.NewStat("headerchain")
}

func New(logger ulogger.Logger, storeURL *url.URL, tSettings *settings.Settings) (*SQL, error) {
	logger = logger.New("hcsql")

	db, err := util.InitSQLDB(logger, storeURL, tSettings)
	if err != nil {
		return nil, errors.NewStorageError("failed to init sql db", err)
	}

	switch util.SQLEngine(storeURL.Scheme) {
	case util.Postgres:
		if err = createSchema(db, postgresSchema); err != nil {
			return nil, errors.NewStorageError("failed to create postgres schema", err)
		}

	case util.Sqlite, util.SqliteMemory:
		if err = createSchema(db, sqliteSchema); err != nil {
			return nil, errors.NewStorageError("failed to create sqlite schema", err)
		}

	default:
		return nil, errors.NewStorageError("unknown database engine: %s", storeURL.Scheme)
	}

	return &SQL{
		db:     db,
		engine: util.SQLEngine(storeURL.Scheme),
		logger: logger,
	}, nil
}

func (s *SQL) GetDB() *usql.DB {
	return s.db
}

func (s *SQL) GetDBEngine() util.SQLEngine {
	return s.engine
}

func (s *SQL) Close() error {
	return s.db.Close()
}

func (s *SQL) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	details := fmt.Sprintf("SQL Engine is %s", s.engine)

	if checkLiveness {
		if err := s.db.PingContext(ctx); err != nil {
			return http.StatusServiceUnavailable, details, errors.NewStorageUnavailableError("ping failed", err)
		}

		return http.StatusOK, details, nil
	}

	var num int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&num); err != nil {
		return http.StatusServiceUnavailable, details, errors.NewStorageUnavailableError("select failed", err)
	}

	return http.StatusOK, details, nil
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS genesis (
	    id                INTEGER PRIMARY KEY
	    ,height           BIGINT NOT NULL
	    ,hash             BYTEA NOT NULL
	    ,n_bits           BYTEA NOT NULL
	    ,block_time       BIGINT NOT NULL
	    ,commitment       BYTEA NULL
	    ,epoch_start_hash BYTEA NULL
	    ,inserted_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS tip (
	    id                INTEGER PRIMARY KEY
	    ,height           BIGINT NOT NULL
	    ,hash             BYTEA NOT NULL
	    ,n_bits           BYTEA NOT NULL
	    ,epoch_height     BIGINT NOT NULL
	    ,epoch_hash       BYTEA NOT NULL
	    ,epoch_time       BIGINT NOT NULL
	    ,chain_work       BYTEA NOT NULL
	    ,updated_at       TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS entries (
	    height            BIGINT PRIMARY KEY
	    ,hash             BYTEA NOT NULL
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_entries_hash ON entries (hash);`,
	`CREATE TABLE IF NOT EXISTS epochs (
	    height            BIGINT PRIMARY KEY
	    ,hash             BYTEA NOT NULL
	    ,block_time       BIGINT NOT NULL
	    ,n_bits           BYTEA NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS submitters (
	    id                VARCHAR(255) PRIMARY KEY
	    ,inserted_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS genesis (
	    id                INTEGER PRIMARY KEY
	    ,height           BIGINT NOT NULL
	    ,hash             BLOB NOT NULL
	    ,n_bits           BLOB NOT NULL
	    ,block_time       BIGINT NOT NULL
	    ,commitment       BLOB NULL
	    ,epoch_start_hash BLOB NULL
	    ,inserted_at      TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS tip (
	    id                INTEGER PRIMARY KEY
	    ,height           BIGINT NOT NULL
	    ,hash             BLOB NOT NULL
	    ,n_bits           BLOB NOT NULL
	    ,epoch_height     BIGINT NOT NULL
	    ,epoch_hash       BLOB NOT NULL
	    ,epoch_time       BIGINT NOT NULL
	    ,chain_work       BLOB NOT NULL
	    ,updated_at       TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS entries (
	    height            BIGINT PRIMARY KEY
	    ,hash             BLOB NOT NULL
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_entries_hash ON entries (hash);`,
	`CREATE TABLE IF NOT EXISTS epochs (
	    height            BIGINT PRIMARY KEY
	    ,hash             BLOB NOT NULL
	    ,block_time       BIGINT NOT NULL
	    ,n_bits           BLOB NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS submitters (
	    id                VARCHAR(255) PRIMARY KEY
	    ,inserted_at      TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
}

func createSchema(db *usql.DB, statements []string) error {
	for _, statement := range statements {
		if _, err := db.Exec(statement); err != nil {
			_ = db.Close()
			return errors.NewStorageError("could not create schema - [%s]", statement, err)
		}
	}

	return nil
}
