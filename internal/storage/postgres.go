package storage

import (
	"context"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// Postgres driver names accepted by NewPostgresStore
const (
	DriverPgx = "pgx"
	DriverPq  = "postgres"
)

// PostgresStore implements storage using PostgreSQL
type PostgresStore struct {
	sqlStore
}

// NewPostgresStore creates a new PostgreSQL storage. driver selects pgx
// (default) or lib/pq.
func NewPostgresStore(ctx context.Context, dsn, driver string, logger *logrus.Logger) (*PostgresStore, error) {
	if driver == "" {
		driver = DriverPgx
	}
	if driver != DriverPgx && driver != DriverPq {
		return nil, fmt.Errorf("unsupported postgres driver %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := applySchema(ctx, db, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	if logger != nil {
		logger.WithField("driver", driver).Debug("opened postgres statistics store")
	}

	return &PostgresStore{sqlStore: sqlStore{db: db, logger: logger}}, nil
}
