package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// sqliteBusyTimeoutMillis lets concurrent ingestions of different
// repositories wait on the write lock instead of failing
const sqliteBusyTimeoutMillis = 5000

// SQLiteStore implements storage using SQLite (for local/development)
type SQLiteStore struct {
	sqlStore
	path string
}

// NewSQLiteStore creates a new SQLite storage
func NewSQLiteStore(path string, logger *logrus.Logger) (*SQLiteStore, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Immediate transactions take the write lock up front, so a day's
	// read-then-write never fails on lock upgrade
	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on&_journal_mode=WAL&_txlock=immediate",
		path, sqliteBusyTimeoutMillis)

	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to sqlite: %w", err)
	}

	if err := applySchema(context.Background(), db, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	if logger != nil {
		logger.WithField("path", path).Debug("opened sqlite statistics store")
	}

	return &SQLiteStore{
		sqlStore: sqlStore{db: db, logger: logger},
		path:     path,
	}, nil
}

// Path returns the database file location
func (s *SQLiteStore) Path() string {
	return s.path
}
