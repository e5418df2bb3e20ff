package kv

import (
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/amirbrooks/ticket-tracker/internal/fsutil"
)

// SQLiteOptions configures OpenSQLite.
type SQLiteOptions struct {
	// Limit is the byte quota over all keys and values. Zero disables it.
	Limit int64
	// Logger receives open and write events. Nil discards.
	Logger *slog.Logger
}

// SQLite keeps every key in one table of a single database file. It holds
// one connection and is not safe for concurrent use.
type SQLite struct {
	conn   *sqlite.Conn
	path   string
	limit  int64
	logger *slog.Logger
}

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// OpenSQLite opens (creating if needed) the database at path. Use
// ":memory:" for a throwaway database.
func OpenSQLite(path string, opts SQLiteOptions) (*SQLite, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if path != ":memory:" {
		path = fsutil.ExpandHome(path)
	}
	conn, err := sqlite.OpenConn(path)
	if err != nil {
		return nil, fmt.Errorf("kv: opening %s: %w", path, err)
	}
	for _, stmt := range []string{"PRAGMA busy_timeout=5000", schema} {
		if err := sqlitex.ExecuteTransient(conn, stmt, nil); err != nil {
			conn.Close()
			return nil, fmt.Errorf("kv: preparing %s: %w", path, err)
		}
	}
	logger.Debug("kv database opened", "backend", "sqlite", "path", path)
	return &SQLite{conn: conn, path: path, limit: opts.Limit, logger: logger}, nil
}

// Close releases the connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

func (s *SQLite) Get(key string) (value string, ok bool, err error) {
	err = sqlitex.Execute(s.conn, "SELECT value FROM kv WHERE key = ?", &sqlitex.ExecOptions{
		Args: []any{key},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			value = stmt.ColumnText(0)
			ok = true
			return nil
		},
	})
	if err != nil {
		return "", false, fmt.Errorf("kv: get %s: %w", key, err)
	}
	return value, ok, nil
}

func (s *SQLite) Set(key, value string) (err error) {
	if err := validateKey(key); err != nil {
		return err
	}
	endTransaction, err := sqlitex.ImmediateTransaction(s.conn)
	if err != nil {
		return fmt.Errorf("kv: begin: %w", err)
	}
	defer endTransaction(&err)

	if s.limit > 0 {
		var used, current int64
		err = sqlitex.Execute(s.conn,
			`SELECT COALESCE(SUM(length(CAST(key AS BLOB)) + length(CAST(value AS BLOB))), 0),
			        COALESCE(SUM(CASE WHEN key = ? THEN length(CAST(key AS BLOB)) + length(CAST(value AS BLOB)) ELSE 0 END), 0)
			 FROM kv`,
			&sqlitex.ExecOptions{
				Args: []any{key},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					used = stmt.ColumnInt64(0)
					current = stmt.ColumnInt64(1)
					return nil
				},
			})
		if err != nil {
			return fmt.Errorf("kv: usage: %w", err)
		}
		if err = quotaCheck(s.limit, used, current, int64(len(key)+len(value))); err != nil {
			return err
		}
	}

	err = sqlitex.Execute(s.conn,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		&sqlitex.ExecOptions{Args: []any{key, value}})
	if err != nil {
		return fmt.Errorf("kv: set %s: %w", key, err)
	}
	s.logger.Debug("kv value written", "backend", "sqlite", "key", key, "bytes", len(value))
	return nil
}
