package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// databaseFile is the name of the sqlite database inside the data directory.
const databaseFile = "cadence.db"

// SQLiteStore passes statements through to an embedded sqlite database.
// It enforces the same closed statement grammar as the interpreted backend
// by parsing every statement first, so a statement that one backend rejects
// is rejected by both.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database file under dir and
// enables foreign-key enforcement.
func OpenSQLite(dir string) (*SQLiteStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	path := filepath.Join(dir, databaseFile)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps last_insert_rowid() attached to the insert
	// that produced it.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Execute runs one statement. Reads return rows; writes return change
// counts, with LastID populated after inserts.
func (s *SQLiteStore) Execute(ctx context.Context, statement string, params []any) (*Result, error) {
	p, err := parseStatement(statement)
	if err != nil {
		return nil, err
	}

	switch p.kind {
	case kindSelect, kindPragma:
		return s.query(ctx, statement, params)
	case kindInsert:
		res, err := s.db.ExecContext(ctx, statement, params...)
		if err != nil {
			return nil, fmt.Errorf("executing insert: %w", err)
		}
		changes, _ := res.RowsAffected()
		var lastID int64
		if err := s.db.QueryRowContext(ctx, "SELECT last_insert_rowid()").Scan(&lastID); err != nil {
			return nil, fmt.Errorf("reading last insert id: %w", err)
		}
		return &Result{Changes: Changes{Changes: changes, LastID: lastID}}, nil
	default:
		res, err := s.db.ExecContext(ctx, statement, params...)
		if err != nil {
			return nil, fmt.Errorf("executing statement: %w", err)
		}
		changes, _ := res.RowsAffected()
		return &Result{Changes: Changes{Changes: changes}}, nil
	}
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) query(ctx context.Context, statement string, params []any) (*Result, error) {
	rows, err := s.db.QueryContext(ctx, statement, params...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	result := &Result{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			row[normalizeColumn(col)] = normalizeScanned(values[i])
		}
		result.Values = append(result.Values, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return result, nil
}

// normalizeColumn strips a table prefix from a result column name so both
// backends hand back identical keys.
func normalizeColumn(col string) string {
	if idx := strings.LastIndexByte(col, '.'); idx >= 0 {
		return col[idx+1:]
	}
	return col
}

// normalizeScanned folds driver types into the shared value set: byte
// slices become strings so text columns compare the same on both backends.
func normalizeScanned(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
