// Package store implements the persistence backend for Cadence: a narrow
// SQL-statement execution surface with two interchangeable implementations,
// one backed by an embedded SQLite engine and one by an interpreted in-memory
// table set with durable snapshotting. Both accept exactly the statement
// shapes the application issues and must behave identically.
package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dukaforge/cadence/pkg/types"
)

// Row is a single result row keyed by column name.
type Row map[string]any

// Changes reports the effect of a mutating statement.
type Changes struct {
	Changes int64 // Rows inserted, updated, or deleted.
	LastID  int64 // Rowid assigned by the last INSERT, 0 otherwise.
}

// Result is the uniform response of Execute for every statement shape.
type Result struct {
	Values  []Row
	Changes Changes
}

// Store is the statement execution surface shared by every record service
// and the aggregator. Implementations must keep the recognized statement
// grammar in sync; it is the internal wire format between the services and
// storage.
type Store interface {
	// Execute runs one statement with positional ? parameters. Statements
	// that match no recognized shape fail with a *ParseError; they are
	// never silently ignored.
	Execute(ctx context.Context, statement string, params []any) (*Result, error)

	// Close releases backend resources. For the interpreted backend this
	// flushes a final snapshot.
	Close() error
}

// ParseError reports a statement that matches no recognized shape. The
// offending statement is echoed so the failing call site is identifiable.
type ParseError struct {
	Statement string
	Detail    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unrecognized statement (%s): %s", e.Detail, e.Statement)
}

// parseErrorf builds a ParseError for the given statement.
func parseErrorf(statement, format string, args ...any) *ParseError {
	return &ParseError{Statement: statement, Detail: fmt.Sprintf(format, args...)}
}

// Open creates the store selected by config. For the sqlite backend the
// database file lives under config.DataDir; for the memory backend the
// snapshot file does.
func Open(config types.Config) (Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch config.Backend {
	case types.BackendSQLite:
		return OpenSQLite(config.DataDir)
	case types.BackendMemory:
		snap, err := NewFileSnapshotStore(config.DataDir)
		if err != nil {
			return nil, err
		}
		return OpenMemory(snap)
	default:
		return nil, types.ErrBackendUnknown
	}
}

// NormalizeBool folds the boolean representations either backend may hand
// back (integer flags from SQLite, strings or bools from a snapshot) into a
// single Go bool. Unrecognized values are false.
func NormalizeBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case int:
		return b != 0
	case int64:
		return b != 0
	case float64:
		return b != 0
	case string:
		return b == "1" || strings.EqualFold(b, "true")
	default:
		return false
	}
}

// AsInt64 converts the numeric representations either backend may return
// into an int64. The second result is false for non-numeric values.
func AsInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// AsString converts a scalar column value to its string form.
// nil becomes the empty string.
func AsString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprintf("%v", s)
	}
}

// ScalarInt extracts the single integer value of a one-row, one-column
// result, as produced by COUNT(*) queries. Missing rows yield zero.
func ScalarInt(res *Result) int64 {
	if res == nil || len(res.Values) == 0 {
		return 0
	}
	for _, v := range res.Values[0] {
		if n, ok := AsInt64(v); ok {
			return n
		}
	}
	return 0
}
