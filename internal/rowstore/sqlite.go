package rowstore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added meal_plan_id default on shopping_list
const currentSchemaVersion = 1

// SQLite is a Client backed by a local SQLite database.
//
// Uses WAL mode for concurrent read access. SQLite only supports one writer
// at a time, so the connection pool is pinned to a single connection to avoid
// SQLITE_BUSY errors.
type SQLite struct {
	db *sql.DB
}

var _ Client = (*SQLite)(nil)

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema automatically; safe to call
// multiple times. Use ":memory:" for an ephemeral database.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Single writer to avoid SQLITE_BUSY errors
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer the Client methods.
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// Select returns all rows of table matching the filters.
//
// Rows are ordered by rowid so that results are deterministic and follow
// insertion order, which the shopping-list algorithms rely on.
func (s *SQLite) Select(ctx context.Context, table string, filters ...Filter) ([]Row, error) {
	if !identOK(table) {
		return nil, remoteErr("select", fmt.Errorf("invalid table name %q", table))
	}

	where, params, err := compileWhere(filters)
	if err != nil {
		return nil, remoteErr("select "+table, err)
	}

	query := fmt.Sprintf("SELECT * FROM %s%s ORDER BY rowid ASC", table, where)
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, remoteErr("select "+table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, remoteErr("select "+table, err)
	}

	out := []Row{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, remoteErr("scan "+table, err)
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, remoteErr("iterate "+table, err)
	}

	return out, nil
}

// InsertMany inserts the given rows in one transaction.
//
// Every row must carry the same column set; the batch either fully persists
// or not at all.
func (s *SQLite) InsertMany(ctx context.Context, table string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	if !identOK(table) {
		return remoteErr("insert", fmt.Errorf("invalid table name %q", table))
	}

	// Columns from the first row, sorted for deterministic SQL.
	cols := make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		if !identOK(col) {
			return remoteErr("insert "+table, fmt.Errorf("invalid column name %q", col))
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	placeholders := strings.Repeat("?, ", len(cols)-1) + "?"
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), placeholders)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return remoteErr("insert "+table, err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return remoteErr("insert "+table, err)
	}
	defer stmt.Close()

	for _, row := range rows {
		params := make([]any, len(cols))
		for i, col := range cols {
			v, ok := row[col]
			if !ok {
				return remoteErr("insert "+table, fmt.Errorf("row missing column %q", col))
			}
			params[i] = v
		}
		if _, err := stmt.ExecContext(ctx, params...); err != nil {
			return remoteErr("insert "+table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return remoteErr("insert "+table, err)
	}
	return nil
}

// UpdateWhere applies patch to every row matching the filters.
func (s *SQLite) UpdateWhere(ctx context.Context, table string, patch Row, filters ...Filter) error {
	if !identOK(table) {
		return remoteErr("update", fmt.Errorf("invalid table name %q", table))
	}
	if len(patch) == 0 {
		return remoteErr("update "+table, fmt.Errorf("empty patch"))
	}

	cols := make([]string, 0, len(patch))
	for col := range patch {
		if !identOK(col) {
			return remoteErr("update "+table, fmt.Errorf("invalid column name %q", col))
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, len(cols))
	params := make([]any, 0, len(cols)+len(filters))
	for i, col := range cols {
		sets[i] = col + " = ?"
		params = append(params, patch[col])
	}

	where, whereParams, err := compileWhere(filters)
	if err != nil {
		return remoteErr("update "+table, err)
	}
	params = append(params, whereParams...)

	query := fmt.Sprintf("UPDATE %s SET %s%s", table, strings.Join(sets, ", "), where)
	if _, err := s.db.ExecContext(ctx, query, params...); err != nil {
		return remoteErr("update "+table, err)
	}
	return nil
}

// DeleteWhere deletes every row matching the filters.
func (s *SQLite) DeleteWhere(ctx context.Context, table string, filters ...Filter) error {
	if !identOK(table) {
		return remoteErr("delete", fmt.Errorf("invalid table name %q", table))
	}

	where, params, err := compileWhere(filters)
	if err != nil {
		return remoteErr("delete "+table, err)
	}

	query := fmt.Sprintf("DELETE FROM %s%s", table, where)
	if _, err := s.db.ExecContext(ctx, query, params...); err != nil {
		return remoteErr("delete "+table, err)
	}
	return nil
}

// normalizeValue maps driver values onto the Row value types.
// The sqlite3 driver returns []byte for TEXT columns read through SELECT *.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and records the schema
// version. Idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}

	return nil
}
