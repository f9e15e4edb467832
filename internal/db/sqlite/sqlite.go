// Package sqlite serves view rows out of a SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rebelice/lazyview/internal/db/table"
	"github.com/rebelice/lazyview/internal/fieldtypes"
	"github.com/rebelice/lazyview/internal/filter"
	"github.com/rebelice/lazyview/internal/models"
)

// DB is a SQLite database file
type DB struct {
	db *sql.DB
}

// Open opens the database at path
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// one connection keeps in-memory databases alive and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// Exec runs a statement without returning rows
func (d *DB) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Query executes a query and returns each row keyed by column name
func (d *DB) Query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// GetTableColumns reads the declared columns of a table
func GetTableColumns(ctx context.Context, q table.Querier, name string) ([]table.Column, error) {
	rows, err := q.Query(ctx, fmt.Sprintf("PRAGMA table_info(%s)", filter.QuoteIdent(name)))
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("table %s not found or has no columns", name)
	}

	columns := make([]table.Column, 0, len(rows))
	for _, row := range rows {
		columns = append(columns, table.Column{
			Name:     fmt.Sprint(Normalize(row["name"])),
			DataType: fmt.Sprint(Normalize(row["type"])),
			Scale:    -1,
		})
	}
	return columns, nil
}

// FieldType maps a declared column type onto a field following the SQLite
// type affinity rules, with dates and booleans recognized by name
func FieldType(c table.Column) models.Field {
	t := strings.ToUpper(c.DataType)
	switch {
	case strings.Contains(t, "BOOL"):
		return models.Field{Type: models.FieldTypeBoolean}
	case strings.Contains(t, "DATETIME") || strings.Contains(t, "TIMESTAMP"):
		return models.Field{Type: models.FieldTypeDate, DateIncludeTime: true}
	case strings.Contains(t, "DATE"):
		return models.Field{Type: models.FieldTypeDate}
	case strings.Contains(t, "INT"):
		return models.Field{Type: models.FieldTypeNumber, NumberNegative: true}
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"), strings.Contains(t, "TEXT"):
		return models.Field{Type: models.FieldTypeText}
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"),
		strings.Contains(t, "NUMERIC"), strings.Contains(t, "DECIMAL"):
		return models.Field{Type: models.FieldTypeNumber, NumberDecimalPlaces: 2, NumberNegative: true}
	default:
		return models.Field{Type: models.FieldTypeText}
	}
}

// Normalize converts driver values: blobs become strings
func Normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// OpenTable discovers the columns of a table and returns a source serving
// view over them
func (d *DB) OpenTable(ctx context.Context, reg *fieldtypes.Registry, name, idColumn string, view models.View) (*table.Source, error) {
	cols, err := GetTableColumns(ctx, d, name)
	if err != nil {
		return nil, err
	}
	fields := table.FieldsFromColumns(cols, FieldType)
	return table.NewSource(d, reg, fields, view, table.Options{
		Table:     name,
		IDColumn:  idColumn,
		Dialect:   filter.DialectSQLite,
		Normalize: Normalize,
	}), nil
}
