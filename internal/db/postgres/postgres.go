// Package postgres serves view rows out of a PostgreSQL table.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/rebelice/lazyview/internal/db/table"
	"github.com/rebelice/lazyview/internal/duration"
	"github.com/rebelice/lazyview/internal/fieldtypes"
	"github.com/rebelice/lazyview/internal/filter"
	"github.com/rebelice/lazyview/internal/models"
)

// GetTableColumns retrieves column metadata for a table
func GetTableColumns(ctx context.Context, q table.Querier, schema, name string) ([]table.Column, error) {
	query := `
		SELECT
			column_name,
			data_type,
			COALESCE(numeric_scale, -1) AS numeric_scale
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`

	rows, err := q.Query(ctx, query, schema, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("table %s.%s not found or has no columns", schema, name)
	}

	columns := make([]table.Column, 0, len(rows))
	for _, row := range rows {
		scale := -1
		if n, ok := Normalize(row["numeric_scale"]).(int64); ok {
			scale = int(n)
		}
		columns = append(columns, table.Column{
			Name:     fmt.Sprint(row["column_name"]),
			DataType: fmt.Sprint(row["data_type"]),
			Scale:    scale,
		})
	}
	return columns, nil
}

// FieldType maps an information_schema data type onto a field
func FieldType(c table.Column) models.Field {
	switch strings.ToLower(c.DataType) {
	case "smallint", "integer", "bigint":
		return models.Field{Type: models.FieldTypeNumber, NumberNegative: true}
	case "numeric", "real", "double precision", "money":
		places := 2
		if c.Scale >= 0 {
			places = c.Scale
		}
		return models.Field{Type: models.FieldTypeNumber, NumberDecimalPlaces: places, NumberNegative: true}
	case "boolean":
		return models.Field{Type: models.FieldTypeBoolean}
	case "date":
		return models.Field{Type: models.FieldTypeDate}
	case "timestamp without time zone", "timestamp with time zone":
		return models.Field{Type: models.FieldTypeDate, DateIncludeTime: true}
	case "interval":
		return models.Field{Type: models.FieldTypeDuration, DurationFormat: string(duration.FormatHMS)}
	case "json", "jsonb", "xml":
		return models.Field{Type: models.FieldTypeLongText, ReadOnly: true}
	default:
		return models.Field{Type: models.FieldTypeText}
	}
}

// Normalize converts values decoded by pgx into values the field types
// understand: integers become int64, numerics decimals, intervals seconds,
// uuids and json documents strings.
func Normalize(v any) any {
	switch val := v.(type) {
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case int:
		return int64(val)
	case float32:
		return float64(val)
	case pgtype.Numeric:
		if !val.Valid {
			return nil
		}
		dv, err := val.Value()
		if err != nil {
			return nil
		}
		s, _ := dv.(string)
		if d, err := decimal.NewFromString(s); err == nil {
			return d
		}
		return s
	case pgtype.Interval:
		if !val.Valid {
			return nil
		}
		days := int64(val.Days) + int64(val.Months)*30
		return float64(val.Microseconds)/1e6 + float64(days*86400)
	case [16]byte:
		return uuid.UUID(val).String()
	case time.Time:
		return val
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	case []byte:
		return string(val)
	default:
		return v
	}
}

// Open discovers the columns of schema.name and returns a source serving
// view over them
func Open(ctx context.Context, q table.Querier, reg *fieldtypes.Registry, schema, name, idColumn string, view models.View) (*table.Source, error) {
	if schema == "" {
		schema = "public"
	}
	cols, err := GetTableColumns(ctx, q, schema, name)
	if err != nil {
		return nil, err
	}
	fields := table.FieldsFromColumns(cols, FieldType)
	return table.NewSource(q, reg, fields, view, table.Options{
		Schema:    schema,
		Table:     name,
		IDColumn:  idColumn,
		Dialect:   filter.DialectPostgres,
		Normalize: Normalize,
	}), nil
}
