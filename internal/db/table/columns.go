package table

import (
	"github.com/rebelice/lazyview/internal/models"
)

// Column is a table column as reported by the database catalog
type Column struct {
	Name     string
	DataType string
	// Scale is the numeric scale, -1 when unknown
	Scale int
}

// TypeMapper picks the field type and attributes for a column
type TypeMapper func(c Column) models.Field

// FieldsFromColumns converts catalog columns into fields. Field ids follow
// the column position starting at 1 and the first column is primary.
func FieldsFromColumns(cols []Column, mapType TypeMapper) []models.Field {
	fields := make([]models.Field, 0, len(cols))
	for i, c := range cols {
		f := mapType(c)
		f.ID = int64(i + 1)
		f.Name = c.Name
		f.Column = c.Name
		f.Primary = i == 0
		fields = append(fields, f)
	}
	return fields
}
