package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/rebelice/lazyview/internal/fieldtypes"
	"github.com/rebelice/lazyview/internal/models"
)

// Format is an output format for view rows
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatTable:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// MaxCellWidth caps the width of a table column
const MaxCellWidth = 40

// Exporter renders rows of a view through the field types of a registry
type Exporter struct {
	reg    *fieldtypes.Registry
	fields []models.Field
}

// New creates an exporter for the given fields
func New(reg *fieldtypes.Registry, fields []models.Field) *Exporter {
	return &Exporter{reg: reg, fields: fields}
}

// Cell renders a single value the way it is searched and displayed
func (e *Exporter) Cell(field models.Field, row models.Row) string {
	v, ok := row.Values[field.Key()]
	if !ok || v == nil {
		return ""
	}
	ft, ok := e.reg.FieldType(field.Type)
	if !ok {
		return fmt.Sprint(v)
	}
	return ft.ToSearchableString(field, v)
}

func (e *Exporter) header() []string {
	header := make([]string, 0, len(e.fields)+1)
	header = append(header, "id")
	for _, f := range e.fields {
		header = append(header, f.Name)
	}
	return header
}

func (e *Exporter) record(row models.Row) []string {
	record := make([]string, 0, len(e.fields)+1)
	record = append(record, strconv.FormatInt(row.ID, 10))
	for _, f := range e.fields {
		record = append(record, e.Cell(f, row))
	}
	return record
}

// Write renders rows in the given format
func (e *Exporter) Write(w io.Writer, format Format, rows []models.Row) error {
	switch format {
	case FormatCSV:
		return e.WriteCSV(w, rows)
	case FormatJSON:
		return e.WriteJSON(w, rows)
	case FormatTable:
		return e.WriteTable(w, rows)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// WriteCSV writes a header of field names followed by one record per row
func (e *Exporter) WriteCSV(w io.Writer, rows []models.Row) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(e.header()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(e.record(row)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteJSON writes the rows in their flat API shape
func (e *Exporter) WriteJSON(w io.Writer, rows []models.Row) error {
	if rows == nil {
		rows = []models.Row{}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rows to JSON: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

// WriteTable writes an aligned plain text table. Wide characters count as
// two columns and long cells are truncated to MaxCellWidth.
func (e *Exporter) WriteTable(w io.Writer, rows []models.Row) error {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, e.header())
	for _, row := range rows {
		records = append(records, e.record(row))
	}

	widths := make([]int, len(records[0]))
	for i, rec := range records {
		for j, cell := range rec {
			cell = strings.ReplaceAll(cell, "\n", " ")
			if runewidth.StringWidth(cell) > MaxCellWidth {
				cell = runewidth.Truncate(cell, MaxCellWidth, "...")
			}
			records[i][j] = cell
			if cw := runewidth.StringWidth(cell); cw > widths[j] {
				widths[j] = cw
			}
		}
	}

	var sb strings.Builder
	writeLine := func(rec []string) {
		for j, cell := range rec {
			if j > 0 {
				sb.WriteString(" | ")
			}
			if j == len(rec)-1 {
				sb.WriteString(cell)
			} else {
				sb.WriteString(runewidth.FillRight(cell, widths[j]))
			}
		}
		sb.WriteString("\n")
	}

	writeLine(records[0])
	for j, width := range widths {
		if j > 0 {
			sb.WriteString("-+-")
		}
		sb.WriteString(strings.Repeat("-", width))
	}
	sb.WriteString("\n")
	for _, rec := range records[1:] {
		writeLine(rec)
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return nil
}

// ExportToFile writes rows to path in the given format
func (e *Exporter) ExportToFile(path string, format Format, rows []models.Row) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return e.Write(file, format, rows)
}
