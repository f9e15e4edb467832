package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rebelice/lazyview/internal/fieldtypes"
	"github.com/rebelice/lazyview/internal/models"
)

func testExporter() (*Exporter, []models.Row) {
	fields := []models.Field{
		{ID: 1, Name: "name", Type: models.FieldTypeText, Primary: true},
		{ID: 2, Name: "count", Type: models.FieldTypeNumber, NumberDecimalPlaces: 2},
		{ID: 3, Name: "done", Type: models.FieldTypeBoolean},
	}
	rows := []models.Row{
		{ID: 1, Order: decimal.NewFromInt(1), Values: map[string]any{"field_1": "Alice, \"A\"", "field_2": 3, "field_3": true}},
		{ID: 2, Order: decimal.NewFromInt(2), Values: map[string]any{"field_1": "日本", "field_2": nil, "field_3": false}},
	}
	return New(fieldtypes.Default(), fields), rows
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{"csv": FormatCSV, " JSON ": FormatJSON, "table": FormatTable, "": FormatTable}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil {
			t.Fatalf("ParseFormat(%q) failed: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseFormat(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := ParseFormat("xml"); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestWriteCSV(t *testing.T) {
	e, rows := testExporter()

	var buf bytes.Buffer
	if err := e.WriteCSV(&buf, rows); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}

	if len(records) != 3 { // header + 2 rows
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	want := [][]string{
		{"id", "name", "count", "done"},
		{"1", "Alice, \"A\"", "3.00", "true"},
		{"2", "日本", "", "false"},
	}
	for i := range want {
		if strings.Join(records[i], "|") != strings.Join(want[i], "|") {
			t.Errorf("Record %d: expected %v, got %v", i, want[i], records[i])
		}
	}
}

func TestWriteJSON(t *testing.T) {
	e, rows := testExporter()

	var buf bytes.Buffer
	if err := e.WriteJSON(&buf, rows); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var decoded []models.Row
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(decoded))
	}
	if decoded[0].ID != 1 || decoded[0].Values["field_1"] != "Alice, \"A\"" {
		t.Errorf("Unexpected first row: %+v", decoded[0])
	}
	if !decoded[1].Order.Equal(decimal.NewFromInt(2)) {
		t.Errorf("Expected order 2, got %s", decoded[1].Order)
	}

	buf.Reset()
	if err := e.WriteJSON(&buf, nil); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("Expected empty array, got %q", buf.String())
	}
}

func TestWriteTable(t *testing.T) {
	e, rows := testExporter()

	var buf bytes.Buffer
	if err := e.WriteTable(&buf, rows); err != nil {
		t.Fatalf("WriteTable failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	want := []string{
		"id | name       | count | done",
		"---+------------+-------+------",
		"1  | Alice, \"A\" | 3.00  | true",
		"2  | 日本       |       | false",
	}
	if len(lines) != len(want) {
		t.Fatalf("Expected %d lines, got %d:\n%s", len(want), len(lines), buf.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("Line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestWriteTableTruncatesLongCells(t *testing.T) {
	e, _ := testExporter()
	rows := []models.Row{{ID: 1, Values: map[string]any{"field_1": strings.Repeat("x", 100)}}}

	var buf bytes.Buffer
	if err := e.WriteTable(&buf, rows); err != nil {
		t.Fatalf("WriteTable failed: %v", err)
	}
	if !strings.Contains(buf.String(), strings.Repeat("x", MaxCellWidth-3)+"...") {
		t.Errorf("Expected truncated cell, got:\n%s", buf.String())
	}
}

func TestExportToFile(t *testing.T) {
	e, rows := testExporter()
	path := filepath.Join(t.TempDir(), "rows.csv")

	if err := e.ExportToFile(path, FormatCSV, rows); err != nil {
		t.Fatalf("ExportToFile failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}
	if info.Mode().Perm()&0600 != 0600 {
		t.Errorf("Expected owner read/write permissions, got %o", info.Mode().Perm())
	}

	if err := e.ExportToFile(path, Format("xml"), rows); err == nil {
		t.Error("Expected error for unknown format")
	}
}
