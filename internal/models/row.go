package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Row is a table row. Values are keyed by "field_<id>".
type Row struct {
	ID     int64
	Order  decimal.Decimal
	Values map[string]any

	// Loading marks a placeholder row whose data has not been fetched yet
	Loading bool
}

// NewRow creates a row with an order parsed from a decimal string.
// An unparsable order falls back to zero.
func NewRow(id int64, order string, values map[string]any) Row {
	d, err := decimal.NewFromString(order)
	if err != nil {
		d = decimal.Zero
	}
	if values == nil {
		values = map[string]any{}
	}
	return Row{ID: id, Order: d, Values: values}
}

// Placeholder returns an empty row that is waiting to be fetched
func Placeholder() Row {
	return Row{Values: map[string]any{}, Loading: true}
}

// Value returns the value for key, taking overrides into account first
func (r Row) Value(key string, overrides map[string]any) (any, bool) {
	if overrides != nil {
		if v, ok := overrides[key]; ok {
			return v, true
		}
	}
	v, ok := r.Values[key]
	return v, ok
}

// Clone copies the row and its value map. Values themselves are shared.
func (r Row) Clone() Row {
	cloned := r
	cloned.Values = make(map[string]any, len(r.Values))
	for k, v := range r.Values {
		cloned.Values[k] = v
	}
	return cloned
}

// WithValues returns a clone with the given values applied on top
func (r Row) WithValues(values map[string]any) Row {
	cloned := r.Clone()
	for k, v := range values {
		switch k {
		case "id", "order":
			continue
		}
		cloned.Values[k] = v
	}
	return cloned
}

// MarshalJSON renders the flat API shape {"id":1,"order":"1.00","field_1":...}
func (r Row) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Values)+2)
	for k, v := range r.Values {
		out[k] = v
	}
	out["id"] = r.ID
	out["order"] = r.Order.String()
	return json.Marshal(out)
}

// UnmarshalJSON parses the flat API shape. Numbers are kept as json.Number.
func (r *Row) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("failed to decode row: %w", err)
	}

	row := Row{Values: make(map[string]any, len(raw))}
	for k, v := range raw {
		switch k {
		case "id":
			id, err := toInt64(v)
			if err != nil {
				return fmt.Errorf("invalid row id: %w", err)
			}
			row.ID = id
		case "order":
			d, err := decimal.NewFromString(strings.TrimSpace(fmt.Sprint(v)))
			if err != nil {
				return fmt.Errorf("invalid row order %q: %w", v, err)
			}
			row.Order = d
		default:
			row.Values[k] = v
		}
	}
	*r = row
	return nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		return n.Int64()
	case float64:
		return int64(n), nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
