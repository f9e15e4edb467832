package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Field types known to the built-in registry
const (
	FieldTypeText           = "text"
	FieldTypeLongText       = "long_text"
	FieldTypeURL            = "url"
	FieldTypeEmail          = "email"
	FieldTypePhoneNumber    = "phone_number"
	FieldTypeNumber         = "number"
	FieldTypeRating         = "rating"
	FieldTypeAutonumber     = "autonumber"
	FieldTypeBoolean        = "boolean"
	FieldTypeDate           = "date"
	FieldTypeDuration       = "duration"
	FieldTypeSingleSelect   = "single_select"
	FieldTypeMultipleSelect = "multiple_select"
)

// Field describes a table column as seen by the view engine
type Field struct {
	ID      int64  `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Type    string `json:"type" yaml:"type"`
	Primary bool   `json:"primary" yaml:"primary"`

	// Type specific attributes
	NumberDecimalPlaces int            `json:"number_decimal_places,omitempty" yaml:"number_decimal_places,omitempty"`
	NumberNegative      bool           `json:"number_negative,omitempty" yaml:"number_negative,omitempty"`
	DateIncludeTime     bool           `json:"date_include_time,omitempty" yaml:"date_include_time,omitempty"`
	DateForceTimezone   string         `json:"date_force_timezone,omitempty" yaml:"date_force_timezone,omitempty"`
	DurationFormat      string         `json:"duration_format,omitempty" yaml:"duration_format,omitempty"`
	SelectOptions       []SelectOption `json:"select_options,omitempty" yaml:"select_options,omitempty"`
	MaxValue            int            `json:"max_value,omitempty" yaml:"max_value,omitempty"`
	ReadOnly            bool           `json:"read_only,omitempty" yaml:"read_only,omitempty"`

	// Column is the source column name when the field was discovered from a database table
	Column string `json:"-" yaml:"-"`
}

// SelectOption is a choice of a single or multiple select field
type SelectOption struct {
	ID    int64  `json:"id" yaml:"id"`
	Value string `json:"value" yaml:"value"`
	Color string `json:"color" yaml:"color"`
}

// Key returns the row value key of the field, e.g. "field_12"
func (f Field) Key() string {
	return FieldKey(f.ID)
}

// FieldKey builds the row value key for a field id
func FieldKey(id int64) string {
	return fmt.Sprintf("field_%d", id)
}

// ParseFieldKey extracts the field id out of a "field_<id>" key
func ParseFieldKey(key string) (int64, bool) {
	if !strings.HasPrefix(key, "field_") {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(key, "field_"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// FindField returns the field with the given id
func FindField(fields []Field, id int64) (Field, bool) {
	for _, f := range fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// OptionByID returns the select option with the given id
func (f Field) OptionByID(id int64) (SelectOption, bool) {
	for _, o := range f.SelectOptions {
		if o.ID == id {
			return o, true
		}
	}
	return SelectOption{}, false
}

// OptionIndex returns the position of the option in the field, or -1
func (f Field) OptionIndex(id int64) int {
	for i, o := range f.SelectOptions {
		if o.ID == id {
			return i
		}
	}
	return -1
}
