package fieldtypes

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rebelice/lazyview/internal/models"
)

// toString converts a cell value into plain text; nil becomes ""
func toString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(val)
	case decimal.Decimal:
		return val.String()
	case time.Time:
		return val.Format(time.RFC3339)
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// toDecimal converts numbers and numeric strings into a decimal
func toDecimal(v any) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return val, true
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero, false
		}
		return *val, true
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		return d, err == nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(s)
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(val), true
	case float32:
		return decimal.NewFromFloat32(val), true
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int32:
		return decimal.NewFromInt32(val), true
	case int64:
		return decimal.NewFromInt(val), true
	case uint32:
		return decimal.NewFromInt(int64(val)), true
	default:
		return decimal.Zero, false
	}
}

func toInt64(v any) (int64, bool) {
	d, ok := toDecimal(v)
	if !ok || !d.IsInteger() {
		return 0, false
	}
	return d.IntPart(), true
}

var truthy = map[string]bool{
	"1": true, "y": true, "t": true, "on": true, "yes": true, "true": true, "checked": true,
}

// toBool mirrors the loose boolean parsing used for filter values and cells
func toBool(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	default:
		return truthy[strings.ToLower(strings.TrimSpace(toString(val)))]
	}
}

// option is a normalized select option cell value
type option struct {
	ID    int64
	Value string
}

func toOption(v any) (option, bool) {
	switch val := v.(type) {
	case nil:
		return option{}, false
	case models.SelectOption:
		return option{ID: val.ID, Value: val.Value}, true
	case *models.SelectOption:
		if val == nil {
			return option{}, false
		}
		return option{ID: val.ID, Value: val.Value}, true
	case map[string]any:
		id, ok := toInt64(val["id"])
		if !ok {
			return option{}, false
		}
		return option{ID: id, Value: toString(val["value"])}, true
	default:
		return option{}, false
	}
}

func toOptions(v any) []option {
	var out []option
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if o, ok := toOption(item); ok {
				out = append(out, o)
			}
		}
	case []map[string]any:
		for _, item := range val {
			if o, ok := toOption(item); ok {
				out = append(out, o)
			}
		}
	case []models.SelectOption:
		for _, item := range val {
			out = append(out, option{ID: item.ID, Value: item.Value})
		}
	}
	return out
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// toTime parses a date cell value. Date only values are returned as midnight
// UTC together with dateOnly=true.
func toTime(v any, field models.Field) (t time.Time, dateOnly bool, ok bool) {
	switch val := v.(type) {
	case nil:
		return time.Time{}, false, false
	case time.Time:
		if !field.DateIncludeTime {
			y, m, d := val.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true, true
		}
		return val, false, true
	}

	s := strings.TrimSpace(toString(v))
	if s == "" {
		return time.Time{}, false, false
	}
	if !field.DateIncludeTime && len(s) >= 10 {
		if d, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return d, true, true
		}
	}
	for _, layout := range dateTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, false, true
		}
	}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d, true, true
	}
	return time.Time{}, false, false
}

// fieldLocation returns the timezone dates of the field are displayed in
func fieldLocation(field models.Field) *time.Location {
	if field.DateForceTimezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(field.DateForceTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func isBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	default:
		return false
	}
}

func sign(order models.SortOrder, cmp int) int {
	if order == models.SortDesc {
		return -cmp
	}
	return cmp
}

// compareNullsFirst orders missing values before present ones
func compareNullsFirst(aOK, bOK bool) (int, bool) {
	switch {
	case !aOK && !bOK:
		return 0, true
	case !aOK:
		return -1, true
	case !bOK:
		return 1, true
	}
	return 0, false
}
