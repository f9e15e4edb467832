// Package sorting builds row comparators from view sortings and group bys.
package sorting

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rebelice/lazyview/internal/fieldtypes"
	"github.com/rebelice/lazyview/internal/models"
)

// BuildRowComparator chains group bys, sortings and the fixed order and id
// tiebreakers into one comparator. Entries referencing a missing field, an
// unknown field type or an unsupported sort type are skipped.
func BuildRowComparator(reg *fieldtypes.Registry, sorts []models.Sort, fields []models.Field, groupBys []models.Sort) fieldtypes.RowCompare {
	entries := make([]models.Sort, 0, len(groupBys)+len(sorts))
	entries = append(entries, groupBys...)
	entries = append(entries, sorts...)

	var chain []fieldtypes.RowCompare
	for _, s := range entries {
		field, ok := models.FindField(fields, s.Field)
		if !ok {
			continue
		}
		ft, ok := reg.FieldType(field.Type)
		if !ok {
			continue
		}
		factory, ok := ft.SortTypes(field)[s.SortType()]
		if !ok {
			continue
		}
		order := s.Order
		if order != models.SortDesc {
			order = models.SortAsc
		}
		chain = append(chain, factory(field.Key(), order, field))
	}

	return func(a, b models.Row) int {
		for _, cmp := range chain {
			if c := cmp(a, b); c != 0 {
				return c
			}
		}
		if c := a.Order.Cmp(b.Order); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	}
}

// SortRows sorts rows in place with a stable sort
func SortRows(rows []models.Row, compare fieldtypes.RowCompare) {
	slices.SortStableFunc(rows, compare)
}

// EncodeSortings renders group bys and sortings as the comma separated
// "[-]field_<id>[<type>]" list, group bys first.
func EncodeSortings(sorts []models.Sort, groupBys []models.Sort) string {
	tokens := make([]string, 0, len(groupBys)+len(sorts))
	for _, s := range slices.Concat(groupBys, sorts) {
		var sb strings.Builder
		if s.Order == models.SortDesc {
			sb.WriteByte('-')
		}
		sb.WriteString(models.FieldKey(s.Field))
		if t := s.SortType(); t != models.DefaultSortType {
			sb.WriteString("[" + t + "]")
		}
		tokens = append(tokens, sb.String())
	}
	return strings.Join(tokens, ",")
}

// DecodeSortings parses a list produced by EncodeSortings
func DecodeSortings(s string) ([]models.Sort, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var sorts []models.Sort
	for _, token := range strings.Split(s, ",") {
		token = strings.TrimSpace(token)
		sort := models.Sort{Order: models.SortAsc, Type: models.DefaultSortType}
		if strings.HasPrefix(token, "-") {
			sort.Order = models.SortDesc
			token = token[1:]
		}
		if i := strings.IndexByte(token, '['); i >= 0 {
			if !strings.HasSuffix(token, "]") || i == len(token)-2 {
				return nil, fmt.Errorf("invalid sort type in %q", token)
			}
			sort.Type = token[i+1 : len(token)-1]
			token = token[:i]
		}
		id, ok := models.ParseFieldKey(token)
		if !ok {
			return nil, fmt.Errorf("invalid sort field %q", token)
		}
		sort.Field = id
		sorts = append(sorts, sort)
	}
	return sorts, nil
}
