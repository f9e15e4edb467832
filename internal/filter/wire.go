package filter

import (
	"encoding/json"
	"fmt"

	"github.com/rebelice/lazyview/internal/models"
)

// WireFilter is a leaf filter as sent to a server side evaluator
type WireFilter struct {
	Type  string `json:"type" yaml:"type"`
	Field int64  `json:"field" yaml:"field"`
	Value string `json:"value" yaml:"value"`
}

// WireGroup is the nested JSON shape of a filter tree
type WireGroup struct {
	FilterType models.FilterType `json:"filter_type" yaml:"filter_type"`
	Filters    []WireFilter      `json:"filters" yaml:"filters"`
	Groups     []WireGroup       `json:"groups" yaml:"groups"`
}

// Serialize converts the tree into its wire shape
func (t *Tree) Serialize() WireGroup {
	return t.serialize(RootIndex)
}

func (t *Tree) serialize(i int) WireGroup {
	n := t.nodes[i]
	w := WireGroup{
		FilterType: n.FilterType,
		Filters:    make([]WireFilter, 0, len(n.Filters)),
		Groups:     make([]WireGroup, 0, len(n.Children)),
	}
	for _, f := range n.Filters {
		w.Filters = append(w.Filters, WireFilter{Type: f.Type, Field: f.Field, Value: f.Value})
	}
	for _, c := range n.Children {
		w.Groups = append(w.Groups, t.serialize(c))
	}
	return w
}

// MarshalJSON encodes the tree in its wire shape
func (t *Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Serialize())
}

// Flatten converts a wire tree back into flat filter and group lists. Ids are
// assigned in depth first order, so parents always get a smaller id than
// their children.
func (w WireGroup) Flatten() (models.FilterType, []models.Filter, []models.FilterGroup) {
	var (
		filters []models.Filter
		groups  []models.FilterGroup
		nextID  int64
	)
	var walk func(g WireGroup, group *int64)
	walk = func(g WireGroup, group *int64) {
		for _, f := range g.Filters {
			nextID++
			filters = append(filters, models.Filter{ID: nextID, Field: f.Field, Type: f.Type, Value: f.Value, Group: group})
		}
		for _, child := range g.Groups {
			nextID++
			id := nextID
			groups = append(groups, models.FilterGroup{ID: id, FilterType: child.FilterType.Normalize(), ParentGroup: group})
			walk(child, &id)
		}
	}
	walk(w, nil)
	return w.FilterType.Normalize(), filters, groups
}

// ParseWire decodes a JSON wire tree and builds it
func ParseWire(data []byte) (*Tree, error) {
	var w WireGroup
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode filter tree: %w", err)
	}
	rootType, filters, groups := w.Flatten()
	return BuildTree(rootType, filters, groups), nil
}
