// Package filter builds the filter tree of a view and evaluates rows against it.
package filter

import (
	"sort"

	"github.com/rebelice/lazyview/internal/models"
)

// RootIndex is the arena index of the root node
const RootIndex = 0

// Node is a group of the filter tree. Children are arena indexes.
type Node struct {
	FilterType models.FilterType
	GroupID    *int64 // nil for the root
	Filters    []models.Filter
	Children   []int
}

// Tree is an arena of filter tree nodes. Index 0 is the root.
type Tree struct {
	nodes []Node
	index map[int64]int
}

// BuildTree builds the tree from flat filter and group lists. Groups are
// processed in ascending id order so parents are always created before
// their children. Groups or filters referencing a group that does not exist
// are attached to the root.
func BuildTree(rootType models.FilterType, filters []models.Filter, groups []models.FilterGroup) *Tree {
	t := &Tree{
		nodes: make([]Node, 1, len(groups)+1),
		index: make(map[int64]int, len(groups)),
	}
	t.nodes[RootIndex] = Node{FilterType: rootType.Normalize()}

	sorted := make([]models.FilterGroup, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, g := range sorted {
		if _, exists := t.index[g.ID]; exists {
			continue
		}
		parent := t.lookup(g.ParentGroup)
		id := g.ID
		t.nodes = append(t.nodes, Node{FilterType: g.FilterType.Normalize(), GroupID: &id})
		i := len(t.nodes) - 1
		t.index[g.ID] = i
		t.nodes[parent].Children = append(t.nodes[parent].Children, i)
	}

	for _, f := range filters {
		n := t.lookup(f.Group)
		t.nodes[n].Filters = append(t.nodes[n].Filters, f)
	}
	return t
}

func (t *Tree) lookup(group *int64) int {
	if group == nil {
		return RootIndex
	}
	if i, ok := t.index[*group]; ok {
		return i
	}
	return RootIndex
}

// Root returns the root node
func (t *Tree) Root() Node {
	return t.nodes[RootIndex]
}

// Node returns the node stored at arena index i
func (t *Tree) Node(i int) Node {
	return t.nodes[i]
}

// Len returns the number of nodes including the root
func (t *Tree) Len() int {
	return len(t.nodes)
}

// NodeOf returns the arena index of a group
func (t *Tree) NodeOf(groupID int64) (int, bool) {
	i, ok := t.index[groupID]
	return i, ok
}

// HasFilters reports whether the tree holds at least one filter
func (t *Tree) HasFilters() bool {
	return t.NodeHasFilters(RootIndex)
}

// NodeHasFilters reports whether node i or any descendant holds a filter
func (t *Tree) NodeHasFilters(i int) bool {
	n := t.nodes[i]
	if len(n.Filters) > 0 {
		return true
	}
	for _, c := range n.Children {
		if t.NodeHasFilters(c) {
			return true
		}
	}
	return false
}
