// Package tree builds the labelled hierarchy drawn for a filtered table.
package tree

import (
	"fmt"
	"strings"

	"phylotree/pkg/taxonomy"
)

// PathSeparator joins the labels of a path prefix into a node ID.
const PathSeparator = "||"

// Options carry presentation inputs that travel with the tree.
type Options struct {
	Title       string
	Highlighted []string
}

// Node is one distinct path prefix.
type Node struct {
	ID        string         `json:"id"`
	Label     string         `json:"label"`
	Level     taxonomy.Level `json:"level"`
	Depth     int            `json:"depth"`
	Parent    string         `json:"parent,omitempty"`
	Highlight bool           `json:"highlight,omitempty"`
}

// Edge links a parent path to one of its immediate children.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Tree is the result of Build. Nodes and Edges are in first-seen order.
type Tree struct {
	Title  string           `json:"title"`
	Levels []taxonomy.Level `json:"levels"`
	Nodes  []Node           `json:"nodes"`
	Edges  []Edge           `json:"edges"`

	index    map[string]int
	children map[string][]string
}

// Build groups rows by the label paths over levels.
func Build(rows *taxonomy.Table, levels []taxonomy.Level, opts Options) (*Tree, error) {
	active, err := taxonomy.ValidateLevels(levels)
	if err != nil {
		return nil, fmt.Errorf("build tree: %w", err)
	}
	highlighted := make(map[string]struct{}, len(opts.Highlighted))
	for _, name := range opts.Highlighted {
		highlighted[name] = struct{}{}
	}

	t := &Tree{
		Title:    opts.Title,
		Levels:   active,
		Nodes:    []Node{},
		Edges:    []Edge{},
		index:    make(map[string]int),
		children: make(map[string][]string),
	}
	edges := make(map[Edge]struct{})

	for i := 0; i < rows.Len(); i++ {
		path := rows.At(i).Path(active)
		parent := ""
		for depth := range path {
			id := strings.Join(path[:depth+1], PathSeparator)
			if _, seen := t.index[id]; !seen {
				node := Node{
					ID:     id,
					Label:  path[depth],
					Level:  active[depth],
					Depth:  depth,
					Parent: parent,
				}
				if node.Level == taxonomy.LevelSpecies {
					_, node.Highlight = highlighted[node.Label]
				}
				t.index[id] = len(t.Nodes)
				t.Nodes = append(t.Nodes, node)
			}
			if parent != "" {
				e := Edge{From: parent, To: id}
				if _, dup := edges[e]; !dup {
					edges[e] = struct{}{}
					t.Edges = append(t.Edges, e)
					t.children[parent] = append(t.children[parent], id)
				}
			}
			parent = id
		}
	}
	return t, nil
}

// Empty reports whether the tree has no nodes.
func (t *Tree) Empty() bool { return t == nil || len(t.Nodes) == 0 }

// Node returns the node with the given ID.
func (t *Tree) Node(id string) (Node, bool) {
	i, ok := t.index[id]
	if !ok {
		return Node{}, false
	}
	return t.Nodes[i], true
}

// Column returns the nodes of level in first-seen order.
func (t *Tree) Column(level taxonomy.Level) []Node {
	var out []Node
	for _, n := range t.Nodes {
		if n.Level == level {
			out = append(out, n)
		}
	}
	return out
}

// Children returns the immediate children of id in first-seen order.
func (t *Tree) Children(id string) []Node {
	ids := t.children[id]
	out := make([]Node, 0, len(ids))
	for _, child := range ids {
		out = append(out, t.Nodes[t.index[child]])
	}
	return out
}

// Roots returns the nodes of the broadest active level.
func (t *Tree) Roots() []Node {
	if len(t.Levels) == 0 {
		return nil
	}
	return t.Column(t.Levels[0])
}

// Leaves returns the nodes of the deepest active level.
func (t *Tree) Leaves() []Node {
	if len(t.Levels) == 0 {
		return nil
	}
	return t.Column(t.Levels[len(t.Levels)-1])
}
