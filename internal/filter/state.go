// Package filter resolves per-level filter selections against a taxonomy table.
package filter

import (
	"phylotree/pkg/taxonomy"
)

// DefaultTitle is the chart title used when none is supplied.
const DefaultTitle = "Shark Phylogeny"

// Selection is the chosen values for one level. All selects every value
// still available after the broader levels have been applied.
type Selection struct {
	Values []string `json:"values,omitempty"`
	All    bool     `json:"all,omitempty"`
}

// Empty reports whether the selection narrows nothing.
func (s Selection) Empty() bool { return len(s.Values) == 0 && !s.All }

// State is the complete set of user choices that drive a rendered tree.
type State struct {
	Title       string                       `json:"title"`
	Levels      []taxonomy.Level             `json:"levels"`
	Selections  map[taxonomy.Level]Selection `json:"selections,omitempty"`
	Highlighted []string                     `json:"highlighted,omitempty"`
}

// DefaultState shows every level with nothing selected.
func DefaultState() State {
	return State{
		Title:      DefaultTitle,
		Levels:     taxonomy.Levels(),
		Selections: map[taxonomy.Level]Selection{},
	}
}

// Selection returns the selection for level, or the zero value.
func (s State) Selection(level taxonomy.Level) Selection {
	if s.Selections == nil {
		return Selection{}
	}
	return s.Selections[level]
}

// WithDefaults fills an empty title and level list.
func (s State) WithDefaults() State {
	out := s.Clone()
	if out.Title == "" {
		out.Title = DefaultTitle
	}
	if len(out.Levels) == 0 {
		out.Levels = taxonomy.Levels()
	}
	if out.Selections == nil {
		out.Selections = map[taxonomy.Level]Selection{}
	}
	return out
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := State{
		Title:       s.Title,
		Levels:      append([]taxonomy.Level(nil), s.Levels...),
		Highlighted: append([]string(nil), s.Highlighted...),
	}
	if s.Selections != nil {
		out.Selections = make(map[taxonomy.Level]Selection, len(s.Selections))
		for lvl, sel := range s.Selections {
			out.Selections[lvl] = Selection{Values: append([]string(nil), sel.Values...), All: sel.All}
		}
	}
	return out
}

// Reset clears every selection, "all" flag and highlight while keeping the
// title and displayed levels.
func Reset(s State) State {
	out := s.Clone()
	out.Selections = map[taxonomy.Level]Selection{}
	out.Highlighted = nil
	return out
}
