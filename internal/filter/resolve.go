package filter

import (
	"phylotree/pkg/taxonomy"
)

// View is the outcome of resolving a State against a table level by level.
type View struct {
	// Options are the values offered at each level given the broader selections.
	Options map[taxonomy.Level][]string `json:"options"`
	// Selected are the effective selections after "all" expansion and pruning.
	Selected map[taxonomy.Level][]string `json:"selected"`
	// Dropped are stated values no longer available at their level.
	Dropped map[taxonomy.Level][]string `json:"dropped,omitempty"`
	// Species are the highlight candidates in the filtered rows.
	Species []string `json:"species"`
	// Highlighted keeps the stated highlights that are still candidates.
	Highlighted []string `json:"highlighted"`
	// Rows is the filtered table.
	Rows *taxonomy.Table `json:"-"`
}

// Apply filters table by every non-empty selection in state. It never adds
// rows and keeps table order.
func Apply(table *taxonomy.Table, state State) *taxonomy.Table {
	working := table
	for _, lvl := range taxonomy.Levels() {
		sel := state.Selection(lvl)
		if len(sel.Values) == 0 {
			continue
		}
		working = working.Where(lvl, sel.Values)
	}
	return working
}

// Resolve walks the levels broadest first, offering at each level the values
// that survive the selections above it.
func Resolve(table *taxonomy.Table, state State) View {
	view := View{
		Options:  make(map[taxonomy.Level][]string, 6),
		Selected: make(map[taxonomy.Level][]string, 6),
	}
	working := table
	for _, lvl := range taxonomy.Levels() {
		options := working.Distinct(lvl)
		view.Options[lvl] = options

		sel := state.Selection(lvl)
		var effective []string
		if sel.All {
			effective = append([]string(nil), options...)
		} else {
			kept, dropped := partition(sel.Values, options)
			effective = kept
			if len(dropped) > 0 {
				if view.Dropped == nil {
					view.Dropped = make(map[taxonomy.Level][]string)
				}
				view.Dropped[lvl] = dropped
			}
		}
		view.Selected[lvl] = effective
		if len(effective) > 0 {
			working = working.Where(lvl, effective)
		}
	}
	view.Rows = working
	view.Species = working.Species()
	view.Highlighted, _ = partition(state.Highlighted, view.Species)
	return view
}

// Effective returns state with its selections replaced by the resolved ones.
func (v View) Effective(state State) State {
	out := state.Clone()
	out.Selections = make(map[taxonomy.Level]Selection, len(v.Selected))
	for lvl, values := range v.Selected {
		prev := state.Selection(lvl)
		if len(values) == 0 && !prev.All {
			continue
		}
		out.Selections[lvl] = Selection{Values: append([]string(nil), values...), All: prev.All}
	}
	out.Highlighted = append([]string(nil), v.Highlighted...)
	return out
}

func partition(values, allowed []string) (kept, dropped []string) {
	if len(values) == 0 {
		return nil, nil
	}
	index := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		index[a] = struct{}{}
	}
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if _, ok := index[v]; ok {
			kept = append(kept, v)
		} else {
			dropped = append(dropped, v)
		}
	}
	return kept, dropped
}
