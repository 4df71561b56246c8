package presets

import (
	"phylotree/internal/filter"
	"phylotree/pkg/preset"
	"phylotree/pkg/taxonomy"
)

// FromState captures state under name.
func FromState(name string, state filter.State) preset.Preset {
	state = state.WithDefaults()
	p := preset.Preset{
		Name:        name,
		Title:       state.Title,
		Levels:      state.Levels,
		Selections:  make(map[taxonomy.Level]preset.Selection, len(state.Selections)),
		Highlighted: state.Highlighted,
	}
	for lvl, sel := range state.Selections {
		if sel.Empty() {
			continue
		}
		p.Selections[lvl] = preset.Selection{Values: sel.Values, All: sel.All}
	}
	return p
}

// ToState restores the filter state saved in p.
func ToState(p preset.Preset) filter.State {
	state := filter.State{
		Title:       p.Title,
		Levels:      append([]taxonomy.Level(nil), p.Levels...),
		Selections:  make(map[taxonomy.Level]filter.Selection, len(p.Selections)),
		Highlighted: append([]string(nil), p.Highlighted...),
	}
	for lvl, sel := range p.Selections {
		if len(sel.Values) == 0 && !sel.All {
			continue
		}
		state.Selections[lvl] = filter.Selection{Values: append([]string(nil), sel.Values...), All: sel.All}
	}
	if len(state.Highlighted) == 0 {
		state.Highlighted = nil
	}
	return state.WithDefaults()
}
