package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"phylotree/internal/filter"
	"phylotree/pkg/taxonomy"
)

// stateFlags are the filter choices shared by render and presets save.
type stateFlags struct {
	title     string
	levels    []string
	selects   []string
	all       []string
	highlight []string
	reset     bool
}

func (f *stateFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.title, "title", "", "chart title")
	flags.StringSliceVar(&f.levels, "level", nil, "levels to display (repeatable, contiguous)")
	flags.StringArrayVar(&f.selects, "select", nil, "Level=Value selection (repeatable)")
	flags.StringSliceVar(&f.all, "all", nil, "select every available value at these levels")
	flags.StringArrayVar(&f.highlight, "highlight", nil, `species to highlight, as "Genus species"`)
	flags.BoolVar(&f.reset, "reset", false, "clear selections and highlights from the base state")
}

// apply layers the flags over base.
func (f *stateFlags) apply(base filter.State) (filter.State, error) {
	state := base.WithDefaults()
	if f.reset {
		state = filter.Reset(state)
	}
	if f.title != "" {
		state.Title = f.title
	}
	if len(f.levels) > 0 {
		levels, err := taxonomy.ParseLevels(f.levels)
		if err != nil {
			return filter.State{}, err
		}
		state.Levels = levels
	}
	for _, raw := range f.selects {
		name, value, ok := strings.Cut(raw, "=")
		if !ok || strings.TrimSpace(value) == "" {
			return filter.State{}, fmt.Errorf("--select %q: want Level=Value", raw)
		}
		lvl, err := taxonomy.ParseLevel(name)
		if err != nil {
			return filter.State{}, err
		}
		sel := state.Selections[lvl]
		sel.Values = append(sel.Values, strings.TrimSpace(value))
		state.Selections[lvl] = sel
	}
	for _, name := range f.all {
		lvl, err := taxonomy.ParseLevel(name)
		if err != nil {
			return filter.State{}, err
		}
		sel := state.Selections[lvl]
		sel.All = true
		state.Selections[lvl] = sel
	}
	state.Highlighted = append(state.Highlighted, f.highlight...)
	return state, nil
}
