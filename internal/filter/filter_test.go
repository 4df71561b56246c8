package filter_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"phylotree/internal/filter"
	"phylotree/pkg/taxonomy"
	"phylotree/testutil"
)

func TestDefaultState(t *testing.T) {
	state := filter.DefaultState()
	if state.Title != "Shark Phylogeny" {
		t.Fatalf("unexpected title %q", state.Title)
	}
	if diff := cmp.Diff(taxonomy.Levels(), state.Levels); diff != "" {
		t.Fatalf("levels mismatch (-want +got):\n%s", diff)
	}
	if len(state.Selections) != 0 || len(state.Highlighted) != 0 {
		t.Fatalf("expected no selections, got %+v", state)
	}
}

func TestApplyNeverAddsRows(t *testing.T) {
	table := testutil.SharkTable(t)
	cases := map[string]filter.State{
		"none": filter.DefaultState(),
		"order": {Selections: map[taxonomy.Level]filter.Selection{
			taxonomy.LevelOrder: {Values: []string{"Lamniformes"}},
		}},
		"family and species": {Selections: map[taxonomy.Level]filter.Selection{
			taxonomy.LevelFamily:  {Values: []string{"Lamnidae", "Sphyrnidae"}},
			taxonomy.LevelSpecies: {Values: []string{"Isurus paucus", "Sphyrna mokarran"}},
		}},
		"unknown value": {Selections: map[taxonomy.Level]filter.Selection{
			taxonomy.LevelGenus: {Values: []string{"Megalodon"}},
		}},
	}
	for name, state := range cases {
		t.Run(name, func(t *testing.T) {
			got := filter.Apply(table, state)
			if got.Len() > table.Len() {
				t.Fatalf("apply grew table from %d to %d", table.Len(), got.Len())
			}
			for _, rec := range got.Records() {
				for lvl, sel := range state.Selections {
					if len(sel.Values) == 0 {
						continue
					}
					if !contains(sel.Values, rec.Label(lvl)) {
						t.Fatalf("row %+v escaped %s filter", rec, lvl)
					}
				}
			}
		})
	}
}

func TestApplyComparesSpeciesWithGenus(t *testing.T) {
	table := testutil.SharkTable(t)
	state := filter.State{Selections: map[taxonomy.Level]filter.Selection{
		taxonomy.LevelSpecies: {Values: []string{"paucus"}},
	}}
	if got := filter.Apply(table, state).Len(); got != 0 {
		t.Fatalf("bare epithet should not match, got %d rows", got)
	}
	state.Selections[taxonomy.LevelSpecies] = filter.Selection{Values: []string{"Isurus paucus"}}
	if got := filter.Apply(table, state).Len(); got != 1 {
		t.Fatalf("expected 1 row, got %d", got)
	}
}

func TestResolveCascadesOptions(t *testing.T) {
	table := testutil.SharkTable(t)
	state := filter.State{Selections: map[taxonomy.Level]filter.Selection{
		taxonomy.LevelOrder:  {Values: []string{"Lamniformes"}},
		taxonomy.LevelFamily: {Values: []string{"Lamnidae", "Sphyrnidae"}},
	}}
	view := filter.Resolve(table, state)

	if diff := cmp.Diff([]string{"Carcharhiniformes", "Chimaeriformes", "Lamniformes", "Orectolobiformes"}, view.Options[taxonomy.LevelOrder]); diff != "" {
		t.Fatalf("order options (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Alopiidae", "Lamnidae"}, view.Options[taxonomy.LevelFamily]); diff != "" {
		t.Fatalf("family options (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Lamnidae"}, view.Selected[taxonomy.LevelFamily]); diff != "" {
		t.Fatalf("family selection (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Sphyrnidae"}, view.Dropped[taxonomy.LevelFamily]); diff != "" {
		t.Fatalf("dropped (-want +got):\n%s", diff)
	}
	want := []string{"Carcharodon carcharias", "Isurus oxyrinchus", "Isurus paucus"}
	if diff := cmp.Diff(want, view.Species); diff != "" {
		t.Fatalf("species (-want +got):\n%s", diff)
	}
	if view.Rows.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", view.Rows.Len())
	}
}

func TestResolveSelectAll(t *testing.T) {
	table := testutil.SharkTable(t)
	state := filter.State{Selections: map[taxonomy.Level]filter.Selection{
		taxonomy.LevelFamily: {Values: []string{"Sphyrnidae"}},
		taxonomy.LevelGenus:  {All: true},
	}}
	view := filter.Resolve(table, state)
	if diff := cmp.Diff([]string{"Sphyrna"}, view.Selected[taxonomy.LevelGenus]); diff != "" {
		t.Fatalf("genus selection (-want +got):\n%s", diff)
	}
	if view.Rows.Len() != 1 {
		t.Fatalf("expected 1 row, got %d", view.Rows.Len())
	}
}

func TestResolveKeepsOnlyAvailableHighlights(t *testing.T) {
	table := testutil.SharkTable(t)
	state := filter.State{
		Selections: map[taxonomy.Level]filter.Selection{
			taxonomy.LevelFamily: {Values: []string{"Carcharhinidae"}},
		},
		Highlighted: []string{"Galeocerdo cuvier", "Rhincodon typus"},
	}
	view := filter.Resolve(table, state)
	if diff := cmp.Diff([]string{"Galeocerdo cuvier"}, view.Highlighted); diff != "" {
		t.Fatalf("highlighted (-want +got):\n%s", diff)
	}
}

func TestResolveRowsMatchApply(t *testing.T) {
	table := testutil.SharkTable(t)
	states := []filter.State{
		filter.DefaultState(),
		{Selections: map[taxonomy.Level]filter.Selection{
			taxonomy.LevelSubclass: {Values: []string{"Elasmobranchii"}},
			taxonomy.LevelGenus:    {Values: []string{"Carcharhinus", "Isurus"}},
		}},
		{Selections: map[taxonomy.Level]filter.Selection{
			taxonomy.LevelOrder:   {All: true},
			taxonomy.LevelSpecies: {Values: []string{"Rhincodon typus"}},
		}},
	}
	for i, state := range states {
		view := filter.Resolve(table, state)
		want := filter.Apply(table, state).Records()
		if diff := cmp.Diff(want, view.Rows.Records()); diff != "" {
			t.Fatalf("state %d rows mismatch (-apply +resolve):\n%s", i, diff)
		}
	}
}

func TestResolveRowsMatchApplyOfEffectiveState(t *testing.T) {
	table := testutil.SharkTable(t)
	state := filter.State{Selections: map[taxonomy.Level]filter.Selection{
		taxonomy.LevelOrder: {Values: []string{"Orectolobiformes"}},
		taxonomy.LevelGenus: {Values: []string{"Isurus", "Rhincodon"}},
	}}
	view := filter.Resolve(table, state)
	effective := view.Effective(state)
	if diff := cmp.Diff([]string{"Rhincodon"}, effective.Selections[taxonomy.LevelGenus].Values); diff != "" {
		t.Fatalf("effective genus (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(filter.Apply(table, effective).Records(), view.Rows.Records()); diff != "" {
		t.Fatalf("rows mismatch:\n%s", diff)
	}
}

func TestResetKeepsTitleAndLevels(t *testing.T) {
	state := filter.State{
		Title:  "Mackerel sharks",
		Levels: []taxonomy.Level{taxonomy.LevelFamily, taxonomy.LevelGenus},
		Selections: map[taxonomy.Level]filter.Selection{
			taxonomy.LevelFamily: {Values: []string{"Lamnidae"}, All: true},
		},
		Highlighted: []string{"Isurus paucus"},
	}
	reset := filter.Reset(state)
	if reset.Title != state.Title {
		t.Fatalf("title changed to %q", reset.Title)
	}
	if diff := cmp.Diff(state.Levels, reset.Levels); diff != "" {
		t.Fatalf("levels changed:\n%s", diff)
	}
	if len(reset.Selections) != 0 || len(reset.Highlighted) != 0 {
		t.Fatalf("reset left selections: %+v", reset)
	}
	if len(state.Selections) != 1 {
		t.Fatalf("reset mutated input state")
	}
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
