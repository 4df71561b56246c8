package tree_test

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"phylotree/internal/filter"
	"phylotree/internal/tree"
	"phylotree/pkg/taxonomy"
	"phylotree/testutil"
)

func TestBuildFirstSeenOrder(t *testing.T) {
	table := testutil.SharkTable(t)
	levels := []taxonomy.Level{taxonomy.LevelOrder, taxonomy.LevelFamily}
	tr, err := tree.Build(table, levels, tree.Options{Title: "Orders"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var ids []string
	for _, n := range tr.Nodes {
		ids = append(ids, n.ID)
	}
	want := []string{
		"Lamniformes",
		"Lamniformes||Lamnidae",
		"Lamniformes||Alopiidae",
		"Carcharhiniformes",
		"Carcharhiniformes||Carcharhinidae",
		"Carcharhiniformes||Sphyrnidae",
		"Orectolobiformes",
		"Orectolobiformes||Rhincodontidae",
		"Chimaeriformes",
		"Chimaeriformes||Chimaeridae",
	}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Fatalf("node order (-want +got):\n%s", diff)
	}
	if len(tr.Edges) != 6 {
		t.Fatalf("expected 6 deduplicated edges, got %d", len(tr.Edges))
	}
	if tr.Title != "Orders" {
		t.Fatalf("title not carried: %q", tr.Title)
	}
}

func TestBuildNormalisesAndRejectsLevels(t *testing.T) {
	table := testutil.SharkTable(t)
	tr, err := tree.Build(table, []taxonomy.Level{taxonomy.LevelGenus, taxonomy.LevelFamily}, tree.Options{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if diff := cmp.Diff([]taxonomy.Level{taxonomy.LevelFamily, taxonomy.LevelGenus}, tr.Levels); diff != "" {
		t.Fatalf("levels (-want +got):\n%s", diff)
	}
	_, err = tree.Build(table, []taxonomy.Level{taxonomy.LevelClass, taxonomy.LevelFamily}, tree.Options{})
	if !errors.Is(err, taxonomy.ErrNonContiguous) {
		t.Fatalf("expected ErrNonContiguous, got %v", err)
	}
}

func TestLeavesMatchDeepestLevel(t *testing.T) {
	table := testutil.SharkTable(t)
	cases := []struct {
		name   string
		levels []taxonomy.Level
		state  filter.State
	}{
		{"full", taxonomy.Levels(), filter.DefaultState()},
		{"genus", []taxonomy.Level{taxonomy.LevelOrder, taxonomy.LevelFamily, taxonomy.LevelGenus}, filter.State{
			Selections: map[taxonomy.Level]filter.Selection{taxonomy.LevelOrder: {Values: []string{"Carcharhiniformes"}}},
		}},
		{"species only", []taxonomy.Level{taxonomy.LevelSpecies}, filter.State{
			Selections: map[taxonomy.Level]filter.Selection{taxonomy.LevelFamily: {Values: []string{"Lamnidae"}}},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows := filter.Apply(table, tc.state)
			tr, err := tree.Build(rows, tc.levels, tree.Options{})
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			var leaves []string
			seen := map[string]bool{}
			for _, n := range tr.Leaves() {
				if !seen[n.Label] {
					seen[n.Label] = true
					leaves = append(leaves, n.Label)
				}
			}
			sort.Strings(leaves)
			deepest := tc.levels[len(tc.levels)-1]
			if diff := cmp.Diff(rows.Distinct(deepest), leaves); diff != "" {
				t.Fatalf("leaf labels (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEdgesConnectImmediateChildren(t *testing.T) {
	tr, err := tree.Build(testutil.SharkTable(t), taxonomy.Levels(), tree.Options{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, e := range tr.Edges {
		from, ok := tr.Node(e.From)
		if !ok {
			t.Fatalf("unknown edge source %q", e.From)
		}
		to, ok := tr.Node(e.To)
		if !ok {
			t.Fatalf("unknown edge target %q", e.To)
		}
		if to.Depth != from.Depth+1 {
			t.Fatalf("edge %q -> %q skips a level", e.From, e.To)
		}
		if !strings.HasPrefix(e.To, e.From+tree.PathSeparator) {
			t.Fatalf("edge %q -> %q is not a path extension", e.From, e.To)
		}
		if strings.Contains(strings.TrimPrefix(e.To, e.From+tree.PathSeparator), tree.PathSeparator) {
			t.Fatalf("edge %q -> %q extends by more than one label", e.From, e.To)
		}
	}
}

func TestBuildHighlightsSpeciesOnly(t *testing.T) {
	tr, err := tree.Build(testutil.SharkTable(t), taxonomy.Levels(), tree.Options{
		Highlighted: []string{"Sphyrna mokarran", "Lamnidae"},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var marked []string
	for _, n := range tr.Nodes {
		if n.Highlight {
			marked = append(marked, n.Label)
		}
	}
	if diff := cmp.Diff([]string{"Sphyrna mokarran"}, marked); diff != "" {
		t.Fatalf("highlighted (-want +got):\n%s", diff)
	}
}

func TestChildrenAndRoots(t *testing.T) {
	tr, err := tree.Build(testutil.SharkTable(t), []taxonomy.Level{taxonomy.LevelSubclass, taxonomy.LevelOrder}, tree.Options{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	roots := tr.Roots()
	if len(roots) != 2 || roots[0].Label != "Elasmobranchii" || roots[1].Label != "Holocephali" {
		t.Fatalf("unexpected roots %+v", roots)
	}
	var labels []string
	for _, c := range tr.Children("Elasmobranchii") {
		labels = append(labels, c.Label)
	}
	if diff := cmp.Diff([]string{"Lamniformes", "Carcharhiniformes", "Orectolobiformes"}, labels); diff != "" {
		t.Fatalf("children (-want +got):\n%s", diff)
	}
}

func TestBuildEmptyRows(t *testing.T) {
	empty, err := taxonomy.NewTable(nil)
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	tr, err := tree.Build(empty, taxonomy.Levels(), tree.Options{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !tr.Empty() {
		t.Fatalf("expected empty tree, got %d nodes", len(tr.Nodes))
	}
}
