package taxonomy_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"phylotree/pkg/taxonomy"
	"phylotree/testutil"
)

func TestParseLevel(t *testing.T) {
	lvl, err := taxonomy.ParseLevel("  genus ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if lvl != taxonomy.LevelGenus {
		t.Fatalf("unexpected level %q", lvl)
	}
	if _, err := taxonomy.ParseLevel("Kingdom"); !errors.Is(err, taxonomy.ErrUnknownLevel) {
		t.Fatalf("expected unknown level error, got %v", err)
	}
}

func TestLevelUnmarshalsCaseInsensitively(t *testing.T) {
	var doc struct {
		Levels     []taxonomy.Level            `json:"levels"`
		Selections map[taxonomy.Level][]string `json:"selections"`
	}
	body := `{"levels":["order","FAMILY"],"selections":{"genus":["Isurus"]}}`
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff([]taxonomy.Level{taxonomy.LevelOrder, taxonomy.LevelFamily}, doc.Levels); diff != "" {
		t.Fatalf("levels (-want +got):\n%s", diff)
	}
	if got := doc.Selections[taxonomy.LevelGenus]; len(got) != 1 || got[0] != "Isurus" {
		t.Fatalf("expected genus selection under canonical key, got %v", doc.Selections)
	}

	for _, bad := range []string{`{"levels":["Kingdom"]}`, `{"selections":{"tribe":["x"]}}`} {
		if err := json.Unmarshal([]byte(bad), &doc); !errors.Is(err, taxonomy.ErrUnknownLevel) {
			t.Fatalf("%s: expected ErrUnknownLevel, got %v", bad, err)
		}
	}
}

func TestLevelsReturnsCopy(t *testing.T) {
	levels := taxonomy.Levels()
	levels[0] = "mutated"
	if taxonomy.Levels()[0] != taxonomy.LevelClass {
		t.Fatalf("canonical order mutated")
	}
}

func TestValidateLevels(t *testing.T) {
	cases := []struct {
		name    string
		in      []taxonomy.Level
		want    []taxonomy.Level
		wantErr error
	}{
		{name: "all", in: taxonomy.Levels(), want: taxonomy.Levels()},
		{name: "single", in: []taxonomy.Level{taxonomy.LevelFamily}, want: []taxonomy.Level{taxonomy.LevelFamily}},
		{
			name: "reordered run",
			in:   []taxonomy.Level{taxonomy.LevelSpecies, taxonomy.LevelFamily, taxonomy.LevelGenus},
			want: []taxonomy.Level{taxonomy.LevelFamily, taxonomy.LevelGenus, taxonomy.LevelSpecies},
		},
		{name: "gap", in: []taxonomy.Level{taxonomy.LevelOrder, taxonomy.LevelGenus}, wantErr: taxonomy.ErrNonContiguous},
		{name: "empty", in: nil, wantErr: taxonomy.ErrNoLevels},
		{name: "duplicate", in: []taxonomy.Level{taxonomy.LevelOrder, taxonomy.LevelOrder}, wantErr: taxonomy.ErrDuplicateLevel},
		{name: "unknown", in: []taxonomy.Level{"Tribe"}, wantErr: taxonomy.ErrUnknownLevel},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := taxonomy.ValidateLevels(tc.in)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("levels mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRecordLabelUsesFullSpecies(t *testing.T) {
	rec := testutil.SharkRecords()[0]
	if got := rec.Label(taxonomy.LevelSpecies); got != "Carcharodon carcharias" {
		t.Fatalf("unexpected species label %q", got)
	}
	if got := rec.Label(taxonomy.LevelFamily); got != "Lamnidae" {
		t.Fatalf("unexpected family label %q", got)
	}
	path := rec.Path([]taxonomy.Level{taxonomy.LevelGenus, taxonomy.LevelSpecies})
	if diff := cmp.Diff([]string{"Carcharodon", "Carcharodon carcharias"}, path); diff != "" {
		t.Fatalf("path mismatch (-want +got):\n%s", diff)
	}
}

func TestNewTableRejectsEmptyValues(t *testing.T) {
	records := testutil.SharkRecords()
	records[3].Family = ""
	if _, err := taxonomy.NewTable(records); !errors.Is(err, taxonomy.ErrEmptyValue) {
		t.Fatalf("expected empty value error, got %v", err)
	}
}

func TestDistinctIsSorted(t *testing.T) {
	table := testutil.SharkTable(t)
	want := []string{"Carcharhiniformes", "Chimaeriformes", "Lamniformes", "Orectolobiformes"}
	if diff := cmp.Diff(want, table.Distinct(taxonomy.LevelOrder)); diff != "" {
		t.Fatalf("distinct mismatch (-want +got):\n%s", diff)
	}
	if got := len(table.Species()); got != 10 {
		t.Fatalf("expected 10 species, got %d", got)
	}
}

func TestWhereNeverAddsRows(t *testing.T) {
	table := testutil.SharkTable(t)
	for _, lvl := range taxonomy.Levels() {
		for _, value := range table.Distinct(lvl) {
			sub := table.Where(lvl, []string{value, "not-a-taxon"})
			if sub.Len() == 0 || sub.Len() > table.Len() {
				t.Fatalf("%s=%s: unexpected size %d", lvl, value, sub.Len())
			}
			for _, rec := range sub.Records() {
				if rec.Label(lvl) != value {
					t.Fatalf("%s=%s: leaked record %+v", lvl, value, rec)
				}
			}
		}
	}
	if table.Where(taxonomy.LevelGenus, nil) != table {
		t.Fatalf("empty selection should return the same table")
	}
	if got := table.Where(taxonomy.LevelSpecies, []string{"Isurus paucus"}).Len(); got != 1 {
		t.Fatalf("species filter should match full names, got %d rows", got)
	}
}

func TestTableIsPureImportsOnly(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", func(p string) bool {
		return testutil.InternalImportForbidden(p) || testutil.ThirdPartyImportForbidden(p)
	}, "taxonomy must stay dependency free")
}
