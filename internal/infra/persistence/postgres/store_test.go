package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"phylotree/internal/infra/persistence/postgres/testutil"
	"phylotree/pkg/preset"
	"phylotree/pkg/taxonomy"
)

func newStubStore(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(driverName, _ string) (*sql.DB, error) {
		if driverName != "pgx" {
			t.Fatalf("unexpected driver %s", driverName)
		}
		return db, nil
	})
	t.Cleanup(restore)
	store, err := NewStore(context.Background(), "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, conn
}

func TestNewStoreCreatesPresetTable(t *testing.T) {
	_, conn := newStubStore(t)
	var sawDDL bool
	for _, stmt := range conn.Execs {
		if strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS presets") && strings.Contains(stmt, "JSONB") {
			sawDDL = true
		}
	}
	if !sawDDL {
		t.Fatalf("expected presets DDL, got %v", conn.Execs)
	}
}

func TestNewStorePingFailure(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailPing = true
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore(context.Background(), "postgres://example"); err == nil || !strings.Contains(err.Error(), "ping postgres") {
		t.Fatalf("expected ping error, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newStubStore(t)
	p := preset.Preset{
		Name:   "requiem",
		Title:  "Requiem sharks",
		Levels: []taxonomy.Level{taxonomy.LevelOrder, taxonomy.LevelFamily, taxonomy.LevelGenus},
		Selections: map[taxonomy.Level]preset.Selection{
			taxonomy.LevelOrder: {Values: []string{"Carcharhiniformes"}},
			taxonomy.LevelGenus: {Values: []string{"Carcharhinus", "Galeocerdo"}},
		},
	}
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx, "requiem")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(p, got); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
}

func TestSaveReplacesListDelete(t *testing.T) {
	ctx := context.Background()
	store, conn := newStubStore(t)
	for _, p := range []preset.Preset{{Name: "b", Title: "one"}, {Name: "a"}, {Name: "b", Title: "two"}} {
		if err := store.Save(ctx, p); err != nil {
			t.Fatalf("save %s: %v", p.Name, err)
		}
	}
	if got := len(conn.Tables["presets"]); got != 2 {
		t.Fatalf("expected 2 rows, got %d", got)
	}
	names, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, names); diff != "" {
		t.Fatalf("names (-want +got):\n%s", diff)
	}
	b, err := store.Load(ctx, "b")
	if err != nil || b.Title != "two" {
		t.Fatalf("expected replaced preset, got %+v %v", b, err)
	}
	if existed, err := store.Delete(ctx, "b"); err != nil || !existed {
		t.Fatalf("delete: %v %v", existed, err)
	}
	if existed, err := store.Delete(ctx, "b"); err != nil || existed {
		t.Fatalf("delete missing: %v %v", existed, err)
	}
	if _, err := store.Load(ctx, "b"); !errors.Is(err, preset.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveSurfacesTransactionErrors(t *testing.T) {
	ctx := context.Background()
	store, conn := newStubStore(t)
	conn.FailBegin = true
	if err := store.Save(ctx, preset.Preset{Name: "x"}); err == nil {
		t.Fatalf("expected begin failure")
	}
	conn.FailBegin = false
	conn.FailTables = map[string]bool{"presets": true}
	if err := store.Save(ctx, preset.Preset{Name: "x"}); err == nil || !strings.Contains(err.Error(), "upsert preset x") {
		t.Fatalf("expected upsert failure, got %v", err)
	}
	conn.FailTables = nil
	conn.FailCommit = true
	if err := store.Save(ctx, preset.Preset{Name: "x"}); err == nil {
		t.Fatalf("expected commit failure")
	}
}
