package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"phylotree/pkg/preset"
	"phylotree/testutil"
)

type cliEnv struct {
	data string
	dir  string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	dir := t.TempDir()
	data := filepath.Join(dir, "sharks.csv")
	if err := os.WriteFile(data, []byte(testutil.SharkCSV), 0o600); err != nil {
		t.Fatalf("write data: %v", err)
	}
	t.Setenv("PHYLOTREE_CONFIG", "")
	t.Setenv("PHYLOTREE_BLOB_DRIVER", "fs")
	t.Setenv("PHYLOTREE_BLOB_FS_ROOT", filepath.Join(dir, "blobs"))
	t.Setenv("PHYLOTREE_PRESETS_DRIVER", "blob")
	t.Setenv("PHYLOTREE_RENDER_ENGINE", "native")
	t.Setenv("PHYLOTREE_LOG_LEVEL", "error")
	return cliEnv{data: data, dir: dir}
}

func (e cliEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--data", e.data}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestLevelsCommand(t *testing.T) {
	env := newCLIEnv(t)
	out, _, err := env.run(t, "levels")
	if err != nil {
		t.Fatalf("levels: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 6 || !strings.HasPrefix(lines[0], "Class") || !strings.Contains(lines[0], "#f6c1cc") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCheckCommand(t *testing.T) {
	env := newCLIEnv(t)
	out, _, err := env.run(t, "check")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out, "10 rows") || !strings.Contains(out, "Order") {
		t.Fatalf("unexpected output %q", out)
	}

	bad := filepath.Join(env.dir, "bad.csv")
	if err := os.WriteFile(bad, []byte("Class,Order\nChondrichthyes,Lamniformes\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := env.run(t, "--data", bad, "check"); err == nil || !strings.Contains(err.Error(), "missing required columns") {
		t.Fatalf("expected missing column error, got %v", err)
	}
}

func TestRenderToStdout(t *testing.T) {
	env := newCLIEnv(t)
	out, _, err := env.run(t, "render", "--level", "Order,Family", "--select", "Order=Lamniformes", "--format", "dot", "-o", "-")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(out, "digraph {") || !strings.Contains(out, "Lamnidae") || strings.Contains(out, "Sphyrnidae") {
		t.Fatalf("unexpected dot %q", out)
	}
}

func TestRenderWritesFile(t *testing.T) {
	env := newCLIEnv(t)
	target := filepath.Join(env.dir, "tree.png")
	if _, _, err := env.run(t, "render", "--format", "png", "--highlight", "Rhincodon typus", "-o", target); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatalf("expected png output")
	}
}

func TestRenderNoDataAndErrors(t *testing.T) {
	env := newCLIEnv(t)
	out, errOut, err := env.run(t, "render", "--select", "Genus=Otodus", "-o", "-")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "" || !strings.Contains(errOut, "No taxa available.") {
		t.Fatalf("expected notice, got stdout %q stderr %q", out, errOut)
	}
	if _, _, err := env.run(t, "render", "--level", "Class,Genus", "-o", "-"); err == nil || !strings.Contains(err.Error(), "contiguous") {
		t.Fatalf("expected contiguity error, got %v", err)
	}
	if _, _, err := env.run(t, "render", "--select", "Order", "-o", "-"); err == nil {
		t.Fatalf("expected malformed --select error")
	}
	if _, _, err := env.run(t, "render", "--format", "gif", "-o", "-"); err == nil {
		t.Fatalf("expected format error")
	}
}

func TestPresetCommands(t *testing.T) {
	env := newCLIEnv(t)
	if _, _, err := env.run(t, "presets", "save", "lamnids", "--title", "Lamnids", "--level", "Family,Genus,Species", "--select", "Family=Lamnidae"); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, _, err := env.run(t, "presets", "list")
	if err != nil || strings.TrimSpace(out) != "lamnids" {
		t.Fatalf("list: %q %v", out, err)
	}
	out, _, err = env.run(t, "presets", "show", "lamnids")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, `"chart_title": "Lamnids"`) || !strings.Contains(out, `"sel_family": [`) {
		t.Fatalf("unexpected document %q", out)
	}

	out, _, err = env.run(t, "render", "--preset", "lamnids", "--format", "dot", "-o", "-")
	if err != nil {
		t.Fatalf("render preset: %v", err)
	}
	if !strings.Contains(out, "Isurus paucus") || strings.Contains(out, "Alopias") {
		t.Fatalf("preset selections not applied: %q", out)
	}

	out, _, err = env.run(t, "render", "--preset", "lamnids", "--reset", "--format", "dot", "-o", "-")
	if err != nil {
		t.Fatalf("render reset: %v", err)
	}
	if !strings.Contains(out, "Alopias") {
		t.Fatalf("expected reset to clear selections")
	}

	if _, _, err := env.run(t, "presets", "delete", "lamnids"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := env.run(t, "presets", "delete", "lamnids"); !errors.Is(err, preset.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPresetCommandsWithSQLite(t *testing.T) {
	env := newCLIEnv(t)
	t.Setenv("PHYLOTREE_PRESETS_DRIVER", "sqlite")
	t.Setenv("PHYLOTREE_PRESETS_SQLITE_PATH", filepath.Join(env.dir, "presets.db"))
	if _, _, err := env.run(t, "presets", "save", "angels", "--state", `{"title":"Angels","levels":["Genus","Species"]}`); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, _, err := env.run(t, "presets", "show", "angels")
	if err != nil || !strings.Contains(out, `"Genus"`) {
		t.Fatalf("show: %q %v", out, err)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	env := newCLIEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--data", env.data, "serve", "--addr", "127.0.0.1:0"})
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()
	time.Sleep(200 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatalf("serve did not stop")
	}
}
