package treeapi

import (
	"strings"
	"testing"

	"phylotree/testutil"
)

// Storage drivers are reached through preset.Store and blob.Store only.
func TestNoStorageDriverImports(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", func(path string) bool {
		return strings.HasPrefix(path, "phylotree/internal/infra/") || path == "database/sql"
	}, "treeapi talks to storage through its interfaces")
}
