// Package storetest opens throwaway local stores for package tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/gophnotes/internal/client/client"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// Open returns a migrated SQLite store in the test's temp dir.
func Open(t testing.TB) *client.Repositories {
	t.Helper()
	repos, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })
	return repos
}
