package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmoreno/microhunt/internal/ledger"
)

func TestInitLedgerOpensSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hunts", "ledger.db")

	store := initLedger(path)
	defer func() { _ = store.Close() }()

	assert.IsType(t, &ledger.SQLiteStore{}, store)
	require.NoError(t, store.MarkSeen(context.Background(), "GHSI"))
	assert.Contains(t, store.Load(context.Background()), "GHSI")
}

func TestInitLedgerFallsBackToMemoryOnBadPath(t *testing.T) {
	// A regular file where a directory is needed makes the sqlite ledger
	// unopenable; the hunt must still get a working store.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	store := initLedger(filepath.Join(blocker, "sub", "ledger.db"))
	defer func() { _ = store.Close() }()

	assert.IsType(t, &ledger.Memory{}, store)
	require.NoError(t, store.MarkSeen(context.Background(), "GHSI"))
	assert.Contains(t, store.Load(context.Background()), "GHSI")
}
