package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/madgwhat/internal/fusion"
	"github.com/roach88/madgwhat/internal/harness"
	"github.com/roach88/madgwhat/internal/testutil"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a two-module run with one absent outcome.
func createTestRun(t *testing.T, seed *uint64) Run {
	t.Helper()
	q := fusion.Quaternion{A: 12, B: 15, C: 18, D: 1}
	run, err := NewRun(testutil.FixedMeasurement(), []harness.Outcome{
		{Module: "/lib/a.so", Quaternion: &q},
		{Module: "/lib/b.so", Err: "module does not export madgwick_filter"},
	}, seed)
	require.NoError(t, err)
	return run
}
