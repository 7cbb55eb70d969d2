package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/madgwhat/internal/fusion"
	"github.com/roach88/madgwhat/internal/harness"
	"github.com/roach88/madgwhat/internal/store"
	"github.com/roach88/madgwhat/internal/testutil"
)

// seedHistory writes two runs and returns the database path and run ids.
func seedHistory(t *testing.T) (string, []string) {
	t.Helper()
	db := filepath.Join(t.TempDir(), "history.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	q := fusion.Quaternion{A: 1, B: 2, C: 3, D: 4}
	seed := uint64(42)
	var ids []string
	for _, s := range []*uint64{&seed, nil} {
		run, err := store.NewRun(testutil.FixedMeasurement(), []harness.Outcome{
			{Module: "/lib/a.so", Quaternion: &q},
			{Module: "/lib/b.so", Err: "module does not export madgwick_filter"},
		}, s)
		require.NoError(t, err)
		_, _, err = st.WriteRun(context.Background(), run)
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}
	return db, ids
}

func TestHistory_List(t *testing.T) {
	db, ids := seedHistory(t)

	stdout, _, err := execRoot("history", "--db", db)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], ids[0])
	assert.Contains(t, lines[0], "seed=42")
	assert.Contains(t, lines[1], ids[1])
	assert.Contains(t, lines[1], "fresh")
}

func TestHistory_ListJSON(t *testing.T) {
	db, ids := seedHistory(t)

	stdout, _, err := execRoot("--format", "json", "history", "--db", db)
	require.NoError(t, err)

	var env struct {
		Data HistoryList `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &env))
	require.Len(t, env.Data.Runs, 2)
	assert.Equal(t, ids[0], env.Data.Runs[0].ID)
	assert.Equal(t, int64(1), env.Data.Runs[0].Seq)
	assert.Equal(t, int64(2), env.Data.Runs[1].Seq)
}

func TestHistory_Empty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	stdout, _, err := execRoot("history", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded.\n", stdout)
}

func TestHistory_ShowRun(t *testing.T) {
	db, ids := seedHistory(t)

	stdout, _, err := execRoot("history", "--db", db, ids[0])
	require.NoError(t, err)
	assert.Contains(t, stdout, "Run "+ids[0]+" (seq 1)")
	assert.Contains(t, stdout, "Seed: 42")
	assert.Contains(t, stdout, "/lib/a.so  [1, 2, 3, 4]")
	assert.Contains(t, stdout, "/lib/b.so  absent (module does not export madgwick_filter)")
}

func TestHistory_UnknownRun(t *testing.T) {
	db, _ := seedHistory(t)

	stdout, _, err := execRoot("--format", "json", "history", "--db", db, "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, `"code":"E201"`)
}

func TestHistory_MissingDatabase(t *testing.T) {
	_, _, err := execRoot("history", "--db", filepath.Join(t.TempDir(), "absent.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}

func TestHistory_TooManyArgs(t *testing.T) {
	db, _ := seedHistory(t)

	_, _, err := execRoot("history", "--db", db, "a", "b")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHistory_RequiresDB(t *testing.T) {
	_, _, err := execRoot("history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db")
}

// seedDistinctHistory writes runs with two different inputs and two different
// results and returns the database path and the stored runs.
func seedDistinctHistory(t *testing.T) (string, []store.Run) {
	t.Helper()
	db := filepath.Join(t.TempDir(), "history.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	other := testutil.FixedMeasurement()
	other.Gyro.Z = 0.5
	q1 := fusion.Quaternion{A: 1}
	q2 := fusion.Quaternion{A: 2}

	inputs := []struct {
		m fusion.Measurement
		q *fusion.Quaternion
	}{
		{testutil.FixedMeasurement(), &q1},
		{other, &q1},
		{testutil.FixedMeasurement(), &q2},
	}
	var runs []store.Run
	for _, in := range inputs {
		run, err := store.NewRun(in.m, []harness.Outcome{{Module: "/lib/a.so", Quaternion: in.q}}, nil)
		require.NoError(t, err)
		stored, _, err := st.WriteRun(context.Background(), run)
		require.NoError(t, err)
		runs = append(runs, stored)
	}
	return db, runs
}

func TestHistory_FilterByMeasurement(t *testing.T) {
	db, runs := seedDistinctHistory(t)

	stdout, _, err := execRoot("history", "--db", db, "--measurement", runs[0].MeasurementFP[:12])
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], runs[0].ID)
	assert.Contains(t, lines[1], runs[2].ID)
}

func TestHistory_FilterByResults(t *testing.T) {
	db, runs := seedDistinctHistory(t)

	stdout, _, err := execRoot("--format", "json", "history", "--db", db, "--results", runs[0].OutcomesFP)
	require.NoError(t, err)

	var env struct {
		Data HistoryList `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &env))
	require.Len(t, env.Data.Runs, 2)
	assert.Equal(t, runs[0].ID, env.Data.Runs[0].ID)
	assert.Equal(t, runs[1].ID, env.Data.Runs[1].ID)
}

func TestHistory_FilterNoMatch(t *testing.T) {
	db, _ := seedDistinctHistory(t)

	stdout, _, err := execRoot("history", "--db", db, "--results", "ffffffffffff")
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded.\n", stdout)
}

func TestHistory_FilterWithRunID(t *testing.T) {
	db, runs := seedDistinctHistory(t)

	stdout, _, err := execRoot("--format", "json", "history", "--db", db, "--measurement", "ab", runs[0].ID)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, `"code":"E001"`)
}

func TestHistory_FiltersAreExclusive(t *testing.T) {
	db, _ := seedDistinctHistory(t)

	_, _, err := execRoot("history", "--db", db, "--measurement", "ab", "--results", "cd")
	require.Error(t, err)
}
