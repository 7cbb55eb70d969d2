package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/madgwhat/internal/fusion"
)

// Snapshot is the canonical map of a run used for golden comparison.
func Snapshot(name string, run TestRun) map[string]any {
	return map[string]any{
		"scenario_name": name,
		"measurement":   run.Measurement,
		"outcomes":      run.Records(),
	}
}

// AssertGolden compares the run against testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Outcomes are compared in run order; callers wanting an order-independent
// snapshot sort them first.
func AssertGolden(t *testing.T, name string, run TestRun) error {
	t.Helper()

	data, err := fusion.MarshalCanonical(Snapshot(name, run))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
