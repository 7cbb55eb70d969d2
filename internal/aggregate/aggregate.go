// Package aggregate orders the outcomes of a run and measures how far the
// modules disagree.
//
// Divergence is module-against-module: the first present outcome in sorted
// order is the reference and every other present outcome is compared with
// it component by component. Nothing here knows the true orientation.
package aggregate

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/madgwhat/internal/fusion"
	"github.com/roach88/madgwhat/internal/harness"
)

// DefaultTolerance is the absolute tolerance used when none is configured.
const DefaultTolerance = 1e-6

// Tolerance defines acceptable numeric drift between modules.
type Tolerance struct {
	Abs float64
}

// Deviation is a non-negative difference that may be +Inf.
// It marshals to a JSON number, or to the string "+Inf".
type Deviation float64

func (d Deviation) MarshalJSON() ([]byte, error) {
	if math.IsInf(float64(d), 1) {
		return []byte(`"+Inf"`), nil
	}
	return strconv.AppendFloat(nil, float64(d), 'g', -1, 64), nil
}

// Entry is one sorted outcome with its comparison against the reference.
type Entry struct {
	harness.Outcome

	// Reference marks the entry every other one is compared with.
	Reference bool `json:"reference"`

	// MaxAbsErr is the largest component difference from the reference.
	// Zero for absent entries and for the reference itself.
	MaxAbsErr Deviation `json:"max_abs_err"`

	// Agree is false for absent entries.
	Agree bool `json:"agree"`
}

// Report is the aggregated view of a run.
type Report struct {
	Measurement fusion.Measurement `json:"measurement"`
	Entries     []Entry            `json:"entries"`

	// Reference is the module of the reference entry, empty if none is present.
	Reference string    `json:"reference"`
	Tolerance Tolerance `json:"-"`

	// Divergent counts present entries that disagree with the reference.
	Divergent int  `json:"divergent"`
	Diverged  bool `json:"diverged"`
}

// Sort returns a copy of outcomes ordered by module identifier, compared
// byte-wise. The sort is stable and the input is not modified.
func Sort(outcomes []harness.Outcome) []harness.Outcome {
	sorted := slices.Clone(outcomes)
	if sorted == nil {
		sorted = []harness.Outcome{}
	}
	slices.SortStableFunc(sorted, func(a, b harness.Outcome) int {
		return strings.Compare(a.Module, b.Module)
	})
	return sorted
}

// Aggregate sorts the run and compares every present outcome with the
// reference.
func Aggregate(run harness.TestRun, tol Tolerance) Report {
	sorted := Sort(run.Outcomes)

	report := Report{
		Measurement: run.Measurement,
		Entries:     make([]Entry, len(sorted)),
		Tolerance:   tol,
	}

	var ref *fusion.Quaternion
	for i, o := range sorted {
		e := Entry{Outcome: o}
		switch {
		case !o.Present():
		case ref == nil:
			ref = o.Quaternion
			report.Reference = o.Module
			e.Reference = true
			e.Agree = true
		default:
			e.MaxAbsErr = Deviation(maxAbsErr(*o.Quaternion, *ref))
			e.Agree = float64(e.MaxAbsErr) <= tol.Abs
			if !e.Agree {
				report.Divergent++
			}
		}
		report.Entries[i] = e
	}

	report.Diverged = report.Divergent > 0
	return report
}

// Outcomes returns the sorted outcomes without comparison data.
func (r Report) Outcomes() []harness.Outcome {
	outcomes := make([]harness.Outcome, len(r.Entries))
	for i, e := range r.Entries {
		outcomes[i] = e.Outcome
	}
	return outcomes
}

// Fingerprint identifies the sorted outcomes by content.
func (r Report) Fingerprint() (string, error) {
	return fusion.OutcomesFingerprint(harness.TestRun{Outcomes: r.Outcomes()}.Records())
}

// maxAbsErr compares component-wise. Identical non-finite components
// (NaN with NaN, or infinities of the same sign) count as equal; any other
// non-finite pairing is an infinite difference.
func maxAbsErr(got, want fusion.Quaternion) float64 {
	g, w := got.Components(), want.Components()

	var maxErr float64
	for i := range g {
		d := componentDiff(float64(g[i]), float64(w[i]))
		if d > maxErr {
			maxErr = d
		}
	}
	return maxErr
}

func componentDiff(a, b float64) float64 {
	switch {
	case math.IsNaN(a) || math.IsNaN(b):
		if math.IsNaN(a) && math.IsNaN(b) {
			return 0
		}
		return math.Inf(1)
	case math.IsInf(a, 0) || math.IsInf(b, 0):
		if a == b {
			return 0
		}
		return math.Inf(1)
	}
	return math.Abs(a - b)
}
