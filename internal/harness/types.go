package harness

import (
	"github.com/roach88/madgwhat/internal/fusion"
)

// Outcome is one module's contribution to a TestRun.
// Quaternion is nil when the module produced no result; Err says why.
type Outcome struct {
	Module     string             `json:"module"`
	Quaternion *fusion.Quaternion `json:"quaternion"`
	Err        string             `json:"error,omitempty"`
}

// Present reports whether the module produced a result.
func (o Outcome) Present() bool {
	return o.Quaternion != nil
}

// Record returns the outcome in canonical-JSON form.
// Absent outcomes carry no quaternion key rather than null.
func (o Outcome) Record() map[string]any {
	rec := map[string]any{
		"module":  o.Module,
		"present": o.Present(),
	}
	if o.Quaternion != nil {
		rec["quaternion"] = *o.Quaternion
	}
	if o.Err != "" {
		rec["error"] = o.Err
	}
	return rec
}

// TestRun is the result of feeding one Measurement to every module of a bench.
type TestRun struct {
	Measurement fusion.Measurement `json:"measurement"`
	Outcomes    []Outcome          `json:"outcomes"`
}

// Records returns the outcomes in canonical-JSON form, in run order.
func (r TestRun) Records() []any {
	records := make([]any, len(r.Outcomes))
	for i, o := range r.Outcomes {
		records[i] = o.Record()
	}
	return records
}

// Present counts the outcomes that carry a result.
func (r TestRun) Present() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Present() {
			n++
		}
	}
	return n
}

// Tuning holds optional filter parameters. Nil fields are left untouched.
type Tuning struct {
	Beta   *float32
	Deltat *float32
}

// TuneReport lists modules that lacked a requested setter.
type TuneReport struct {
	MissingBeta   []string `json:"missing_beta"`
	MissingDeltat []string `json:"missing_deltat"`
}
