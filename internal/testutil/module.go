package testutil

import (
	"errors"
	"sync"

	"github.com/roach88/madgwhat/internal/filter"
	"github.com/roach88/madgwhat/internal/fusion"
)

var errNotRegistered = errors.New("no fake module registered for path")

// FixedMeasurement returns acc=(1,2,3) gyro=(4,5,6) mag=(7,8,9).
func FixedMeasurement() fusion.Measurement {
	return fusion.Measurement{
		Acc:  fusion.Axis{X: 1, Y: 2, Z: 3},
		Gyro: fusion.Axis{X: 4, Y: 5, Z: 6},
		Mag:  fusion.Axis{X: 7, Y: 8, Z: 9},
	}
}

// FakeModule is an in-process filter.Module.
//
// Fn computes the result; when nil the quaternion is (1,0,0,0).
// NoEntryPoint makes Invoke fail with filter.ErrNoEntryPoint.
// Tuning calls are recorded only when the matching Has* flag is set.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FakeModule struct {
	ModulePath   string
	Fn           func(fusion.Measurement) fusion.Quaternion
	NoEntryPoint bool
	HasBeta      bool
	HasDeltat    bool

	mu      sync.Mutex
	calls   int
	beta    []float32
	deltat  []float32
	touched []fusion.Measurement
}

var _ filter.Module = (*FakeModule)(nil)

// NewFakeModule returns a fake with both setters and a constant result.
func NewFakeModule(path string, q fusion.Quaternion) *FakeModule {
	return &FakeModule{
		ModulePath: path,
		Fn:         func(fusion.Measurement) fusion.Quaternion { return q },
		HasBeta:    true,
		HasDeltat:  true,
	}
}

func (f *FakeModule) Path() string {
	return f.ModulePath
}

func (f *FakeModule) Capabilities() filter.Capabilities {
	return filter.Capabilities{Filter: !f.NoEntryPoint, Beta: f.HasBeta, Deltat: f.HasDeltat}
}

func (f *FakeModule) Invoke(m fusion.Measurement) (fusion.Quaternion, error) {
	if f.NoEntryPoint {
		return fusion.Quaternion{}, filter.ErrNoEntryPoint
	}

	f.mu.Lock()
	f.calls++
	f.touched = append(f.touched, m)
	fn := f.Fn
	f.mu.Unlock()

	// fn runs unlocked, like native code, so callers that overlap are visible to it.
	if fn == nil {
		return fusion.Quaternion{A: 1}, nil
	}
	return fn(m), nil
}

func (f *FakeModule) SetBeta(v float32) bool {
	if !f.HasBeta {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.beta = append(f.beta, v)
	return true
}

func (f *FakeModule) SetDeltat(v float32) bool {
	if !f.HasDeltat {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deltat = append(f.deltat, v)
	return true
}

// Calls returns the number of successful Invoke calls.
func (f *FakeModule) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Inputs returns the measurements passed to Invoke, in call order.
func (f *FakeModule) Inputs() []fusion.Measurement {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fusion.Measurement(nil), f.touched...)
}

// BetaCalls returns the values applied through SetBeta.
func (f *FakeModule) BetaCalls() []float32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]float32(nil), f.beta...)
}

// DeltatCalls returns the values applied through SetDeltat.
func (f *FakeModule) DeltatCalls() []float32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]float32(nil), f.deltat...)
}

// FakeLoader returns a filter.Loader serving modules by path.
// Paths without a module fail with an error wrapping filter.ErrOpenFailed.
func FakeLoader(modules ...filter.Module) filter.Loader {
	byPath := make(map[string]filter.Module, len(modules))
	for _, m := range modules {
		byPath[m.Path()] = m
	}
	return func(path string) (filter.Module, error) {
		m, ok := byPath[path]
		if !ok {
			return nil, &filter.LoadError{Path: path, Err: errNotRegistered}
		}
		return m, nil
	}
}
