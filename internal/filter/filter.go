// Package filter adapts loaded native modules to a narrow capability interface.
//
// The Module interface {Invoke, SetBeta, SetDeltat} is all the test bench
// sees, so orchestration stays free of loader details and can be exercised
// against in-process fakes. NativeModule is the dlopen-backed implementation.
//
// Capabilities are probed once, at load time, and cached for the module's
// lifetime: failure behavior is deterministic and the diagnostic for a
// missing entry point is emitted once rather than per call.
package filter

import (
	"errors"
	"fmt"

	"github.com/roach88/madgwhat/internal/fusion"
)

// Exported symbol names of the filter ABI.
const (
	SymbolFilter    = "madgwick_filter"
	SymbolSetBeta   = "set_beta"
	SymbolSetDeltat = "set_deltat"
)

var (
	// ErrOpenFailed marks a module that could not be loaded at all.
	ErrOpenFailed = errors.New("module failed to open")

	// ErrNoEntryPoint is returned by Invoke when the module lacks madgwick_filter.
	ErrNoEntryPoint = errors.New("module does not export " + SymbolFilter)
)

// LoadError reports a module that failed to open.
// errors.Is(err, ErrOpenFailed) holds for every LoadError.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{ErrOpenFailed, e.Err}
}

// Capabilities records which ABI symbols a module exports.
type Capabilities struct {
	Filter bool `json:"filter"`
	Beta   bool `json:"beta"`
	Deltat bool `json:"deltat"`
}

// Module is one filter implementation under test.
//
// Implementations must serialize calls internally: the module may keep
// global filter state that is unsafe to touch from two callers at once.
type Module interface {
	// Path identifies the module; unique within a bench.
	Path() string

	// Capabilities reports the cached symbol probe.
	Capabilities() Capabilities

	// Invoke runs the filter once. A module without the entry point returns
	// ErrNoEntryPoint and never a partial quaternion.
	Invoke(m fusion.Measurement) (fusion.Quaternion, error)

	// SetBeta and SetDeltat apply a tuning value that persists inside the
	// module for later Invoke calls. They return false, and do nothing, when
	// the module lacks the setter.
	SetBeta(v float32) bool
	SetDeltat(v float32) bool
}

// Loader opens the module at path.
type Loader func(path string) (Module, error)
