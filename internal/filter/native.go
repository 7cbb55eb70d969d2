package filter

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/madgwhat/internal/fusion"
	"github.com/roach88/madgwhat/internal/native"
)

// NativeModule is a Module backed by a dlopen'ed shared object.
//
// Thread-safety: all native calls are serialized by an internal mutex.
type NativeModule struct {
	path string
	lib  *native.Library

	mu     sync.Mutex
	filter *native.Symbol // nil when absent
	beta   *native.Symbol
	deltat *native.Symbol
}

var _ Module = (*NativeModule)(nil)

// Load opens the shared object at path and probes the ABI symbols once.
//
// A module that opens but lacks madgwick_filter still loads: its Invoke
// reports ErrNoEntryPoint. Only an open failure is an error, returned as a
// *LoadError.
func Load(path string, logger *slog.Logger) (*NativeModule, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	lib, err := native.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	m := &NativeModule{path: path, lib: lib}
	m.filter = probe(lib, SymbolFilter, logger)
	m.beta = probe(lib, SymbolSetBeta, logger)
	m.deltat = probe(lib, SymbolSetDeltat, logger)

	if m.filter == nil {
		logger.Warn("module has no filter entry point; its results will be absent",
			"module", path, "symbol", SymbolFilter)
	}
	logger.Debug("module loaded", "module", path, "capabilities", m.Capabilities())
	return m, nil
}

// NewLoader returns a Loader that opens native modules with Load.
func NewLoader(logger *slog.Logger) Loader {
	return func(path string) (Module, error) {
		m, err := Load(path, logger)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

func probe(lib *native.Library, name string, logger *slog.Logger) *native.Symbol {
	sym, err := lib.Lookup(name)
	if err != nil {
		if !errors.Is(err, native.ErrSymbolNotFound) {
			logger.Warn("symbol probe failed", "module", lib.Path(), "symbol", name, "error", err)
		}
		return nil
	}
	return sym
}

// Path returns the canonical path the module was loaded from.
func (m *NativeModule) Path() string {
	return m.path
}

// Capabilities returns the symbols found at load time.
func (m *NativeModule) Capabilities() Capabilities {
	return Capabilities{
		Filter: m.filter != nil,
		Beta:   m.beta != nil,
		Deltat: m.deltat != nil,
	}
}

// Invoke calls madgwick_filter with the measurement.
func (m *NativeModule) Invoke(meas fusion.Measurement) (fusion.Quaternion, error) {
	if m.filter == nil {
		return fusion.Quaternion{}, fmt.Errorf("%s: %w", m.path, ErrNoEntryPoint)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return native.CallFilter(m.filter, meas), nil
}

// SetBeta calls set_beta when the module exports it.
func (m *NativeModule) SetBeta(v float32) bool {
	return m.set(m.beta, v)
}

// SetDeltat calls set_deltat when the module exports it.
func (m *NativeModule) SetDeltat(v float32) bool {
	return m.set(m.deltat, v)
}

func (m *NativeModule) set(sym *native.Symbol, v float32) bool {
	if sym == nil {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	native.CallSetter(sym, v)
	return true
}
