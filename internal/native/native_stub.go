//go:build !cgo || !(linux || darwin || freebsd || netbsd || openbsd)

package native

import (
	"fmt"

	"github.com/roach88/madgwhat/internal/fusion"
)

// Supported reports whether this build can open native modules.
const Supported = false

// Library is an opened native module. This build cannot open any.
type Library struct {
	path string
}

// Symbol is a resolved exported function.
type Symbol struct {
	name string
}

// Open always fails in this build.
func Open(path string) (*Library, error) {
	return nil, fmt.Errorf("dlopen %s: %w", path, ErrUnsupported)
}

// Path returns the path the library was opened from.
func (l *Library) Path() string {
	return l.path
}

// Lookup always fails in this build.
func (l *Library) Lookup(name string) (*Symbol, error) {
	return nil, fmt.Errorf("%w: %s in %s", ErrSymbolNotFound, name, l.path)
}

// Name returns the exported name the symbol was resolved from.
func (s *Symbol) Name() string {
	return s.name
}

// CallFilter is unreachable in this build: no Symbol can be resolved.
func CallFilter(s *Symbol, m fusion.Measurement) fusion.Quaternion {
	panic("native: CallFilter without dynamic-loading support")
}

// CallSetter is unreachable in this build: no Symbol can be resolved.
func CallSetter(s *Symbol, v float32) {
	panic("native: CallSetter without dynamic-loading support")
}
