// Package native binds the fixed C filter ABI through dlopen/dlsym.
//
// The ABI this package assumes (C declarations):
//
//	typedef struct { float x, y, z; } axis_t;
//	typedef struct { float a, b, c, d; } quaternion_t;
//
//	quaternion_t madgwick_filter(axis_t acc, axis_t gyro, axis_t mag);
//	void set_beta(float beta);     // optional
//	void set_deltat(float deltat); // optional
//
// Struct arguments and results are passed by value with the platform's
// standard C calling convention. Go cannot call C function pointers
// directly, so every call goes through a small C trampoline that casts the
// resolved symbol to the declared signature.
//
// # Risks this package cannot mitigate
//
// A symbol whose real signature differs from the declaration above produces
// undefined behavior at the call boundary. A crash or hang inside native code
// takes the whole process with it; there is no sandbox and no timeout.
//
// Libraries are opened RTLD_NOW|RTLD_LOCAL so that two modules exporting the
// same global names (beta, deltat, quat) keep separate copies. State shared
// below that level, such as a common library both modules link against, is
// not isolated.
//
// Libraries are never closed: a handle lives for the rest of the process.
//
// Without cgo, or on platforms lacking dlfcn.h, Open returns ErrUnsupported.
package native

import "errors"

// ErrUnsupported is returned by Open when the binary was built without
// dynamic-loading support.
var ErrUnsupported = errors.New("native module loading not supported in this build")

// ErrSymbolNotFound is returned by Lookup when the library does not export
// the requested name.
var ErrSymbolNotFound = errors.New("symbol not found")
