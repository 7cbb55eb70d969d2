//go:build cgo && (linux || darwin || freebsd || netbsd || openbsd)

package native

/*
#cgo linux LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>

typedef struct { float x; float y; float z; } madg_axis;
typedef struct { float a; float b; float c; float d; } madg_quat;

typedef madg_quat (*madg_filter_fn)(madg_axis, madg_axis, madg_axis);
typedef void (*madg_setter_fn)(float);

// dlerror state is per thread, so open/lookup and the error read happen in
// one C call, where the goroutine cannot migrate in between.
static void *madg_open(const char *path, char **err) {
	dlerror();
	void *h = dlopen(path, RTLD_NOW | RTLD_LOCAL);
	if (h == NULL) {
		*err = dlerror();
	}
	return h;
}

static void *madg_sym(void *handle, const char *name, char **err) {
	dlerror();
	void *sym = dlsym(handle, name);
	char *e = dlerror();
	if (e != NULL) {
		*err = e;
		return NULL;
	}
	return sym;
}

static madg_quat madg_call_filter(void *fn, madg_axis acc, madg_axis gyro, madg_axis mag) {
	return ((madg_filter_fn)fn)(acc, gyro, mag);
}

static void madg_call_setter(void *fn, float v) {
	((madg_setter_fn)fn)(v);
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/roach88/madgwhat/internal/fusion"
)

// Supported reports whether this build can open native modules.
const Supported = true

// Library is an opened native module.
type Library struct {
	path   string
	handle unsafe.Pointer
}

// Symbol is a resolved exported function.
type Symbol struct {
	name string
	ptr  unsafe.Pointer
}

// Open loads the shared object at path. It does not check any export.
func Open(path string) (*Library, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	var cerr *C.char
	h := C.madg_open(cpath, &cerr)
	if h == nil {
		return nil, fmt.Errorf("dlopen %s: %s", path, dlMessage(cerr))
	}
	return &Library{path: path, handle: h}, nil
}

// Path returns the path the library was opened from.
func (l *Library) Path() string {
	return l.path
}

// Lookup resolves an exported symbol by name. A missing export wraps
// ErrSymbolNotFound.
func (l *Library) Lookup(name string) (*Symbol, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	var cerr *C.char
	sym := C.madg_sym(l.handle, cname, &cerr)
	if sym == nil {
		return nil, fmt.Errorf("%w: %s in %s: %s", ErrSymbolNotFound, name, l.path, dlMessage(cerr))
	}
	return &Symbol{name: name, ptr: sym}, nil
}

// Name returns the exported name the symbol was resolved from.
func (s *Symbol) Name() string {
	return s.name
}

// CallFilter calls s as madgwick_filter. The caller vouches for the signature.
func CallFilter(s *Symbol, m fusion.Measurement) fusion.Quaternion {
	q := C.madg_call_filter(s.ptr, cAxis(m.Acc), cAxis(m.Gyro), cAxis(m.Mag))
	return fusion.Quaternion{
		A: float32(q.a),
		B: float32(q.b),
		C: float32(q.c),
		D: float32(q.d),
	}
}

// CallSetter calls s as a void(float) tuning setter.
func CallSetter(s *Symbol, v float32) {
	C.madg_call_setter(s.ptr, C.float(v))
}

func cAxis(a fusion.Axis) C.madg_axis {
	return C.madg_axis{x: C.float(a.X), y: C.float(a.Y), z: C.float(a.Z)}
}

func dlMessage(cerr *C.char) string {
	if cerr == nil {
		return "unknown error"
	}
	return C.GoString(cerr)
}
