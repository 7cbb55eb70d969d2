package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/roach88/madgwhat/internal/catalog"
	"github.com/roach88/madgwhat/internal/native"
)

// FilterHeader declares the filter ABI for C sources built by BuildModule.
const FilterHeader = `
typedef struct { float x; float y; float z; } axis_t;
typedef struct { float a; float b; float c; float d; } quaternion_t;
`

// BuildModule compiles a C source into a shared object named
// name+catalog.Extension inside dir and returns its path.
//
// The test is skipped when the binary cannot load native modules or no C
// compiler is available ($CC, default "cc"). A compiler error fails the test.
func BuildModule(t testing.TB, dir, name, source string) string {
	t.Helper()

	if !native.Supported {
		t.Skip("built without native module support (cgo disabled)")
	}
	cc := os.Getenv("CC")
	if cc == "" {
		cc = "cc"
	}
	if _, err := exec.LookPath(cc); err != nil {
		t.Skipf("no C compiler %q: %v", cc, err)
	}

	src := filepath.Join(dir, name+".c")
	if err := os.WriteFile(src, []byte(FilterHeader+source), 0644); err != nil {
		t.Fatalf("write %s: %v", src, err)
	}

	out := filepath.Join(dir, name+catalog.Extension)
	cmd := exec.Command(cc, "-shared", "-fPIC", "-O0", "-o", out, src)
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("compile %s: %v\n%s", src, err, output)
	}
	return out
}

// SumFilterSource exports every ABI symbol. madgwick_filter returns the
// component-wise sum of the three axes in (a, b, c) and the current beta in d.
// set_deltat stores deltat, which is added to d. Like the reference filters,
// beta and deltat are exported globals.
const SumFilterSource = `
float beta = 1.0f;
float deltat = 0.0f;

void set_beta(float b) { beta = b; }
void set_deltat(float d) { deltat = d; }

quaternion_t madgwick_filter(axis_t acc, axis_t gyro, axis_t mag) {
	quaternion_t q;
	q.a = acc.x + gyro.x + mag.x;
	q.b = acc.y + gyro.y + mag.y;
	q.c = acc.z + gyro.z + mag.z;
	q.d = beta + deltat;
	return q;
}
`

// ProductFilterSource exports only madgwick_filter, which returns the
// component-wise product of accelerometer and magnetometer and the gyro z.
const ProductFilterSource = `
quaternion_t madgwick_filter(axis_t acc, axis_t gyro, axis_t mag) {
	quaternion_t q;
	q.a = acc.x * mag.x;
	q.b = acc.y * mag.y;
	q.c = acc.z * mag.z;
	q.d = gyro.z;
	return q;
}
`

// NoEntryPointSource loads fine but exports no madgwick_filter.
const NoEntryPointSource = `
float unrelated(float v) { return v * 2.0f; }
`

// PeakFilterSource sleeps inside madgwick_filter and returns in a the
// highest number of callers it has ever seen inside the function at once.
const PeakFilterSource = `
#include <unistd.h>

static int inside = 0;
static int peak = 0;

quaternion_t madgwick_filter(axis_t acc, axis_t gyro, axis_t mag) {
	int now = __atomic_add_fetch(&inside, 1, __ATOMIC_SEQ_CST);
	int seen = __atomic_load_n(&peak, __ATOMIC_SEQ_CST);
	while (now > seen &&
		!__atomic_compare_exchange_n(&peak, &seen, now, 0, __ATOMIC_SEQ_CST, __ATOMIC_SEQ_CST)) {
	}
	usleep(2000);
	__atomic_sub_fetch(&inside, 1, __ATOMIC_SEQ_CST);

	quaternion_t q = { (float)__atomic_load_n(&peak, __ATOMIC_SEQ_CST), 0.0f, 0.0f, 0.0f };
	return q;
}
`
