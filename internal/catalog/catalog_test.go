package catalog

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// touch creates an empty file and returns its path.
func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, nil, 0644))
	return path
}

func canonical(t *testing.T, path string) string {
	t.Helper()
	c, err := Canonicalize(path)
	require.NoError(t, err)
	return c
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

func TestDiscover_Empty(t *testing.T) {
	paths := Discover(nil, nil, nil)
	assert.NotNil(t, paths)
	assert.Empty(t, paths)
}

func TestDiscover_ExplicitMissingDropped(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a"+Extension)
	missing := filepath.Join(dir, "missing"+Extension)

	paths := Discover([]string{missing, a}, nil, nil)
	assert.Equal(t, []string{canonical(t, a)}, paths)
}

func TestDiscover_ExplicitKeepsAnyExtension(t *testing.T) {
	dir := t.TempDir()
	odd := touch(t, dir, "filter.bin")

	paths := Discover([]string{odd}, nil, nil)
	assert.Equal(t, []string{canonical(t, odd)}, paths)
}

func TestDiscover_ScanFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a"+Extension)
	touch(t, dir, "notes.txt")
	touch(t, dir, "a"+Extension+".bak")
	touch(t, dir, "noext")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"+Extension), 0755))

	paths := Discover(nil, []string{dir}, nil)
	assert.Equal(t, []string{canonical(t, a)}, paths)
}

func TestDiscover_OnlyNonMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "readme.md")

	paths := Discover(nil, []string{dir}, nil)
	assert.Empty(t, paths)
}

func TestDiscover_DeduplicatesExplicitAndScanned(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a"+Extension)
	b := touch(t, dir, "b"+Extension)

	paths := Discover([]string{a, a}, []string{dir, dir}, nil)
	assert.Equal(t, []string{canonical(t, a), canonical(t, b)}, paths)
}

func TestDiscover_DeduplicatesSpellings(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, dir, "a"+Extension)
	dotted := filepath.Join(dir, ".", "a"+Extension)
	parent := filepath.Join(dir, "sub", "..", "a"+Extension)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))

	paths := Discover([]string{a, dotted, parent}, nil, nil)
	assert.Len(t, paths, 1)
}

func TestDiscover_KeepsNonNFCNames(t *testing.T) {
	dir := t.TempDir()
	nfd := touch(t, dir, "cafe\u0301"+Extension)

	paths := Discover([]string{nfd}, nil, nil)
	require.Len(t, paths, 1)
	for _, p := range paths {
		_, err := os.Stat(p)
		assert.NoError(t, err, "discovered path %q must exist", p)
	}
	assert.Equal(t, "cafe\u0301"+Extension, filepath.Base(paths[0]))
}

func TestDiscover_NormalizationTwinsAreDistinct(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("filesystem may treat normalization variants as one name")
	}
	dir := t.TempDir()
	touch(t, dir, "cafe\u0301"+Extension)
	touch(t, dir, "caf\u00e9"+Extension)

	paths := Discover(nil, []string{dir}, nil)
	require.Len(t, paths, 2)
	for _, p := range paths {
		_, err := os.Stat(p)
		assert.NoError(t, err, "discovered path %q must exist", p)
	}
}

func TestDiscover_DeduplicatesSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir := t.TempDir()
	a := touch(t, dir, "a"+Extension)
	link := filepath.Join(dir, "link"+Extension)
	require.NoError(t, os.Symlink(a, link))

	paths := Discover([]string{link}, []string{dir}, nil)
	assert.Equal(t, []string{canonical(t, a)}, paths)
}

func TestDiscover_UnreadableDirSkipped(t *testing.T) {
	good := t.TempDir()
	a := touch(t, good, "a"+Extension)
	bad := filepath.Join(t.TempDir(), "does-not-exist")

	logger, buf := bufferLogger()
	paths := Discover(nil, []string{bad, good}, logger)

	assert.Equal(t, []string{canonical(t, a)}, paths)
	assert.Contains(t, buf.String(), "cannot scan module directory")
	assert.Contains(t, buf.String(), bad)
}

func TestDiscover_SortedAscending(t *testing.T) {
	dir := t.TempDir()
	c := touch(t, dir, "c"+Extension)
	a := touch(t, dir, "a"+Extension)
	b := touch(t, dir, "b"+Extension)

	paths := Discover([]string{c, b}, []string{dir}, nil)
	assert.Equal(t, []string{canonical(t, a), canonical(t, b), canonical(t, c)}, paths)
}

func TestHasExtension(t *testing.T) {
	assert.True(t, HasExtension("libfilter"+Extension))
	assert.False(t, HasExtension("libfilter"))
	assert.False(t, HasExtension("libfilter"+Extension+".1"))
}

func TestCanonicalize_Missing(t *testing.T) {
	_, err := Canonicalize(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestCanonicalize_Absolute(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a"+Extension)

	wd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(wd) })
	require.NoError(t, os.Chdir(dir))

	got, err := Canonicalize("a" + Extension)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, canonical(t, filepath.Join(dir, "a"+Extension)), got)
}
