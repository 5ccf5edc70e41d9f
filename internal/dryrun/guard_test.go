package dryrun

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	warnings []string
	errors   []string
}

func (f *fakeSink) Warn(msg string)          { f.warnings = append(f.warnings, msg) }
func (f *fakeSink) Error(err error, msg string) { f.errors = append(f.errors, msg) }

func TestRestoreRewritesMutatedFileToOriginalContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "VERSION")
	require.NoError(t, os.WriteFile(path, []byte("1.0.0"), 0o644))

	g := New()
	require.NoError(t, g.Snapshot(path))

	require.NoError(t, os.WriteFile(path, []byte("2.0.0"), 0o644))

	errs := g.Restore(&fakeSink{})
	require.Empty(t, errs)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "1.0.0", string(got))
}

func TestRestoreRemovesFileThatDidNotExistBefore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "newfile.txt")

	g := New()
	require.NoError(t, g.Snapshot(path))

	require.NoError(t, os.WriteFile(path, []byte("created during dry run"), 0o644))

	errs := g.Restore(&fakeSink{})
	require.Empty(t, errs)

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestSnapshotIsIdempotentPerPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "VERSION")
	require.NoError(t, os.WriteFile(path, []byte("1.0.0"), 0o644))

	g := New()
	require.NoError(t, g.Snapshot(path))
	require.NoError(t, os.WriteFile(path, []byte("2.0.0"), 0o644))
	require.NoError(t, g.Snapshot(path))

	require.Equal(t, []string{path}, g.Paths())

	errs := g.Restore(&fakeSink{})
	require.Empty(t, errs)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "1.0.0", string(got))
}

func TestRestorePreservesRegistrationOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("b"), 0o644))

	g := New()
	require.NoError(t, g.Snapshot(a))
	require.NoError(t, g.Snapshot(b))

	require.Equal(t, []string{a, b}, g.Paths())
}
