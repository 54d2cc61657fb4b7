package version

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/epochlab/protopack/internal/semver"
)

func writeRecord(t *testing.T, root, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, RecordFile), []byte(content), 0644))
}

func TestGet_MissingRecord(t *testing.T) {
	r := NewRegistry(t.TempDir())

	_, err := r.Get()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr), "expected ConfigError, got %T", err)
}

func TestGet_MalformedRecord(t *testing.T) {
	root := t.TempDir()
	writeRecord(t, root, "not-a-version")
	r := NewRegistry(root)

	_, err := r.Get()
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
}

func TestGet_ReadsRecord(t *testing.T) {
	root := t.TempDir()
	writeRecord(t, root, "1.2.3\n")
	r := NewRegistry(root)

	v, err := r.Get()
	require.NoError(t, err)
	require.Equal(t, "1.2.3", v.String())
}

func TestSet_PersistsAndReturnsPrevious(t *testing.T) {
	root := t.TempDir()
	writeRecord(t, root, "1.0.0")
	r := NewRegistry(root)

	previous, err := r.Set(semver.Version{Major: 2, Minor: 3, Patch: 1})
	require.NoError(t, err)
	require.Equal(t, "1.0.0", previous.String())

	v, err := r.Get()
	require.NoError(t, err)
	require.Equal(t, "2.3.1", v.String())
}

func TestSet_FirstWriteHasZeroPrevious(t *testing.T) {
	r := NewRegistry(t.TempDir())

	previous, err := r.Set(semver.Version{Major: 1})
	require.NoError(t, err)
	require.Equal(t, "0.0.0", previous.String())
}

func TestSet_LeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	r := NewRegistry(root)

	_, err := r.Set(semver.Version{Major: 1})
	require.NoError(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, RecordFile, entries[0].Name())
}

func TestBump_PersistsNextVersion(t *testing.T) {
	root := t.TempDir()
	writeRecord(t, root, "1.0.0")
	r := NewRegistry(root)

	next, err := r.Bump(semver.BumpMinor)
	require.NoError(t, err)
	require.Equal(t, "1.1.0", next.String())

	v, err := r.Get()
	require.NoError(t, err)
	require.Equal(t, "1.1.0", v.String())
}

func TestBump_MissingRecordFails(t *testing.T) {
	r := NewRegistry(t.TempDir())

	_, err := r.Bump(semver.BumpPatch)
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
}
