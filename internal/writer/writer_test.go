package writer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ninja-orval-forge/internal/diagnostic"
)

func read(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

func leftovers(t *testing.T, dir string) []string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(dir, ".forge-*.tmp"))
	require.NoError(t, err)

	return matches
}

func TestWriteCreatesParents(t *testing.T) {
	root := t.TempDir()
	w := NewDisk(root)

	require.NoError(t, w.Write("main/apis/ninja/api.py", []byte("api = 1\n"), ""))

	target := filepath.Join(root, "main", "apis", "ninja", "api.py")
	assert.Equal(t, "api = 1\n", read(t, target))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(filePerm), info.Mode().Perm())
	assert.Empty(t, leftovers(t, filepath.Dir(target)))
}

func TestWriteWithBackup(t *testing.T) {
	root := t.TempDir()
	w := NewDisk(root)

	require.NoError(t, w.WriteFile("a.py", []byte("old\n")))
	require.NoError(t, w.Write("a.py", []byte("new\n"), "a.py.bak"))

	assert.Equal(t, "new\n", read(t, filepath.Join(root, "a.py")))
	assert.Equal(t, "old\n", read(t, filepath.Join(root, "a.py.bak")))
	assert.Empty(t, leftovers(t, root))
}

func TestWriteBackupOfMissingFile(t *testing.T) {
	root := t.TempDir()
	w := NewDisk(root)

	require.NoError(t, w.Write("a.py", []byte("new\n"), "a.py.bak"))

	_, err := os.Stat(filepath.Join(root, "a.py.bak"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestWriteRenameFailureKeepsOriginal(t *testing.T) {
	root := t.TempDir()
	w := NewDisk(root)

	// A directory in place of the target makes the final rename fail.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a.py", "inner"), dirPerm))

	err := w.Write("a.py", []byte("new\n"), "")
	require.Error(t, err)

	var writeErr *diagnostic.WriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, "a.py", writeErr.Path)
	assert.Equal(t, "rename", writeErr.Op)

	info, statErr := os.Stat(filepath.Join(root, "a.py"))
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())
	assert.Empty(t, leftovers(t, root))
}

func TestWriteRenameFailureKeepsEarlierBackup(t *testing.T) {
	root := t.TempDir()
	w := NewDisk(root)

	require.NoError(t, w.WriteFile("a.py", []byte("old\n")))
	require.NoError(t, w.WriteFile("a.py.bak", []byte("older\n")))

	target := filepath.Join(root, "a.py")

	rename = func(from, to string) error {
		if to == target {
			return &os.LinkError{Op: "rename", Old: from, New: to, Err: os.ErrPermission}
		}

		return os.Rename(from, to)
	}
	t.Cleanup(func() { rename = os.Rename })

	err := w.Write("a.py", []byte("new\n"), "a.py.bak")

	var writeErr *diagnostic.WriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, "rename", writeErr.Op)

	assert.Equal(t, "old\n", read(t, target))
	assert.Equal(t, "older\n", read(t, filepath.Join(root, "a.py.bak")))
	assert.Empty(t, leftovers(t, root))
}

func TestWriteBackupFailureRestoresOriginal(t *testing.T) {
	root := t.TempDir()
	w := NewDisk(root)

	require.NoError(t, w.WriteFile("a.py", []byte("old\n")))
	// A non-empty directory in place of the backup makes its rename fail.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a.py.bak", "inner"), dirPerm))

	err := w.Write("a.py", []byte("new\n"), "a.py.bak")

	var writeErr *diagnostic.WriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, "backup", writeErr.Op)

	assert.Equal(t, "old\n", read(t, filepath.Join(root, "a.py")))
	assert.DirExists(t, filepath.Join(root, "a.py.bak", "inner"))
	assert.Empty(t, leftovers(t, root))
}

func TestWriteMkdirFailure(t *testing.T) {
	root := t.TempDir()
	w := NewDisk(root)

	require.NoError(t, w.WriteFile("blocker", []byte("x")))

	err := w.Write("blocker/a.py", []byte("new\n"), "")

	var writeErr *diagnostic.WriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, "mkdir", writeErr.Op)
}

func TestEnsureDir(t *testing.T) {
	root := t.TempDir()
	w := NewDisk(root)

	require.NoError(t, w.EnsureDir("frontend/composables"))
	require.NoError(t, w.EnsureDir("frontend/composables"))

	info, err := os.Stat(filepath.Join(root, "frontend", "composables"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
