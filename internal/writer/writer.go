package writer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"ninja-orval-forge/internal/diagnostic"
)

var rename = os.Rename

// File permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Writer applies files under a project root. Paths are relative to the
// root and slash separated.
type Writer interface {
	// Write replaces path with content. When backup is not empty the
	// current file, if any, is first copied to backup.
	Write(path string, content []byte, backup string) error
	// WriteFile replaces path with content without a backup.
	WriteFile(path string, content []byte) error
	// EnsureDir creates a directory and its parents.
	EnsureDir(path string) error
}

// Disk writes to the file system.
type Disk struct {
	Root string
}

// NewDisk returns a writer rooted at root.
func NewDisk(root string) *Disk {
	return &Disk{Root: root}
}

func (d *Disk) abs(path string) string {
	return filepath.Join(d.Root, filepath.FromSlash(path))
}

// Write stages the backup copy and the new content next to the target and
// renames both into place, content first. An existing backup is only
// replaced once the content is in place; when that last rename fails the
// original content is moved back, so either both files are written or
// neither is.
func (d *Disk) Write(path string, content []byte, backup string) error {
	target := d.abs(path)
	dir := filepath.Dir(target)

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return &diagnostic.WriteError{Path: path, Op: "mkdir", Err: err}
	}

	var stagedBackup string

	if backup != "" {
		old, err := os.ReadFile(target)

		switch {
		case err == nil:
			stagedBackup, err = stage(dir, old)
			if err != nil {
				return &diagnostic.WriteError{Path: path, Op: "backup", Err: err}
			}
		case !errors.Is(err, fs.ErrNotExist):
			return &diagnostic.WriteError{Path: path, Op: "backup", Err: err}
		}
	}

	staged, err := stage(dir, content)
	if err != nil {
		removeQuiet(stagedBackup)
		return &diagnostic.WriteError{Path: path, Op: "write", Err: err}
	}

	if err := rename(staged, target); err != nil {
		removeQuiet(staged)
		removeQuiet(stagedBackup)

		return &diagnostic.WriteError{Path: path, Op: "rename", Err: err}
	}

	if stagedBackup == "" {
		return nil
	}

	if err := rename(stagedBackup, d.abs(backup)); err != nil {
		if rerr := rename(stagedBackup, target); rerr != nil {
			// stagedBackup is the only copy of the original left.
			return &diagnostic.WriteError{
				Path: path, Op: "backup",
				Err: fmt.Errorf("%w; original kept in %s: %v", err, stagedBackup, rerr),
			}
		}

		return &diagnostic.WriteError{Path: path, Op: "backup", Err: err}
	}

	return nil
}

// WriteFile writes content atomically without a backup.
func (d *Disk) WriteFile(path string, content []byte) error {
	return d.Write(path, content, "")
}

// EnsureDir creates the directory path and its parents.
func (d *Disk) EnsureDir(path string) error {
	if err := os.MkdirAll(d.abs(path), dirPerm); err != nil {
		return &diagnostic.WriteError{Path: path, Op: "mkdir", Err: err}
	}

	return nil
}

// stage writes content to a new temporary file in dir and returns its name.
func stage(dir string, content []byte) (string, error) {
	f, err := os.CreateTemp(dir, ".forge-*.tmp")
	if err != nil {
		return "", err
	}

	name := f.Name()

	_, err = f.Write(content)
	if err == nil {
		err = f.Chmod(filePerm)
	}

	if err == nil {
		err = f.Sync()
	}

	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		removeQuiet(name)
		return "", err
	}

	return name, nil
}

func removeQuiet(name string) {
	if name != "" {
		_ = os.Remove(name)
	}
}
