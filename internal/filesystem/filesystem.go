// Package filesystem is the narrow file-system capability consumed by the engine.
// Nothing else in the engine touches the operating system directly.
package filesystem

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// FS enumerates, reads and deletes files.
type FS interface {
	// ListFiles yields the slash-separated paths of all regular files below root, relative to root.
	ListFiles(root string) ([]string, error)
	// OpenForRead opens a file given by its full system-native path.
	OpenForRead(path string) (io.ReadCloser, error)
	// Delete removes a single file given by its full system-native path.
	Delete(path string) error
}

// Afero implements FS on top of any afero file system.
type Afero struct {
	fs afero.Fs
}

func New(fs afero.Fs) *Afero {
	return &Afero{fs: fs}
}

// NewOS operates on the real disk.
func NewOS() *Afero {
	return New(afero.NewOsFs())
}

// NewMemory operates on a volatile in-memory tree, mainly for tests.
func NewMemory() *Afero {
	return New(afero.NewMemMapFs())
}

// Fs exposes the underlying file system, e.g. to share it with catalog storage.
func (a *Afero) Fs() afero.Fs {
	return a.fs
}

func (a *Afero) ListFiles(root string) ([]string, error) {
	var files []string
	visitor := func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	}
	if err := afero.Walk(a.fs, root, visitor); err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func (a *Afero) OpenForRead(path string) (io.ReadCloser, error) {
	return a.fs.Open(path)
}

func (a *Afero) Delete(path string) error {
	info, err := a.fs.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return &os.PathError{Op: "delete", Path: path, Err: os.ErrInvalid}
	}
	return a.fs.Remove(path)
}
