package filesystem

import (
	"io"
	"path/filepath"
)

// Faulty wraps an FS and injects failures for selected paths.
// It exists to exercise partial-failure handling without real broken media.
type Faulty struct {
	FS
	OpenFailures   map[string]error //keyed by full path
	DeleteFailures map[string]error //keyed by full path
	Deleted        []string         //successful deletions in call order
}

func NewFaulty(inner FS) *Faulty {
	return &Faulty{
		FS:             inner,
		OpenFailures:   make(map[string]error),
		DeleteFailures: make(map[string]error),
	}
}

func (f *Faulty) OpenForRead(path string) (io.ReadCloser, error) {
	if err, fails := f.OpenFailures[filepath.Clean(path)]; fails {
		return nil, err
	}
	return f.FS.OpenForRead(path)
}

func (f *Faulty) Delete(path string) error {
	if err, fails := f.DeleteFailures[filepath.Clean(path)]; fails {
		return err
	}
	if err := f.FS.Delete(path); err != nil {
		return err
	}
	f.Deleted = append(f.Deleted, path)
	return nil
}
