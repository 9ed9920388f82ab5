// Package scan turns directory listings into catalogs and index entries.
// A Builder is used by one scan at a time; the records under construction belong to that scan alone.
package scan

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/n2code/dupcat/internal/catalog"
	"github.com/n2code/dupcat/internal/content"
	"github.com/n2code/dupcat/internal/errors"
	"github.com/n2code/dupcat/internal/filesystem"
)

const DefaultProgressEvery = 100

// Config is consumed by NewBuilder. Only FS is required.
type Config struct {
	FS            filesystem.FS
	Log           zerolog.Logger //zero value discards everything
	ProgressEvery int            //files between progress messages
	Exclude       []string       //files never cataloged (case-insensitive, with their .wip), e.g. the catalog file itself
	Now           func() time.Time
}

type Builder struct {
	fs            filesystem.FS
	log           zerolog.Logger
	progressEvery int
	exclude       map[catalog.PathKey]bool
	now           func() time.Time
}

// Failure is a file that could not be processed. It never aborts a scan.
type Failure struct {
	Path catalog.SemanticPath
	Err  error
}

func (f Failure) Message() string {
	return f.Err.Error()
}

func NewBuilder(cfg Config) *Builder {
	b := &Builder{
		fs:            cfg.FS,
		log:           cfg.Log,
		progressEvery: cfg.ProgressEvery,
		exclude:       make(map[catalog.PathKey]bool, 2*len(cfg.Exclude)),
		now:           cfg.Now,
	}
	for _, excluded := range cfg.Exclude {
		abs, err := ResolveDirectory(excluded)
		if err != nil {
			continue
		}
		b.exclude[catalog.KeyOf(abs)] = true
		b.exclude[catalog.KeyOf(abs+".wip")] = true
	}
	if b.progressEvery <= 0 {
		b.progressEvery = DefaultProgressEvery
	}
	if b.now == nil {
		b.now = func() time.Time { return time.Now().UTC() }
	}
	return b
}

// ResolveDirectory yields the absolute, cleaned form used to compare base directories.
func ResolveDirectory(directory string) (string, error) {
	abs, err := filepath.Abs(directory)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// isExcluded matches the exact location only, equally named files elsewhere in the tree are cataloged.
func (b *Builder) isExcluded(root string, relativePath string) bool {
	return b.exclude[catalog.KeyOf(filepath.Join(root, filepath.FromSlash(relativePath)))]
}

func (b *Builder) runLogger(root string, operation string) zerolog.Logger {
	return b.log.With().
		Str("scan_id", uuid.NewString()).
		Str("operation", operation).
		Str("root", root).
		Logger()
}

// list enumerates root and drops excluded names. Enumeration failure is fatal.
func (b *Builder) list(root string) ([]string, error) {
	all, err := b.fs.ListFiles(root)
	if err != nil {
		return nil, errors.NewIOError("list", root, err)
	}
	listing := make([]string, 0, len(all))
	for _, p := range all {
		if !b.isExcluded(root, p) {
			listing = append(listing, p)
		}
	}
	return listing, nil
}

// hashFile reads one file completely. Errors come back as IOError for the caller to record.
func (b *Builder) hashFile(root string, relativePath string) (hash content.Hash, size int64, err error) {
	fullPath := filepath.Join(root, filepath.FromSlash(relativePath))
	file, err := b.fs.OpenForRead(fullPath)
	if err != nil {
		return hash, 0, errors.NewIOError("open", fullPath, err)
	}
	defer file.Close()
	hash, size, err = content.Sum(file)
	if err != nil {
		return hash, size, errors.NewIOError("read", fullPath, err)
	}
	return hash, size, nil
}

type progress struct {
	log   *zerolog.Logger
	every int
	total int
	done  int
}

func (p *progress) step() {
	p.done++
	if p.done%p.every == 0 {
		p.log.Info().Int("done", p.done).Int("total", p.total).Msg("scan progress")
	}
}

func (b *Builder) recordFailure(log *zerolog.Logger, failures []Failure, p string, err error) []Failure {
	log.Warn().Err(err).Str("path", p).Msg("skipping file")
	return append(failures, Failure{Path: catalog.NormalizePath(p), Err: err})
}
