// Package dupcat catalogs file collections by content, keeps those catalogs current without
// re-hashing unchanged files and resolves duplicate content across directories and volumes.
package dupcat

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/n2code/dupcat/internal"
	"github.com/n2code/dupcat/internal/catalog"
	"github.com/n2code/dupcat/internal/dedup"
	"github.com/n2code/dupcat/internal/errors"
	"github.com/n2code/dupcat/internal/filesystem"
	"github.com/n2code/dupcat/internal/locations"
	"github.com/n2code/dupcat/internal/persistency"
	"github.com/n2code/dupcat/internal/scan"
)

const DefaultCatalogFileName = `dupcat.xml`

// Config holds the switches that concern all calls to the engine. The zero value is a sensible default.
type Config struct {
	Log                zerolog.Logger //zero value discards all messages
	CatalogFileName    string         //default catalog file inside a cataloged directory, never cataloged itself
	ProgressEvery      int            //files between progress messages of a scan
	VerifyBeforeDelete bool           //re-hash duplicates right before deleting them
	FS                 filesystem.FS  //scanned trees, OS by default
	Storage            afero.Fs       //catalog and index files, OS by default
}

type engine struct {
	log                zerolog.Logger
	catalogFileName    string
	progressEvery      int
	verifyBeforeDelete bool
	fs                 filesystem.FS
	store              *persistency.Store
}

// New creates an engine from the configuration.
func New(config Config) Engine {
	return makeEngine(config)
}

func makeEngine(config Config) (instance *engine) {
	instance = &engine{
		log:                config.Log,
		catalogFileName:    config.CatalogFileName,
		progressEvery:      config.ProgressEvery,
		verifyBeforeDelete: config.VerifyBeforeDelete,
		fs:                 config.FS,
	}
	if instance.catalogFileName == "" {
		instance.catalogFileName = DefaultCatalogFileName
	}
	if instance.fs == nil {
		instance.fs = filesystem.NewOS()
	}
	storage := config.Storage
	if storage == nil {
		storage = afero.NewOsFs()
	}
	instance.store = persistency.NewStore(storage)
	return
}

// builder never catalogs the default catalog file of the directory nor the extra files given.
func (e *engine) builder(directory string, exclude ...string) *scan.Builder {
	return scan.NewBuilder(scan.Config{
		FS:            e.fs,
		Log:           e.log,
		ProgressEvery: e.progressEvery,
		Exclude:       append([]string{e.CatalogPath(directory)}, exclude...),
		Now:           internal.Now,
	})
}

func (e *engine) BuildCatalog(ctx context.Context, directory string, exclude ...string) (*catalog.Catalog, []scan.Failure, error) {
	c, failures, err := e.builder(directory, exclude...).Build(ctx, directory)
	if err != nil {
		return nil, failures, newOperationError("catalog build failed", err)
	}
	return c, failures, nil
}

func (e *engine) UpdateCatalog(ctx context.Context, prior *catalog.Catalog, directory string, dryRun bool) (scan.Update, error) {
	update, err := e.builder(directory).Update(ctx, prior, directory, dryRun)
	if err != nil {
		return scan.Update{}, newOperationError("catalog update failed", err)
	}
	return update, nil
}

func (e *engine) WriteCatalog(c *catalog.Catalog, destination string, overwrite bool) error {
	if err := e.store.WriteCatalog(c, destination, overwrite); err != nil {
		return newOperationError("catalog save error", err)
	}
	e.log.Debug().Str("destination", destination).Int("records", c.Len()).Msg("catalog written")
	return nil
}

func (e *engine) ReadCatalog(source string) (*catalog.Catalog, error) {
	c, err := e.store.ReadCatalog(source)
	if err != nil {
		return nil, newOperationError("catalog load error", err)
	}
	e.log.Debug().Str("source", source).Int("records", c.Len()).Msg("catalog read")
	return c, nil
}

func (e *engine) CatalogPath(directory string) string {
	return filepath.Join(mustAbsFilepath(directory), e.catalogFileName)
}

func (e *engine) LoadCatalogOf(directory string) (*catalog.Catalog, error) {
	c, err := e.ReadCatalog(e.CatalogPath(directory))
	if err != nil {
		return nil, err
	}
	expected, actual := mustAbsFilepath(c.BaseDirectory()), mustAbsFilepath(directory)
	if expected != actual {
		return nil, newOperationError("catalog load error",
			errors.NewConfigurationError("catalog file was moved from its directory", expected, actual))
	}
	return c, nil
}

func (e *engine) FindDuplicates(base *catalog.Catalog, other *catalog.Catalog) []dedup.Candidate {
	candidates := dedup.Find(base, other)
	e.log.Info().
		Str("base", base.BaseDirectory()).
		Str("other", other.BaseDirectory()).
		Int("candidates", len(candidates)).
		Msg("duplicates resolved")
	return candidates
}

func (e *engine) FindDuplicatesInDirectory(ctx context.Context, base *catalog.Catalog, directory string) ([]dedup.Candidate, []scan.Failure, error) {
	other, failures, err := e.BuildCatalog(ctx, directory)
	if err != nil {
		return nil, failures, err
	}
	return e.FindDuplicates(base, other), failures, nil
}

func (e *engine) deleter() *dedup.Deleter {
	return dedup.NewDeleter(e.fs, e.log, e.verifyBeforeDelete)
}

func (e *engine) DeleteConfirmed(ctx context.Context, paths []string, confirm dedup.Confirmation) (int, error) {
	deleted, err := e.deleter().DeleteConfirmed(ctx, paths, confirm)
	if err != nil {
		return deleted, newOperationError(fmt.Sprintf("deletion aborted after %d of %d files", deleted, len(paths)), err)
	}
	return deleted, nil
}

func (e *engine) DeleteDuplicates(ctx context.Context, candidates []dedup.Candidate, confirm dedup.Confirmation) (int, []string, error) {
	deleted, skipped, err := e.deleter().DeleteCandidates(ctx, candidates, confirm)
	if err != nil {
		return deleted, skipped, newOperationError(fmt.Sprintf("deletion aborted after %d of %d files", deleted, len(candidates)), err)
	}
	return deleted, skipped, nil
}

func (e *engine) ScanVolume(ctx context.Context, index *locations.Index, directory string, volume string, readOnly bool) (scan.VolumeReport, error) {
	report, err := e.builder(directory).ScanVolume(ctx, index, directory, volume, readOnly)
	if err != nil {
		return report, newOperationError(fmt.Sprintf("scan of volume %s failed", volume), err)
	}
	return report, nil
}

func (e *engine) MergeCatalog(index *locations.Index, c *catalog.Catalog, volume string, readOnly bool) scan.VolumeReport {
	report := scan.VolumeReport{Volume: volume, Outcomes: make(map[locations.Outcome]int)}
	for _, item := range locations.FromCatalog(c, volume, readOnly) {
		report.Files++
		outcome, err := index.AddOrMerge(item)
		if err != nil {
			path := catalog.SemanticPath(item.Locations[0].FullPath)
			report.Failures = append(report.Failures, scan.Failure{Path: path, Err: err})
			e.log.Warn().Err(err).Str("path", string(path)).Msg("skipping record")
		}
		report.Outcomes[outcome]++
	}
	return report
}

func (e *engine) WriteIndex(index *locations.Index, destination string, overwrite bool) error {
	if err := e.store.WriteIndex(index, destination, overwrite); err != nil {
		return newOperationError("index save error", err)
	}
	return nil
}

func (e *engine) ReadIndex(source string) (*locations.Index, error) {
	index, err := e.store.ReadIndex(source)
	if err != nil {
		return nil, newOperationError("index load error", err)
	}
	return index, nil
}

func mustAbsFilepath(path string) string {
	abs, err := filepath.Abs(path)
	internal.AssertNoError(err, "working directory must be accessible")
	return filepath.Clean(abs)
}
