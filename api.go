package dupcat

import (
	"context"

	"github.com/n2code/dupcat/internal/catalog"
	"github.com/n2code/dupcat/internal/dedup"
	"github.com/n2code/dupcat/internal/locations"
	"github.com/n2code/dupcat/internal/scan"
)

// Engine catalogs directory trees by content and resolves duplicates between them. Get one using New.
// An engine holds no catalog state itself; catalogs and indices are values owned by the caller.
type Engine interface {

	// BuildCatalog hashes every file below the directory and returns the resulting catalog.
	// Unreadable files are skipped and returned as failures, they never abort the build.
	// The default catalog file of the directory and the exclude paths (e.g. a custom catalog destination) are never cataloged.
	BuildCatalog(ctx context.Context, directory string, exclude ...string) (*catalog.Catalog, []scan.Failure, error)

	// UpdateCatalog compares the directory to a prior catalog of it and hashes only files new to it.
	// Paths present in both are trusted to have unchanged content.
	// A dry run reports the change log but reads and changes nothing.
	// The directory must be the one the prior catalog was built from, otherwise a ConfigurationError is returned.
	UpdateCatalog(ctx context.Context, prior *catalog.Catalog, directory string, dryRun bool) (scan.Update, error)

	// WriteCatalog stores the catalog at the destination, the file extension selects the encoding.
	// An existing destination is only replaced if overwrite is set.
	WriteCatalog(c *catalog.Catalog, destination string, overwrite bool) error

	// ReadCatalog loads a stored catalog. Unknown format versions yield a FormatError and no catalog.
	ReadCatalog(source string) (*catalog.Catalog, error)

	// LoadCatalogOf reads the default catalog file of the directory and verifies it belongs there.
	LoadCatalogOf(directory string) (*catalog.Catalog, error)

	// CatalogPath is where the default catalog file of the directory lives.
	CatalogPath(directory string) string

	// FindDuplicates lists the records of other whose content already exists in base, in the order of other.
	FindDuplicates(base *catalog.Catalog, other *catalog.Catalog) []dedup.Candidate

	// FindDuplicatesInDirectory hashes the directory on the fly and compares it against base.
	FindDuplicatesInDirectory(ctx context.Context, base *catalog.Catalog, directory string) ([]dedup.Candidate, []scan.Failure, error)

	// DeleteConfirmed asks once for confirmation and then deletes the files in order.
	// Deletion stops at the first failure; the returned count is exact in every case.
	DeleteConfirmed(ctx context.Context, paths []string, confirm dedup.Confirmation) (int, error)

	// DeleteDuplicates is DeleteConfirmed for candidates. With VerifyBeforeDelete configured candidates
	// whose content changed since cataloging are left in place and returned as skipped.
	DeleteDuplicates(ctx context.Context, candidates []dedup.Candidate, confirm dedup.Confirmation) (deleted int, skipped []string, err error)

	// ScanVolume adds all files below the directory to the multi-location index under the given volume name.
	ScanVolume(ctx context.Context, index *locations.Index, directory string, volume string, readOnly bool) (scan.VolumeReport, error)

	// MergeCatalog adds all records of a catalog to the multi-location index under the given volume name.
	MergeCatalog(index *locations.Index, c *catalog.Catalog, volume string, readOnly bool) scan.VolumeReport

	// WriteIndex stores a multi-location index in the binary format.
	WriteIndex(index *locations.Index, destination string, overwrite bool) error

	// ReadIndex loads a multi-location index, failing on the first inconsistency.
	ReadIndex(source string) (*locations.Index, error)
}
