package scan

import (
	"context"
	"sort"

	"github.com/n2code/dupcat/internal/catalog"
	"github.com/n2code/dupcat/internal/errors"
)

// Build catalogs every regular file below root. Files that cannot be read are reported
// as failures and left out; only an unreadable root or cancellation fails the build.
func (b *Builder) Build(ctx context.Context, root string) (*catalog.Catalog, []Failure, error) {
	base, err := ResolveDirectory(root)
	if err != nil {
		return nil, nil, errors.NewIOError("resolve", root, err)
	}
	log := b.runLogger(base, "build")
	startedOn := b.now()

	listing, err := b.list(base)
	if err != nil {
		return nil, nil, err
	}
	sort.Strings(listing)
	log.Info().Int("files", len(listing)).Msg("cataloging directory")

	records := make([]catalog.Record, 0, len(listing))
	seen := make(map[catalog.PathKey]bool, len(listing))
	var failures []Failure
	tracker := progress{log: &log, every: b.progressEvery, total: len(listing)}
	for _, p := range listing {
		if err := ctx.Err(); err != nil {
			return nil, failures, err
		}
		key := catalog.KeyOf(p)
		if seen[key] {
			failures = b.recordFailure(&log, failures, p, errors.NewDuplicateKeyError("path", string(catalog.NormalizePath(p))))
			tracker.step()
			continue
		}
		hash, size, err := b.hashFile(base, p)
		if err != nil {
			failures = b.recordFailure(&log, failures, p, err)
			tracker.step()
			continue
		}
		seen[key] = true
		records = append(records, catalog.NewRecord(p, size, hash))
		tracker.step()
	}

	c, err := catalog.New(base, startedOn, startedOn, records)
	if err != nil {
		return nil, failures, err
	}
	log.Info().
		Int("records", c.Len()).
		Int("contents", c.DistinctContents()).
		Int("failures", len(failures)).
		Msg("catalog built")
	return c, failures, nil
}
