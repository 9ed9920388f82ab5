package scan

import (
	"context"
	"fmt"

	"github.com/n2code/dupcat/internal/catalog"
	"github.com/n2code/dupcat/internal/errors"
)

// Update is the result of an incremental update.
type Update struct {
	Catalog    *catalog.Catalog //the prior catalog itself when nothing changed or on a dry run
	Changes    []catalog.Change //removals first, then additions sorted by path
	HasChanges bool
	Failures   []Failure //added files that could not be hashed, not part of Changes
}

// Update brings prior in line with the current contents of root.
// Known paths are trusted to be unchanged and are not re-hashed. A dry run reads nothing
// and reports what would change. Root must be the directory prior was built from.
func (b *Builder) Update(ctx context.Context, prior *catalog.Catalog, root string, dryRun bool) (Update, error) {
	base, err := ResolveDirectory(root)
	if err != nil {
		return Update{}, errors.NewIOError("resolve", root, err)
	}
	expected, err := ResolveDirectory(prior.BaseDirectory())
	if err != nil {
		return Update{}, errors.NewIOError("resolve", prior.BaseDirectory(), err)
	}
	if base != expected {
		return Update{}, errors.NewConfigurationError("catalog belongs to a different directory", expected, base)
	}
	log := b.runLogger(base, "update")

	listing, err := b.list(base)
	if err != nil {
		return Update{}, err
	}
	diff := catalog.Compare(prior, listing)
	var failures []Failure
	for _, p := range diff.Collisions {
		failures = b.recordFailure(&log, failures, string(p), errors.NewDuplicateKeyError("path", string(p)))
	}
	log.Info().
		Int("removed", len(diff.Removed)).
		Int("added", len(diff.Added)).
		Int("unchanged", len(diff.Unchanged)).
		Bool("dry_run", dryRun).
		Msg("compared listing to catalog")

	if dryRun {
		return Update{Catalog: prior, Changes: diff.Changes(), HasChanges: diff.HasChanges(), Failures: failures}, nil
	}

	added := make([]catalog.Record, 0, len(diff.Added))
	changes := make([]catalog.Change, 0, len(diff.Removed)+len(diff.Added))
	for _, r := range diff.Removed {
		changes = append(changes, catalog.Change{Kind: catalog.Removed, Path: r.Path()})
	}
	tracker := progress{log: &log, every: b.progressEvery, total: len(diff.Added)}
	for _, p := range diff.Added {
		if err := ctx.Err(); err != nil {
			return Update{}, err
		}
		hash, size, err := b.hashFile(base, string(p))
		tracker.step()
		if err != nil {
			failures = b.recordFailure(&log, failures, string(p), err)
			continue
		}
		added = append(added, catalog.NewRecord(string(p), size, hash))
		changes = append(changes, catalog.Change{Kind: catalog.Added, Path: p})
	}

	result := Update{Catalog: prior, Changes: changes, HasChanges: len(changes) > 0, Failures: failures}
	if !result.HasChanges {
		return result, nil
	}
	result.Catalog, err = prior.Successor(diff.Unchanged, added, b.now())
	if err != nil {
		return Update{}, fmt.Errorf("assembling updated catalog: %w", err)
	}
	log.Info().Int("records", result.Catalog.Len()).Int("changes", len(changes)).Msg("catalog updated")
	return result, nil
}
