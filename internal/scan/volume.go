package scan

import (
	"context"
	"path/filepath"
	"sort"

	"github.com/n2code/dupcat/internal/errors"
	"github.com/n2code/dupcat/internal/locations"
)

// VolumeReport counts the terminal outcome of every file seen by ScanVolume.
type VolumeReport struct {
	Volume   string
	Files    int
	Outcomes map[locations.Outcome]int
	Failures []Failure
}

func (r VolumeReport) Count(o locations.Outcome) int {
	return r.Outcomes[o]
}

// ScanVolume adds every file below root to the multi-location index, tagged with the volume name.
// Each file ends up exactly once as Added, Same, Merged or Skipped.
func (b *Builder) ScanVolume(ctx context.Context, x *locations.Index, root string, volume string, readOnly bool) (VolumeReport, error) {
	report := VolumeReport{Volume: volume, Outcomes: make(map[locations.Outcome]int)}
	base, err := ResolveDirectory(root)
	if err != nil {
		return report, errors.NewIOError("resolve", root, err)
	}
	log := b.runLogger(base, "volume")
	log = log.With().Str("volume", volume).Logger()

	listing, err := b.list(base)
	if err != nil {
		return report, err
	}
	sort.Strings(listing)
	report.Files = len(listing)

	tracker := progress{log: &log, every: b.progressEvery, total: len(listing)}
	for _, p := range listing {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		outcome := locations.Pending
		hash, size, err := b.hashFile(base, p)
		if err == nil {
			full := filepath.Join(base, filepath.FromSlash(p))
			item := locations.NewItem(hash.Compact(), locations.Location{FullPath: full, Volume: volume, ReadOnly: readOnly}).WithSize(size)
			outcome, err = x.AddOrMerge(item)
		}
		if err != nil {
			outcome = locations.Skipped
			report.Failures = b.recordFailure(&log, report.Failures, p, err)
		}
		report.Outcomes[outcome]++
		tracker.step()
	}

	log.Info().
		Int("added", report.Count(locations.Added)).
		Int("merged", report.Count(locations.Merged)).
		Int("same", report.Count(locations.Same)).
		Int("skipped", report.Count(locations.Skipped)).
		Msg("volume scanned")
	return report, nil
}
