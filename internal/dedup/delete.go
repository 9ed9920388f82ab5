package dedup

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/n2code/dupcat/internal/content"
	"github.com/n2code/dupcat/internal/errors"
	"github.com/n2code/dupcat/internal/filesystem"
)

// ErrContentChanged is returned when a file no longer has the content it was cataloged with.
var ErrContentChanged = errors.New("content changed since cataloging")

// Confirmation is asked once before anything is deleted. Only an explicit true proceeds.
type Confirmation func(prompt string) bool

type Deleter struct {
	fs     filesystem.FS
	log    zerolog.Logger
	verify bool
}

// NewDeleter creates a deleter. With verify set every candidate is re-hashed right before its
// removal and skipped if its content changed; otherwise the cataloged hash is trusted even if
// the file changed since the scan.
func NewDeleter(fs filesystem.FS, log zerolog.Logger, verify bool) *Deleter {
	return &Deleter{fs: fs, log: log, verify: verify}
}

type target struct {
	path   string
	expect *content.Hash
}

// DeleteConfirmed removes the given files after confirmation.
// The count always equals the number of files actually removed, also when an error is returned.
func (d *Deleter) DeleteConfirmed(ctx context.Context, paths []string, confirm Confirmation) (int, error) {
	targets := make([]target, 0, len(paths))
	for _, p := range paths {
		targets = append(targets, target{path: p})
	}
	deleted, _, err := d.run(ctx, targets, confirm)
	return deleted, err
}

// DeleteCandidates removes duplicate candidates after confirmation. With verification enabled
// candidates whose content changed are left in place and listed as skipped.
func (d *Deleter) DeleteCandidates(ctx context.Context, candidates []Candidate, confirm Confirmation) (deleted int, skipped []string, err error) {
	targets := make([]target, 0, len(candidates))
	for _, c := range candidates {
		hash := c.Record.Hash()
		targets = append(targets, target{path: c.FullPath, expect: &hash})
	}
	return d.run(ctx, targets, confirm)
}

func (d *Deleter) run(ctx context.Context, targets []target, confirm Confirmation) (deleted int, skipped []string, err error) {
	if len(targets) == 0 {
		return 0, nil, nil
	}
	action := fmt.Sprintf("deletion of %d files", len(targets))
	if confirm == nil || !confirm(fmt.Sprintf("Delete %d files?", len(targets))) {
		d.log.Info().Int("requested", len(targets)).Msg("deletion declined")
		return 0, nil, errors.NewUserCancelledError(action)
	}

	defer func() {
		event := d.log.Info()
		if err != nil {
			event = d.log.Error().Err(err)
		}
		event.Int("deleted", deleted).Int("skipped", len(skipped)).Int("requested", len(targets)).Msg("deletion pass finished")
	}()

	for _, t := range targets {
		if err = ctx.Err(); err != nil {
			return
		}
		if d.verify && t.expect != nil {
			if err = d.check(t); errors.Is(err, ErrContentChanged) {
				d.log.Warn().Str("path", t.path).Msg("content changed, not deleting")
				skipped = append(skipped, t.path)
				err = nil
				continue
			} else if err != nil {
				return
			}
		}
		if err = d.fs.Delete(t.path); err != nil {
			err = errors.NewIOError("delete", t.path, err)
			return
		}
		deleted++
		d.log.Debug().Str("path", t.path).Msg("deleted")
	}
	return
}

func (d *Deleter) check(t target) error {
	file, err := d.fs.OpenForRead(t.path)
	if err != nil {
		return errors.NewIOError("open", t.path, err)
	}
	defer file.Close()
	actual, _, err := content.Sum(file)
	if err != nil {
		return errors.NewIOError("read", t.path, err)
	}
	if actual != *t.expect {
		return fmt.Errorf("%w: %s", ErrContentChanged, t.path)
	}
	return nil
}
