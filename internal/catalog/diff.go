package catalog

import (
	"sort"
	"time"
)

type ChangeKind rune

const (
	Removed ChangeKind = '-'
	Added   ChangeKind = '+'
)

func (k ChangeKind) String() string {
	switch k {
	case Removed:
		return "removed"
	case Added:
		return "added"
	default:
		return "unknown"
	}
}

// Change is one entry of an incremental update log.
type Change struct {
	Kind ChangeKind
	Path SemanticPath
}

// Diff compares a prior catalog to a fresh path-only listing.
// Paths present on both sides are trusted to have unchanged content without re-hashing.
type Diff struct {
	Removed    []Record       //prior records absent from the listing, in catalog order
	Added      []SemanticPath //listed paths unknown to the prior catalog, sorted
	Unchanged  []Record       //prior records still listed, in catalog order
	Collisions []SemanticPath //listed paths that fold onto an earlier listed path
}

// Compare computes the diff of a fresh listing against the prior catalog. Nothing is read from storage.
func Compare(prior *Catalog, listing []string) Diff {
	var d Diff
	fresh := make(map[PathKey]bool, len(listing))
	for _, p := range listing {
		semantic := NormalizePath(p)
		key := KeyOf(p)
		if fresh[key] {
			d.Collisions = append(d.Collisions, semantic)
			continue
		}
		fresh[key] = true
		if _, known := prior.byPath[key]; !known {
			d.Added = append(d.Added, semantic)
		}
	}
	for _, r := range prior.records {
		if fresh[r.key] {
			d.Unchanged = append(d.Unchanged, r)
		} else {
			d.Removed = append(d.Removed, r)
		}
	}
	sort.Slice(d.Added, func(i, j int) bool { return d.Added[i] < d.Added[j] })
	return d
}

func (d Diff) HasChanges() bool {
	return len(d.Removed) > 0 || len(d.Added) > 0
}

// Changes lists all removals followed by all additions.
func (d Diff) Changes() []Change {
	log := make([]Change, 0, len(d.Removed)+len(d.Added))
	for _, r := range d.Removed {
		log = append(log, Change{Kind: Removed, Path: r.path})
	}
	for _, p := range d.Added {
		log = append(log, Change{Kind: Added, Path: p})
	}
	return log
}

// Successor builds the updated catalog from the unchanged records of the diff plus freshly hashed additions.
// The original cataloging time and base directory carry over.
func (c *Catalog) Successor(unchanged []Record, added []Record, updatedOn time.Time) (*Catalog, error) {
	records := make([]Record, 0, len(unchanged)+len(added))
	records = append(records, unchanged...)
	records = append(records, added...)
	return New(c.baseDirectory, c.catalogedOn, updatedOn, records)
}
