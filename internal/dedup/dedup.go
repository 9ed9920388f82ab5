// Package dedup resolves duplicate content between catalogs and removes confirmed duplicates.
package dedup

import (
	"path/filepath"

	"github.com/n2code/dupcat/internal/catalog"
)

// Candidate is a record of the other catalog whose content is already present in the base catalog.
type Candidate struct {
	Record   catalog.Record //in the other catalog
	Match    catalog.Record //first record with equal content in the base catalog that is another file
	FullPath string         //system-native location of Record
}

// Find lists every record of other whose content also exists in base, in the order of other.
// A base record at the very location of the other record is the same file, not a copy of it.
// Nothing is read from storage and nothing is modified.
func Find(base *catalog.Catalog, other *catalog.Catalog) []Candidate {
	var candidates []Candidate
	for _, r := range other.Records() {
		fullPath := fullPathOf(other, r)
		self := catalog.KeyOf(fullPath)
		for _, match := range base.Find(r.Hash()) {
			if catalog.KeyOf(fullPathOf(base, match)) == self {
				continue
			}
			candidates = append(candidates, Candidate{Record: r, Match: match, FullPath: fullPath})
			break
		}
	}
	return candidates
}

func fullPathOf(c *catalog.Catalog, r catalog.Record) string {
	return filepath.Join(c.BaseDirectory(), filepath.FromSlash(string(r.Path())))
}

// Paths extracts the full paths of the candidates, keeping their order.
func Paths(candidates []Candidate) []string {
	paths := make([]string, 0, len(candidates))
	for _, c := range candidates {
		paths = append(paths, c.FullPath)
	}
	return paths
}

// WastedBytes sums the sizes of all candidates.
func WastedBytes(candidates []Candidate) (total int64) {
	for _, c := range candidates {
		total += c.Record.Size()
	}
	return
}
