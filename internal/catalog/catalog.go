// Package catalog holds the in-memory index of file records for one directory tree.
package catalog

import (
	"fmt"
	"time"

	"github.com/n2code/dupcat/internal/content"
	"github.com/n2code/dupcat/internal/errors"
)

// Catalog is built once per scan and immutable thereafter.
// Records keep scan order; both indices refer to positions in that order.
type Catalog struct {
	baseDirectory string //absolute, system-native path at time of cataloging
	catalogedOn   time.Time
	updatedOn     time.Time
	records       []Record
	byPath        map[PathKey]int
	byHash        map[content.Hash][]int
	hashOrder     []content.Hash //first appearance of each hash, for deterministic bucket listing
}

// New indexes the given records in one pass. Two records sharing a path yield a DuplicateKeyError.
func New(baseDirectory string, catalogedOn time.Time, updatedOn time.Time, records []Record) (*Catalog, error) {
	c := &Catalog{
		baseDirectory: baseDirectory,
		catalogedOn:   catalogedOn,
		updatedOn:     updatedOn,
		records:       make([]Record, len(records)),
		byPath:        make(map[PathKey]int, len(records)),
		byHash:        make(map[content.Hash][]int),
	}
	copy(c.records, records)
	if c.updatedOn.IsZero() {
		c.updatedOn = c.catalogedOn
	}
	for i, r := range c.records {
		if _, taken := c.byPath[r.key]; taken {
			return nil, errors.NewDuplicateKeyError("path", string(r.path))
		}
		c.byPath[r.key] = i
		bucket, known := c.byHash[r.hash]
		if !known {
			c.hashOrder = append(c.hashOrder, r.hash)
		}
		c.byHash[r.hash] = append(bucket, i)
	}
	return c, nil
}

func (c *Catalog) BaseDirectory() string {
	return c.baseDirectory
}

func (c *Catalog) CatalogedOn() time.Time {
	return c.catalogedOn
}

func (c *Catalog) UpdatedOn() time.Time {
	return c.updatedOn
}

// Len is the number of records, which equals the number of distinct paths.
func (c *Catalog) Len() int {
	return len(c.records)
}

// DistinctContents is the number of hash buckets.
func (c *Catalog) DistinctContents() int {
	return len(c.byHash)
}

// Records returns a copy of all records in scan order.
func (c *Catalog) Records() []Record {
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Find lists all records with the given content in insertion order. The result is never nil.
func (c *Catalog) Find(hash content.Hash) []Record {
	indices := c.byHash[hash]
	found := make([]Record, 0, len(indices))
	for _, i := range indices {
		found = append(found, c.records[i])
	}
	return found
}

// Contains reports whether any record has the given content.
func (c *Catalog) Contains(hash content.Hash) bool {
	return len(c.byHash[hash]) > 0
}

// Lookup finds the record for a path, compared case-insensitively.
func (c *Catalog) Lookup(relativePath string) (record Record, exists bool) {
	i, exists := c.byPath[KeyOf(relativePath)]
	if !exists {
		return Record{}, false
	}
	return c.records[i], true
}

// Buckets lists all records grouped by content, ordered by first appearance.
func (c *Catalog) Buckets() [][]Record {
	buckets := make([][]Record, 0, len(c.hashOrder))
	for _, h := range c.hashOrder {
		buckets = append(buckets, c.Find(h))
	}
	return buckets
}

// Duplicates lists only the buckets that hold more than one record.
func (c *Catalog) Duplicates() [][]Record {
	var dups [][]Record
	for _, bucket := range c.Buckets() {
		if len(bucket) > 1 {
			dups = append(dups, bucket)
		}
	}
	return dups
}

// Summary aggregates sizes over the catalog.
type Summary struct {
	Files            int
	DistinctContents int
	TotalBytes       int64
	WastedBytes      int64 //bytes occupied by all but the first record of each bucket
}

func (c *Catalog) Summarize() Summary {
	s := Summary{Files: len(c.records), DistinctContents: len(c.byHash)}
	for _, h := range c.hashOrder {
		for n, i := range c.byHash[h] {
			size := c.records[i].size
			s.TotalBytes += size
			if n > 0 {
				s.WastedBytes += size
			}
		}
	}
	return s
}

// Get is Lookup for callers that treat absence as an error wrapping ErrNotFound.
func (c *Catalog) Get(relativePath string) (Record, error) {
	if r, exists := c.Lookup(relativePath); exists {
		return r, nil
	}
	return Record{}, fmt.Errorf("%w: no record for %s", errors.ErrNotFound, NormalizePath(relativePath))
}
