package locations

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/n2code/dupcat/internal/catalog"
	"github.com/n2code/dupcat/internal/content"
	"github.com/n2code/dupcat/internal/errors"
)

// Outcome is the terminal state of one file in a scan pass. Every file starts Pending.
type Outcome int

const (
	Pending Outcome = iota
	Added           //content was unknown
	Same            //content and location were already on record
	Merged          //content was known, at least one location is new
	Skipped         //file could not be processed, never retried within the pass
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Added:
		return "added"
	case Same:
		return "same"
	case Merged:
		return "merged"
	case Skipped:
		return "skipped"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

var ErrEmptyItem = errors.New("item has no locations")

// Item is one content with all its known locations.
type Item struct {
	Hash      content.CompactHash
	Size      int64
	SizeKnown bool //size is compared only when both sides know it
	Locations LocationSet
}

func NewItem(hash content.CompactHash, locations ...Location) Item {
	item := Item{Hash: hash}
	for _, l := range locations {
		item.Locations, _ = item.Locations.with(l)
	}
	return item
}

func (it Item) WithSize(size int64) Item {
	it.Size = size
	it.SizeKnown = true
	return it
}

func (it Item) clone() Item {
	it.Locations = append(LocationSet(nil), it.Locations...)
	return it
}

// Index maps each content hash to all places it was seen.
// It is owned by one scan at a time and not safe for concurrent mutation.
type Index struct {
	items map[content.CompactHash]*Item
}

func NewIndex() *Index {
	return &Index{items: make(map[content.CompactHash]*Item)}
}

// AddOrMerge inserts unknown content or unions the locations of known content.
func (x *Index) AddOrMerge(item Item) (Outcome, error) {
	if len(item.Locations) == 0 {
		return Skipped, ErrEmptyItem
	}
	existing, known := x.items[item.Hash]
	if !known {
		stored := NewItem(item.Hash, item.Locations...)
		stored.Size, stored.SizeKnown = item.Size, item.SizeKnown
		x.items[item.Hash] = &stored
		return Added, nil
	}
	if existing.SizeKnown && item.SizeKnown && existing.Size != item.Size {
		return Skipped, fmt.Errorf("%w: %s has %d bytes on record but %d bytes seen", errors.ErrSizeMismatch, item.Hash, existing.Size, item.Size)
	}
	if !existing.SizeKnown && item.SizeKnown {
		existing.Size, existing.SizeKnown = item.Size, true
	}
	outcome := Same
	for _, l := range item.Locations {
		var added bool
		existing.Locations, added = existing.Locations.with(l)
		if added {
			outcome = Merged
		}
	}
	return outcome, nil
}

// Add is the strict insert for callers that guarantee the content is new.
func (x *Index) Add(item Item) error {
	if len(item.Locations) == 0 {
		return ErrEmptyItem
	}
	if _, known := x.items[item.Hash]; known {
		return errors.NewDuplicateKeyError("content hash", item.Hash.String())
	}
	_, err := x.AddOrMerge(item)
	return err
}

func (x *Index) Find(hash content.CompactHash) (item Item, exists bool) {
	stored, exists := x.items[hash]
	if !exists {
		return Item{}, false
	}
	return stored.clone(), true
}

func (x *Index) Len() int {
	return len(x.items)
}

// LocationCount sums the locations over all items.
func (x *Index) LocationCount() int {
	n := 0
	for _, it := range x.items {
		n += len(it.Locations)
	}
	return n
}

// Items lists copies of all items ordered by hash.
func (x *Index) Items() []Item {
	list := make([]Item, 0, len(x.items))
	for _, it := range x.items {
		list = append(list, it.clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Hash < list[j].Hash })
	return list
}

// Duplicates lists items stored in more than one location.
func (x *Index) Duplicates() []Item {
	var dups []Item
	for _, it := range x.Items() {
		if len(it.Locations) > 1 {
			dups = append(dups, it)
		}
	}
	return dups
}

// FromCatalog converts single-location catalog records into index items, resolving paths against the catalog base.
func FromCatalog(c *catalog.Catalog, volume string, readOnly bool) []Item {
	records := c.Records()
	items := make([]Item, 0, len(records))
	for _, r := range records {
		full := filepath.Join(c.BaseDirectory(), filepath.FromSlash(string(r.Path())))
		item := NewItem(r.Hash().Compact(), Location{FullPath: full, Volume: volume, ReadOnly: readOnly}).WithSize(r.Size())
		items = append(items, item)
	}
	return items
}
