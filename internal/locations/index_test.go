package locations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n2code/dupcat/internal/catalog"
	"github.com/n2code/dupcat/internal/content"
	"github.com/n2code/dupcat/internal/errors"
)

func hashOf(data string) content.CompactHash {
	return content.SumBytes([]byte(data)).Compact()
}

func TestLocationEqualityAndOrder(t *testing.T) {
	a := Location{FullPath: "/Photos/IMG.jpg", Volume: "disk1"}
	b := Location{FullPath: "/photos/img.JPG", Volume: "disk1", ReadOnly: true}
	c := Location{FullPath: "/photos/img.jpg", Volume: "Disk1"}

	assert.True(t, a.Equal(b), "path is case-insensitive and provenance is not part of identity")
	assert.False(t, a.Equal(c), "volume name is exact")
	assert.True(t, c.Less(a), "volume sorts first")
	assert.False(t, a.Less(b))
	assert.False(t, b.Less(a))
}

func TestLocationString(t *testing.T) {
	assert.Equal(t, "dvd:/x [read-only]", Location{FullPath: "/x", Volume: "dvd", ReadOnly: true}.String())
	assert.Equal(t, "/x", Location{FullPath: "/x"}.String())
}

func TestAddOrMergeOutcomes(t *testing.T) {
	idx := NewIndex()
	h := hashOf("photo")
	first := NewItem(h, Location{FullPath: "/a/p.jpg", Volume: "disk"})

	outcome, err := idx.AddOrMerge(first)
	require.NoError(t, err)
	assert.Equal(t, Added, outcome)

	outcome, err = idx.AddOrMerge(first)
	require.NoError(t, err)
	assert.Equal(t, Same, outcome)

	item, exists := idx.Find(h)
	require.True(t, exists)
	assert.Len(t, item.Locations, 1, "no duplicate locations stored")

	outcome, err = idx.AddOrMerge(NewItem(h, Location{FullPath: "/b/p.jpg", Volume: "disk"}, Location{FullPath: "/A/P.JPG", Volume: "disk"}))
	require.NoError(t, err)
	assert.Equal(t, Merged, outcome)

	item, _ = idx.Find(h)
	require.Len(t, item.Locations, 2)
	assert.Equal(t, "/a/p.jpg", item.Locations[0].FullPath)
	assert.Equal(t, "/b/p.jpg", item.Locations[1].FullPath)
	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, 2, idx.LocationCount())
}

func TestAddOrMergeSizes(t *testing.T) {
	idx := NewIndex()
	h := hashOf("x")
	_, err := idx.AddOrMerge(NewItem(h, Location{FullPath: "/1"}))
	require.NoError(t, err)

	outcome, err := idx.AddOrMerge(NewItem(h, Location{FullPath: "/2"}).WithSize(10))
	require.NoError(t, err)
	assert.Equal(t, Merged, outcome)
	item, _ := idx.Find(h)
	assert.True(t, item.SizeKnown, "size adopted from the newer sighting")

	outcome, err = idx.AddOrMerge(NewItem(h, Location{FullPath: "/3"}).WithSize(11))
	assert.ErrorIs(t, err, errors.ErrSizeMismatch)
	assert.Equal(t, Skipped, outcome)
	item, _ = idx.Find(h)
	assert.Len(t, item.Locations, 2, "skipped item leaves index untouched")
}

func TestStrictAdd(t *testing.T) {
	idx := NewIndex()
	item := NewItem(hashOf("y"), Location{FullPath: "/y"})
	require.NoError(t, idx.Add(item))
	err := idx.Add(item)
	assert.True(t, errors.IsDuplicateKey(err))
	assert.ErrorIs(t, idx.Add(Item{Hash: hashOf("z")}), ErrEmptyItem)
}

func TestEmptyItemRejected(t *testing.T) {
	outcome, err := NewIndex().AddOrMerge(Item{Hash: hashOf("z")})
	assert.ErrorIs(t, err, ErrEmptyItem)
	assert.Equal(t, Skipped, outcome)
}

func TestFindReturnsCopy(t *testing.T) {
	idx := NewIndex()
	h := hashOf("c")
	_, err := idx.AddOrMerge(NewItem(h, Location{FullPath: "/c"}))
	require.NoError(t, err)
	item, _ := idx.Find(h)
	item.Locations[0].FullPath = "/mutated"
	again, _ := idx.Find(h)
	assert.Equal(t, "/c", again.Locations[0].FullPath)
}

func TestItemsAndDuplicates(t *testing.T) {
	idx := NewIndex()
	for _, it := range []Item{
		NewItem(hashOf("1"), Location{FullPath: "/a"}, Location{FullPath: "/b"}),
		NewItem(hashOf("2"), Location{FullPath: "/c"}),
		NewItem(hashOf("3"), Location{FullPath: "/d", Volume: "v1"}, Location{FullPath: "/d", Volume: "v2", ReadOnly: true}),
	} {
		_, err := idx.AddOrMerge(it)
		require.NoError(t, err)
	}
	items := idx.Items()
	require.Len(t, items, 3)
	for i := 1; i < len(items); i++ {
		assert.Less(t, items[i-1].Hash, items[i].Hash)
	}
	dups := idx.Duplicates()
	assert.Len(t, dups, 2)

	withVolumes, _ := idx.Find(hashOf("3"))
	assert.Equal(t, []string{"v1", "v2"}, withVolumes.Locations.Volumes())
	assert.True(t, withVolumes.Locations.AnyReadOnly())
}

func TestFromCatalog(t *testing.T) {
	c, err := catalog.New("/base", time.Now(), time.Time{}, []catalog.Record{
		catalog.NewRecord("x/one.jpg", 3, content.SumBytes([]byte("one"))),
		catalog.NewRecord("two.jpg", 3, content.SumBytes([]byte("one"))),
	})
	require.NoError(t, err)

	idx := NewIndex()
	var outcomes []Outcome
	for _, it := range FromCatalog(c, "nas", false) {
		outcome, err := idx.AddOrMerge(it)
		require.NoError(t, err)
		outcomes = append(outcomes, outcome)
	}
	assert.Equal(t, []Outcome{Added, Merged}, outcomes)
	item, exists := idx.Find(hashOf("one"))
	require.True(t, exists)
	assert.Equal(t, int64(3), item.Size)
	assert.Len(t, item.Locations, 2)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "merged", Merged.String())
	assert.Equal(t, "outcome(42)", Outcome(42).String())
}
