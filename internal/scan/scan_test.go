package scan

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n2code/dupcat/internal/catalog"
	"github.com/n2code/dupcat/internal/content"
	dcerrors "github.com/n2code/dupcat/internal/errors"
	"github.com/n2code/dupcat/internal/filesystem"
	"github.com/n2code/dupcat/internal/locations"
)

var (
	firstRun  = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	secondRun = time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
)

func memoryTree(t *testing.T, files map[string]string) *filesystem.Afero {
	t.Helper()
	mem := filesystem.NewMemory()
	for p, data := range files {
		require.NoError(t, afero.WriteFile(mem.Fs(), p, []byte(data), 0o644))
	}
	return mem
}

func fixedClock(at *time.Time) func() time.Time {
	return func() time.Time { return *at }
}

func paths(records []catalog.Record) []catalog.SemanticPath {
	var list []catalog.SemanticPath
	for _, r := range records {
		list = append(list, r.Path())
	}
	return list
}

func TestBuild(t *testing.T) {
	fs := memoryTree(t, map[string]string{
		"/data/b/c.txt":         "y",
		"/data/a.txt":           "x",
		"/data/d.txt":           "x",
		"/data/CATALOG.xml":     "ignored",
		"/data/catalog.xml.wip": "ignored",
		"/data/sub/catalog.xml": "z",
		"/other/e.txt":          "z",
	})
	now := firstRun
	b := NewBuilder(Config{FS: fs, Exclude: []string{"/data/catalog.xml"}, Now: fixedClock(&now)})

	c, failures, err := b.Build(context.Background(), "/data")
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Equal(t, "/data", c.BaseDirectory())
	assert.Equal(t, firstRun, c.CatalogedOn())
	assert.Equal(t, firstRun, c.UpdatedOn())
	assert.Equal(t, []catalog.SemanticPath{"a.txt", "b/c.txt", "d.txt", "sub/catalog.xml"}, paths(c.Records()))
	assert.Equal(t, 3, c.DistinctContents())

	x := content.SumBytes([]byte("x"))
	assert.Equal(t, []catalog.SemanticPath{"a.txt", "d.txt"}, paths(c.Find(x)))
	r, found := c.Lookup("B/C.TXT")
	require.True(t, found)
	assert.Equal(t, int64(1), r.Size())
}

func TestBuildExcludesExactLocations(t *testing.T) {
	fs := memoryTree(t, map[string]string{
		"/data/keep.txt":           "k",
		"/data/out/report.xml":     "written catalog",
		"/data/out/report.xml.wip": "unfinished catalog",
		"/data/report.xml":         "user file",
		"/data/notes.wip":          "user file",
	})

	c, failures, err := NewBuilder(Config{FS: fs, Exclude: []string{"/data/out/../out/REPORT.xml"}}).Build(context.Background(), "/data")
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Equal(t, []catalog.SemanticPath{"keep.txt", "notes.wip", "report.xml"}, paths(c.Records()))
}

func TestBuildEmptyDirectory(t *testing.T) {
	fs := filesystem.NewMemory()
	require.NoError(t, fs.Fs().MkdirAll("/empty", 0o755))

	c, failures, err := NewBuilder(Config{FS: fs}).Build(context.Background(), "/empty")
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Equal(t, 0, c.Len())
}

func TestBuildSkipsUnreadableFiles(t *testing.T) {
	fs := filesystem.NewFaulty(memoryTree(t, map[string]string{
		"/data/good.txt":   "fine",
		"/data/broken.txt": "unreachable",
	}))
	fs.OpenFailures["/data/broken.txt"] = errors.New("permission denied")

	c, failures, err := NewBuilder(Config{FS: fs}).Build(context.Background(), "/data")
	require.NoError(t, err)
	assert.Equal(t, []catalog.SemanticPath{"good.txt"}, paths(c.Records()))
	require.Len(t, failures, 1)
	assert.Equal(t, catalog.SemanticPath("broken.txt"), failures[0].Path)
	assert.True(t, dcerrors.IsIO(failures[0].Err))
	assert.Contains(t, failures[0].Message(), "permission denied")
}

func TestBuildReportsCaseCollisions(t *testing.T) {
	fs := memoryTree(t, map[string]string{
		"/data/Photo.jpg": "one",
		"/data/photo.jpg": "two",
	})

	c, failures, err := NewBuilder(Config{FS: fs}).Build(context.Background(), "/data")
	require.NoError(t, err)
	assert.Equal(t, []catalog.SemanticPath{"Photo.jpg"}, paths(c.Records()))
	require.Len(t, failures, 1)
	assert.Equal(t, catalog.SemanticPath("photo.jpg"), failures[0].Path)
	assert.True(t, dcerrors.IsDuplicateKey(failures[0].Err))
}

func TestBuildMissingRoot(t *testing.T) {
	_, _, err := NewBuilder(Config{FS: filesystem.NewMemory()}).Build(context.Background(), "/missing")
	require.Error(t, err)
	assert.True(t, dcerrors.IsIO(err))
}

func TestBuildCancelled(t *testing.T) {
	fs := memoryTree(t, map[string]string{"/data/a": "a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, _, err := NewBuilder(Config{FS: fs}).Build(ctx, "/data")
	assert.Nil(t, c)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildLogsProgress(t *testing.T) {
	fs := memoryTree(t, map[string]string{
		"/data/1": "1", "/data/2": "2", "/data/3": "3", "/data/4": "4", "/data/5": "5",
	})
	var sink bytes.Buffer
	b := NewBuilder(Config{FS: fs, Log: zerolog.New(&sink), ProgressEvery: 2})

	_, _, err := b.Build(context.Background(), "/data")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(sink.String(), `"message":"scan progress"`))
	assert.Contains(t, sink.String(), `"scan_id":"`)
	assert.Contains(t, sink.String(), `"message":"catalog built"`)
}

func buildAt(t *testing.T, fs filesystem.FS, now *time.Time) (*Builder, *catalog.Catalog) {
	t.Helper()
	b := NewBuilder(Config{FS: fs, Now: fixedClock(now)})
	c, failures, err := b.Build(context.Background(), "/data")
	require.NoError(t, err)
	require.Empty(t, failures)
	return b, c
}

func TestUpdate(t *testing.T) {
	mem := memoryTree(t, map[string]string{
		"/data/keep.txt": "k",
		"/data/gone.txt": "g",
		"/data/old.txt":  "o",
	})
	now := firstRun
	b, prior := buildAt(t, mem, &now)

	require.NoError(t, mem.Fs().Remove("/data/gone.txt"))
	require.NoError(t, mem.Fs().Remove("/data/old.txt"))
	require.NoError(t, afero.WriteFile(mem.Fs(), "/data/new/z.txt", []byte("k"), 0o644))
	require.NoError(t, afero.WriteFile(mem.Fs(), "/data/new/a.txt", []byte("n"), 0o644))
	now = secondRun

	u, err := b.Update(context.Background(), prior, "/data", false)
	require.NoError(t, err)
	assert.True(t, u.HasChanges)
	assert.Empty(t, u.Failures)
	assert.Equal(t, []catalog.Change{
		{Kind: catalog.Removed, Path: "gone.txt"},
		{Kind: catalog.Removed, Path: "old.txt"},
		{Kind: catalog.Added, Path: "new/a.txt"},
		{Kind: catalog.Added, Path: "new/z.txt"},
	}, u.Changes)

	assert.Equal(t, []catalog.SemanticPath{"keep.txt", "new/a.txt", "new/z.txt"}, paths(u.Catalog.Records()))
	assert.Equal(t, firstRun, u.Catalog.CatalogedOn())
	assert.Equal(t, secondRun, u.Catalog.UpdatedOn())
	assert.Len(t, u.Catalog.Find(content.SumBytes([]byte("k"))), 2)

	assert.Equal(t, 3, prior.Len(), "prior catalog untouched")
}

func TestUpdateWithoutChangesKeepsCatalog(t *testing.T) {
	mem := memoryTree(t, map[string]string{"/data/a": "a", "/data/b": "b"})
	now := firstRun
	b, prior := buildAt(t, mem, &now)
	now = secondRun

	u, err := b.Update(context.Background(), prior, "/data", false)
	require.NoError(t, err)
	assert.False(t, u.HasChanges)
	assert.Empty(t, u.Changes)
	assert.Same(t, prior, u.Catalog)
	assert.Equal(t, firstRun, u.Catalog.UpdatedOn())
}

func TestUpdateDryRunReadsNothing(t *testing.T) {
	mem := memoryTree(t, map[string]string{"/data/a": "a", "/data/b": "b"})
	now := firstRun
	_, prior := buildAt(t, mem, &now)

	require.NoError(t, mem.Fs().Remove("/data/a"))
	require.NoError(t, afero.WriteFile(mem.Fs(), "/data/c", []byte("c"), 0o644))
	faulty := filesystem.NewFaulty(mem)
	faulty.OpenFailures["/data/c"] = errors.New("must not be read")
	b := NewBuilder(Config{FS: faulty, Now: fixedClock(&now)})

	u, err := b.Update(context.Background(), prior, "/data", true)
	require.NoError(t, err)
	assert.True(t, u.HasChanges)
	assert.Empty(t, u.Failures)
	assert.Same(t, prior, u.Catalog)
	assert.Equal(t, []catalog.Change{
		{Kind: catalog.Removed, Path: "a"},
		{Kind: catalog.Added, Path: "c"},
	}, u.Changes)
}

func TestUpdateUnreadableAddition(t *testing.T) {
	mem := memoryTree(t, map[string]string{"/data/a": "a"})
	now := firstRun
	_, prior := buildAt(t, mem, &now)

	require.NoError(t, afero.WriteFile(mem.Fs(), "/data/locked", []byte("l"), 0o644))
	faulty := filesystem.NewFaulty(mem)
	faulty.OpenFailures["/data/locked"] = errors.New("locked")
	b := NewBuilder(Config{FS: faulty, Now: fixedClock(&now)})

	u, err := b.Update(context.Background(), prior, "/data", false)
	require.NoError(t, err)
	assert.False(t, u.HasChanges)
	assert.Same(t, prior, u.Catalog)
	require.Len(t, u.Failures, 1)
	assert.Equal(t, catalog.SemanticPath("locked"), u.Failures[0].Path)
}

func TestUpdateRejectsForeignDirectory(t *testing.T) {
	mem := memoryTree(t, map[string]string{"/data/a": "a", "/elsewhere/a": "a"})
	now := firstRun
	b, prior := buildAt(t, mem, &now)

	_, err := b.Update(context.Background(), prior, "/elsewhere", false)
	require.Error(t, err)
	assert.True(t, dcerrors.IsConfiguration(err))

	_, err = b.Update(context.Background(), prior, "/data/sub/..", true)
	assert.NoError(t, err, "equivalent spelling of the base directory")
}

func TestScanVolume(t *testing.T) {
	mem := memoryTree(t, map[string]string{
		"/mnt/disk1/a.jpg": "same",
		"/mnt/disk1/b.jpg": "unique",
		"/mnt/disk2/c.jpg": "same",
		"/mnt/disk2/d.jpg": "locked",
	})
	faulty := filesystem.NewFaulty(mem)
	faulty.OpenFailures["/mnt/disk2/d.jpg"] = errors.New("io failure")
	b := NewBuilder(Config{FS: faulty})
	x := locations.NewIndex()

	first, err := b.ScanVolume(context.Background(), x, "/mnt/disk1", "disk1", false)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Files)
	assert.Equal(t, 2, first.Count(locations.Added))

	second, err := b.ScanVolume(context.Background(), x, "/mnt/disk2", "backup", true)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Files)
	assert.Equal(t, 1, second.Count(locations.Merged))
	assert.Equal(t, 1, second.Count(locations.Skipped))
	require.Len(t, second.Failures, 1)
	assert.Equal(t, catalog.SemanticPath("d.jpg"), second.Failures[0].Path)

	again, err := b.ScanVolume(context.Background(), x, "/mnt/disk1", "disk1", false)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Count(locations.Same))

	assert.Equal(t, 2, x.Len())
	assert.Equal(t, 3, x.LocationCount())
	dups := x.Duplicates()
	require.Len(t, dups, 1)
	assert.Equal(t, content.SumBytes([]byte("same")).Compact(), dups[0].Hash)
	assert.True(t, dups[0].Locations.AnyReadOnly())
	assert.Equal(t, []string{"backup", "disk1"}, dups[0].Locations.Volumes())
}
