package filesystem

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFilesMemory(t *testing.T) {
	mem := NewMemory()
	require.NoError(t, afero.WriteFile(mem.Fs(), "/root/b.jpg", []byte("b"), 0o644))
	require.NoError(t, afero.WriteFile(mem.Fs(), "/root/sub/a.jpg", []byte("a"), 0o644))
	require.NoError(t, afero.WriteFile(mem.Fs(), "/root/A.txt", []byte("A"), 0o644))
	require.NoError(t, mem.Fs().MkdirAll("/root/empty", 0o755))
	require.NoError(t, afero.WriteFile(mem.Fs(), "/elsewhere/x", []byte("x"), 0o644))

	files, err := mem.ListFiles("/root")
	require.NoError(t, err)
	assert.Equal(t, []string{"A.txt", "b.jpg", "sub/a.jpg"}, files)
}

func TestListFilesMissingRoot(t *testing.T) {
	_, err := NewMemory().ListFiles("/nope")
	assert.Error(t, err)
}

func TestOpenAndDelete(t *testing.T) {
	mem := NewMemory()
	require.NoError(t, afero.WriteFile(mem.Fs(), "/r/f", []byte("payload"), 0o644))

	rc, err := mem.OpenForRead("/r/f")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "payload", string(data))

	require.NoError(t, mem.Delete("/r/f"))
	exists, err := afero.Exists(mem.Fs(), "/r/f")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.Error(t, mem.Delete("/r/f"), "second delete fails")
	assert.Error(t, mem.Delete("/r"), "directories are never deleted")
}

func TestFaultyInjection(t *testing.T) {
	mem := NewMemory()
	require.NoError(t, afero.WriteFile(mem.Fs(), "/r/ok", []byte("1"), 0o644))
	require.NoError(t, afero.WriteFile(mem.Fs(), "/r/bad", []byte("2"), 0o644))

	faulty := NewFaulty(mem)
	broken := errors.New("sector error")
	faulty.OpenFailures["/r/bad"] = broken
	faulty.DeleteFailures["/r/bad"] = broken

	_, err := faulty.OpenForRead("/r/bad")
	assert.ErrorIs(t, err, broken)
	rc, err := faulty.OpenForRead("/r/ok")
	require.NoError(t, err)
	rc.Close()

	assert.ErrorIs(t, faulty.Delete("/r/bad"), broken)
	assert.NoError(t, faulty.Delete("/r/ok"))
	assert.Equal(t, []string{"/r/ok"}, faulty.Deleted)
}

func TestListFilesOnDisk(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "x", "y"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "x", "y", "z.bin"), []byte{1, 2, 3}, 0o644))

	files, err := NewOS().ListFiles(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"x/y/z.bin"}, files)
}
