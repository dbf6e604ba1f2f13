package sweep

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTrash(t *testing.T) *DirTrash {
	t.Helper()

	tr, err := NewDirTrash(filepath.Join(t.TempDir(), "Trash"))
	require.NoError(t, err)
	tr.now = func() time.Time { return time.Date(2024, 5, 6, 17, 4, 5, 0, time.Local) }
	return tr
}

func TestDirTrash(t *testing.T) {
	t.Parallel()

	tr := newTestTrash(t)
	src := filepath.Join(t.TempDir(), "May 6 export.csv")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0644))

	dest, err := tr.Trash(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tr.Dir, "files", "May 6 export.csv"), dest)
	assert.NoFileExists(t, src)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))

	info, err := os.ReadFile(filepath.Join(tr.Dir, "info", "May 6 export.csv.trashinfo"))
	require.NoError(t, err)
	abs, err := filepath.Abs(src)
	require.NoError(t, err)
	assert.Contains(t, string(info), "[Trash Info]\n")
	assert.Contains(t, string(info), "Path="+filepath.ToSlash(filepath.Dir(abs))+"/May%206%20export.csv\n")
	assert.Contains(t, string(info), "DeletionDate=2024-05-06T17:04:05\n")
}

func TestDirTrashNameCollision(t *testing.T) {
	t.Parallel()

	tr := newTestTrash(t)
	var dests []string
	for _, dir := range []string{t.TempDir(), t.TempDir(), t.TempDir()} {
		src := filepath.Join(dir, "export.csv")
		require.NoError(t, os.WriteFile(src, []byte(dir), 0644))
		dest, err := tr.Trash(src)
		require.NoError(t, err)
		dests = append(dests, filepath.Base(dest))
	}

	assert.Equal(t, []string{"export.csv", "export 2.csv", "export 3.csv"}, dests)
	assert.FileExists(t, filepath.Join(tr.Dir, "info", "export 3.csv.trashinfo"))
}

func TestDirTrashMissingSource(t *testing.T) {
	t.Parallel()

	tr := newTestTrash(t)
	_, err := tr.Trash(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	entries, err := os.ReadDir(tr.Dir)
	if err == nil {
		assert.Empty(t, entries)
	}
}

func TestCopyTree(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "folder")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "nested", "a.csv"), []byte("a"), 0644))

	dst := filepath.Join(t.TempDir(), "copy")
	require.NoError(t, copyTree(src, dst))

	data, err := os.ReadFile(filepath.Join(dst, "nested", "a.csv"))
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))
}

func TestDirTrashSkipsOrphanedFile(t *testing.T) {
	t.Parallel()

	tr := newTestTrash(t)
	require.NoError(t, os.MkdirAll(filepath.Join(tr.Dir, "files"), 0700))
	orphan := filepath.Join(tr.Dir, "files", "a.csv")
	require.NoError(t, os.WriteFile(orphan, []byte("OLD"), 0600))

	src := filepath.Join(t.TempDir(), "a.csv")
	require.NoError(t, os.WriteFile(src, []byte("NEW"), 0644))

	dest, err := tr.Trash(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tr.Dir, "files", "a 2.csv"), dest)
	assert.FileExists(t, filepath.Join(tr.Dir, "info", "a 2.csv.trashinfo"))
	assert.NoFileExists(t, filepath.Join(tr.Dir, "info", "a.csv.trashinfo"))

	old, err := os.ReadFile(orphan)
	require.NoError(t, err)
	assert.Equal(t, "OLD", string(old))
	moved, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "NEW", string(moved))
}

func TestNewTrash(t *testing.T) {
	t.Parallel()

	tr, err := NewTrash("")
	require.NoError(t, err)
	assert.IsType(t, SystemTrash{}, tr)

	dir := filepath.Join(t.TempDir(), "Trash")
	tr, err = NewTrash(dir)
	require.NoError(t, err)
	require.IsType(t, &DirTrash{}, tr)
	assert.Equal(t, dir, tr.(*DirTrash).Dir)

	_, err = NewDirTrash("")
	assert.Error(t, err)
}

func TestSystemTrashMissingSource(t *testing.T) {
	t.Parallel()

	_, err := SystemTrash{}.Trash(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
