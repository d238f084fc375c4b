package local_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/omnifs"
	"github.com/hupe1980/omnifs/local"
)

func newFS(t *testing.T) (*local.Local, string) {
	t.Helper()
	dir := t.TempDir()
	fs, err := local.New(context.Background(), omnifs.Params{Path: dir})
	require.NoError(t, err)
	return fs, dir
}

func put(t *testing.T, fs omnifs.FS, name, content string) {
	t.Helper()
	w, err := fs.Create(context.Background(), name)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestLocal_ReadWrite(t *testing.T) {
	ctx := context.Background()
	fs, _ := newFS(t)
	defer func() { _ = fs.Close() }()

	put(t, fs, "greeting.txt", "hello")

	f, err := fs.Open(ctx, "greeting.txt")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	t.Run("ReadAt", func(t *testing.T) {
		buf := make([]byte, 3)
		n, err := f.ReadAt(buf, 1)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, "ell", string(buf))
	})

	t.Run("Seek", func(t *testing.T) {
		pos, err := f.Seek(1, io.SeekStart)
		require.NoError(t, err)
		assert.Equal(t, int64(1), pos)

		rest, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, "ello", string(rest))
	})
}

func TestLocal_OpenMissing(t *testing.T) {
	fs, _ := newFS(t)
	defer func() { _ = fs.Close() }()

	_, err := fs.Open(context.Background(), "absent")
	assert.ErrorIs(t, err, omnifs.ErrNotFound)
}

func TestLocal_List(t *testing.T) {
	ctx := context.Background()
	fs, _ := newFS(t)
	defer func() { _ = fs.Close() }()

	require.NoError(t, fs.MakeDirs(ctx, "sub/deep", 0o755))
	put(t, fs, "a.txt", "a")
	put(t, fs, "sub/b.txt", "b")
	put(t, fs, "sub/deep/c.txt", "c")

	t.Run("ImmediateChildren", func(t *testing.T) {
		names, err := fs.List(ctx, "")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a.txt", "sub/"}, names)
	})

	t.Run("Prefix", func(t *testing.T) {
		names, err := fs.List(ctx, "sub")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"b.txt", "deep/"}, names)
	})

	t.Run("Recursive", func(t *testing.T) {
		names, err := fs.List(ctx, "", omnifs.Recursively())
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a.txt", "sub/", "sub/b.txt", "sub/deep/", "sub/deep/c.txt"}, names)
	})

	t.Run("ListStat", func(t *testing.T) {
		stats, err := fs.ListStat(ctx, "sub")
		require.NoError(t, err)

		byName := make(map[string]*omnifs.FileStat, len(stats))
		for _, st := range stats {
			byName[st.Filename] = st
		}
		require.Contains(t, byName, "b.txt")
		require.Contains(t, byName, "deep/")
		assert.Equal(t, int64(1), byName["b.txt"].Size)
		assert.False(t, byName["b.txt"].IsDir())
		assert.True(t, byName["deep/"].IsDir())
		assert.False(t, byName["b.txt"].LastModified.IsZero())
	})
}

func TestLocal_StatAndDirs(t *testing.T) {
	ctx := context.Background()
	fs, _ := newFS(t)
	defer func() { _ = fs.Close() }()

	put(t, fs, "f.txt", "data")
	require.NoError(t, fs.Mkdir(ctx, "d", 0o755))

	st, err := fs.Stat(ctx, "f.txt")
	require.NoError(t, err)
	assert.Equal(t, "f.txt", st.Filename)
	assert.Equal(t, int64(4), st.Size)
	assert.False(t, st.IsDir())

	isDir, err := fs.IsDir(ctx, "d")
	require.NoError(t, err)
	assert.True(t, isDir)

	isDir, err = fs.IsDir(ctx, "f.txt")
	require.NoError(t, err)
	assert.False(t, isDir)

	ok, err := fs.Exists(ctx, "f.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fs.Exists(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocal_RenameRemove(t *testing.T) {
	ctx := context.Background()
	fs, _ := newFS(t)
	defer func() { _ = fs.Close() }()

	put(t, fs, "old.txt", "x")
	require.NoError(t, fs.Rename(ctx, "old.txt", "new.txt"))

	ok, err := fs.Exists(ctx, "old.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, fs.Remove(ctx, "new.txt", false))

	t.Run("NonRecursiveOnDirFails", func(t *testing.T) {
		require.NoError(t, fs.MakeDirs(ctx, "tree/leaf", 0o755))
		put(t, fs, "tree/leaf/f", "x")
		assert.Error(t, fs.Remove(ctx, "tree", false))

		require.NoError(t, fs.Remove(ctx, "tree", true))
		ok, err := fs.Exists(ctx, "tree")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestLocal_Glob(t *testing.T) {
	ctx := context.Background()
	fs, _ := newFS(t)
	defer func() { _ = fs.Close() }()

	put(t, fs, "a.json", "{}")
	put(t, fs, "b.json", "{}")
	put(t, fs, "c.txt", "x")

	names, err := fs.Glob(ctx, "*.json")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.json", "b.json"}, names)
}

func TestLocal_SubFS(t *testing.T) {
	ctx := context.Background()
	fs, dir := newFS(t)
	defer func() { _ = fs.Close() }()

	require.NoError(t, fs.MakeDirs(ctx, "train/images", 0o755))
	put(t, fs, "train/images/0.png", "png")

	sub, err := fs.SubFS("train")
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	names, err := sub.List(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"images/"}, names)

	put(t, sub, "images/1.png", "png2")
	_, err = os.Stat(filepath.Join(dir, "train", "images", "1.png"))
	assert.NoError(t, err)

	t.Run("ParentUnchanged", func(t *testing.T) {
		names, err := fs.List(ctx, "")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"train/"}, names)
	})

	t.Run("EscapeRejected", func(t *testing.T) {
		_, err := sub.SubFS("../..")

		var perr *omnifs.InvalidPathError
		assert.ErrorAs(t, err, &perr)
	})
}
