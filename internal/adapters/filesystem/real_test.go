package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/provision/internal/ports"
)

func TestRealFileSystem_ReadWrite(t *testing.T) {
	t.Parallel()

	rfs := NewRealFileSystem()
	path := filepath.Join(t.TempDir(), "test.txt")

	require.NoError(t, rfs.WriteFile(path, []byte("hello world"), 0o644))
	content, err := rfs.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(content))
	assert.True(t, rfs.Exists(path))
	assert.False(t, rfs.IsDir(path))

	hash, err := rfs.FileHash(path)
	require.NoError(t, err)
	assert.Equal(t, ports.ContentHash([]byte("hello world")), hash)
	assert.Len(t, hash, 64)
}

func TestRealFileSystem_WriteFileResetsMode(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced on windows")
	}

	rfs := NewRealFileSystem()
	path := filepath.Join(t.TempDir(), "secret")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	require.NoError(t, rfs.WriteFile(path, []byte("y"), 0o600))
	info, err := rfs.GetFileInfo(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode.Perm())
}

func TestRealFileSystem_NotFound(t *testing.T) {
	t.Parallel()

	rfs := NewRealFileSystem()
	missing := filepath.Join(t.TempDir(), "missing")

	_, err := rfs.ReadFile(missing)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = rfs.FileHash(missing)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = rfs.GetFileInfo(missing)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.ErrorIs(t, rfs.CopyFile(missing, missing+".bak"), fs.ErrNotExist)
	assert.False(t, rfs.Exists(missing))
}

func TestRealFileSystem_CopyFilePreservesAttributes(t *testing.T) {
	t.Parallel()

	rfs := NewRealFileSystem()
	dir := t.TempDir()
	src := filepath.Join(dir, ".bashrc")
	dest := filepath.Join(dir, ".bashrc.bak")

	require.NoError(t, os.WriteFile(src, []byte("export EDITOR=nvim\n"), 0o600))
	mtime := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, mtime, mtime))

	require.NoError(t, rfs.CopyFile(src, dest))

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "export EDITOR=nvim\n", string(content))

	info, err := rfs.GetFileInfo(dest)
	require.NoError(t, err)
	assert.True(t, info.ModTime.Equal(mtime), "mtime %v", info.ModTime)
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0o600), info.Mode.Perm())
	}
}

func TestRealFileSystem_CopyFileNeverOverwrites(t *testing.T) {
	t.Parallel()

	rfs := NewRealFileSystem()
	dir := t.TempDir()
	src := filepath.Join(dir, "a")
	dest := filepath.Join(dir, "b")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(dest, []byte("old"), 0o644))

	assert.ErrorIs(t, rfs.CopyFile(src, dest), fs.ErrExist)
	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "old", string(content))
}

func TestRealFileSystem_Directories(t *testing.T) {
	t.Parallel()

	rfs := NewRealFileSystem()
	dir := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, rfs.MkdirAll(dir, 0o755))
	assert.True(t, rfs.IsDir(dir))
	info, err := rfs.GetFileInfo(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir)
}
