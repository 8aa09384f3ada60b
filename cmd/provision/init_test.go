package main

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/provision/internal/domain/backup"
	"github.com/felixgeelhaar/provision/internal/domain/config"
	"github.com/felixgeelhaar/provision/internal/testutil/mocks"
)

var initTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newInitGuard(fs *mocks.FileSystem) *backup.Guard {
	return backup.NewGuard(fs, "/home/dev/.provision/backups/20260301-090000",
		backup.WithClock(func() time.Time { return initTime }))
}

func TestWriteManifest_New(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	saved, err := writeManifest(fs, newInitGuard(fs), "/home/dev/setup/provision.yaml", false)
	require.NoError(t, err)
	assert.Empty(t, saved)

	content, ok := fs.Content("/home/dev/setup/provision.yaml")
	require.True(t, ok)
	assert.Equal(t, string(config.DefaultManifest()), content)

	m, err := config.Parse("provision.yaml", []byte(content), config.FormatYAML)
	require.NoError(t, err)
	assert.NotEmpty(t, m.Steps)
}

func TestWriteManifest_ExistingWithoutForce(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	fs.AddFile("/home/dev/provision.yaml", "version: 1\n")

	_, err := writeManifest(fs, newInitGuard(fs), "/home/dev/provision.yaml", false)

	var userErr *config.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, config.ErrCodeFileExists, userErr.Code)
	content, _ := fs.Content("/home/dev/provision.yaml")
	assert.Equal(t, "version: 1\n", content)
	assert.Empty(t, fs.WriteCalls())
}

func TestWriteManifest_ForceBacksUp(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	fs.AddFile("/home/dev/provision.yaml", "version: 1\n")

	saved, err := writeManifest(fs, newInitGuard(fs), "/home/dev/provision.yaml", true)
	require.NoError(t, err)
	assert.Equal(t, "/home/dev/.provision/backups/20260301-090000/provision.yaml.20260301-090000.bak", saved)

	old, ok := fs.Content(saved)
	require.True(t, ok)
	assert.Equal(t, "version: 1\n", old)

	content, _ := fs.Content("/home/dev/provision.yaml")
	assert.Equal(t, string(config.DefaultManifest()), content)
}

func TestWriteManifest_RejectsNonYAML(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	for _, path := range []string{"provision.toml", "provision.json"} {
		_, err := writeManifest(fs, newInitGuard(fs), path, false)
		var userErr *config.UserError
		require.ErrorAs(t, err, &userErr, path)
		assert.Equal(t, config.ErrCodeConfigFormat, userErr.Code)
	}
}

func TestWriteManifest_WriteFailure(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	fs.FailWrite("/home/dev/provision.yaml", errors.New("read-only file system"))

	_, err := writeManifest(fs, newInitGuard(fs), "/home/dev/provision.yaml", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only file system")
}
