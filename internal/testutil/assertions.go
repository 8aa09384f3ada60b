package testutil

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertFileExists asserts that a regular file exists at the given path.
func AssertFileExists(t testing.TB, path string) {
	t.Helper()

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		assert.Fail(t, "file does not exist", "expected file to exist: %s", path)
		return
	}
	require.NoError(t, err)
	assert.False(t, info.IsDir(), "expected file but got directory: %s", path)
}

// AssertFileNotExists asserts that nothing exists at the given path.
func AssertFileNotExists(t testing.TB, path string) {
	t.Helper()

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "expected file to not exist: %s", path)
}

// AssertFileEquals asserts that a file contains exactly the expected content.
func AssertFileEquals(t testing.TB, path, expected string, msgAndArgs ...interface{}) {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err, "failed to read file: %s", path)

	actual := strings.ReplaceAll(string(content), "\r\n", "\n")
	expected = strings.ReplaceAll(expected, "\r\n", "\n")

	assert.Equal(t, expected, actual, msgAndArgs...)
}

// AssertDirEntries asserts the number of entries in dir. A missing
// directory counts as empty.
func AssertDirEntries(t testing.TB, dir string, want int) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		assert.Equal(t, want, 0, "directory %s does not exist", dir)
		return
	}
	require.NoError(t, err)
	assert.Len(t, entries, want, "entries in %s", dir)
}

// AssertLinesContain asserts that each expected substring appears in output,
// in order, each on a later line than the previous one.
func AssertLinesContain(t testing.TB, output string, expected ...string) {
	t.Helper()

	lines := strings.Split(output, "\n")
	i := 0
	for _, want := range expected {
		found := false
		for ; i < len(lines); i++ {
			if strings.Contains(lines[i], want) {
				found = true
				i++
				break
			}
		}
		if !found {
			assert.Fail(t, "missing line", "expected a line containing %q (in order) in:\n%s", want, output)
			return
		}
	}
}
