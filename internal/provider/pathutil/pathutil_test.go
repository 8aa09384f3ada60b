package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpander_Expand(t *testing.T) {
	env := map[string]string{"XDG_CONFIG_HOME": "/xdg", "EMPTY": ""}
	e := NewExpander("/home/dev", func(k string) string { return env[k] })

	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"~", "/home/dev"},
		{"~/.bashrc", filepath.Join("/home/dev", ".bashrc")},
		{"$XDG_CONFIG_HOME/git/config", "/xdg/git/config"},
		{"${XDG_CONFIG_HOME}/starship.toml", "/xdg/starship.toml"},
		{"/etc/hosts", "/etc/hosts"},
		{"relative/path", "relative/path"},
		{"~other/.bashrc", "~other/.bashrc"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, e.Expand(tt.input))
		})
	}
}

func TestExpander_Home(t *testing.T) {
	assert.Equal(t, "/home/dev", NewExpander("/home/dev", nil).Home())
}

func TestDirExists(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "file.txt")
	if err := os.WriteFile(tmpFile, []byte("test"), 0o644); err != nil {
		t.Fatal(err)
	}

	assert.True(t, DirExists(tmpDir))
	assert.False(t, DirExists(tmpFile))
	assert.False(t, DirExists(filepath.Join(tmpDir, "missing")))
}
