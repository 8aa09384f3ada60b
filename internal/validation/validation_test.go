package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validationCase struct {
	name    string
	input   string
	wantErr error
}

func runCases(t *testing.T, fn func(string) error, tests []validationCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fn(tt.input)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePackageName(t *testing.T) {
	runCases(t, ValidatePackageName, []validationCase{
		{name: "simple name", input: "git"},
		{name: "with hyphen", input: "fd-find"},
		{name: "with dot", input: "python3.11"},
		{name: "with plus", input: "g++"},
		{name: "numeric start", input: "7zip"},
		{name: "empty", input: "", wantErr: ErrEmptyInput},
		{name: "with semicolon", input: "git;rm -rf", wantErr: ErrInvalidPackageName},
		{name: "with dollar", input: "git$PATH", wantErr: ErrInvalidPackageName},
		{name: "with space", input: "git repo", wantErr: ErrInvalidPackageName},
		{name: "starts with hyphen", input: "-git", wantErr: ErrInvalidPackageName},
		{name: "too long", input: strings.Repeat("a", 300), wantErr: ErrInvalidPackageName},
	})
}

func TestValidateVersion(t *testing.T) {
	runCases(t, ValidateVersion, []validationCase{
		{name: "empty allowed", input: ""},
		{name: "semver", input: "1.2.3"},
		{name: "debian epoch", input: "2:9.0.1-1ubuntu1"},
		{name: "leading dash", input: "-1", wantErr: ErrInvalidVersion},
		{name: "shell meta", input: "1;ls", wantErr: ErrInvalidVersion},
	})
}

func TestValidateWingetID(t *testing.T) {
	runCases(t, ValidateWingetID, []validationCase{
		{name: "publisher and name", input: "Git.Git"},
		{name: "three parts", input: "BurntSushi.ripgrep.MSVC"},
		{name: "empty", input: "", wantErr: ErrEmptyInput},
		{name: "missing publisher", input: "ripgrep", wantErr: ErrInvalidWingetID},
		{name: "injection", input: "Git.Git;calc", wantErr: ErrInvalidWingetID},
	})
}

func TestValidateChocoPackage(t *testing.T) {
	runCases(t, ValidateChocoPackage, []validationCase{
		{name: "simple", input: "ripgrep"},
		{name: "dotted", input: "7zip.install"},
		{name: "empty", input: "", wantErr: ErrEmptyInput},
		{name: "pipe", input: "git|calc", wantErr: ErrInvalidChocoPackage},
	})
}

func TestValidatePath(t *testing.T) {
	runCases(t, ValidatePath, []validationCase{
		{name: "absolute", input: "/home/user/.gitconfig"},
		{name: "home relative", input: "~/.config/provision/aliases.sh"},
		{name: "empty", input: "", wantErr: ErrEmptyInput},
		{name: "traversal", input: "../../../etc/passwd", wantErr: ErrPathTraversal},
		{name: "encoded traversal", input: "%2e%2e/%2e%2e/etc/passwd", wantErr: ErrPathTraversal},
		{name: "null byte", input: "/etc/passwd\x00.txt", wantErr: ErrInvalidPath},
	})
}

func TestValidateHostPort(t *testing.T) {
	runCases(t, ValidateHostPort, []validationCase{
		{name: "hostname", input: "github.com:443"},
		{name: "ipv4", input: "1.1.1.1:53"},
		{name: "ipv6", input: "[::1]:80"},
		{name: "empty", input: "", wantErr: ErrEmptyInput},
		{name: "missing port", input: "github.com", wantErr: ErrInvalidHostPort},
		{name: "port out of range", input: "github.com:70000", wantErr: ErrInvalidHostPort},
		{name: "bad host", input: "git;hub.com:443", wantErr: ErrInvalidHostPort},
	})
}

func TestValidateINI(t *testing.T) {
	runCases(t, ValidateINIKey, []validationCase{
		{name: "key", input: "autocrlf"},
		{name: "dashed", input: "default-branch"},
		{name: "empty", input: "", wantErr: ErrEmptyInput},
		{name: "equals", input: "a=b", wantErr: ErrInvalidINIKey},
	})
	runCases(t, ValidateINIValue, []validationCase{
		{name: "plain", input: "Jane Doe"},
		{name: "empty allowed", input: ""},
		{name: "tab allowed", input: "a\tb"},
		{name: "newline", input: "x\n[core]", wantErr: ErrNewlineInjection},
		{name: "control char", input: "x\x01", wantErr: ErrInvalidINIValue},
	})
}

func TestContainsShellMeta(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"safe-string", false},
		{"with;semicolon", true},
		{"with|pipe", true},
		{"with`backtick`", true},
		{"with\nnewline", true},
		{"with\\backslash", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, containsShellMeta(tt.input))
		})
	}
}

func TestContainsPathTraversal(t *testing.T) {
	assert.False(t, containsPathTraversal("/normal/path/file.txt"))
	assert.True(t, containsPathTraversal("../etc/passwd"))
	assert.False(t, containsPathTraversal("/path/../etc/passwd"))
	assert.True(t, containsPathTraversal("%2E%2E/etc/passwd"))
}
