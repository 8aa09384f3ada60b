// Package pathutil resolves manifest paths against the user's home directory.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// Expander expands a leading ~ and environment variables in a path.
type Expander struct {
	home   string
	getenv func(string) string
}

// NewExpander creates an Expander rooted at home. A nil getenv reads the
// process environment.
func NewExpander(home string, getenv func(string) string) *Expander {
	if getenv == nil {
		getenv = os.Getenv
	}
	return &Expander{home: home, getenv: getenv}
}

// NewHomeExpander uses the current user's home directory.
func NewHomeExpander() *Expander {
	home, _ := os.UserHomeDir()
	return NewExpander(home, nil)
}

// Home returns the directory ~ expands to.
func (e *Expander) Home() string {
	return e.home
}

// Expand returns path with ~ and $VAR references resolved. Paths such as
// "~user/x" are left untouched.
func (e *Expander) Expand(path string) string {
	if path == "" {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		path = filepath.Join(e.home, path[1:])
	}

	return os.Expand(path, e.getenv)
}

// DirExists checks if a directory exists.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
