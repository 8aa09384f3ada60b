// Package validation checks manifest inputs before they reach a shell
// command line or the filesystem.
package validation

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Common validation errors.
var (
	ErrEmptyInput          = errors.New("input cannot be empty")
	ErrInvalidPackageName  = errors.New("invalid package name")
	ErrInvalidVersion      = errors.New("invalid package version")
	ErrInvalidWingetID     = errors.New("invalid winget package ID")
	ErrInvalidChocoPackage = errors.New("invalid chocolatey package name")
	ErrPathTraversal       = errors.New("path traversal detected")
	ErrInvalidPath         = errors.New("invalid path")
	ErrCommandInjection    = errors.New("potential command injection detected")
	ErrInvalidHostPort     = errors.New("invalid host:port")
	ErrNewlineInjection    = errors.New("newline injection detected")
	ErrInvalidINIKey       = errors.New("invalid ini key")
	ErrInvalidINIValue     = errors.New("invalid ini value")
)

var (
	// Examples: "git", "node-lts", "python3.11", "g++"
	packageNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._+-]*$`)

	// Examples: "1.2.3", "2:9.0.1-1ubuntu1", "latest"
	versionRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9.:+~_-]*$`)

	// Publisher.PackageName, e.g. "Git.Git", "BurntSushi.ripgrep.MSVC"
	wingetIDRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*\.[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

	// Examples: "git", "7zip.install"
	chocoPackageRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

	hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9.-]*$`)

	// Examples: "name", "autocrlf", "default-branch"
	iniKeyRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._-]*$`)

	controlCharRegex = regexp.MustCompile(`[\x00-\x08\x0b-\x1f\x7f]`)

	shellMetaChars = []string{";", "|", "&", "$", "`", "(", ")", "{", "}", "<", ">", "\n", "\r", "\\"}
)

// ValidatePackageName validates an apt, dnf or brew package name.
func ValidatePackageName(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if len(name) > 256 {
		return fmt.Errorf("%w: name too long (max 256 characters)", ErrInvalidPackageName)
	}
	if !packageNameRegex.MatchString(name) {
		return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidPackageName, name)
	}
	if containsShellMeta(name) {
		return fmt.Errorf("%w: %q contains shell metacharacters", ErrCommandInjection, name)
	}
	return nil
}

// ValidateVersion validates a pinned package version. Empty is allowed.
func ValidateVersion(version string) error {
	if version == "" {
		return nil
	}
	if len(version) > 128 || !versionRegex.MatchString(version) {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, version)
	}
	return nil
}

// ValidateWingetID validates a winget package ID (Publisher.PackageName format).
func ValidateWingetID(id string) error {
	if id == "" {
		return ErrEmptyInput
	}
	if len(id) > 256 {
		return fmt.Errorf("%w: package ID too long", ErrInvalidWingetID)
	}
	if !wingetIDRegex.MatchString(id) {
		return fmt.Errorf("%w: %q must be in 'Publisher.PackageName' format", ErrInvalidWingetID, id)
	}
	if containsShellMeta(id) {
		return fmt.Errorf("%w: %q contains shell metacharacters", ErrCommandInjection, id)
	}
	return nil
}

// ValidateChocoPackage validates a Chocolatey package name.
func ValidateChocoPackage(name string) error {
	if name == "" {
		return ErrEmptyInput
	}
	if len(name) > 256 {
		return fmt.Errorf("%w: package name too long", ErrInvalidChocoPackage)
	}
	if !chocoPackageRegex.MatchString(name) {
		return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidChocoPackage, name)
	}
	if containsShellMeta(name) {
		return fmt.Errorf("%w: %q contains shell metacharacters", ErrCommandInjection, name)
	}
	return nil
}

// ValidatePath rejects empty paths, null bytes and ".." traversal.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyInput
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: path contains null byte", ErrInvalidPath)
	}
	if containsPathTraversal(path) {
		return fmt.Errorf("%w: %q contains traversal sequence", ErrPathTraversal, path)
	}
	return nil
}

// ValidateHostPort validates the network reachability target.
func ValidateHostPort(addr string) error {
	if addr == "" {
		return ErrEmptyInput
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHostPort, err)
	}
	if net.ParseIP(host) == nil && (len(host) > 253 || !hostnameRegex.MatchString(host)) {
		return fmt.Errorf("%w: bad host %q", ErrInvalidHostPort, host)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("%w: bad port %q", ErrInvalidHostPort, port)
	}
	return nil
}

// ValidateINIKey validates a key written into an INI file.
func ValidateINIKey(key string) error {
	if key == "" {
		return ErrEmptyInput
	}
	if !iniKeyRegex.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidINIKey, key)
	}
	return nil
}

// ValidateINIValue rejects values that could inject extra lines.
func ValidateINIValue(value string) error {
	if strings.ContainsAny(value, "\n\r") {
		return fmt.Errorf("%w: value contains newlines", ErrNewlineInjection)
	}
	if controlCharRegex.MatchString(value) {
		return fmt.Errorf("%w: contains control characters", ErrInvalidINIValue)
	}
	return nil
}

func containsShellMeta(s string) bool {
	for _, char := range shellMetaChars {
		if strings.Contains(s, char) {
			return true
		}
	}
	return false
}

func containsPathTraversal(path string) bool {
	normalized := filepath.Clean(path)
	for _, seg := range strings.Split(normalized, string(filepath.Separator)) {
		if seg == ".." {
			return true
		}
	}
	return strings.Contains(path, "%2e%2e") || strings.Contains(path, "%2E%2E")
}
