package config

import (
	_ "embed"
	"errors"
	"io/fs"
	"os"
)

//go:embed default.yaml
var defaultManifest []byte

// DefaultManifestName is the file name `provision init` writes.
const DefaultManifestName = "provision.yaml"

// DefaultManifest returns the manifest shipped in the binary.
func DefaultManifest() []byte {
	out := make([]byte, len(defaultManifest))
	copy(out, defaultManifest)
	return out
}

// LoadDefault parses and validates the built-in manifest.
func LoadDefault() (*Manifest, error) {
	return Parse("<built-in>", defaultManifest, FormatYAML)
}

// Load reads, parses and validates the manifest at path. The encoding is
// chosen from the file extension.
func Load(path string) (*Manifest, error) {
	format, ok := FormatFromPath(path)
	if !ok {
		return nil, NewUnsupportedFormatError(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewConfigNotFoundError(path)
		}
		return nil, NewUserError(ErrCodeConfigNotFound, "cannot read manifest").
			WithUnderlying(err)
	}

	return Parse(path, data, format)
}

// Parse decodes and validates manifest data read from source.
func Parse(source string, data []byte, format Format) (*Manifest, error) {
	m, err := ParseManifest(data, format)
	if err != nil {
		return nil, NewConfigParseError(source, format, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
