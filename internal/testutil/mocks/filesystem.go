package mocks

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/felixgeelhaar/provision/internal/ports"
)

type mockFile struct {
	data    []byte
	mode    os.FileMode
	modTime time.Time
}

// FileSystem is a thread-safe in-memory test double for ports.FileSystem.
type FileSystem struct {
	mu         sync.RWMutex
	files      map[string]mockFile
	dirs       map[string]bool
	writeErrs  map[string]error
	readErrs   map[string]error
	writeCalls []string
}

// NewFileSystem creates a new FileSystem mock.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		files:     make(map[string]mockFile),
		dirs:      make(map[string]bool),
		writeErrs: make(map[string]error),
		readErrs:  make(map[string]error),
	}
}

// AddFile adds a file with mode 0644 to the mock filesystem.
func (m *FileSystem) AddFile(path, content string) {
	m.AddFileWithMode(path, content, 0o644)
}

// AddFileWithMode adds a file with explicit permission bits.
func (m *FileSystem) AddFileWithMode(path, content string, mode os.FileMode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = mockFile{data: []byte(content), mode: mode, modTime: time.Now()}
}

// AddDir adds a directory to the mock filesystem.
func (m *FileSystem) AddDir(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[path] = true
}

// FailWrite makes every write or copy targeting path return err.
func (m *FileSystem) FailWrite(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErrs[path] = err
}

// FailRead makes reads and hashes of path return err.
func (m *FileSystem) FailRead(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErrs[path] = err
}

// Content returns the current content of path and whether it exists.
func (m *FileSystem) Content(path string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[path]
	return string(f.data), ok
}

// WriteCalls returns the paths written, in order.
func (m *FileSystem) WriteCalls() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.writeCalls...)
}

func notExist(op, path string) error {
	return &fs.PathError{Op: op, Path: path, Err: fs.ErrNotExist}
}

// ReadFile reads a file from the mock filesystem.
func (m *FileSystem) ReadFile(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.readErrs[path]; err != nil {
		return nil, err
	}
	f, ok := m.files[path]
	if !ok {
		return nil, notExist("open", path)
	}
	return append([]byte(nil), f.data...), nil
}

// WriteFile writes a file to the mock filesystem.
func (m *FileSystem) WriteFile(path string, data []byte, perm os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeCalls = append(m.writeCalls, path)
	if err := m.writeErrs[path]; err != nil {
		return err
	}
	m.files[path] = mockFile{data: append([]byte(nil), data...), mode: perm, modTime: time.Now()}
	return nil
}

// Exists checks if a file or directory exists in the mock filesystem.
func (m *FileSystem) Exists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, fileExists := m.files[path]
	return fileExists || m.dirs[path]
}

// IsDir checks if a path is a directory in the mock filesystem.
func (m *FileSystem) IsDir(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dirs[path]
}

// MkdirAll records path and its parents as directories.
func (m *FileSystem) MkdirAll(path string, _ os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErrs[path]; err != nil {
		return err
	}
	for p := filepath.Clean(path); ; p = filepath.Dir(p) {
		m.dirs[p] = true
		if p == filepath.Dir(p) {
			break
		}
	}
	return nil
}

// FileHash returns ports.ContentHash of a file in the mock filesystem.
func (m *FileSystem) FileHash(path string) (string, error) {
	data, err := m.ReadFile(path)
	if err != nil {
		return "", err
	}
	return ports.ContentHash(data), nil
}

// CopyFile copies src to dest keeping mode and modification time.
func (m *FileSystem) CopyFile(src, dest string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeErrs[dest]; err != nil {
		return err
	}
	f, ok := m.files[src]
	if !ok {
		return notExist("open", src)
	}
	if _, exists := m.files[dest]; exists {
		return &fs.PathError{Op: "open", Path: dest, Err: fs.ErrExist}
	}
	m.files[dest] = mockFile{data: append([]byte(nil), f.data...), mode: f.mode, modTime: f.modTime}
	return nil
}

// GetFileInfo returns metadata about a file in the mock filesystem.
func (m *FileSystem) GetFileInfo(path string) (ports.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if f, ok := m.files[path]; ok {
		return ports.FileInfo{Size: int64(len(f.data)), Mode: f.mode, ModTime: f.modTime}, nil
	}
	if m.dirs[path] {
		return ports.FileInfo{Mode: os.ModeDir | 0o755, IsDir: true}, nil
	}
	return ports.FileInfo{}, fmt.Errorf("stat %s: %w", path, fs.ErrNotExist)
}

var _ ports.FileSystem = (*FileSystem)(nil)
