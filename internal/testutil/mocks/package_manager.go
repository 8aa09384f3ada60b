package mocks

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/provision/internal/ports"
)

// PackageManager is an in-memory ports.PackageManager. Install marks a
// package installed unless a failure was registered for it.
type PackageManager struct {
	mu          sync.Mutex
	name        string
	available   bool
	installed   map[string]bool
	installErrs map[string]error
	probeErrs   map[string]error
	refreshErr  error
	installs    []string
	refreshes   int
}

// NewPackageManager creates an available manager with nothing installed.
func NewPackageManager(name string) *PackageManager {
	return &PackageManager{
		name:        name,
		available:   true,
		installed:   make(map[string]bool),
		installErrs: make(map[string]error),
		probeErrs:   make(map[string]error),
	}
}

// SetAvailable toggles Available.
func (m *PackageManager) SetAvailable(v bool) *PackageManager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = v
	return m
}

// MarkInstalled marks packages as already present.
func (m *PackageManager) MarkInstalled(names ...string) *PackageManager {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range names {
		m.installed[n] = true
	}
	return m
}

// FailInstall makes Install of name return err.
func (m *PackageManager) FailInstall(name string, err error) *PackageManager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.installErrs[name] = err
	return m
}

// FailProbe makes IsInstalled of name return err.
func (m *PackageManager) FailProbe(name string, err error) *PackageManager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probeErrs[name] = err
	return m
}

// FailRefresh makes Refresh return err.
func (m *PackageManager) FailRefresh(err error) *PackageManager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshErr = err
	return m
}

// Name returns the configured name.
func (m *PackageManager) Name() string { return m.name }

// Available reports the configured availability.
func (m *PackageManager) Available(_ context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// IsInstalled reports whether pkg was marked or installed.
func (m *PackageManager) IsInstalled(_ context.Context, pkg ports.Package) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.probeErrs[pkg.Name]; err != nil {
		return false, err
	}
	return m.installed[pkg.Name], nil
}

// Install records the call and marks pkg installed on success.
func (m *PackageManager) Install(_ context.Context, pkg ports.Package) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.installs = append(m.installs, pkg.Name)
	if err := m.installErrs[pkg.Name]; err != nil {
		return err
	}
	m.installed[pkg.Name] = true
	return nil
}

// Refresh records the call.
func (m *PackageManager) Refresh(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshes++
	return m.refreshErr
}

// Installs returns the package names passed to Install, in order.
func (m *PackageManager) Installs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.installs...)
}

// Refreshes returns how often Refresh was called.
func (m *PackageManager) Refreshes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshes
}

var _ ports.PackageManager = (*PackageManager)(nil)
