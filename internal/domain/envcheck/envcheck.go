// Package envcheck holds the environment validation units evaluated before
// the begin gate. Each check is an execution.WorkUnit: Probe reports whether
// the host already passes, Apply either remedies the gap or explains it.
package envcheck

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/felixgeelhaar/provision/internal/domain/execution"
	"github.com/felixgeelhaar/provision/internal/domain/platform"
	"github.com/felixgeelhaar/provision/internal/ports"
	"github.com/felixgeelhaar/provision/internal/provider/commandutil"
)

// Check errors.
var (
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrVersionTooOld       = errors.New("platform version too old")
	ErrNoPrivileges        = errors.New("administrative privileges unavailable")
	ErrUnreachable         = errors.New("network unreachable")
	ErrNoPackageManager    = errors.New("package manager unavailable")
)

// PlatformCheck verifies the detected platform is supported and, when a
// minimum version is declared for it, new enough.
type PlatformCheck struct {
	platform    *platform.Platform
	supported   []string
	minVersions map[string]string
}

// NewPlatformCheck creates a PlatformCheck. An empty supported list accepts
// any platform.
func NewPlatformCheck(p *platform.Platform, supported []string, minVersions map[string]string) *PlatformCheck {
	return &PlatformCheck{platform: p, supported: supported, minVersions: minVersions}
}

// Name returns the check name.
func (c *PlatformCheck) Name() string {
	return "Supported platform"
}

// Probe reports whether the platform passes.
func (c *PlatformCheck) Probe(_ context.Context) (bool, error) {
	return c.verify() == nil, nil
}

// Apply returns the reason the platform does not pass.
func (c *PlatformCheck) Apply(_ context.Context) error {
	return c.verify()
}

func (c *PlatformCheck) verify() error {
	if len(c.supported) > 0 && !c.matchesAny() {
		return fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedPlatform, c.platform, strings.Join(c.supported, ", "))
	}

	name, minVersion, ok := c.minimum()
	if !ok {
		return nil
	}
	current := c.platform.Version()
	if current == "" {
		return fmt.Errorf("%w: cannot determine %s version (need %s)", ErrVersionTooOld, name, minVersion)
	}
	cmp, err := platform.CompareVersions(current, minVersion)
	if err != nil {
		return fmt.Errorf("compare %s version: %w", name, err)
	}
	if cmp < 0 {
		return fmt.Errorf("%w: %s %s (need %s or newer)", ErrVersionTooOld, name, current, minVersion)
	}
	return nil
}

func (c *PlatformCheck) matchesAny() bool {
	for _, name := range c.supported {
		if c.platform.Matches(name) {
			return true
		}
	}
	return false
}

// minimum returns the most specific declared minimum for the platform.
func (c *PlatformCheck) minimum() (name, version string, ok bool) {
	for _, n := range c.platform.Names() {
		if v, found := c.minVersions[n]; found {
			return n, v, true
		}
	}
	return "", "", false
}

// PrivilegeCheck verifies administrative rights for package installation on
// Linux: running as root, or cached sudo credentials. Apply asks sudo to
// validate, which prompts for a password on the terminal.
type PrivilegeCheck struct {
	platform *platform.Platform
	runner   ports.CommandRunner
	euid     func() int
}

// PrivilegeOption configures a PrivilegeCheck.
type PrivilegeOption func(*PrivilegeCheck)

// WithEUID replaces os.Geteuid.
func WithEUID(fn func() int) PrivilegeOption {
	return func(c *PrivilegeCheck) {
		c.euid = fn
	}
}

// NewPrivilegeCheck creates a PrivilegeCheck.
func NewPrivilegeCheck(p *platform.Platform, runner ports.CommandRunner, opts ...PrivilegeOption) *PrivilegeCheck {
	c := &PrivilegeCheck{platform: p, runner: runner, euid: os.Geteuid}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the check name.
func (c *PrivilegeCheck) Name() string {
	return "Administrative privileges"
}

// Probe reports whether privileges are already available. Homebrew and
// winget run unprivileged, so macOS and Windows always pass.
func (c *PrivilegeCheck) Probe(ctx context.Context) (bool, error) {
	if c.platform.OS() != platform.OSLinux {
		return true, nil
	}
	if c.euid() == 0 {
		return true, nil
	}
	return commandutil.Succeeds(ctx, c.runner, "sudo", "-n", "true")
}

// Apply obtains sudo credentials.
func (c *PrivilegeCheck) Apply(ctx context.Context) error {
	if err := commandutil.Exec(ctx, c.runner, "sudo", "-v"); err != nil {
		return fmt.Errorf("%w: %v", ErrNoPrivileges, err)
	}
	return nil
}

// Dialer opens network connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// DefaultDialTimeout bounds a single reachability probe.
const DefaultDialTimeout = 5 * time.Second

// NetworkCheck verifies a TCP connection to host:port can be opened.
type NetworkCheck struct {
	address string
	timeout time.Duration
	dialer  Dialer
	lastErr error
}

// NetworkOption configures a NetworkCheck.
type NetworkOption func(*NetworkCheck)

// WithDialer replaces the network dialer.
func WithDialer(d Dialer) NetworkOption {
	return func(c *NetworkCheck) {
		c.dialer = d
	}
}

// WithTimeout sets the dial timeout.
func WithTimeout(d time.Duration) NetworkOption {
	return func(c *NetworkCheck) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewNetworkCheck creates a NetworkCheck for address (host:port).
func NewNetworkCheck(address string, opts ...NetworkOption) *NetworkCheck {
	c := &NetworkCheck{
		address: address,
		timeout: DefaultDialTimeout,
		dialer:  &net.Dialer{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the check name.
func (c *NetworkCheck) Name() string {
	return "Network connectivity"
}

// Probe dials the target once.
func (c *NetworkCheck) Probe(ctx context.Context) (bool, error) {
	c.lastErr = c.dial(ctx)
	return c.lastErr == nil, nil
}

// Apply reports the probe failure. Connectivity cannot be fixed from here.
func (c *NetworkCheck) Apply(ctx context.Context) error {
	err := c.lastErr
	if err == nil {
		if err = c.dial(ctx); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %s: %v", ErrUnreachable, c.address, err)
}

func (c *NetworkCheck) dial(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dialer.DialContext(ctx, "tcp", c.address)
	if err != nil {
		return err
	}
	return conn.Close()
}

// ManagerCheck verifies the selected package manager can be invoked.
type ManagerCheck struct {
	manager ports.PackageManager
}

// NewManagerCheck creates a ManagerCheck. A nil manager always fails.
func NewManagerCheck(pm ports.PackageManager) *ManagerCheck {
	return &ManagerCheck{manager: pm}
}

// Name returns the check name.
func (c *ManagerCheck) Name() string {
	if c.manager == nil {
		return "Package manager"
	}
	return fmt.Sprintf("Package manager (%s)", c.manager.Name())
}

// Probe reports whether the manager binary is available.
func (c *ManagerCheck) Probe(ctx context.Context) (bool, error) {
	return c.manager != nil && c.manager.Available(ctx), nil
}

// Apply explains the missing manager.
func (c *ManagerCheck) Apply(_ context.Context) error {
	if c.manager == nil {
		return fmt.Errorf("%w: none detected for this platform, use --manager", ErrNoPackageManager)
	}
	return fmt.Errorf("%w: %s not found in PATH", ErrNoPackageManager, c.manager.Name())
}

var (
	_ execution.WorkUnit = (*PlatformCheck)(nil)
	_ execution.WorkUnit = (*PrivilegeCheck)(nil)
	_ execution.WorkUnit = (*NetworkCheck)(nil)
	_ execution.WorkUnit = (*ManagerCheck)(nil)
)
