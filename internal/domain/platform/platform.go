// Package platform detects the host operating system, distribution and
// environment, and picks the native package manager for it.
package platform

import (
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"gopkg.in/ini.v1"
)

// OS represents the operating system type.
type OS string

const (
	// OSDarwin is macOS.
	OSDarwin OS = "darwin"
	// OSLinux is Linux (native or WSL).
	OSLinux OS = "linux"
	// OSWindows is Windows.
	OSWindows OS = "windows"
	// OSUnknown is an unsupported OS.
	OSUnknown OS = "unknown"
)

// Environment represents the execution environment.
type Environment string

const (
	// EnvNative is a native OS environment.
	EnvNative Environment = "native"
	// EnvWSL1 is Windows Subsystem for Linux version 1.
	EnvWSL1 Environment = "wsl1"
	// EnvWSL2 is Windows Subsystem for Linux version 2.
	EnvWSL2 Environment = "wsl2"
	// EnvDocker is running inside a Docker container.
	EnvDocker Environment = "docker"
)

// Platform contains detected platform information.
type Platform struct {
	os          OS
	arch        string
	environment Environment
	distro      string
	distroLike  []string
	version     string
	wslDistro   string
}

var (
	detected     *Platform
	detectOnce   sync.Once
	testPlatform *Platform

	osReleasePath = "/etc/os-release"
)

// Detect returns the current platform information.
// Results are cached after the first call.
func Detect() *Platform {
	if testPlatform != nil {
		return testPlatform
	}
	detectOnce.Do(func() {
		detected = detect()
	})
	return detected
}

// SetTestPlatform sets a fixed platform for testing.
// Pass nil to reset to actual detection.
func SetTestPlatform(p *Platform) {
	testPlatform = p
}

func detect() *Platform {
	p := &Platform{
		arch:        runtime.GOARCH,
		environment: EnvNative,
	}

	switch runtime.GOOS {
	case "darwin":
		p.os = OSDarwin
		if out, err := exec.Command("sw_vers", "-productVersion").Output(); err == nil {
			p.version = strings.TrimSpace(string(out))
		}
	case "linux":
		p.os = OSLinux
		if data, err := os.ReadFile(osReleasePath); err == nil {
			p.distro, p.version, p.distroLike = ParseOSRelease(data)
		}
		p.detectLinuxEnvironment()
	case "windows":
		p.os = OSWindows
	default:
		p.os = OSUnknown
	}

	return p
}

// ParseOSRelease extracts ID, VERSION_ID and ID_LIKE from an os-release file.
func ParseOSRelease(data []byte) (id, version string, like []string) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:     true,
		SkipUnrecognizableLines: true,
	}, data)
	if err != nil {
		return "", "", nil
	}
	sec := cfg.Section("")
	unquote := func(s string) string { return strings.Trim(strings.TrimSpace(s), `"'`) }

	id = strings.ToLower(unquote(sec.Key("ID").String()))
	version = unquote(sec.Key("VERSION_ID").String())
	if l := unquote(sec.Key("ID_LIKE").String()); l != "" {
		like = strings.Fields(strings.ToLower(l))
	}
	return id, version, like
}

func (p *Platform) detectLinuxEnvironment() {
	data, err := os.ReadFile("/proc/version")
	if err == nil {
		v := strings.ToLower(string(data))
		if strings.Contains(v, "microsoft") || strings.Contains(v, "wsl") {
			p.environment = EnvWSL1
			if _, err := os.Stat("/run/WSL"); err == nil || strings.Contains(v, "wsl2") {
				p.environment = EnvWSL2
			}
			p.wslDistro = os.Getenv("WSL_DISTRO_NAME")
			return
		}
	}

	if _, err := os.Stat("/.dockerenv"); err == nil {
		p.environment = EnvDocker
	}
}

// OS returns the operating system.
func (p *Platform) OS() OS {
	return p.os
}

// Arch returns the architecture.
func (p *Platform) Arch() string {
	return p.arch
}

// Environment returns the execution environment.
func (p *Platform) Environment() Environment {
	return p.environment
}

// Distro returns the Linux distribution id (e.g. "ubuntu"), empty elsewhere.
func (p *Platform) Distro() string {
	return p.distro
}

// Version returns the OS or distribution version, empty when unknown.
func (p *Platform) Version() string {
	return p.version
}

// WSLDistro returns the WSL distribution name (empty if not WSL).
func (p *Platform) WSLDistro() string {
	return p.wslDistro
}

// IsWSL returns true if running in WSL (1 or 2).
func (p *Platform) IsWSL() bool {
	return p.environment == EnvWSL1 || p.environment == EnvWSL2
}

// Names returns the identifiers a manifest may use to refer to this
// platform, most specific first: distro id, ID_LIKE entries, OS.
func (p *Platform) Names() []string {
	var names []string
	if p.distro != "" {
		names = append(names, p.distro)
	}
	names = append(names, p.distroLike...)
	return append(names, string(p.os))
}

// Matches reports whether name refers to this platform.
func (p *Platform) Matches(name string) bool {
	name = strings.ToLower(name)
	for _, n := range p.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// DefaultManager returns the native package manager name, or "" when the
// platform has none this tool knows.
func (p *Platform) DefaultManager() string {
	switch p.os {
	case OSDarwin:
		return "brew"
	case OSWindows:
		return "winget"
	case OSLinux:
		for _, n := range p.Names() {
			switch n {
			case "debian", "ubuntu", "linuxmint", "pop":
				return "apt"
			case "fedora", "rhel", "centos", "rocky", "almalinux":
				return "dnf"
			}
		}
	}
	return ""
}

// String returns a human-readable description.
func (p *Platform) String() string {
	parts := []string{string(p.os), p.arch}
	if p.environment != EnvNative {
		parts = append(parts, string(p.environment))
	}
	if p.distro != "" {
		d := p.distro
		if p.version != "" {
			d += " " + p.version
		}
		parts = append(parts, d)
	} else if p.version != "" {
		parts = append(parts, p.version)
	}
	return strings.Join(parts, "/")
}

// New creates a Platform with specified values.
func New(os OS, arch string, env Environment) *Platform {
	return &Platform{
		os:          os,
		arch:        arch,
		environment: env,
	}
}

// WithRelease returns a copy of p with distribution and version set.
func (p *Platform) WithRelease(distro, version string, like ...string) *Platform {
	c := *p
	c.distro = distro
	c.version = version
	c.distroLike = like
	return &c
}

// NewWSL creates a WSL Linux platform.
func NewWSL(env Environment, distro string) *Platform {
	return &Platform{
		os:          OSLinux,
		arch:        "amd64",
		environment: env,
		distro:      strings.ToLower(distro),
		wslDistro:   distro,
	}
}
