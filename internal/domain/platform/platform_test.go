package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOSRelease(t *testing.T) {
	t.Parallel()

	data := []byte(`PRETTY_NAME="Ubuntu 22.04.4 LTS"
NAME="Ubuntu"
VERSION_ID="22.04"
VERSION="22.04.4 LTS (Jammy Jellyfish)"
ID=ubuntu
ID_LIKE=debian
HOME_URL="https://www.ubuntu.com/"
`)

	id, version, like := ParseOSRelease(data)
	assert.Equal(t, "ubuntu", id)
	assert.Equal(t, "22.04", version)
	assert.Equal(t, []string{"debian"}, like)
}

func TestParseOSRelease_MultipleLike(t *testing.T) {
	t.Parallel()

	id, version, like := ParseOSRelease([]byte("ID=\"rocky\"\nVERSION_ID=\"9.3\"\nID_LIKE=\"rhel centos fedora\"\n"))
	assert.Equal(t, "rocky", id)
	assert.Equal(t, "9.3", version)
	assert.Equal(t, []string{"rhel", "centos", "fedora"}, like)
}

func TestPlatform_DefaultManager(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		platform *Platform
		want     string
	}{
		{"macOS", New(OSDarwin, "arm64", EnvNative), "brew"},
		{"windows", New(OSWindows, "amd64", EnvNative), "winget"},
		{"ubuntu", New(OSLinux, "amd64", EnvNative).WithRelease("ubuntu", "22.04", "debian"), "apt"},
		{"debian", New(OSLinux, "amd64", EnvNative).WithRelease("debian", "12"), "apt"},
		{"fedora", New(OSLinux, "amd64", EnvNative).WithRelease("fedora", "40"), "dnf"},
		{"rocky via like", New(OSLinux, "amd64", EnvNative).WithRelease("rocky", "9.3", "rhel", "fedora"), "dnf"},
		{"wsl ubuntu", NewWSL(EnvWSL2, "Ubuntu"), "apt"},
		{"unknown distro", New(OSLinux, "amd64", EnvNative).WithRelease("arch", ""), ""},
		{"unknown os", New(OSUnknown, "amd64", EnvNative), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.platform.DefaultManager())
		})
	}
}

func TestPlatform_Matches(t *testing.T) {
	t.Parallel()

	p := New(OSLinux, "amd64", EnvNative).WithRelease("ubuntu", "22.04", "debian")
	assert.True(t, p.Matches("ubuntu"))
	assert.True(t, p.Matches("Debian"))
	assert.True(t, p.Matches("linux"))
	assert.False(t, p.Matches("darwin"))
	assert.Equal(t, []string{"ubuntu", "debian", "linux"}, p.Names())
}

func TestPlatform_IsWSL(t *testing.T) {
	t.Parallel()

	assert.True(t, NewWSL(EnvWSL1, "Ubuntu").IsWSL())
	assert.True(t, NewWSL(EnvWSL2, "Ubuntu").IsWSL())
	assert.False(t, New(OSLinux, "amd64", EnvDocker).IsWSL())
	assert.Equal(t, "Ubuntu", NewWSL(EnvWSL2, "Ubuntu").WSLDistro())
}

func TestPlatform_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		platform *Platform
		want     string
	}{
		{"macOS native", New(OSDarwin, "arm64", EnvNative).WithRelease("", "14.2"), "darwin/arm64/14.2"},
		{"linux native", New(OSLinux, "amd64", EnvNative), "linux/amd64"},
		{"wsl2 ubuntu", NewWSL(EnvWSL2, "Ubuntu").WithRelease("ubuntu", "22.04"), "linux/amd64/wsl2/ubuntu 22.04"},
		{"docker", New(OSLinux, "amd64", EnvDocker), "linux/amd64/docker"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.platform.String())
		})
	}
}

func TestSetTestPlatform(t *testing.T) {
	SetTestPlatform(New(OSWindows, "amd64", EnvNative))
	defer SetTestPlatform(nil)

	detected := Detect()
	require.NotNil(t, detected)
	assert.Equal(t, OSWindows, detected.OS())
}

func TestNormalizeVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"22.04", "v22.4.0", true},
		{"13", "v13.0.0", true},
		{"10.0.19045", "v10.0.19045", true},
		{"14.2.1.5", "v14.2.1", true},
		{"v1.2", "v1.2.0", true},
		{"", "", false},
		{"bookworm", "", false},
		{"1.x", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, ok := NormalizeVersion(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCompareVersions(t *testing.T) {
	t.Parallel()

	c, err := CompareVersions("22.04", "20.04")
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	c, err = CompareVersions("11", "11.0")
	require.NoError(t, err)
	assert.Equal(t, 0, c)

	c, err = CompareVersions("12.6", "13")
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	_, err = CompareVersions("sid", "12")
	assert.Error(t, err)
}
