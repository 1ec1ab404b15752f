package paths

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHost pins the machine lookups for the duration of one test.
func fakeHost(t *testing.T, goos string) {
	t.Helper()
	saved := host
	t.Cleanup(func() { host = saved })
	host.goos = goos
	host.getwd = func() (string, error) { return "/work/project", nil }
	host.homeDir = func() (string, error) { return "/home/ana", nil }
	host.userConfigDir = func() (string, error) { return "/Users/ana/Library/Application Support", nil }
}

func TestDefaultConfigDir(t *testing.T) {
	tests := []struct {
		name string
		goos string
		xdg  string
		want string
	}{
		{"linux with XDG_CONFIG_HOME", "linux", "/xdg", "/xdg/modelkit"},
		{"linux without XDG_CONFIG_HOME", "linux", "", "/home/ana/.config/modelkit"},
		{"darwin ignores XDG_CONFIG_HOME", "darwin", "/xdg", "/Users/ana/Library/Application Support/modelkit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakeHost(t, tt.goos)
			t.Setenv("XDG_CONFIG_HOME", tt.xdg)
			got, err := DefaultConfigDir()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultConfigDirLookupFailure(t *testing.T) {
	noHome := errors.New("no home")
	for _, goos := range []string{"linux", "windows"} {
		t.Run(goos, func(t *testing.T) {
			fakeHost(t, goos)
			t.Setenv("XDG_CONFIG_HOME", "")
			host.homeDir = func() (string, error) { return "", noHome }
			host.userConfigDir = func() (string, error) { return "", noHome }
			_, err := DefaultConfigDir()
			assert.ErrorIs(t, err, noHome)
		})
	}
}

func TestResolveConfigDir(t *testing.T) {
	tests := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{"flag wins over env", "/explicit", "/env", "/explicit"},
		{"env when flag empty", "", "/env", "/env"},
		{"platform default", "", "", "/home/ana/.config/modelkit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakeHost(t, "linux")
			t.Setenv("XDG_CONFIG_HOME", "")
			t.Setenv(EnvConfigDir, tt.env)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRelativeOverridesBecomeAbsolute(t *testing.T) {
	chdirTest(t, t.TempDir())
	wd, err := os.Getwd()
	require.NoError(t, err)
	t.Setenv(EnvConfigDir, "conf")
	t.Setenv(EnvDataDir, "")

	got, err := ResolveConfigDir("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "conf"), got)

	got, err = ResolveDataDir("", "runs")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "runs"), got)
}

func TestResolveDataDir(t *testing.T) {
	tests := []struct {
		name   string
		flag   string
		config string
		env    string
		want   string
	}{
		{"flag wins over all", "/flag", "/config", "/env", "/flag"},
		{"config.yaml wins over env", "", "/config", "/env", "/config"},
		{"env when flag and config empty", "", "", "/env", "/env"},
		{"dot-modelkit in working directory", "", "", "", "/work/project/.modelkit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakeHost(t, "linux")
			t.Setenv(EnvDataDir, tt.env)
			got, err := ResolveDataDir(tt.flag, tt.config)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDataDirGetwdFailure(t *testing.T) {
	fakeHost(t, "linux")
	t.Setenv(EnvDataDir, "")
	gone := errors.New("cwd removed")
	host.getwd = func() (string, error) { return "", gone }
	_, err := ResolveDataDir("", "")
	assert.ErrorIs(t, err, gone)
}

func TestConfigFile(t *testing.T) {
	fakeHost(t, "linux")
	t.Setenv("XDG_CONFIG_HOME", "")
	dir, err := DefaultConfigDir()
	require.NoError(t, err)
	assert.Equal(t, "/home/ana/.config/modelkit/config.yaml", ConfigFile(dir))
}

// chdirTest changes the working directory to dir and restores it when the
// test finishes, mirroring testing.T.Chdir for toolchains that predate it.
func chdirTest(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}
