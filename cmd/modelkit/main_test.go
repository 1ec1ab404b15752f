package main

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var (
	// modelkitBin is the path to the built modelkit binary.
	modelkitBin string
	// buildErr captures any build error.
	buildErr error
)

// BuildError wraps a build error with output.
type BuildError struct {
	Err    error
	Output string
}

func (e *BuildError) Error() string {
	return e.Err.Error() + ": " + e.Output
}

// TestMain builds the modelkit binary once before running tests.
func TestMain(m *testing.M) {
	tmpDir, err := os.MkdirTemp("", "modelkit-test-*")
	if err != nil {
		os.Exit(1)
	}
	modelkitBin = filepath.Join(tmpDir, "modelkit")

	cmd := exec.Command("go", "build", "-o", modelkitBin, ".")
	if output, err := cmd.CombinedOutput(); err != nil {
		buildErr = &BuildError{Err: err, Output: string(output)}
	}

	code := m.Run()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}

// testEnv provides an isolated config and data directory.
type testEnv struct {
	t       *testing.T
	Config  string
	DataDir string
	Env     []string
}

// newTestEnv writes a config.yaml that points data_dir at a temp directory.
func newTestEnv(t *testing.T, format string) *testEnv {
	t.Helper()
	if buildErr != nil {
		t.Fatalf("failed to build modelkit: %v", buildErr)
	}

	tempDir := t.TempDir()
	dataDir := filepath.Join(tempDir, "data")
	configDir := filepath.Join(tempDir, "config")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	content := "data_dir: " + dataDir + "\nformat: " + format + "\nlog_level: warn\n"
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return &testEnv{t: t, Config: configDir, DataDir: dataDir}
}

// cmdResult holds the result of a modelkit command execution.
type cmdResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// run executes modelkit with the env's config directory. The data directory
// comes from config.yaml.
func (e *testEnv) run(args ...string) cmdResult {
	e.t.Helper()
	cmd := exec.Command(modelkitBin, append([]string{"--config-dir", e.Config}, args...)...)
	cmd.Env = append(os.Environ(), "MODELKIT_DATA_DIR=", "MODELKIT_FORMAT=")
	cmd.Env = append(cmd.Env, e.Env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	exitCode := 0
	if err := cmd.Run(); err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			e.t.Fatalf("failed to run modelkit: %v", err)
		}
		exitCode = exitErr.ExitCode()
	}
	return cmdResult{Stdout: stdout.String(), Stderr: stderr.String(), ExitCode: exitCode}
}

func (e *testEnv) mustRun(args ...string) cmdResult {
	e.t.Helper()
	r := e.run(args...)
	if r.ExitCode != 0 {
		e.t.Fatalf("modelkit %v failed with exit code %d:\nstdout: %s\nstderr: %s",
			args, r.ExitCode, r.Stdout, r.Stderr)
	}
	return r
}

func parseJSON[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("failed to parse JSON %q: %v", s, err)
	}
	return v
}

type snapshot struct {
	Kind            string `json:"kind"`
	Tag             string `json:"tag"`
	Format          string `json:"format"`
	Parameters      int    `json:"parameters"`
	HyperParameters int    `json:"hyper_parameters"`
}

type modelView struct {
	Kind            string         `json:"kind"`
	State           string         `json:"state"`
	Parameters      map[string]any `json:"parameters"`
	HyperParameters map[string]any `json:"hyper_parameters"`
}

func TestInitUsesConfiguredDataDir(t *testing.T) {
	env := newTestEnv(t, "json")
	env.mustRun("init")
	if _, err := os.Stat(filepath.Join(env.DataDir, "catalog.db")); err != nil {
		t.Errorf("catalog.db not created in data_dir: %v", err)
	}
}

func TestSnapshotLayout(t *testing.T) {
	tests := []struct {
		format string
		ext    string
	}{
		{"json", "json"},
		{"msgpack", "msgpack"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			env := newTestEnv(t, tt.format)
			env.mustRun("save", "baseline", "run1", "--defaults")

			dir := filepath.Join(env.DataDir, "models", "baseline", "run1")
			for _, name := range []string{"parameters." + tt.ext, "hyper_parameters." + tt.ext} {
				if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
					t.Errorf("missing %s: %v", name, err)
				}
			}

			v := parseJSON[modelView](t, env.mustRun("--json", "show", "baseline", "run1").Stdout)
			if v.Parameters["strategy"] != "mean" || v.HyperParameters["quantile"] != 0.5 {
				t.Errorf("show = %+v", v)
			}
		})
	}
}

func TestExitCodes(t *testing.T) {
	env := newTestEnv(t, "json")
	env.mustRun("save", "baseline", "run1")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"conflict", []string{"save", "baseline", "run1"}, 1},
		{"missing snapshot", []string{"show", "baseline", "nope"}, 1},
		{"unknown kind", []string{"save", "forest", "run1"}, 1},
		{"out of bounds", []string{"save", "baseline", "q", "--hyper", "quantile=2"}, 1},
		{"unknown flag", []string{"list", "--bogus"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if r := env.run(tt.args...); r.ExitCode != tt.want {
				t.Errorf("exit code = %d, want %d; stderr: %s", r.ExitCode, tt.want, r.Stderr)
			}
		})
	}
}

func TestFormatFromEnvironment(t *testing.T) {
	env := newTestEnv(t, "json")
	env.Env = []string{"MODELKIT_FORMAT=msgpack"}
	env.mustRun("save", "linearregression", "m1", "--defaults")

	snaps := parseJSON[[]snapshot](t, env.mustRun("--json", "list").Stdout)
	if len(snaps) != 1 || snaps[0].Format != "msgpack" || snaps[0].Parameters != 2 || snaps[0].HyperParameters != 2 {
		t.Errorf("list = %+v", snaps)
	}
}

func TestCatalogRebuiltFromDisk(t *testing.T) {
	env := newTestEnv(t, "json")
	env.mustRun("save", "baseline", "a", "--defaults")
	env.mustRun("save", "linearregression", "b", "--defaults")

	if err := os.Remove(filepath.Join(env.DataDir, "catalog.db")); err != nil {
		t.Fatalf("remove catalog: %v", err)
	}
	snaps := parseJSON[[]snapshot](t, env.mustRun("--json", "list").Stdout)
	if len(snaps) != 2 || snaps[0].Tag != "a" || snaps[1].Tag != "b" {
		t.Errorf("rebuilt list = %+v", snaps)
	}
}
