package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/modelkit/pkg/types"
)

// env isolates one CLI run from the host configuration.
type env struct {
	configDir string
	dataDir   string
}

func newEnv(t *testing.T) env {
	t.Helper()
	t.Setenv("MODELKIT_DATA_DIR", "")
	t.Setenv("MODELKIT_FORMAT", "")
	dir := t.TempDir()
	return env{configDir: filepath.Join(dir, "config"), dataDir: filepath.Join(dir, "data")}
}

// run executes the CLI and returns exit code, stdout and stderr.
func (e env) run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errb bytes.Buffer
	full := append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...)
	code := Run(context.Background(), full, &out, &errb)
	return code, out.String(), errb.String()
}

func (e env) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	code, out, errOut := e.run(t, args...)
	require.Equal(t, exitSuccess, code, "stderr: %s", errOut)
	return out
}

func TestVersion(t *testing.T) {
	e := newEnv(t)
	out := e.mustRun(t, "version")
	assert.Equal(t, "modelkit "+Version+"\n", out)
}

func TestInit(t *testing.T) {
	e := newEnv(t)
	out := e.mustRun(t, "init")
	assert.Contains(t, out, "modelkit initialized successfully")
	assert.FileExists(t, filepath.Join(e.configDir, "config.yaml"))
	assert.FileExists(t, filepath.Join(e.dataDir, "catalog.db"))

	data, err := os.ReadFile(filepath.Join(e.configDir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "format: json")
	assert.Contains(t, string(data), "retries: 3")

	// Idempotent.
	e.mustRun(t, "init")
}

func TestKindsAndSchema(t *testing.T) {
	e := newEnv(t)
	out := e.mustRun(t, "--json", "kinds")
	var kinds []string
	require.NoError(t, json.Unmarshal([]byte(out), &kinds))
	assert.Equal(t, []string{"baseline", "linearregression"}, kinds)

	out = e.mustRun(t, "--json", "schema", "LinearRegression")
	var s schemaView
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, "linearregression", s.Kind)
	require.Len(t, s.HyperParameters, 3)
	assert.Equal(t, "learning_rate", s.HyperParameters[0].Name)
	assert.Equal(t, 1.0, s.HyperParameters[0].Max)

	code, _, errOut := e.run(t, "schema", "forest")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "unknown model kind")
}

func TestSaveShowOverwrite(t *testing.T) {
	e := newEnv(t)
	out := e.mustRun(t, "save", "linearregression", "run1", "--param", "l2=0.5", "--hyper", "epochs=10", "--defaults")
	assert.Equal(t, "saved linearregression/run1 (configured)\n", out)

	code, _, errOut := e.run(t, "save", "linearregression", "run1", "--param", "l2=0.9")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "already exists")

	out = e.mustRun(t, "--json", "show", "linearregression", "run1")
	var v modelView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, 0.5, v.Parameters["l2"])
	assert.Equal(t, 10.0, v.HyperParameters["epochs"])

	e.mustRun(t, "save", "linearregression", "run1", "--param", "l2=0.9", "--overwrite", "--defaults")
	out = e.mustRun(t, "--json", "show", "linearregression", "run1")
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, 0.9, v.Parameters["l2"])
	assert.Equal(t, 1000.0, v.HyperParameters["epochs"], "overwrite replaces the whole snapshot")
}

func TestSaveRejectsInvalidValues(t *testing.T) {
	e := newEnv(t)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"out of bounds", []string{"--hyper", "learning_rate=2"}, "over max value"},
		{"unknown name", []string{"--param", "depth=3"}, "no parameter named"},
		{"not a number", []string{"--param", "l2=abc"}, "not a valid float"},
		{"missing equals", []string{"--param", "l2"}, "not name=value"},
		{"infinite float", []string{"--param", "l2=inf"}, "not finite"},
		{"negative infinite float", []string{"--hyper", "learning_rate=-Inf"}, "not finite"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"save", "linearregression", "bad"}, tt.args...)
			code, _, errOut := e.run(t, args...)
			assert.Equal(t, exitUserError, code)
			assert.Contains(t, errOut, tt.want)
		})
	}
	assert.NoDirExists(t, filepath.Join(e.dataDir, "models", "linearregression", "bad"))
}

func TestShowMissing(t *testing.T) {
	e := newEnv(t)
	code, _, errOut := e.run(t, "show", "baseline", "nope")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, types.ErrMissingModelData.Error())

	code, _, _ = e.run(t, "show", "baseline", "../escape")
	assert.Equal(t, exitUserError, code)
}

func TestList(t *testing.T) {
	e := newEnv(t)
	e.mustRun(t, "save", "baseline", "b1", "--defaults")
	e.mustRun(t, "--format", "msgpack", "save", "linearregression", "lr1")

	out := e.mustRun(t, "--json", "list")
	var views []snapshotView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 2)
	assert.Equal(t, "baseline", views[0].Kind)
	assert.Equal(t, "json", views[0].Format)
	assert.Equal(t, 1, views[0].Parameters)
	assert.Equal(t, "msgpack", views[1].Format)
	assert.Equal(t, 0, views[1].Parameters)

	out = e.mustRun(t, "list", "Baseline")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "baseline"))
}

func TestFitAndPredict(t *testing.T) {
	if testing.Short() {
		t.Skip("fits 20000 epochs")
	}
	e := newEnv(t)
	dir := t.TempDir()
	train := filepath.Join(dir, "train.csv")
	var b strings.Builder
	b.WriteString("x,y\n")
	for i := 0; i < 20; i++ {
		x := float64(i) / 20
		fmt.Fprintf(&b, "%s,%s\n", strconv.FormatFloat(x, 'g', -1, 64), strconv.FormatFloat(2*x+1, 'g', -1, 64))
	}
	require.NoError(t, os.WriteFile(train, []byte(b.String()), 0o644))
	input := filepath.Join(dir, "input.csv")
	require.NoError(t, os.WriteFile(input, []byte("x\n2\n"), 0o644))

	e.mustRun(t, "save", "linearregression", "m", "--defaults",
		"--hyper", "learning_rate=0.5", "--hyper", "epochs=20000", "--hyper", "tolerance=1e-10")

	code, _, _ := e.run(t, "predict", "linearregression", "m", "--data", input)
	assert.Equal(t, exitUserError, code, "predict before fit")

	out := e.mustRun(t, "--json", "fit", "linearregression", "m", "--data", train, "--target", "y")
	var v modelView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "fitted", string(v.State))
	assert.InDelta(t, 1.0, v.Results["r2"], 1e-6)

	out = e.mustRun(t, "--json", "predict", "linearregression", "m", "--data", input)
	var p predictView
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	require.Len(t, p.Predictions, 1)
	assert.InDelta(t, 5.0, p.Predictions[0], 1e-2)

	code, _, errOut := e.run(t, "fit", "linearregression", "m", "--data", train, "--target", "nope")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "unknown column")
}

func TestUnknownCommandIsUserError(t *testing.T) {
	e := newEnv(t)
	code, _, _ := e.run(t, "frobnicate")
	assert.Equal(t, exitUserError, code)
}

func TestBadFormatIsUserError(t *testing.T) {
	e := newEnv(t)
	code, _, errOut := e.run(t, "--format", "pickle", "list")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "unknown format")
}

func TestFetch(t *testing.T) {
	e := newEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/train.csv" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "x,y\n1,3\n")
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "train.csv")
	out := e.mustRun(t, "fetch", srv.URL+"/train.csv", dest, "--retry-wait", "1ms")
	assert.Equal(t, dest+"\n", out)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "x,y\n1,3\n", string(data))

	code, _, errOut := e.run(t, "fetch", srv.URL+"/missing.csv", filepath.Join(t.TempDir(), "m.csv"),
		"--retries", "1", "--retry-wait", "1ms")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "404")
}
