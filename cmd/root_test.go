package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mj1618/device-bridge/internal/capture"
	"github.com/mj1618/device-bridge/internal/model"
	"github.com/mj1618/device-bridge/internal/output"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	expected := []string{"serve", "capture", "tap", "status"}
	found := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		found[c.Name()] = true
	}
	for _, name := range expected {
		if !found[name] {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	if rootCmd.Version == "" {
		t.Error("root command version should be set")
	}
}

func TestCommand_Flags(t *testing.T) {
	tests := []struct {
		cmd      string
		name     string
		flagType string
	}{
		{"serve", "transport", "string"},
		{"serve", "port", "int"},
		{"capture", "annotate", "bool"},
		{"capture", "labels", "string"},
		{"capture", "wait", "duration"},
		{"tap", "x", "int"},
		{"tap", "y", "int"},
		{"tap", "wait", "duration"},
		{"status", "wait", "duration"},
	}
	for _, tt := range tests {
		c, _, err := rootCmd.Find([]string{tt.cmd})
		require.NoError(t, err)
		f := c.Flags().Lookup(tt.name)
		if f == nil {
			t.Errorf("%s: expected flag %q not found", tt.cmd, tt.name)
			continue
		}
		if f.Value.Type() != tt.flagType {
			t.Errorf("%s --%s: expected type %q, got %q", tt.cmd, tt.name, tt.flagType, f.Value.Type())
		}
	}
	for _, name := range []string{"config", "format", "pretty", "backend", "serial", "log-level"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected persistent flag %q not found", name)
		}
	}
}

func TestTapPoint(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		flags   map[string]string
		x, y    int
		wantErr bool
	}{
		{name: "positional", args: []string{"540,1100"}, x: 540, y: 1100},
		{name: "flags", flags: map[string]string{"x": "10", "y": "20"}, x: 10, y: 20},
		{name: "zero flags", flags: map[string]string{"x": "0", "y": "0"}, x: 0, y: 0},
		{name: "missing y", flags: map[string]string{"x": "10"}, wantErr: true},
		{name: "nothing", wantErr: true},
		{name: "both", args: []string{"1,2"}, flags: map[string]string{"x": "3"}, wantErr: true},
		{name: "malformed", args: []string{"1;2"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &cobra.Command{Use: "tap"}
			c.Flags().Int("x", 0, "")
			c.Flags().Int("y", 0, "")
			for k, v := range tt.flags {
				require.NoError(t, c.Flags().Set(k, v))
			}
			p, err := tapPoint(c, tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.x, p.X)
			assert.Equal(t, tt.y, p.Y)
		})
	}
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	t.Cleanup(func() { resetFlags(rootCmd) })
	c, _, err := rootCmd.Find([]string{"serve"})
	require.NoError(t, err)
	require.NoError(t, c.ParseFlags([]string{"--transport", "streamable-http", "--port", "9090", "--backend", "fake"}))

	cfg, err := loadConfig(c)
	require.NoError(t, err)
	assert.Equal(t, "streamable-http", cfg.Server.Transport)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "fake", cfg.Backend.Name)
	assert.Equal(t, "Agent running", cfg.KeepAlive.DefaultStatus)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("DEVICE_BRIDGE_GESTURE_STRICT", "true")
	c, _, err := rootCmd.Find([]string{"status"})
	require.NoError(t, err)

	cfg, err := loadConfig(c)
	require.NoError(t, err)
	assert.True(t, cfg.Gesture.Strict)
}

// resetFlags restores every flag of c and its subcommands to its default.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// run executes the root command with args and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DEVICE_BRIDGE_CAPTURE_CACHE_DIR", t.TempDir())
	t.Cleanup(func() {
		output.OutputFormat, output.PrettyOutput = output.FormatYAML, false
		resetFlags(rootCmd)
	})

	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	rootCmd.SetArgs(args)
	err = rootCmd.ExecuteContext(context.Background())
	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String(), err
}

func TestStatus_FakeBackend(t *testing.T) {
	out, err := run(t, "status", "--backend", "fake", "--format", "json", "--wait", "1s")
	require.NoError(t, err)

	var res output.StatusResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "fake", res.Backend)
	assert.True(t, res.Active)
	assert.Equal(t, "fake-device", res.Device)
	assert.Contains(t, res.Backends, "adb")
	assert.Contains(t, res.Backends, "fake")
}

func TestCapture_FakeBackend(t *testing.T) {
	out, err := run(t, "capture", "--backend", "fake", "--format", "json", "--wait", "1s")
	require.NoError(t, err)

	var snap model.UiSnapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.FileExists(t, snap.ImagePath)
	assert.NotEmpty(t, snap.Elements)
}

func TestCapture_AnnotatedCoords(t *testing.T) {
	out, err := run(t, "capture", "--annotate", "--labels", "coords", "--backend", "fake", "--format", "json", "--wait", "1s")
	require.NoError(t, err)

	var snap model.UiSnapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.FileExists(t, filepath.Join(filepath.Dir(snap.ImagePath), capture.AnnotatedName))
}

func TestCapture_UnknownLabels(t *testing.T) {
	_, err := run(t, "capture", "--annotate", "--labels", "names", "--backend", "fake", "--format", "json")
	assert.ErrorContains(t, err, "capture.labels")
}

func TestTap_FakeBackend(t *testing.T) {
	out, err := run(t, "tap", "30,40", "--backend", "fake", "--format", "json", "--wait", "1s")
	require.NoError(t, err)

	var res output.ActionResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, output.ActionResult{X: 30, Y: 40, Completed: true}, res)
}

func TestTap_ByElementID(t *testing.T) {
	out, err := run(t, "tap", "--id", "1", "--backend", "fake", "--format", "json", "--wait", "1s")
	require.NoError(t, err)

	var res output.ActionResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Completed)
	assert.NotZero(t, res.X)
	assert.NotZero(t, res.Y)
}

func TestTap_UnknownElementID(t *testing.T) {
	out, err := run(t, "tap", "--id", "99", "--backend", "fake", "--format", "json", "--wait", "1s")
	assert.ErrorContains(t, err, "element 99 not found")
	assert.Contains(t, out, `"code":"INTERNAL"`)
}

func TestUnknownBackend(t *testing.T) {
	_, err := run(t, "status", "--backend", "nope", "--format", "json")
	assert.ErrorContains(t, err, "unknown backend")
}
