package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/chipfeat/pkg/errors"
	"github.com/matzehuels/chipfeat/pkg/gds"
	"github.com/matzehuels/chipfeat/pkg/geom"
	"github.com/matzehuels/chipfeat/pkg/tech"
)

const sampleDEF = `DESIGN spm ;
DIEAREA ( 0 0 ) ( 64000 64000 ) ;
COMPONENTS 2 ;
- U0 sky130_fd_sc_hd__inv_1 + PLACED ( 5000 6000 ) N ;
- U1 sky130_fd_sc_hd__inv_1 + UNPLACED ;
END COMPONENTS
`

// quietStdout captures status output for the duration of the test.
func quietStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })
	return &buf
}

// execute runs the root command with args and returns the status output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	quietSpinners(t)
	out := quietStdout(t)

	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPlacementCommand(t *testing.T) {
	dir := t.TempDir()
	defPath := writeFile(t, dir, "spm.def", sampleDEF)
	out := filepath.Join(dir, "features", "spm.csv")

	stdout, err := execute(t, "placement", "--def_file", defPath, "--out", out)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Parsed 1 cells")
	assert.Contains(t, stdout, "CSV saved to "+out)
	assert.Contains(t, stdout, "1 component lines skipped")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	assert.Len(t, lines, 1+64*64)
}

func TestPlacementCommandFlags(t *testing.T) {
	dir := t.TempDir()
	defPath := writeFile(t, dir, "spm.def", sampleDEF)
	out := filepath.Join(dir, "spm.csv")

	_, err := execute(t, "placement", "--def_file", defPath, "--out", out,
		"--grid", "4", "--die", "64000x64000", "--pins-per-cell", "5")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "grid_x,grid_y,cell_density,pin_count\n0,0,1,5\n", string(data)[:len("grid_x,grid_y,cell_density,pin_count\n0,0,1,5\n")])
}

func TestPlacementCommandZeroPins(t *testing.T) {
	dir := t.TempDir()
	defPath := writeFile(t, dir, "spm.def", sampleDEF)
	out := filepath.Join(dir, "spm.csv")

	_, err := execute(t, "placement", "--def_file", defPath, "--out", out,
		"--grid", "4", "--die", "64000x64000", "--pins-per-cell", "0")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(string(data), "\n")
	assert.Equal(t, "0,0,1,0", lines[1])
}

func TestPlacementCommandErrors(t *testing.T) {
	dir := t.TempDir()
	defPath := writeFile(t, dir, "spm.def", sampleDEF)
	out := filepath.Join(dir, "spm.csv")

	tests := []struct {
		name string
		args []string
	}{
		{"missing def_file", []string{"placement", "--out", out}},
		{"missing out", []string{"placement", "--def_file", defPath}},
		{"zero grid", []string{"placement", "--def_file", defPath, "--out", out, "--grid", "0"}},
		{"bad die", []string{"placement", "--def_file", defPath, "--out", out, "--die", "147000"}},
		{"die conflict", []string{"placement", "--def_file", defPath, "--out", out, "--die", "1x1", "--die-from-def"}},
		{"missing input", []string{"placement", "--def_file", filepath.Join(dir, "nope.def"), "--out", out}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
	assert.NoFileExists(t, out)
}

func TestLayoutCommand(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	w := gds.NewWriter(&buf)
	w.BeginLibrary("lib", 0.001, 1e-9)
	w.BeginStructure("spm")
	w.Box(3, 0, geom.Box{XMax: 10000, YMax: 10000})
	w.EndStructure()
	w.EndLibrary()
	require.NoError(t, w.Close())
	gdsPath := writeFile(t, dir, "spm.gds", buf.String())
	outDir := filepath.Join(dir, "out")

	stdout, err := execute(t, "layout", gdsPath, "--out-dir", outDir, "--grid-size", "5000", "--overlap", "clip")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Extracted 1 shapes from spm")
	assert.Contains(t, stdout, "metal1")
	assert.Contains(t, stdout, "2x2 cells of 5,000 DBU (clip)")
	assert.Contains(t, stdout, "density layer metal2 has no shapes in spm")

	data, err := os.ReadFile(filepath.Join(outDir, "density_grid.csv"))
	require.NoError(t, err)
	assert.Equal(t, "cell_x,cell_y,metal1_area,metal2_area\n"+
		"0,0,25000000,0\n0,1,25000000,0\n1,0,25000000,0\n1,1,25000000,0\n", string(data))
}

func TestLayoutCommandNeedsInput(t *testing.T) {
	_, err := execute(t, "layout")
	assert.Error(t, err)

	_, err = execute(t, "layout", filepath.Join(t.TempDir(), "missing.gds"))
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound), "got %v", err)
}

func TestLayersCommand(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "tech.toml")

	stdout, err := execute(t, "layers", "--write", out)
	require.NoError(t, err)
	for _, name := range []string{"generic", "N_active", "P_active", "metal1", "metal2", "10,000 DBU", "full"} {
		assert.Contains(t, stdout, name)
	}
	assert.Contains(t, stdout, "Layer table saved to "+out)

	cfg, err := tech.Load(out)
	require.NoError(t, err)
	assert.Equal(t, tech.Default(), cfg)
}

func TestLayersCommandFlagConflict(t *testing.T) {
	_, err := execute(t, "layers", "--tech", "a.toml", "--lyp", "b.lyp")
	assert.Error(t, err)
}

func TestCompletionCommand(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"completion", "bash"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "chipfeat")
}

func TestRootAttachesLogger(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()
	root.SetArgs([]string{"layers"})
	quietStdout(t)

	var got *log.Logger
	layers, _, err := root.Find([]string{"layers"})
	require.NoError(t, err)
	layers.PostRun = func(cmd *cobra.Command, args []string) {
		got = loggerFromContext(cmd.Context())
	}
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Same(t, c.Logger, got)
}

func TestParseDie(t *testing.T) {
	tests := []struct {
		in      string
		want    geom.Box
		wantErr bool
	}{
		{"147000x147000", geom.Box{XMax: 147000, YMax: 147000}, false},
		{" 100X200 ", geom.Box{XMax: 100, YMax: 200}, false},
		{"100", geom.Box{}, true},
		{"ax1", geom.Box{}, true},
		{"0x10", geom.Box{}, true},
		{"-5x10", geom.Box{}, true},
	}
	for _, tt := range tests {
		got, err := parseDie(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err), tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFormatDBU(t *testing.T) {
	tests := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		147000:   "147,000",
		-1234567: "-1,234,567",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatDBU(in))
	}
}

func TestLoadTech(t *testing.T) {
	cfg, err := loadTech("", "")
	require.NoError(t, err)
	assert.Equal(t, tech.Default(), cfg)

	_, err = loadTech("a.toml", "b.lyp")
	assert.Error(t, err)
}
