package tech

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/chipfeat/pkg/errors"
	"github.com/matzehuels/chipfeat/pkg/geom"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	got := cfg.DensityLayers()
	want := []Layer{
		{Name: "metal1", Number: 3, Datatype: 0},
		{Name: "metal2", Number: 4, Datatype: 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DensityLayers() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, int64(10_000), cfg.Density.GridSize)
	assert.Equal(t, OverlapFull, cfg.Density.Overlap)
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "sky130.toml", `
name = "sky130"

[[layers]]
name = "metal1"
layer = 68
datatype = 20

[[layers]]
name = "metal2"
layer = 69
datatype = 20

[density]
overlap = "clip"
extent = [0, 0, 147000, 147000]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sky130", cfg.Name)
	assert.Len(t, cfg.Layers, 2)
	assert.Equal(t, []string{"metal1", "metal2"}, cfg.Density.Layers, "density layers fall back to defaults")
	assert.Equal(t, int64(DefaultGridSize), cfg.Density.GridSize)
	assert.Equal(t, OverlapClip, cfg.Density.Overlap)

	box, ok := cfg.Density.ExtentBox()
	require.True(t, ok)
	assert.Equal(t, geom.Box{XMax: 147000, YMax: 147000}, box)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    errors.Code
	}{
		{"syntax", `name = `, errors.ErrCodeInvalidConfig},
		{"unknown key", "colour = \"red\"\n", errors.ErrCodeInvalidConfig},
		{"unknown density layer", "[density]\nlayers = [\"metal9\"]\n", errors.ErrCodeInvalidConfig},
		{"bad overlap", "[density]\noverlap = \"raster\"\n", errors.ErrCodeInvalidConfig},
		{"negative grid", "[density]\ngrid_size = -5\n", errors.ErrCodeInvalidConfig},
		{"bad extent", "[density]\nextent = [0, 0, 0, 10]\n", errors.ErrCodeInvalidConfig},
		{"duplicate layer", "[[layers]]\nname = \"m\"\nlayer = 1\n[[layers]]\nname = \"m\"\nlayer = 2\n[density]\nlayers = []\n", errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "tech.toml", tt.content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.code), "got %v", err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound), "got %v", err)
}

func TestSaveLoadPreservesTable(t *testing.T) {
	cfg := Default()
	cfg.Density.Overlap = OverlapClip

	var buf bytes.Buffer
	require.NoError(t, cfg.Save(&buf))

	got, err := Load(writeFile(t, "tech.toml", buf.String()))
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("config changed after save/load (-want +got):\n%s", diff)
	}
}

const sampleLYP = `<?xml version="1.0" encoding="utf-8"?>
<layer-properties>
 <properties>
  <fill-color>#ff0000</fill-color>
  <name>Activ.drawing</name>
  <source>1/0@1</source>
 </properties>
 <properties>
  <name>Metal1.drawing</name>
  <source>8/0@1</source>
 </properties>
 <properties>
  <name>Metal1.pin</name>
  <source>8/2@1</source>
 </properties>
 <properties>
  <name>Metal2.drawing</name>
  <source>Metal2 10/0@1</source>
 </properties>
 <properties>
  <name>Broken.drawing</name>
  <source>*/*@*</source>
 </properties>
</layer-properties>
`

func TestImportLYP(t *testing.T) {
	cfg, err := ImportLYP(writeFile(t, "sg13g2.lyp", sampleLYP))
	require.NoError(t, err)

	want := []Layer{
		{Name: "activ", Number: 1, Datatype: 0},
		{Name: "metal1", Number: 8, Datatype: 0},
		{Name: "metal2", Number: 10, Datatype: 0},
	}
	if diff := cmp.Diff(want, cfg.Layers); diff != "" {
		t.Errorf("layers mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "sg13g2", cfg.Name)
	assert.Equal(t, []string{"metal1", "metal2"}, cfg.Density.Layers)
}

func TestImportLYPMalformed(t *testing.T) {
	_, err := ImportLYP(writeFile(t, "bad.lyp", "<layer-properties><properties>"))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat), "got %v", err)
}

func TestLoadExamples(t *testing.T) {
	generic, err := Load(filepath.Join("..", "..", "examples", "tech", "generic.toml"))
	require.NoError(t, err)
	if diff := cmp.Diff(Default(), generic); diff != "" {
		t.Errorf("generic.toml differs from Default() (-want +got):\n%s", diff)
	}

	sky, err := Load(filepath.Join("..", "..", "examples", "tech", "sky130.toml"))
	require.NoError(t, err)
	assert.Equal(t, "sky130", sky.Name)
	assert.Equal(t, OverlapClip, sky.Density.Overlap)
	names := make([]string, 0, 3)
	for _, l := range sky.DensityLayers() {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"li1", "met1", "met2"}, names)
}
