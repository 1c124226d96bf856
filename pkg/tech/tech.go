// Package tech describes the process-technology layer table used by the
// layout extractor.
//
// A [Config] maps symbolic layer names to GDSII (layer, datatype) pairs and
// selects which layers feed the metal-density grid. Layer numbers differ
// between PDKs, so the table is data rather than code: it can be loaded
// from TOML with [Load] or imported from a KLayout layer-properties file
// with [ImportLYP].
//
//	name = "sky130"
//
//	[[layers]]
//	name = "metal1"
//	layer = 68
//	datatype = 20
//
//	[density]
//	layers = ["metal1", "metal2"]
//	grid_size = 10000
//	overlap = "full"
package tech

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/chipfeat/pkg/errors"
	"github.com/matzehuels/chipfeat/pkg/geom"
)

// DefaultGridSize is the density-grid cell edge length in DBU
// (10 µm at a 1 nm database unit).
const DefaultGridSize = 10_000

// Overlap selects how a shape's area is attributed to the density cells its
// bounding box spans.
type Overlap string

const (
	// OverlapFull adds the whole bounding-box area to every spanned cell.
	// Shapes crossing cell borders are counted more than once.
	OverlapFull Overlap = "full"

	// OverlapClip adds only the part of the bounding box inside each cell.
	OverlapClip Overlap = "clip"
)

// Valid reports whether o names a known policy.
func (o Overlap) Valid() bool {
	return o == OverlapFull || o == OverlapClip
}

// Layer is a named GDSII layer/datatype pair.
type Layer struct {
	Name     string `toml:"name"`
	Number   int    `toml:"layer"`
	Datatype int    `toml:"datatype"`
}

func (l Layer) String() string {
	return fmt.Sprintf("%s (%d/%d)", l.Name, l.Number, l.Datatype)
}

// Density configures the metal-density grid.
type Density struct {
	Layers   []string `toml:"layers"`
	GridSize int64    `toml:"grid_size"`
	Overlap  Overlap  `toml:"overlap"`
	// Extent is [xmin, ymin, xmax, ymax] in DBU. When unset the grid covers
	// the density shapes from the origin outward.
	Extent []int64 `toml:"extent,omitempty"`
}

// Config is a technology layer table.
type Config struct {
	Name    string  `toml:"name"`
	Layers  []Layer `toml:"layers"`
	Density Density `toml:"density"`
}

// Default returns the generic four-layer table: two active layers and two
// metals on layers 1-4, datatype 0. Real PDKs use other numbers; supply a
// config file for them.
func Default() *Config {
	return &Config{
		Name: "generic",
		Layers: []Layer{
			{Name: "N_active", Number: 1, Datatype: 0},
			{Name: "P_active", Number: 2, Datatype: 0},
			{Name: "metal1", Number: 3, Datatype: 0},
			{Name: "metal2", Number: 4, Datatype: 0},
		},
		Density: Density{
			Layers:   []string{"metal1", "metal2"},
			GridSize: DefaultGridSize,
			Overlap:  OverlapFull,
		},
	}
}

// Load reads a TOML technology file. Keys the file leaves out fall back to
// [Default]; unknown keys are rejected.
func Load(path string) (*Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open technology file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse technology file %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	def := Default()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if !md.IsDefined("layers") {
		cfg.Layers = def.Layers
	}
	if !md.IsDefined("density", "layers") {
		cfg.Density.Layers = def.Density.Layers
	}
	if cfg.Density.GridSize == 0 {
		cfg.Density.GridSize = def.Density.GridSize
	}
	if cfg.Density.Overlap == "" {
		cfg.Density.Overlap = def.Density.Overlap
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the config as TOML.
func (c *Config) Save(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// SaveFile writes the config as TOML to path.
func (c *Config) SaveFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return c.Save(f)
}

// Validate checks that layer names are unique, density layers refer to
// known layers, and the grid settings are usable.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Layers))
	for _, l := range c.Layers {
		if l.Name == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "layer %d/%d has no name", l.Number, l.Datatype)
		}
		if seen[l.Name] {
			return errors.New(errors.ErrCodeInvalidConfig, "duplicate layer name %q", l.Name)
		}
		if l.Number < 0 || l.Datatype < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "layer %q: negative layer or datatype", l.Name)
		}
		seen[l.Name] = true
	}
	dup := make(map[string]bool, len(c.Density.Layers))
	for _, name := range c.Density.Layers {
		if !seen[name] {
			return errors.New(errors.ErrCodeInvalidConfig, "density layer %q is not in the layer table", name)
		}
		if dup[name] {
			return errors.New(errors.ErrCodeInvalidConfig, "density layer %q listed twice", name)
		}
		dup[name] = true
	}
	if c.Density.GridSize <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "density grid_size must be positive, got %d", c.Density.GridSize)
	}
	if !c.Density.Overlap.Valid() {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown overlap policy %q (must be %q or %q)",
			c.Density.Overlap, OverlapFull, OverlapClip)
	}
	if c.Density.Extent != nil {
		b, ok := c.Density.ExtentBox()
		if !ok || b.Width() <= 0 || b.Height() <= 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "density extent must be [xmin, ymin, xmax, ymax] with xmax > xmin and ymax > ymin")
		}
	}
	return nil
}

// Layer returns the layer with the given name.
func (c *Config) Layer(name string) (Layer, bool) {
	for _, l := range c.Layers {
		if l.Name == name {
			return l, true
		}
	}
	return Layer{}, false
}

// DensityLayers returns the layers that feed the density grid, in the
// configured order.
func (c *Config) DensityLayers() []Layer {
	out := make([]Layer, 0, len(c.Density.Layers))
	for _, name := range c.Density.Layers {
		if l, ok := c.Layer(name); ok {
			out = append(out, l)
		}
	}
	return out
}

// ExtentBox returns the configured density extent.
func (d Density) ExtentBox() (geom.Box, bool) {
	if len(d.Extent) != 4 {
		return geom.Box{}, false
	}
	return geom.Box{XMin: d.Extent[0], YMin: d.Extent[1], XMax: d.Extent[2], YMax: d.Extent[3]}, true
}
