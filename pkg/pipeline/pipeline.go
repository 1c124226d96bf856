// Package pipeline runs the two feature extractions end to end.
//
// Both pipelines are linear: parse an input file, bin or enumerate what it
// contains, then write CSV files (and optional heatmaps). The CLI is a thin
// layer over [Runner]; tests drive the same entry points.
//
// # Usage
//
//	runner := pipeline.NewRunner(logger)
//	res, err := runner.Placement(ctx, pipeline.PlacementOptions{
//	    DEFFile: "spm.def",
//	    Out:     "features/spm.csv",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Stats.DEF.Matched)
package pipeline

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/matzehuels/chipfeat/pkg/def"
	"github.com/matzehuels/chipfeat/pkg/errors"
	"github.com/matzehuels/chipfeat/pkg/geom"
	"github.com/matzehuels/chipfeat/pkg/grid"
	"github.com/matzehuels/chipfeat/pkg/tech"
)

// =============================================================================
// Default Values - Single Source of Truth for the CLI and tests
// =============================================================================

const (
	// DefaultOutDir is where the layout pipeline writes when no directory
	// is given.
	DefaultOutDir = "."

	// DensityHTMLFile is the layout pipeline's HTML heatmap file name.
	DensityHTMLFile = "density_grid.html"
)

// Run kinds reported to hooks and logs.
const (
	KindLayout    = "layout"
	KindPlacement = "placement"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// LayoutOptions configures a GDSII extraction run.
type LayoutOptions struct {
	// Input is the GDSII stream file.
	Input string

	// Tech is the layer table. Nil means [tech.Default].
	Tech *tech.Config

	// Cell names the top cell. Empty selects the single unreferenced cell.
	Cell string

	// OutDir receives layout_features.csv, density_grid.csv and renders.
	OutDir string

	// GridSize and Overlap override the density settings of Tech when set.
	GridSize int64
	Overlap  tech.Overlap

	// Heatmap writes one PNG per density layer; HTML writes a single page
	// with every layer.
	Heatmap bool
	HTML    bool
}

// ValidateAndSetDefaults checks required fields, applies defaults and
// resolves the effective technology config. Tech is copied before the
// overrides are applied.
func (o *LayoutOptions) ValidateAndSetDefaults() error {
	if err := errors.ValidatePath("input", o.Input); err != nil {
		return err
	}
	if o.OutDir == "" {
		o.OutDir = DefaultOutDir
	}

	cfg := tech.Default()
	if o.Tech != nil {
		c := *o.Tech
		c.Layers = append([]tech.Layer(nil), o.Tech.Layers...)
		c.Density.Layers = append([]string(nil), o.Tech.Density.Layers...)
		c.Density.Extent = append([]int64(nil), o.Tech.Density.Extent...)
		cfg = &c
	}
	if o.GridSize != 0 {
		if err := errors.ValidatePositive("grid size", o.GridSize); err != nil {
			return err
		}
		cfg.Density.GridSize = o.GridSize
	}
	if o.Overlap != "" {
		cfg.Density.Overlap = o.Overlap
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.Tech = cfg
	return nil
}

// PlacementOptions configures a DEF extraction run.
type PlacementOptions struct {
	// DEFFile is the DEF input.
	DEFFile string

	// Out is the CSV path. Heatmaps are written next to it with the same
	// base name.
	Out string

	// Grid sets resolution, die and pin estimate. A zero Grid means
	// [grid.DefaultOptions]; otherwise a zero Die or PinsPerCell takes its
	// default and Resolution must be positive.
	Grid grid.Options

	// DieFromDEF replaces Grid.Die with the DIEAREA of the input.
	DieFromDEF bool

	Heatmap bool
	HTML    bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
func (o *PlacementOptions) ValidateAndSetDefaults() error {
	if err := errors.ValidatePath("def_file", o.DEFFile); err != nil {
		return err
	}
	if err := errors.ValidatePath("out", o.Out); err != nil {
		return err
	}
	if o.Grid == (grid.Options{}) {
		o.Grid = grid.DefaultOptions()
	}
	if o.Grid.Die == (geom.Box{}) {
		o.Grid.Die = grid.DefaultDie()
	}
	return errors.ValidatePositive("grid", int64(o.Grid.Resolution))
}

// sidecar returns Out with its extension replaced by ext.
func (o *PlacementOptions) sidecar(ext string) string {
	return strings.TrimSuffix(o.Out, filepath.Ext(o.Out)) + ext
}

// =============================================================================
// Results
// =============================================================================

// LayoutResult describes a finished layout run.
type LayoutResult struct {
	RunID       string
	Tech        *tech.Config // effective layer table after overrides
	TopCell     string
	Outputs     []string
	Shapes      int
	LayerCounts map[string]int
	DensityDims [2]int
	Stats       Stats
}

// PlacementResult describes a finished placement run.
type PlacementResult struct {
	RunID   string
	Outputs []string
	Die     geom.Box
	DEF     def.Stats
	Grid    grid.Summary
	Rows    int
	Stats   Stats
}

// Stats contains stage timings.
type Stats struct {
	ParseTime  time.Duration
	BinTime    time.Duration
	WriteTime  time.Duration
	RenderTime time.Duration
}

// Total returns the summed stage time.
func (s Stats) Total() time.Duration {
	return s.ParseTime + s.BinTime + s.WriteTime + s.RenderTime
}
