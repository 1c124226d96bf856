// Package grid bins component placements into an N×N grid of tiles.
//
// Tile size is the die extent divided by N using integer division, so the
// last row and column absorb the remainder. Every placement lands in a
// tile: coordinates beyond the die clamp into the last row or column and
// coordinates below the die origin clamp into the first. Each placement
// adds one to its tile's cell count and a fixed pins-per-cell estimate to
// its pin count; no real pin enumeration is done.
package grid

import (
	"iter"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/matzehuels/chipfeat/pkg/errors"
	"github.com/matzehuels/chipfeat/pkg/geom"
)

const (
	// DefaultResolution is the default number of tiles per axis.
	DefaultResolution = 64

	// DefaultPinsPerCell is the average pin count assumed per standard cell.
	DefaultPinsPerCell = 3

	// DefaultDieSize is the default die width and height in DBU.
	DefaultDieSize = 147_000
)

// DefaultDie returns the default die extent anchored at the origin.
func DefaultDie() geom.Box {
	return geom.Box{XMax: DefaultDieSize, YMax: DefaultDieSize}
}

// Options configures [Bin].
type Options struct {
	Resolution  int      // tiles per axis (N)
	Die         geom.Box // nominal die extent
	PinsPerCell int64    // pin estimate added per placement
}

// DefaultOptions returns a 64×64 grid over a 147000×147000 die at 3 pins
// per cell.
func DefaultOptions() Options {
	return Options{
		Resolution:  DefaultResolution,
		Die:         DefaultDie(),
		PinsPerCell: DefaultPinsPerCell,
	}
}

// Cell is one tile's totals.
type Cell struct {
	CellCount int64
	PinCount  int64
}

// CellAt is a tile with its grid indices.
type CellAt struct {
	GX, GY int
	Cell
}

// Grid is an N×N placement density table.
type Grid struct {
	n      int
	origin geom.Point
	tileW  int64
	tileH  int64
	pins   int64
	cells  []Cell // cells[gx*n+gy]
	total  int64
}

// New returns a zeroed grid.
func New(opts Options) (*Grid, error) {
	if opts.Resolution <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "grid resolution must be positive, got %d", opts.Resolution)
	}
	if opts.PinsPerCell < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "pins per cell must not be negative, got %d", opts.PinsPerCell)
	}
	n := int64(opts.Resolution)
	tileW := opts.Die.Width() / n
	tileH := opts.Die.Height() / n
	if tileW == 0 || tileH == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"die %dx%d is too small for a %dx%d grid", opts.Die.Width(), opts.Die.Height(), n, n)
	}
	return &Grid{
		n:      opts.Resolution,
		origin: geom.Point{X: opts.Die.XMin, Y: opts.Die.YMin},
		tileW:  tileW,
		tileH:  tileH,
		pins:   opts.PinsPerCell,
		cells:  make([]Cell, opts.Resolution*opts.Resolution),
	}, nil
}

// Bin creates a grid and adds every placement to it.
func Bin(placements []geom.Point, opts Options) (*Grid, error) {
	g, err := New(opts)
	if err != nil {
		return nil, err
	}
	for _, p := range placements {
		g.Add(p)
	}
	return g, nil
}

// Resolution returns N.
func (g *Grid) Resolution() int { return g.n }

// TileSize returns the tile width and height in DBU.
func (g *Grid) TileSize() (w, h int64) { return g.tileW, g.tileH }

// Index returns the clamped tile indices of a coordinate. Both indices are
// always in [0, N).
func (g *Grid) Index(p geom.Point) (gx, gy int) {
	last := int64(g.n - 1)
	gx = int(geom.Clamp(geom.FloorDiv(p.X-g.origin.X, g.tileW), 0, last))
	gy = int(geom.Clamp(geom.FloorDiv(p.Y-g.origin.Y, g.tileH), 0, last))
	return gx, gy
}

// Add records one placement.
func (g *Grid) Add(p geom.Point) {
	gx, gy := g.Index(p)
	c := &g.cells[gx*g.n+gy]
	c.CellCount++
	c.PinCount += g.pins
	g.total++
}

// At returns the totals of tile (gx, gy).
func (g *Grid) At(gx, gy int) Cell {
	return g.cells[gx*g.n+gy]
}

// Total returns the number of placements added.
func (g *Grid) Total() int64 { return g.total }

// Cells yields all N×N tiles with gx as the outer loop.
func (g *Grid) Cells() iter.Seq[CellAt] {
	return func(yield func(CellAt) bool) {
		for gx := 0; gx < g.n; gx++ {
			for gy := 0; gy < g.n; gy++ {
				if !yield(CellAt{GX: gx, GY: gy, Cell: g.cells[gx*g.n+gy]}) {
					return
				}
			}
		}
	}
}

// Summary describes the distribution of cell counts over tiles.
type Summary struct {
	Tiles    int
	Occupied int
	Total    float64
	Max      float64
	Mean     float64
	StdDev   float64
}

// Summary computes statistics over the per-tile cell counts.
func (g *Grid) Summary() Summary {
	counts := make([]float64, len(g.cells))
	occupied := 0
	for i, c := range g.cells {
		counts[i] = float64(c.CellCount)
		if c.CellCount > 0 {
			occupied++
		}
	}
	mean, std := stat.PopMeanStdDev(counts, nil)
	return Summary{
		Tiles:    len(counts),
		Occupied: occupied,
		Total:    floats.Sum(counts),
		Max:      floats.Max(counts),
		Mean:     mean,
		StdDev:   std,
	}
}

// Dims, Z, X and Y expose cell counts as a gonum plotter.GridXYZ with tile
// centers in DBU.

func (g *Grid) Dims() (c, r int) { return g.n, g.n }

func (g *Grid) Z(c, r int) float64 { return float64(g.cells[c*g.n+r].CellCount) }

func (g *Grid) X(c int) float64 {
	return float64(g.origin.X+int64(c)*g.tileW) + float64(g.tileW)/2
}

func (g *Grid) Y(r int) float64 {
	return float64(g.origin.Y+int64(r)*g.tileH) + float64(g.tileH)/2
}
