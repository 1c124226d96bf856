package layout

import (
	"iter"

	"github.com/matzehuels/chipfeat/pkg/errors"
	"github.com/matzehuels/chipfeat/pkg/gds"
	"github.com/matzehuels/chipfeat/pkg/geom"
	"github.com/matzehuels/chipfeat/pkg/tech"
)

// DensityCell is one row of the density grid.
type DensityCell struct {
	X, Y  int64   // cell index: coordinate / grid size, floored
	Areas []int64 // accumulated area per density layer, in layer order
}

// DensityGrid accumulates shape area per layer over square cells.
// Cell (i, j) covers [i*size, (i+1)*size) × [j*size, (j+1)*size).
type DensityGrid struct {
	layers []string
	size   int64
	policy tech.Overlap
	extent geom.Box

	x0, y0 int64 // index of the first cell on each axis
	nx, ny int64
	area   [][]int64 // area[layer][(i-x0)*ny + (j-y0)]
}

// NewDensityGrid creates a zeroed grid covering extent, which is widened
// outward to whole cells.
func NewDensityGrid(layers []string, size int64, extent geom.Box, policy tech.Overlap) (*DensityGrid, error) {
	if size <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "density grid size must be positive, got %d", size)
	}
	if !policy.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown overlap policy %q", policy)
	}
	if extent.Empty() || extent.Width() == 0 || extent.Height() == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "density extent %v has no area", extent)
	}

	x0 := geom.FloorDiv(extent.XMin, size)
	y0 := geom.FloorDiv(extent.YMin, size)
	x1 := geom.FloorDiv(extent.XMax-1, size)
	y1 := geom.FloorDiv(extent.YMax-1, size)

	g := &DensityGrid{
		layers: append([]string(nil), layers...),
		size:   size,
		policy: policy,
		extent: extent,
		x0:     x0,
		y0:     y0,
		nx:     x1 - x0 + 1,
		ny:     y1 - y0 + 1,
		area:   make([][]int64, len(layers)),
	}
	for i := range g.area {
		g.area[i] = make([]int64, g.nx*g.ny)
	}
	return g, nil
}

// Layers returns the density layer names in column order.
func (g *DensityGrid) Layers() []string { return g.layers }

// Size returns the cell edge length.
func (g *DensityGrid) Size() int64 { return g.size }

// Dims returns the number of cells along x and y.
func (g *DensityGrid) Dims() (nx, ny int) { return int(g.nx), int(g.ny) }

// Origin returns the index of the lower-left cell.
func (g *DensityGrid) Origin() (x0, y0 int64) { return g.x0, g.y0 }

// span returns the clamped, inclusive index range a half-open interval
// [lo, hi) covers. Zero-length intervals cover the cell containing lo.
func (g *DensityGrid) span(lo, hi, first, n int64) (int64, int64) {
	a := geom.FloorDiv(lo, g.size)
	b := a
	if hi > lo {
		b = geom.FloorDiv(hi-1, g.size)
	}
	last := first + n - 1
	return geom.Clamp(a, first, last), geom.Clamp(b, first, last)
}

// Add accumulates a shape's bounding box on the layer at index layer.
// Cell indices outside the grid clamp to the boundary cells.
func (g *DensityGrid) Add(layer int, box geom.Box) {
	if box.Empty() {
		return
	}
	acc := g.area[layer]
	i0, i1 := g.span(box.XMin, box.XMax, g.x0, g.nx)
	j0, j1 := g.span(box.YMin, box.YMax, g.y0, g.ny)
	full := box.Area()

	for i := i0; i <= i1; i++ {
		for j := j0; j <= j1; j++ {
			a := full
			if g.policy == tech.OverlapClip {
				a = box.Intersect(g.cellBox(i, j)).Area()
			}
			acc[(i-g.x0)*g.ny+(j-g.y0)] += a
		}
	}
}

func (g *DensityGrid) cellBox(i, j int64) geom.Box {
	return geom.Box{XMin: i * g.size, YMin: j * g.size, XMax: (i + 1) * g.size, YMax: (j + 1) * g.size}
}

// Area returns the accumulated area of layer in cell (i, j), or 0 for a
// cell outside the grid.
func (g *DensityGrid) Area(layer int, i, j int64) int64 {
	if i < g.x0 || i >= g.x0+g.nx || j < g.y0 || j >= g.y0+g.ny {
		return 0
	}
	return g.area[layer][(i-g.x0)*g.ny+(j-g.y0)]
}

// Total returns the sum of all cells for layer.
func (g *DensityGrid) Total(layer int) int64 {
	var sum int64
	for _, a := range g.area[layer] {
		sum += a
	}
	return sum
}

// Cells yields every cell in ascending x, then ascending y.
func (g *DensityGrid) Cells() iter.Seq[DensityCell] {
	return func(yield func(DensityCell) bool) {
		for i := g.x0; i < g.x0+g.nx; i++ {
			for j := g.y0; j < g.y0+g.ny; j++ {
				c := DensityCell{X: i, Y: j, Areas: make([]int64, len(g.layers))}
				for l := range g.layers {
					c.Areas[l] = g.area[l][(i-g.x0)*g.ny+(j-g.y0)]
				}
				if !yield(c) {
					return
				}
			}
		}
	}
}

// BuildDensity accumulates the density layers of cfg found in cell.
//
// When cfg sets no extent, the grid spans from the origin (or the lowest
// shape coordinate, if negative) to the far corner of the density shapes,
// and is at least one cell.
func BuildDensity(cell *gds.Structure, cfg *tech.Config) (*DensityGrid, error) {
	layers := cfg.DensityLayers()
	names := make([]string, len(layers))
	for i, l := range layers {
		names[i] = l.Name
	}

	extent, ok := cfg.Density.ExtentBox()
	if !ok {
		size := cfg.Density.GridSize
		extent = geom.Box{XMax: size, YMax: size}
		for _, l := range layers {
			for el := range cell.Shapes(key(l)) {
				extent = extent.Union(el.BBox())
			}
		}
		extent.XMin = min(extent.XMin, 0)
		extent.YMin = min(extent.YMin, 0)
	}

	g, err := NewDensityGrid(names, cfg.Density.GridSize, extent, cfg.Density.Overlap)
	if err != nil {
		return nil, err
	}
	for i, l := range layers {
		for el := range cell.Shapes(key(l)) {
			g.Add(i, el.BBox())
		}
	}
	return g, nil
}

// LayerView exposes one layer of a DensityGrid as a regular XYZ grid
// (column c, row r) with cell centers in DBU. It satisfies gonum's
// plotter.GridXYZ.
type LayerView struct {
	g     *DensityGrid
	layer int
}

// Layer returns a view of the layer at index i.
func (g *DensityGrid) Layer(i int) LayerView {
	return LayerView{g: g, layer: i}
}

// Name returns the layer name.
func (v LayerView) Name() string { return v.g.layers[v.layer] }

// Dims returns the number of columns and rows.
func (v LayerView) Dims() (c, r int) { return v.g.Dims() }

// Z returns the accumulated area of the cell.
func (v LayerView) Z(c, r int) float64 {
	return float64(v.g.area[v.layer][int64(c)*v.g.ny+int64(r)])
}

// X returns the x center of column c.
func (v LayerView) X(c int) float64 {
	return float64((v.g.x0+int64(c))*v.g.size) + float64(v.g.size)/2
}

// Y returns the y center of row r.
func (v LayerView) Y(r int) float64 {
	return float64((v.g.y0+int64(r))*v.g.size) + float64(v.g.size)/2
}
