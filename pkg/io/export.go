package io

import (
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strconv"

	"github.com/matzehuels/chipfeat/pkg/grid"
	"github.com/matzehuels/chipfeat/pkg/layout"
)

// Default output file names of the layout pipeline.
const (
	LayoutFeaturesFile = "layout_features.csv"
	DensityGridFile    = "density_grid.csv"
)

// Header rows.
var (
	ShapeHeader     = []string{"layer", "datatype", "area", "xmin", "ymin", "xmax", "ymax"}
	PlacementHeader = []string{"grid_x", "grid_y", "cell_density", "pin_count"}
)

// DensityHeader returns the density header for the given layer names.
func DensityHeader(layers []string) []string {
	h := []string{"cell_x", "cell_y"}
	for _, l := range layers {
		h = append(h, l+"_area")
	}
	return h
}

// rowWriter formats integer rows into a csv.Writer.
type rowWriter struct {
	cw  *csv.Writer
	buf []string
	n   int
}

func newRowWriter(w io.Writer, header []string) (*rowWriter, error) {
	rw := &rowWriter{cw: csv.NewWriter(w)}
	if err := rw.cw.Write(header); err != nil {
		return nil, err
	}
	return rw, nil
}

func (rw *rowWriter) write(vals ...int64) error {
	rw.buf = rw.buf[:0]
	for _, v := range vals {
		rw.buf = append(rw.buf, strconv.FormatInt(v, 10))
	}
	rw.n++
	return rw.cw.Write(rw.buf)
}

func (rw *rowWriter) flush() (int, error) {
	rw.cw.Flush()
	return rw.n, rw.cw.Error()
}

// WriteShapes writes one row per shape and returns the number of rows.
func WriteShapes(w io.Writer, shapes iter.Seq[layout.ShapeRecord]) (int, error) {
	rw, err := newRowWriter(w, ShapeHeader)
	if err != nil {
		return 0, err
	}
	for s := range shapes {
		if err := rw.write(int64(s.Layer), int64(s.Datatype), s.Area, s.XMin, s.YMin, s.XMax, s.YMax); err != nil {
			return rw.n, err
		}
	}
	return rw.flush()
}

// WriteDensity writes one row per grid cell, every layer column included.
func WriteDensity(w io.Writer, g *layout.DensityGrid) (int, error) {
	rw, err := newRowWriter(w, DensityHeader(g.Layers()))
	if err != nil {
		return 0, err
	}
	vals := make([]int64, 0, 2+len(g.Layers()))
	for c := range g.Cells() {
		vals = append(vals[:0], c.X, c.Y)
		vals = append(vals, c.Areas...)
		if err := rw.write(vals...); err != nil {
			return rw.n, err
		}
	}
	return rw.flush()
}

// WritePlacementGrid writes all N×N tiles, gx-major.
func WritePlacementGrid(w io.Writer, g *grid.Grid) (int, error) {
	rw, err := newRowWriter(w, PlacementHeader)
	if err != nil {
		return 0, err
	}
	for c := range g.Cells() {
		if err := rw.write(int64(c.GX), int64(c.GY), c.CellCount, c.PinCount); err != nil {
			return rw.n, err
		}
	}
	return rw.flush()
}

// CreateFile creates path for writing, making missing parent directories.
func CreateFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return os.Create(path)
}

// export creates path, runs write on it and closes it, reporting the first
// error.
func export(path string, write func(io.Writer) (int, error)) (n int, err error) {
	f, err := CreateFile(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	n, err = write(f)
	if err != nil {
		return n, fmt.Errorf("write %s: %w", path, err)
	}
	return n, nil
}

// ExportShapes writes shapes to a CSV file at path.
func ExportShapes(shapes iter.Seq[layout.ShapeRecord], path string) (int, error) {
	return export(path, func(w io.Writer) (int, error) { return WriteShapes(w, shapes) })
}

// ExportDensity writes the density grid to a CSV file at path.
func ExportDensity(g *layout.DensityGrid, path string) (int, error) {
	return export(path, func(w io.Writer) (int, error) { return WriteDensity(w, g) })
}

// ExportPlacementGrid writes the placement grid to a CSV file at path.
func ExportPlacementGrid(g *grid.Grid, path string) (int, error) {
	return export(path, func(w io.Writer) (int, error) { return WritePlacementGrid(w, g) })
}
