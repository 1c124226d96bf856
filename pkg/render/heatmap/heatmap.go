// Package heatmap renders grid statistics as images and HTML charts.
//
// Both renderers take a gonum [plotter.GridXYZ]: the layout density grid
// (one layer at a time, via layout.DensityGrid.Layer) and the placement grid
// satisfy it directly. Renderings are side outputs for eyeballing a design;
// the CSV files remain the data product.
package heatmap

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Size is the edge length of rendered PNG heatmaps.
const Size = 8 * vg.Inch

// viridis stops used for the HTML visual map.
var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// Layer is one named grid to draw.
type Layer struct {
	Name string
	Grid plotter.GridXYZ
}

// Plot builds a gonum plot of g with a heat palette.
func Plot(g plotter.GridXYZ, title string) *plot.Plot {
	hm := plotter.NewHeatMap(g, palette.Heat(64, 1))
	if hm.Max <= hm.Min {
		// A uniform grid would otherwise divide by zero when mapping colours.
		hm.Max = hm.Min + 1
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x (DBU)"
	p.Y.Label.Text = "y (DBU)"
	p.Add(hm)
	return p
}

// SavePNG renders g to a PNG file at path, creating parent directories.
func SavePNG(g plotter.GridXYZ, title, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := Plot(g, title).Save(Size, Size, path); err != nil {
		return fmt.Errorf("save heatmap %s: %w", path, err)
	}
	return nil
}

// WriteHTML renders one or more layers as an interactive go-echarts page,
// one chart per layer.
func WriteHTML(w io.Writer, title string, layers ...Layer) error {
	page := components.NewPage()
	for _, l := range layers {
		page.AddCharts(scatter(l, title))
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render %s: %w", title, err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// SaveHTML writes WriteHTML output to path, creating parent directories.
func SaveHTML(path, title string, layers ...Layer) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteHTML(f, title, layers...)
}

// scatter draws the grid as square markers coloured by value, the same
// approach as a heatmap but with real DBU axes.
func scatter(l Layer, title string) *charts.Scatter {
	c, r := l.Grid.Dims()
	data := make([]opts.ScatterData, 0, c*r)
	maxZ := 0.0
	for i := 0; i < c; i++ {
		for j := 0; j < r; j++ {
			z := l.Grid.Z(i, j)
			maxZ = max(maxZ, z)
			data = append(data, opts.ScatterData{Value: []interface{}{l.Grid.X(i), l.Grid.Y(j), z}})
		}
	}
	if maxZ == 0 {
		maxZ = 1
	}

	s := charts.NewScatter()
	s.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%s  %dx%d cells", l.Name, c, r)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "x (DBU)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "y (DBU)", NameLocation: "middle", NameGap: 40}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxZ),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	s.AddSeries(l.Name, data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: symbolSize(c, r)}))
	return s
}

// symbolSize scales markers so a grid roughly fills the 900px canvas.
func symbolSize(c, r int) int {
	n := max(c, r, 1)
	return max(2, 700/n)
}
