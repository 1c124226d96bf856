// Package render groups the visual side outputs of chipfeat.
//
// Renderings never replace the CSV tables; they exist so a designer can
// check a run at a glance. The [heatmap] subpackage draws any gonum
// plotter.GridXYZ, which both the placement grid and each layer of the
// layout density grid implement:
//
//	g, _ := grid.Bin(placements, grid.DefaultOptions())
//	_ = heatmap.SavePNG(g, "spm placement", "spm.png")
//
//	dg, _ := layout.BuildDensity(cell, tech.Default())
//	_ = heatmap.SaveHTML("density.html", "spm density",
//	    heatmap.Layer{Name: "metal1", Grid: dg.Layer(0)})
//
// PNG output goes through gonum/plot; HTML output is a self-contained
// go-echarts page.
//
// [heatmap]: github.com/matzehuels/chipfeat/pkg/render/heatmap
package render
