package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/chipfeat/pkg/def"
	"github.com/matzehuels/chipfeat/pkg/errors"
	"github.com/matzehuels/chipfeat/pkg/gds"
	"github.com/matzehuels/chipfeat/pkg/grid"
	"github.com/matzehuels/chipfeat/pkg/io"
	"github.com/matzehuels/chipfeat/pkg/layout"
	"github.com/matzehuels/chipfeat/pkg/observability"
	"github.com/matzehuels/chipfeat/pkg/render/heatmap"
)

// Runner executes extraction runs.
//
// The Runner holds no per-run state; every call gets its own run ID and
// sub-logger, so one Runner can serve several goroutines.
type Runner struct {
	Logger *log.Logger
}

// NewRunner creates a runner. A nil logger uses log.Default().
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Logger: logger}
}

// run carries the bookkeeping shared by both pipelines.
type run struct {
	id     string
	kind   string
	logger *log.Logger
	start  time.Time
}

func (r *Runner) begin(ctx context.Context, kind, input string) *run {
	id := uuid.NewString()
	rn := &run{
		id:     id,
		kind:   kind,
		logger: r.Logger.With("run", id[:8]),
		start:  time.Now(),
	}
	rn.logger.Debug("starting run", "kind", kind, "input", input)
	observability.Pipeline().OnRunStart(ctx, id, kind, input)
	return rn
}

func (rn *run) end(ctx context.Context, err error) {
	d := time.Since(rn.start)
	observability.Pipeline().OnRunComplete(ctx, rn.id, rn.kind, d, err)
	if err != nil {
		rn.logger.Debug("run failed", "duration", d, "error", err)
		return
	}
	rn.logger.Debug("run complete", "duration", d)
}

// stage times fn, fires the stage hooks and logs the outcome. fn returns
// the stage's item count.
func (rn *run) stage(ctx context.Context, s observability.Stage, dst *time.Duration, fn func() (int, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	observability.Pipeline().OnStageStart(ctx, rn.id, s)
	start := time.Now()
	n, err := fn()
	d := time.Since(start)
	if dst != nil {
		*dst += d
	}
	observability.Pipeline().OnStageComplete(ctx, rn.id, s, n, d, err)
	if err != nil {
		return err
	}
	rn.logger.Debug("stage complete", "stage", s, "items", n, "duration", d)
	return nil
}

func (rn *run) wrote(ctx context.Context, path string, rows int) {
	observability.Output().OnFileWritten(ctx, rn.id, path, rows)
	rn.logger.Debug("wrote file", "path", path, "rows", rows)
}

// Layout extracts shape features and the density grid from a GDSII file.
func (r *Runner) Layout(ctx context.Context, opts LayoutOptions) (res *LayoutResult, err error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	rn := r.begin(ctx, KindLayout, opts.Input)
	defer func() { rn.end(ctx, err) }()

	res = &LayoutResult{RunID: rn.id, Tech: opts.Tech}
	cfg := opts.Tech

	var cell *gds.Structure
	err = rn.stage(ctx, observability.StageParse, &res.Stats.ParseTime, func() (int, error) {
		lib, err := gds.Open(opts.Input)
		if err != nil {
			return 0, err
		}
		cell, err = lib.TopCell(opts.Cell)
		if err != nil {
			return 0, err
		}
		rn.logger.Debug("opened layout", "library", lib.Name, "structures", len(lib.Structures), "dbu_m", lib.MetersPerDBU)
		return len(cell.Elements), nil
	})
	if err != nil {
		return nil, err
	}
	res.TopCell = cell.Name

	res.LayerCounts = layout.LayerCounts(cell, cfg.Layers)
	for _, l := range cfg.Layers {
		if res.LayerCounts[l.Name] == 0 {
			rn.logger.Debug("layer has no shapes", "layer", l)
		}
	}

	shapesPath := filepath.Join(opts.OutDir, io.LayoutFeaturesFile)
	err = rn.stage(ctx, observability.StageShapes, &res.Stats.WriteTime, func() (int, error) {
		n, err := io.ExportShapes(layout.Shapes(cell, cfg.Layers), shapesPath)
		res.Shapes = n
		return n, err
	})
	if err != nil {
		return nil, err
	}
	rn.wrote(ctx, shapesPath, res.Shapes)
	res.Outputs = append(res.Outputs, shapesPath)

	var dg *layout.DensityGrid
	err = rn.stage(ctx, observability.StageBin, &res.Stats.BinTime, func() (int, error) {
		var err error
		dg, err = layout.BuildDensity(cell, cfg)
		if err != nil {
			return 0, err
		}
		nx, ny := dg.Dims()
		res.DensityDims = [2]int{nx, ny}
		return nx * ny, nil
	})
	if err != nil {
		return nil, err
	}

	densityPath := filepath.Join(opts.OutDir, io.DensityGridFile)
	var rows int
	err = rn.stage(ctx, observability.StageWrite, &res.Stats.WriteTime, func() (int, error) {
		var err error
		rows, err = io.ExportDensity(dg, densityPath)
		return rows, err
	})
	if err != nil {
		return nil, err
	}
	rn.wrote(ctx, densityPath, rows)
	res.Outputs = append(res.Outputs, densityPath)

	if opts.Heatmap || opts.HTML {
		err = rn.stage(ctx, observability.StageRender, &res.Stats.RenderTime, func() (int, error) {
			paths, err := renderDensity(dg, cell.Name, opts)
			res.Outputs = append(res.Outputs, paths...)
			return len(paths), err
		})
		if err != nil {
			return nil, err
		}
	}

	rn.logger.Info("extracted layout features",
		"cell", cell.Name,
		"shapes", res.Shapes,
		"grid", fmt.Sprintf("%dx%d", res.DensityDims[0], res.DensityDims[1]),
		"duration", res.Stats.Total())
	return res, nil
}

func renderDensity(dg *layout.DensityGrid, cellName string, opts LayoutOptions) ([]string, error) {
	var paths []string
	layers := make([]heatmap.Layer, 0, len(dg.Layers()))
	for i, name := range dg.Layers() {
		v := dg.Layer(i)
		layers = append(layers, heatmap.Layer{Name: name, Grid: v})
		if opts.Heatmap {
			p := filepath.Join(opts.OutDir, "density_"+name+".png")
			if err := heatmap.SavePNG(v, cellName+" "+name+" area", p); err != nil {
				return paths, err
			}
			paths = append(paths, p)
		}
	}
	if opts.HTML {
		p := filepath.Join(opts.OutDir, DensityHTMLFile)
		if err := heatmap.SaveHTML(p, cellName+" density", layers...); err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// Placement bins DEF component placements into a grid and writes the
// placement CSV.
func (r *Runner) Placement(ctx context.Context, opts PlacementOptions) (res *PlacementResult, err error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	rn := r.begin(ctx, KindPlacement, opts.DEFFile)
	defer func() { rn.end(ctx, err) }()

	res = &PlacementResult{RunID: rn.id}

	var parsed *def.Result
	err = rn.stage(ctx, observability.StageParse, &res.Stats.ParseTime, func() (int, error) {
		var err error
		parsed, err = def.ParseFile(ctx, opts.DEFFile)
		if err != nil {
			return 0, err
		}
		if opts.DieFromDEF {
			die, ok, err := def.ParseDieArea(opts.DEFFile)
			if err != nil {
				return 0, err
			}
			if !ok {
				return 0, errors.New(errors.ErrCodeInvalidInput, "%s has no DIEAREA", opts.DEFFile)
			}
			opts.Grid.Die = die
		}
		return parsed.Stats.Matched, nil
	})
	if err != nil {
		return nil, err
	}
	res.DEF = parsed.Stats
	res.Die = opts.Grid.Die
	if s := parsed.Stats.Skipped(); s > 0 {
		rn.logger.Debug("skipped component lines", "count", s)
	}

	var g *grid.Grid
	err = rn.stage(ctx, observability.StageBin, &res.Stats.BinTime, func() (int, error) {
		var err error
		g, err = grid.Bin(parsed.Placements, opts.Grid)
		if err != nil {
			return 0, err
		}
		return int(g.Total()), nil
	})
	if err != nil {
		return nil, err
	}
	res.Grid = g.Summary()

	err = rn.stage(ctx, observability.StageWrite, &res.Stats.WriteTime, func() (int, error) {
		var err error
		res.Rows, err = io.ExportPlacementGrid(g, opts.Out)
		return res.Rows, err
	})
	if err != nil {
		return nil, err
	}
	rn.wrote(ctx, opts.Out, res.Rows)
	res.Outputs = append(res.Outputs, opts.Out)

	if opts.Heatmap || opts.HTML {
		err = rn.stage(ctx, observability.StageRender, &res.Stats.RenderTime, func() (int, error) {
			title := filepath.Base(opts.DEFFile) + " placement density"
			if opts.Heatmap {
				p := opts.sidecar(".png")
				if err := heatmap.SavePNG(g, title, p); err != nil {
					return 0, err
				}
				res.Outputs = append(res.Outputs, p)
			}
			if opts.HTML {
				p := opts.sidecar(".html")
				if err := heatmap.SaveHTML(p, title, heatmap.Layer{Name: "cells", Grid: g}); err != nil {
					return 0, err
				}
				res.Outputs = append(res.Outputs, p)
			}
			return len(res.Outputs) - 1, nil
		})
		if err != nil {
			return nil, err
		}
	}

	rn.logger.Info("extracted placement features",
		"placements", res.DEF.Matched,
		"occupied", res.Grid.Occupied,
		"max", res.Grid.Max,
		"duration", res.Stats.Total())
	return res, nil
}
