package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/chipfeat/pkg/pipeline"
	"github.com/matzehuels/chipfeat/pkg/tech"
)

// layoutCommand creates the layout command for GDSII feature extraction.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		techFile string
		lypFile  string
		overlap  string
	)
	opts := pipeline.LayoutOptions{OutDir: pipeline.DefaultOutDir}

	cmd := &cobra.Command{
		Use:   "layout [file.gds]",
		Short: "Extract shape features and a density grid from a GDSII layout",
		Long: `Extract shape features and a density grid from a GDSII layout.

Writes two CSV files to --out-dir:

  layout_features.csv  one row per shape on a tracked layer of the top cell
                       (layer, datatype, area, bounding box)
  density_grid.csv     summed shape area per density layer for each
                       square grid cell

Tracked layers come from a technology file (--tech, TOML) or a KLayout
layer properties file (--lyp). Without either, layers 1-4 datatype 0 are
read as N_active, P_active, metal1 and metal2.

With the default "full" overlap policy a shape adds its whole area to every
grid cell it touches; "clip" adds only the part inside each cell.`,
		Example: `  chipfeat layout spm.gds
  chipfeat layout spm.gds --tech sky130.toml --out-dir features --overlap clip --html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadTech(techFile, lypFile)
			if err != nil {
				return err
			}
			opts.Input = args[0]
			opts.Tech = cfg
			opts.Overlap = tech.Overlap(overlap)
			return c.runLayout(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&techFile, "tech", "", "technology layer table (TOML)")
	cmd.Flags().StringVar(&lypFile, "lyp", "", "KLayout layer properties file to take layers from")
	cmd.Flags().StringVar(&opts.Cell, "cell", "", "top cell name (default: the only unreferenced cell)")
	cmd.Flags().StringVarP(&opts.OutDir, "out-dir", "o", opts.OutDir, "output directory")
	cmd.Flags().Int64Var(&opts.GridSize, "grid-size", 0, "density cell edge in DBU (default from the layer table)")
	cmd.Flags().StringVar(&overlap, "overlap", "", "density overlap policy: full, clip (default from the layer table)")
	cmd.Flags().BoolVar(&opts.Heatmap, "heatmap", false, "also write a PNG heatmap per density layer")
	cmd.Flags().BoolVar(&opts.HTML, "html", false, "also write an interactive HTML density page")
	cmd.MarkFlagsMutuallyExclusive("tech", "lyp")
	_ = cmd.MarkFlagFilename("tech", "toml")
	_ = cmd.MarkFlagFilename("lyp", "lyp")
	_ = cmd.MarkFlagDirname("out-dir")
	_ = cmd.RegisterFlagCompletionFunc("overlap", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{string(tech.OverlapFull), string(tech.OverlapClip)}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// runLayout executes the layout pipeline and prints a summary.
func (c *CLI) runLayout(ctx context.Context, opts pipeline.LayoutOptions) error {
	prog := newProgress(loggerFromContext(ctx))

	spinner := newSpinner(ctx, "Reading layout...")
	spinner.Start()

	res, err := c.newRunner().Layout(ctx, opts)
	if err != nil {
		spinner.StopWithError("Layout extraction failed")
		return err
	}
	spinner.Stop()

	printSuccess("Extracted %d shapes from %s", res.Shapes, res.TopCell)
	for _, p := range res.Outputs {
		printFile(p)
	}
	printNewline()

	cfg := res.Tech
	rows := make([][]string, 0, len(cfg.Layers))
	for _, l := range cfg.Layers {
		rows = append(rows, []string{
			l.Name,
			fmt.Sprintf("%d/%d", l.Number, l.Datatype),
			strconv.Itoa(res.LayerCounts[l.Name]),
		})
	}
	printTable([]string{"Layer", "GDS", "Shapes"}, rows, 2)
	for _, l := range cfg.DensityLayers() {
		if res.LayerCounts[l.Name] == 0 {
			printWarning("density layer %s has no shapes in %s", l.Name, res.TopCell)
		}
	}
	printKeyValue("density", fmt.Sprintf("%dx%d cells of %s DBU (%s)",
		res.DensityDims[0], res.DensityDims[1], formatDBU(cfg.Density.GridSize), cfg.Density.Overlap))

	prog.done(fmt.Sprintf("Wrote %d shapes", res.Shapes))
	return nil
}
