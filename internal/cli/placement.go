package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/chipfeat/pkg/grid"
	"github.com/matzehuels/chipfeat/pkg/pipeline"
)

// placementCommand creates the placement command for DEF feature extraction.
func (c *CLI) placementCommand() *cobra.Command {
	var die string
	opts := pipeline.PlacementOptions{Grid: grid.DefaultOptions()}

	cmd := &cobra.Command{
		Use:   "placement",
		Short: "Bin DEF component placements into a density grid CSV",
		Long: `Bin DEF component placements into a density grid CSV.

Every "- <inst> <master> + PLACED ( x y ) <orient> ;" record in the
COMPONENTS section is counted in an NxN grid over the die. Each row of the
output holds grid_x, grid_y, the number of placed cells in that tile and an
estimated pin count (cells x pins-per-cell). FIXED and UNPLACED components
are skipped.

The die defaults to 147000x147000 DBU anchored at the origin; use --die or
--die-from-def for other designs.`,
		Example: `  chipfeat placement --def_file spm.def --out features/spm.csv
  chipfeat placement --def_file spm.def --grid 32 --die-from-def --out spm.csv --heatmap`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if die != "" {
				box, err := parseDie(die)
				if err != nil {
					return err
				}
				opts.Grid.Die = box
			}
			return c.runPlacement(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.DEFFile, "def_file", "", "DEF file to read (required)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "output CSV path (required)")
	cmd.Flags().IntVar(&opts.Grid.Resolution, "grid", opts.Grid.Resolution, "tiles per axis")
	cmd.Flags().StringVar(&die, "die", "", "die size in DBU as WxH (default 147000x147000)")
	cmd.Flags().BoolVar(&opts.DieFromDEF, "die-from-def", false, "take the die from the DEF DIEAREA")
	cmd.Flags().Int64Var(&opts.Grid.PinsPerCell, "pins-per-cell", opts.Grid.PinsPerCell, "pin estimate per placed cell")
	cmd.Flags().BoolVar(&opts.Heatmap, "heatmap", false, "also write a PNG heatmap next to the CSV")
	cmd.Flags().BoolVar(&opts.HTML, "html", false, "also write an interactive HTML heatmap next to the CSV")
	_ = cmd.MarkFlagRequired("def_file")
	_ = cmd.MarkFlagRequired("out")
	cmd.MarkFlagsMutuallyExclusive("die", "die-from-def")
	_ = cmd.MarkFlagFilename("def_file", "def")
	_ = cmd.MarkFlagFilename("out", "csv")

	return cmd
}

// runPlacement executes the placement pipeline and prints a summary.
func (c *CLI) runPlacement(ctx context.Context, opts pipeline.PlacementOptions) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	spinner := newSpinner(ctx, "Binning placements...")
	spinner.Start()

	res, err := c.newRunner().Placement(ctx, opts)
	if err != nil {
		spinner.StopWithError("Placement extraction failed")
		return err
	}
	spinner.Stop()

	printInfo("Parsed %d cells", res.DEF.Matched)
	printSuccess("CSV saved to %s", res.Outputs[0])
	for _, p := range res.Outputs[1:] {
		printFile(p)
	}
	if s := res.DEF.Skipped(); s > 0 {
		printDetail("%d component lines skipped (not PLACED)", s)
	}
	printDetail("%d of %d tiles occupied, max %.0f cells per tile",
		res.Grid.Occupied, res.Grid.Tiles, res.Grid.Max)

	prog.done(fmt.Sprintf("Wrote %d rows", res.Rows))
	return nil
}
