package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/chipfeat/pkg/tech"
)

// layersCommand creates the layers command for inspecting layer tables.
func (c *CLI) layersCommand() *cobra.Command {
	var (
		techFile string
		lypFile  string
		write    string
	)

	cmd := &cobra.Command{
		Use:   "layers",
		Short: "Show the technology layer table",
		Long: `Show the technology layer table used by 'chipfeat layout'.

Without flags the built-in generic table is shown. --tech loads a TOML
table and --lyp imports the drawing layers of a KLayout layer properties
file. --write saves the resulting table as TOML, ready for --tech.`,
		Example: `  chipfeat layers
  chipfeat layers --lyp sky130.lyp --write sky130.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			cfg, err := loadTech(techFile, lypFile)
			if err != nil {
				return err
			}
			logger.Debug("loaded layer table", "name", cfg.Name, "layers", len(cfg.Layers))

			printLayers(cfg)

			if write != "" {
				if err := cfg.SaveFile(write); err != nil {
					return fmt.Errorf("write %s: %w", write, err)
				}
				printNewline()
				printSuccess("Layer table saved to %s", write)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&techFile, "tech", "", "technology layer table (TOML)")
	cmd.Flags().StringVar(&lypFile, "lyp", "", "KLayout layer properties file")
	cmd.Flags().StringVarP(&write, "write", "w", "", "write the table as TOML to this path")
	cmd.MarkFlagsMutuallyExclusive("tech", "lyp")
	_ = cmd.MarkFlagFilename("tech", "toml")
	_ = cmd.MarkFlagFilename("lyp", "lyp")

	return cmd
}

// printLayers prints a layer table and its density settings.
func printLayers(cfg *tech.Config) {
	density := make(map[string]bool, len(cfg.Density.Layers))
	for _, name := range cfg.Density.Layers {
		density[name] = true
	}

	rows := make([][]string, 0, len(cfg.Layers))
	for _, l := range cfg.Layers {
		mark := ""
		if density[l.Name] {
			mark = iconSuccess
		}
		rows = append(rows, []string{l.Name, fmt.Sprint(l.Number), fmt.Sprint(l.Datatype), mark})
	}

	fmt.Fprintln(stdout, StyleTitle.Render(cfg.Name))
	printTable([]string{"Name", "Layer", "Datatype", "Density"}, rows, 1, 2)
	printKeyValue("grid size", formatDBU(cfg.Density.GridSize)+" DBU")
	printKeyValue("overlap", string(cfg.Density.Overlap))
	if len(cfg.Density.Extent) == 4 {
		e := make([]string, len(cfg.Density.Extent))
		for i, v := range cfg.Density.Extent {
			e[i] = formatDBU(v)
		}
		printKeyValue("extent", strings.Join(e, " "))
	}
}
