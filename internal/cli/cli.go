package cli

import (
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/chipfeat/pkg/buildinfo"
	"github.com/matzehuels/chipfeat/pkg/errors"
	"github.com/matzehuels/chipfeat/pkg/geom"
	"github.com/matzehuels/chipfeat/pkg/pipeline"
	"github.com/matzehuels/chipfeat/pkg/tech"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "chipfeat"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Extract ML features from chip layouts and placements",
		Long: `chipfeat turns physical-design files into flat CSV feature tables.

  placement  bins DEF component placements into an NxN density grid
  layout     lists GDSII shapes on tracked layers and a metal density grid
  layers     shows or writes the technology layer table`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.placementCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.layersCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

func (c *CLI) newRunner() *pipeline.Runner {
	return pipeline.NewRunner(c.Logger)
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseDie parses a "WxH" die size in DBU, anchored at the origin.
func parseDie(s string) (geom.Box, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return geom.Box{}, errors.New(errors.ErrCodeInvalidInput, "die %q: want WIDTHxHEIGHT, e.g. 147000x147000", s)
	}
	width, err := strconv.ParseInt(strings.TrimSpace(w), 10, 64)
	if err != nil {
		return geom.Box{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "die width %q", w)
	}
	height, err := strconv.ParseInt(strings.TrimSpace(h), 10, 64)
	if err != nil {
		return geom.Box{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "die height %q", h)
	}
	if width <= 0 || height <= 0 {
		return geom.Box{}, errors.New(errors.ErrCodeInvalidInput, "die %q must have positive width and height", s)
	}
	return geom.Box{XMax: width, YMax: height}, nil
}

// loadTech resolves the layer table from --tech or --lyp, or the default.
func loadTech(techFile, lypFile string) (*tech.Config, error) {
	switch {
	case techFile != "" && lypFile != "":
		return nil, errors.New(errors.ErrCodeInvalidInput, "--tech and --lyp are mutually exclusive")
	case techFile != "":
		return tech.Load(techFile)
	case lypFile != "":
		return tech.ImportLYP(lypFile)
	default:
		return tech.Default(), nil
	}
}

// formatDBU prints a DBU count with thousands separators.
func formatDBU(v int64) string {
	s := strconv.FormatInt(v, 10)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
