package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command. Flag completion covers
// DEF, GDS, TOML and LYP file names and the overlap policies.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for chipfeat.

Bash:
  $ source <(chipfeat completion bash)

Zsh:
  $ chipfeat completion zsh > "${fpath[1]}/_chipfeat"

Fish:
  $ chipfeat completion fish > ~/.config/fish/completions/chipfeat.fish

PowerShell:
  PS> chipfeat completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}
