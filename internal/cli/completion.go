package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphcp/pkg/render"
)

// completionShells lists the shells cobra can generate scripts for.
var completionShells = []string{"bash", "zsh", "fish", "powershell"}

// completionCommand creates the completion command.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion <" + strings.Join(completionShells, "|") + ">",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for graphcp.

Besides subcommands and flags, the scripts complete DOT input files
(*.dot, *.gv) for dot, image and watch, and the values of --format.

  bash        source <(graphcp completion bash)
  zsh         graphcp completion zsh > "${fpath[1]}/_graphcp"
  fish        graphcp completion fish > ~/.config/fish/completions/graphcp.fish
  powershell  graphcp completion powershell | Out-String | Invoke-Expression

Start a new shell afterwards.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             completionShells,
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
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

// completeDescriptionFiles offers DOT files for the positional arguments
// of dot, image and watch.
func completeDescriptionFiles(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	exts := make([]string, 0, 1+len(render.DescriptionAliases))
	exts = append(exts, strings.TrimPrefix(render.DescriptionExtension, "."))
	for _, a := range render.DescriptionAliases {
		exts = append(exts, strings.TrimPrefix(a, "."))
	}
	return exts, cobra.ShellCompDirectiveFilterFileExt
}

// completeFormats offers the supported image formats for --format.
func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, f := range render.Formats {
		if strings.HasPrefix(string(f), strings.ToLower(toComplete)) {
			out = append(out, string(f))
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
