package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// imageExtensions are the bitmap formats the decoder understands, without
// the leading dot as cobra's file filters expect.
var imageExtensions = []string{"png", "bmp", "gif", "jpeg", "jpg", "tif", "tiff", "webp"}

type completionFunc = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for pxsvg.

Completions know which files each command takes: bitmaps for convert and
--source, SVG documents for preview, directories for batch, and the image
extensions accepted by --ext.

  $ source <(pxsvg completion bash)
  $ pxsvg completion zsh > "${fpath[1]}/_pxsvg"
  $ pxsvg completion fish > ~/.config/fish/completions/pxsvg.fish
  PS> pxsvg completion powershell | Out-String | Invoke-Expression`,
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
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

// fileArgs completes the first n positional arguments with files ending
// in one of exts.
func fileArgs(n int, exts ...string) completionFunc {
	return func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if len(args) >= n {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return exts, cobra.ShellCompDirectiveFilterFileExt
	}
}

// dirArgs completes the first n positional arguments with directories.
func dirArgs(n int) completionFunc {
	return func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if len(args) >= n {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveFilterDirs
	}
}

// fileFlag completes a flag value with files ending in one of exts.
func fileFlag(exts ...string) completionFunc {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return exts, cobra.ShellCompDirectiveFilterFileExt
	}
}

// completeExtensions completes the comma-separated --ext list. Extensions
// already in the list are not offered again.
func completeExtensions(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	head, last := "", toComplete
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		head, last = toComplete[:i+1], toComplete[i+1:]
	}
	seen := "," + strings.ToLower(head)

	var out []string
	for _, ext := range imageExtensions {
		ext = "." + ext
		if strings.HasPrefix(ext, strings.ToLower(last)) && !strings.Contains(seen, ","+ext+",") {
			out = append(out, head+ext)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

// registerFlagCompletion attaches fn to the named flag of cmd. The flag
// must exist.
func registerFlagCompletion(cmd *cobra.Command, name string, fn completionFunc) {
	cobra.CheckErr(cmd.RegisterFlagCompletionFunc(name, fn))
}
