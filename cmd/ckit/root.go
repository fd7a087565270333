package ckit

import (
	"fmt"

	"github.com/arthur-debert/claude-kit/internal/version"
	"github.com/arthur-debert/claude-kit/pkg/config"
	"github.com/arthur-debert/claude-kit/pkg/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// NewRootCmd builds the ckit command tree.
func NewRootCmd() *cobra.Command {
	var verbosity int
	var kitRoot string

	rootCmd := &cobra.Command{
		Use:   "ckit",
		Short: "Deploy claude-kit bundles into a project",
		Long: `ckit maps named bundles of reusable configuration artifacts (rules,
skills, agents, commands, hooks, MCP service descriptors, settings
templates) onto a concrete file layout inside a target project
directory. Installs are idempotent, previewable with diff, and
reconciled incrementally against the recorded installation manifest.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().StringVar(&kitRoot, "kit-root", "",
		"Kit content repository root (overrides $CLAUDE_KIT_ROOT and config)")

	initTemplateFormatting(rootCmd)

	rootCmd.AddCommand(newInstallCmd(&kitRoot))
	rootCmd.AddCommand(newDiffCmd(&kitRoot))
	rootCmd.AddCommand(newUpdateCmd(&kitRoot))
	rootCmd.AddCommand(newAddCmd(&kitRoot))
	rootCmd.AddCommand(newPruneCmd())
	rootCmd.AddCommand(newListCmd(&kitRoot))
	rootCmd.AddCommand(newTopicsCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(newManCmd(rootCmd))

	return rootCmd
}

// loadConfig resolves the engine configuration for commands that need
// a kit root.
func loadConfig(flagRoot string) (*config.Config, error) {
	return config.Load(flagRoot)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ckit version %s\n", version.Version)
			fmt.Printf("  commit: %s\n", version.Commit)
			fmt.Printf("  built:  %s\n", version.Date)
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `To load completions:

Bash:
  $ source <(ckit completion bash)

Zsh:
  $ ckit completion zsh > "${fpath[1]}/_ckit"

Fish:
  $ ckit completion fish | source

PowerShell:
  PS> ckit completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		Run: func(cmd *cobra.Command, args []string) {
			switch args[0] {
			case "bash":
				if err := cmd.Root().GenBashCompletion(cmd.OutOrStdout()); err != nil {
					log.Error().Err(err).Msg("Failed to generate bash completion")
				}
			case "zsh":
				if err := cmd.Root().GenZshCompletion(cmd.OutOrStdout()); err != nil {
					log.Error().Err(err).Msg("Failed to generate zsh completion")
				}
			case "fish":
				if err := cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true); err != nil {
					log.Error().Err(err).Msg("Failed to generate fish completion")
				}
			case "powershell":
				if err := cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout()); err != nil {
					log.Error().Err(err).Msg("Failed to generate powershell completion")
				}
			}
		},
	}
}

func newManCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "man",
		Short: "Generate man page",
		RunE: func(cmd *cobra.Command, args []string) error {
			header := &doc.GenManHeader{
				Title:   "CKIT",
				Section: "1",
			}
			return doc.GenManTree(root, header, "/tmp")
		},
	}
}
