package ckit

import (
	"os"

	"github.com/arthur-debert/claude-kit/pkg/core"
	"github.com/arthur-debert/claude-kit/pkg/display"
	"github.com/arthur-debert/claude-kit/pkg/logging"
	"github.com/arthur-debert/claude-kit/pkg/types"
	"github.com/spf13/cobra"
)

func newUpdateCmd(kitRoot *string) *cobra.Command {
	var bundle string
	var addRefs []string
	var symlink bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "update <target-dir>",
		Short: "Reconcile an installed target with the kit's current state",
		Long: `Update re-resolves the target's recorded bundle (or a new one given
with --bundle), refreshes components whose sources changed, deploys new
ones, and flags components that dropped out of the bundle for removal.
Nothing is deleted: removals are advisory until confirmed with prune.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.GetLogger("cmd.update")
			logger.Info().Str("target", args[0]).Str("bundle", bundle).Msg("Starting update")

			cfg, err := loadConfig(*kitRoot)
			if err != nil {
				return err
			}

			// Empty mode inherits whatever the target was installed
			// with.
			var mode types.Mode
			if symlink {
				mode = types.ModeSymlink
			}

			result, err := core.Run(core.RunOptions{
				KitRoot:       cfg.KitRoot,
				TargetDir:     args[0],
				Bundle:        bundle,
				AddRefs:       addRefs,
				Mode:          mode,
				MergeManifest: true,
				Update:        true,
				DryRun:        dryRun,
			})
			if err != nil {
				return err
			}

			display.RenderDuplicates(os.Stderr, result.Duplicates)
			display.RenderOverrides(os.Stdout, result.Overrides)
			display.RenderActions(os.Stdout, result.Actions, !result.DryRun)
			display.RenderEnvKeys(os.Stdout, result.EnvKeysAdded)
			display.Summarize(os.Stdout, result.Actions, result.DryRun)
			return nil
		},
	}

	cmd.Flags().StringVar(&bundle, "bundle", "", "Switch the target to a different bundle")
	cmd.Flags().StringArrayVar(&addRefs, "add", nil, "Additional component reference (repeatable)")
	cmd.Flags().BoolVar(&symlink, "symlink", false, "Switch the target to symlink mode")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview the action list without executing it")

	return cmd
}
