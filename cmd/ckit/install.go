package ckit

import (
	"os"

	"github.com/arthur-debert/claude-kit/pkg/core"
	"github.com/arthur-debert/claude-kit/pkg/display"
	"github.com/arthur-debert/claude-kit/pkg/logging"
	"github.com/arthur-debert/claude-kit/pkg/types"
	"github.com/spf13/cobra"
)

func newInstallCmd(kitRoot *string) *cobra.Command {
	var bundle string
	var addRefs []string
	var symlink bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "install <target-dir>",
		Short: "Deploy a bundle into a target project",
		Long: `Install resolves the requested bundle (and any --add references) into
a flat component list, diffs it against the target's installed state,
and applies the minimal set of file operations to converge. A manifest
recording the installed component set is committed on success.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.GetLogger("cmd.install")
			logger.Info().
				Str("target", args[0]).
				Str("bundle", bundle).
				Strs("add", addRefs).
				Bool("symlink", symlink).
				Bool("dryRun", dryRun).
				Msg("Starting install")

			cfg, err := loadConfig(*kitRoot)
			if err != nil {
				return err
			}

			mode := cfg.DefaultMode
			if symlink {
				mode = types.ModeSymlink
			}

			result, err := core.Run(core.RunOptions{
				KitRoot:   cfg.KitRoot,
				TargetDir: args[0],
				Bundle:    bundle,
				AddRefs:   addRefs,
				Mode:      mode,
				DryRun:    dryRun,
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

	cmd.Flags().StringVar(&bundle, "bundle", "", "Bundle name to deploy")
	cmd.Flags().StringArrayVar(&addRefs, "add", nil, "Additional component reference (repeatable)")
	cmd.Flags().BoolVar(&symlink, "symlink", false, "Symlink components to the kit instead of copying")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview the action list without executing it")

	return cmd
}
