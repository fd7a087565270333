package ckit

import (
	"os"

	"github.com/arthur-debert/claude-kit/pkg/core"
	"github.com/arthur-debert/claude-kit/pkg/display"
	"github.com/arthur-debert/claude-kit/pkg/logging"
	"github.com/spf13/cobra"
)

func newAddCmd(kitRoot *string) *cobra.Command {
	var addRefs []string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "add <target-dir> --add REF [--add REF]...",
		Short: "Add individual components to an installed target",
		Long: `Add merges ad-hoc component references into the target's recorded
installation and deploys whatever is missing. The manifest is rewritten
to the full post-run component set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.GetLogger("cmd.add")
			logger.Info().Str("target", args[0]).Strs("add", addRefs).Msg("Starting add")

			cfg, err := loadConfig(*kitRoot)
			if err != nil {
				return err
			}

			result, err := core.Run(core.RunOptions{
				KitRoot:       cfg.KitRoot,
				TargetDir:     args[0],
				AddRefs:       addRefs,
				MergeManifest: true,
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

	cmd.Flags().StringArrayVar(&addRefs, "add", nil, "Component reference to add (repeatable)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview the action list without executing it")
	_ = cmd.MarkFlagRequired("add")

	return cmd
}
