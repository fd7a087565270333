package ckit

import (
	"os"

	"github.com/arthur-debert/claude-kit/pkg/core"
	"github.com/arthur-debert/claude-kit/pkg/display"
	"github.com/spf13/cobra"
)

func newDiffCmd(kitRoot *string) *cobra.Command {
	var bundle string
	var addRefs []string

	cmd := &cobra.Command{
		Use:   "diff <target-dir>",
		Short: "Preview the action list without touching anything",
		Long: `Diff prints exactly the plan an apply run would execute, with "would"
framing. With --bundle or --add it previews a fresh install of those
components; with neither it previews an update reconciliation of the
target's recorded installation, including remove advisories.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reconcile := bundle == "" && len(addRefs) == 0

			cfg, err := loadConfig(*kitRoot)
			if err != nil {
				return err
			}

			result, err := core.Run(core.RunOptions{
				KitRoot:       cfg.KitRoot,
				TargetDir:     args[0],
				Bundle:        bundle,
				AddRefs:       addRefs,
				MergeManifest: reconcile,
				Update:        reconcile,
				DryRun:        true,
			})
			if err != nil {
				return err
			}

			display.RenderDuplicates(os.Stderr, result.Duplicates)
			display.RenderOverrides(os.Stdout, result.Overrides)
			display.RenderActions(os.Stdout, result.Actions, false)
			display.Summarize(os.Stdout, result.Actions, true)
			return nil
		},
	}

	cmd.Flags().StringVar(&bundle, "bundle", "", "Bundle name to preview")
	cmd.Flags().StringArrayVar(&addRefs, "add", nil, "Additional component reference (repeatable)")

	return cmd
}
