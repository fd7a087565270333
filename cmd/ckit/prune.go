package ckit

import (
	"fmt"

	"github.com/arthur-debert/claude-kit/pkg/core"
	"github.com/arthur-debert/claude-kit/pkg/logging"
	"github.com/arthur-debert/claude-kit/pkg/manifest"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newPruneCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "prune <target-dir>",
		Short: "Delete components a previous update flagged for removal",
		Long: `Prune is the explicit confirmation step behind remove advisories: it
walks the components the last update flagged as no longer part of the
bundle and deletes each one after a per-file confirmation. Declined
components stay flagged for a later prune. The engine never deletes a
deployed file through any other path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.GetLogger("cmd.prune")
			logger.Info().Str("target", args[0]).Bool("yes", yes).Msg("Starting prune")

			confirm := func(comp manifest.Component) bool {
				if yes {
					return true
				}
				ok, err := pterm.DefaultInteractiveConfirm.
					WithDefaultValue(false).
					Show(fmt.Sprintf("Remove %s (%s)?", comp.Ref, comp.Target))
				if err != nil {
					return false
				}
				return ok
			}

			result, err := core.Prune(core.PruneOptions{
				TargetDir: args[0],
				Confirm:   confirm,
			})
			if err != nil {
				return err
			}

			for _, comp := range result.Removed {
				fmt.Printf("removed   %s\n", comp.Target)
			}
			for _, comp := range result.Kept {
				fmt.Printf("kept      %s\n", comp.Target)
			}
			if len(result.Removed) == 0 && len(result.Kept) == 0 {
				fmt.Println("nothing flagged for removal")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Remove without asking per file")

	return cmd
}
