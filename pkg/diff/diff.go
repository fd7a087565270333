// Package diff classifies every component of a resolved bundle into
// the action the deployer must take: Add, Update, Unchanged, or (under
// update runs) Remove. The differ is read-only; the same action list
// is either printed for a preview or executed, so diff and apply can
// never disagree.
package diff

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/claude-kit/pkg/bundles"
	"github.com/arthur-debert/claude-kit/pkg/catalog"
	"github.com/arthur-debert/claude-kit/pkg/checksum"
	"github.com/arthur-debert/claude-kit/pkg/kiterr"
	"github.com/arthur-debert/claude-kit/pkg/logging"
	"github.com/arthur-debert/claude-kit/pkg/state"
	"github.com/arthur-debert/claude-kit/pkg/types"
)

// Options controls classification.
type Options struct {
	// Update enables Remove advisories for components recorded in the
	// manifest but absent from the newly resolved bundle.
	Update bool

	// Mode is the deployment mode the plan will run under.
	Mode types.Mode
}

// Compute produces the ordered action list for one resolved bundle
// against one target directory.
func Compute(targetDir string, res bundles.Resolved, prov state.Provider, opts Options) ([]types.Action, error) {
	logger := logging.GetLogger("diff")
	done := logging.LogOperationStart(logger, "compute diff")
	defer done()

	actions := make([]types.Action, 0, len(res.Components))
	for _, entry := range res.Components {
		action, err := classify(targetDir, entry, prov, opts)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}

	if opts.Update {
		resolved := res.Targets()
		for _, comp := range prov.Components() {
			if _, ok := resolved[comp.Target]; ok {
				continue
			}
			actions = append(actions, types.Action{
				Kind:   types.ActionRemove,
				Ref:    comp.Ref,
				Source: comp.Source,
				Target: comp.Target,
				IsDir:  comp.IsDir,
				Reason: "no longer in bundle",
			})
		}
	}

	logger.Debug().
		Int("actions", len(actions)).
		Str("stateOrigin", prov.Origin()).
		Msg("Diff computed")
	return actions, nil
}

func classify(targetDir string, entry catalog.Entry, prov state.Provider, opts Options) (types.Action, error) {
	action := types.Action{
		Ref:    entry.Ref.String(),
		Source: entry.Source,
		Target: entry.Target,
		IsDir:  entry.IsDir,
	}

	abs := filepath.Join(targetDir, entry.Target)
	info, lstatErr := os.Lstat(abs)
	_, inState := prov.Lookup(entry.Target)
	onDisk := lstatErr == nil

	if !inState && !onDisk {
		action.Kind = types.ActionAdd
		action.Reason = "not installed"
		return action, nil
	}

	if opts.Mode == types.ModeSymlink {
		return classifySymlink(action, abs, entry.Source, info, onDisk)
	}

	if !onDisk {
		// Recorded in the manifest but missing from disk: deploy it
		// again.
		action.Kind = types.ActionAdd
		action.Reason = "missing from disk"
		return action, nil
	}

	sourceSum, err := checksum.Path(entry.Source)
	if err != nil {
		return action, kiterr.Wrapf(err, kiterr.ErrFileAccess,
			"cannot hash source for %s", entry.Ref).
			WithDetail("path", entry.Source)
	}
	targetSum, err := checksum.Path(abs)
	if err != nil {
		return action, kiterr.Wrapf(err, kiterr.ErrFileAccess,
			"cannot hash installed content for %s", entry.Ref).
			WithDetail("path", abs)
	}

	if sourceSum == targetSum {
		action.Kind = types.ActionUnchanged
		return action, nil
	}
	action.Kind = types.ActionUpdate
	action.Reason = "content differs"
	return action, nil
}

// classifySymlink handles symlink-mode state: a link already pointing
// at the resolved source is Unchanged; anything else present at the
// target (wrong destination, regular file) is an Update that re-links.
// Update-by-content never applies, a symlink always reflects the live
// source.
func classifySymlink(action types.Action, abs, source string, info os.FileInfo, onDisk bool) (types.Action, error) {
	if !onDisk {
		action.Kind = types.ActionAdd
		action.Reason = "missing from disk"
		return action, nil
	}
	if info.Mode()&os.ModeSymlink != 0 {
		dest, err := os.Readlink(abs)
		if err == nil && dest == source {
			action.Kind = types.ActionUnchanged
			return action, nil
		}
		action.Kind = types.ActionUpdate
		action.Reason = "link destination differs"
		return action, nil
	}
	action.Kind = types.ActionUpdate
	action.Reason = "regular file where link expected"
	return action, nil
}
