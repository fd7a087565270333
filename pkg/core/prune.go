package core

import (
	"os"
	"path/filepath"
	"time"

	"github.com/arthur-debert/claude-kit/pkg/kiterr"
	"github.com/arthur-debert/claude-kit/pkg/logging"
	"github.com/arthur-debert/claude-kit/pkg/manifest"
)

// PruneOptions controls the explicit removal step. Confirm is asked
// once per candidate; returning false keeps the file (and keeps it
// flagged for a later prune). A nil Confirm declines everything.
type PruneOptions struct {
	TargetDir string
	Confirm   func(comp manifest.Component) bool
}

// PruneResult reports what prune did.
type PruneResult struct {
	Removed []manifest.Component
	Kept    []manifest.Component
}

// Prune deletes components a previous update run flagged as
// PendingRemoval, one explicit confirmation per file. The engine never
// deletes anything outside this path: the user may have hand-edited a
// deployed file, so removal is always opt-in.
func Prune(opts PruneOptions) (*PruneResult, error) {
	logger := logging.GetLogger("core.prune")

	m, err := manifest.Load(opts.TargetDir)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, kiterr.New(kiterr.ErrNotFound,
			"no manifest found: nothing to prune").
			WithDetail("path", manifest.Path(opts.TargetDir))
	}

	result := &PruneResult{}
	var remaining []manifest.Component
	for _, comp := range m.Components {
		if !comp.PendingRemoval {
			remaining = append(remaining, comp)
			continue
		}
		if opts.Confirm == nil || !opts.Confirm(comp) {
			logger.Debug().Str("ref", comp.Ref).Msg("Removal declined, keeping flag")
			result.Kept = append(result.Kept, comp)
			remaining = append(remaining, comp)
			continue
		}

		abs := filepath.Join(opts.TargetDir, comp.Target)
		if err := os.RemoveAll(abs); err != nil {
			return nil, kiterr.Wrapf(err, kiterr.ErrFileWrite,
				"cannot remove %s", comp.Ref).
				WithDetail("path", abs)
		}
		logger.Info().Str("ref", comp.Ref).Str("path", abs).Msg("Component removed")
		result.Removed = append(result.Removed, comp)
	}

	if len(result.Removed) > 0 {
		m.Components = remaining
		m.UpdatedAt = time.Now().UTC()
		if err := m.Save(opts.TargetDir); err != nil {
			return nil, err
		}
	}
	return result, nil
}
