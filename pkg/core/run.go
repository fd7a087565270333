// Package core wires the resolution pipeline together: catalog ->
// bundle resolver -> installed-state detection -> differ -> deployer
// -> manifest commit. Commands call Run with options and render the
// result; no command talks to the lower packages directly.
package core

import (
	"os"
	"time"

	"github.com/arthur-debert/claude-kit/pkg/bundles"
	"github.com/arthur-debert/claude-kit/pkg/catalog"
	"github.com/arthur-debert/claude-kit/pkg/checksum"
	"github.com/arthur-debert/claude-kit/pkg/deploy"
	"github.com/arthur-debert/claude-kit/pkg/diff"
	"github.com/arthur-debert/claude-kit/pkg/kiterr"
	"github.com/arthur-debert/claude-kit/pkg/logging"
	"github.com/arthur-debert/claude-kit/pkg/manifest"
	"github.com/arthur-debert/claude-kit/pkg/refs"
	"github.com/arthur-debert/claude-kit/pkg/state"
	"github.com/arthur-debert/claude-kit/pkg/types"
)

// RunOptions selects what one engine invocation does.
type RunOptions struct {
	KitRoot   string
	TargetDir string

	// Bundle is the bundle name to deploy, empty for pure --add runs.
	Bundle string

	// AddRefs are ad-hoc component references appended after the
	// bundle (the --add flags).
	AddRefs []string

	// Mode must be a valid deployment mode.
	Mode types.Mode

	// MergeManifest seeds the reference list from the existing
	// manifest, so update/add runs operate on the full recorded set
	// rather than only the flags given.
	MergeManifest bool

	// Update enables Remove advisories and downgrades Add collisions
	// to overwrites.
	Update bool

	// DryRun stops after the diff; nothing is written.
	DryRun bool
}

// RunResult is what one invocation produced.
type RunResult struct {
	Actions      []types.Action
	Overrides    []bundles.Override
	Duplicates   []catalog.Duplicate
	StateOrigin  string
	EnvKeysAdded []string
	DryRun       bool
}

// Run executes one engine invocation end to end. Resolution-phase
// failures return before anything on disk is touched.
func Run(opts RunOptions) (*RunResult, error) {
	logger := logging.GetLogger("core")
	done := logging.LogOperationStart(logger, "run")
	defer done()

	if err := requireDir(opts.TargetDir); err != nil {
		return nil, err
	}

	cat, err := catalog.New(opts.KitRoot)
	if err != nil {
		return nil, err
	}

	prior, rawRefs, explicitRaws, bundleName, err := gatherRefs(opts, cat)
	if err != nil {
		return nil, err
	}

	// An empty mode means "whatever the target was installed with",
	// falling back to copy for fresh targets.
	if opts.Mode == "" {
		if prior != nil {
			opts.Mode = prior.Mode
		} else {
			opts.Mode = types.ModeCopy
		}
	}
	if !opts.Mode.Valid() {
		return nil, kiterr.Newf(kiterr.ErrInvalidInput,
			"invalid deployment mode %q", opts.Mode)
	}

	resolver := bundles.NewResolver(cat)
	resolved, err := resolver.ResolveRefs(rawRefs)
	if err != nil {
		return nil, err
	}

	// Resolve the explicit refs separately to learn which target paths
	// they own, so the manifest can mark them. A second resolution is
	// cheap and the refs were already validated above.
	explicitTargets := make(map[string]bool)
	if len(explicitRaws) > 0 {
		explicitRes, err := resolver.ResolveRefs(explicitRaws)
		if err != nil {
			return nil, err
		}
		for _, e := range explicitRes.Components {
			explicitTargets[e.Target] = true
		}
	}

	provider, err := state.Detect(opts.TargetDir, resolved.Components)
	if err != nil {
		return nil, err
	}

	actions, err := diff.Compute(opts.TargetDir, resolved, provider, diff.Options{
		Update: opts.Update,
		Mode:   opts.Mode,
	})
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		Actions:     actions,
		Overrides:   resolved.Overrides,
		Duplicates:  resolved.Duplicates,
		StateOrigin: provider.Origin(),
		DryRun:      opts.DryRun,
	}
	if opts.DryRun {
		return result, nil
	}

	deployer, err := deploy.New(opts.TargetDir, opts.Mode, opts.Update)
	if err != nil {
		return nil, err
	}
	applied, err := deployer.Apply(actions)
	if err != nil {
		return nil, err
	}
	result.EnvKeysAdded = applied.EnvKeysAdded

	m, err := buildManifest(opts, bundleName, resolved, actions, prior, explicitTargets)
	if err != nil {
		return nil, err
	}
	if err := m.Save(opts.TargetDir); err != nil {
		return nil, err
	}

	logger.Info().
		Str("target", opts.TargetDir).
		Str("bundle", bundleName).
		Int("actions", len(actions)).
		Msg("Run committed")
	return result, nil
}

// gatherRefs assembles the raw reference list for resolution, in
// override order: the bundle first, then the manifest's explicit
// extras (components the user --added persist across updates and win
// over the bundle), then this run's --add flags. Bundle-derived
// components are never seeded from the manifest; re-expanding the
// bundle is what lets update notice dropped lines. The second return
// is the explicit subset, so the caller can mark those components in
// the new manifest.
//
// Seeded refs whose kit source has since disappeared are dropped here
// (not failed): the differ will flag them as Remove advisories, which
// is exactly what a vanished source means.
func gatherRefs(opts RunOptions, cat *catalog.Catalog) (*manifest.Manifest, []string, []string, string, error) {
	logger := logging.GetLogger("core")
	var rawRefs, explicitRaws []string
	bundleName := opts.Bundle

	var prior *manifest.Manifest
	if opts.MergeManifest {
		m, err := manifest.Load(opts.TargetDir)
		if err != nil && !kiterr.IsErrorCode(err, kiterr.ErrManifestParse) {
			return nil, nil, nil, "", err
		}
		prior = m
	}

	if prior != nil && bundleName == "" {
		bundleName = prior.Bundle
	}
	if bundleName != "" {
		rawRefs = append(rawRefs, "@"+bundleName)
	}

	if prior != nil {
		for _, comp := range prior.Components {
			if !comp.Explicit || comp.PendingRemoval {
				continue
			}
			ref, err := refs.Parse(comp.Ref)
			if err != nil {
				logger.Warn().Str("ref", comp.Ref).Err(err).
					Msg("Skipping unparseable manifest ref")
				continue
			}
			if _, err := cat.Resolve(ref); kiterr.IsErrorCode(err, kiterr.ErrMissingSource) {
				logger.Warn().Str("ref", comp.Ref).
					Msg("Recorded component vanished from kit, will be flagged for removal")
				continue
			}
			explicitRaws = append(explicitRaws, comp.Ref)
		}
	}

	explicitRaws = append(explicitRaws, opts.AddRefs...)
	rawRefs = append(rawRefs, explicitRaws...)
	if len(rawRefs) == 0 {
		return nil, nil, nil, "", kiterr.New(kiterr.ErrInvalidInput,
			"nothing to deploy: give --bundle, --add, or run against an installed target")
	}
	return prior, rawRefs, explicitRaws, bundleName, nil
}

// buildManifest records the full post-run component set. Components
// flagged Remove stay recorded with PendingRemoval set, since their
// files are still on disk until the user prunes them; flags from
// earlier runs are carried forward until prune resolves them.
func buildManifest(opts RunOptions, bundleName string, resolved bundles.Resolved, actions []types.Action, prior *manifest.Manifest, explicitTargets map[string]bool) (*manifest.Manifest, error) {
	now := time.Now().UTC()
	m := &manifest.Manifest{
		Bundle:      bundleName,
		Mode:        opts.Mode,
		InstalledAt: now,
		UpdatedAt:   now,
	}
	if prior != nil && !prior.InstalledAt.IsZero() {
		m.InstalledAt = prior.InstalledAt
	}

	recorded := make(map[string]bool)
	for _, entry := range resolved.Components {
		comp := manifest.Component{
			Ref:      entry.Ref.String(),
			Source:   entry.Source,
			Target:   entry.Target,
			IsDir:    entry.IsDir,
			Explicit: explicitTargets[entry.Target],
		}
		if opts.Mode == types.ModeCopy {
			sum, err := checksum.Path(entry.Source)
			if err != nil {
				return nil, kiterr.Wrapf(err, kiterr.ErrFileAccess,
					"cannot hash source for %s", entry.Ref).
					WithDetail("path", entry.Source)
			}
			comp.SHA256 = sum
		}
		m.Components = append(m.Components, comp)
		recorded[comp.Target] = true
	}

	for _, action := range actions {
		if action.Kind != types.ActionRemove || recorded[action.Target] {
			continue
		}
		m.Components = append(m.Components, manifest.Component{
			Ref:            action.Ref,
			Source:         action.Source,
			Target:         action.Target,
			IsDir:          action.IsDir,
			PendingRemoval: true,
		})
		recorded[action.Target] = true
	}

	if prior != nil {
		for _, comp := range prior.Components {
			if comp.PendingRemoval && !recorded[comp.Target] {
				m.Components = append(m.Components, comp)
				recorded[comp.Target] = true
			}
		}
	}
	return m, nil
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return kiterr.New(kiterr.ErrNotFound, "target directory does not exist").
				WithDetail("path", path)
		}
		return kiterr.Wrap(err, kiterr.ErrFileAccess, "cannot access target directory").
			WithDetail("path", path)
	}
	if !info.IsDir() {
		return kiterr.New(kiterr.ErrInvalidInput, "target is not a directory").
			WithDetail("path", path)
	}
	return nil
}
