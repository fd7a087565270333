// Package deploy executes the action list produced by the differ
// against a target project directory.
//
// Filesystem mutation runs through synthfs, one pipeline per action,
// in list order. A failing action aborts everything after it; actions
// already applied stay applied (every individual copy, link, and env
// append is idempotent, so re-running the same command is the recovery
// path).
package deploy

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/arthur-debert/claude-kit/pkg/envfile"
	"github.com/arthur-debert/claude-kit/pkg/kiterr"
	"github.com/arthur-debert/claude-kit/pkg/logging"
	"github.com/arthur-debert/claude-kit/pkg/refs"
	"github.com/arthur-debert/claude-kit/pkg/types"
	"github.com/arthur-debert/synthfs/pkg/synthfs"
	"github.com/arthur-debert/synthfs/pkg/synthfs/filesystem"
	"github.com/rs/zerolog"
)

// placeholderPattern is the fixed ${VAR_NAME} grammar scanned inside
// MCP component content: an uppercase identifier between ${ and }.
var placeholderPattern = regexp.MustCompile(`\$\{([A-Z][A-Z0-9_]*)\}`)

// Result summarizes one apply run.
type Result struct {
	// Applied lists the actions actually executed, in order.
	Applied []types.Action

	// EnvKeys is the distinct set of ${VAR} names found across the
	// run's MCP components, sorted.
	EnvKeys []string

	// EnvKeysAdded is the subset of EnvKeys newly appended to
	// .env.example this run.
	EnvKeysAdded []string
}

// Deployer applies actions to one target directory.
type Deployer struct {
	logger    zerolog.Logger
	targetDir string
	mode      types.Mode
	update    bool
	fs        synthfs.FileSystem
}

// New creates a Deployer. update relaxes the Add collision check: a
// stale on-disk file is overwritten instead of failing.
func New(targetDir string, mode types.Mode, update bool) (*Deployer, error) {
	abs, err := filepath.Abs(targetDir)
	if err != nil {
		return nil, kiterr.Wrapf(err, kiterr.ErrFileAccess,
			"failed to resolve target directory: %s", targetDir)
	}
	return &Deployer{
		logger:    logging.GetLogger("deploy"),
		targetDir: abs,
		mode:      mode,
		update:    update,
		fs:        filesystem.NewOSFileSystem("/"),
	}, nil
}

// Apply executes every mutating action in order, then merges the MCP
// placeholder set into the target's .env.example. Remove actions are
// advisory and skipped here; Unchanged actions are skipped but still
// contribute their placeholders so the env template converges.
func (d *Deployer) Apply(actions []types.Action) (*Result, error) {
	done := logging.LogOperationStart(d.logger, "apply actions")
	defer done()

	if err := d.checkCollisions(actions); err != nil {
		return nil, err
	}

	result := &Result{}
	for _, action := range actions {
		if !action.Mutates() {
			continue
		}
		if err := d.applyOne(action); err != nil {
			return nil, err
		}
		result.Applied = append(result.Applied, action)
	}

	keys, err := d.collectPlaceholders(actions)
	if err != nil {
		return nil, err
	}
	result.EnvKeys = keys
	if len(keys) > 0 {
		added, err := envfile.Merge(filepath.Join(d.targetDir, envfile.FileName), keys)
		if err != nil {
			return nil, err
		}
		result.EnvKeysAdded = added
	}

	d.logger.Info().
		Int("applied", len(result.Applied)).
		Int("envKeysAdded", len(result.EnvKeysAdded)).
		Msg("Deployment applied")
	return result, nil
}

// checkCollisions enforces the copy-mode invariant that an Add action
// never lands on an existing path. That situation means the recorded
// state and the disk have drifted apart; under --update the action is
// simply treated as an overwrite, otherwise it is fatal before any
// mutation happens.
func (d *Deployer) checkCollisions(actions []types.Action) error {
	if d.mode != types.ModeCopy || d.update {
		return nil
	}
	for _, action := range actions {
		if action.Kind != types.ActionAdd {
			continue
		}
		abs := filepath.Join(d.targetDir, action.Target)
		if _, err := os.Lstat(abs); err == nil {
			return kiterr.Newf(kiterr.ErrTargetCollision,
				"target path for %s already exists (stale state?); re-run with --update to overwrite", action.Ref).
				WithDetail("path", abs)
		}
	}
	return nil
}

// applyOne lowers a single action into synthfs operations and runs
// them as one pipeline, so a failure is reported against the
// component it belongs to.
func (d *Deployer) applyOne(action types.Action) error {
	abs := filepath.Join(d.targetDir, action.Target)

	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return kiterr.Wrapf(err, kiterr.ErrDirCreate,
			"cannot create parent directory for %s", action.Ref).
			WithDetail("path", filepath.Dir(abs))
	}

	var ops []synthfs.Operation
	var err error
	if d.mode == types.ModeSymlink {
		ops, err = d.symlinkOps(action, abs)
	} else {
		ops, err = d.copyOps(action, abs)
	}
	if err != nil {
		return err
	}
	if len(ops) == 0 {
		return nil
	}

	pipeline := synthfs.NewMemPipeline()
	for _, op := range ops {
		if err := pipeline.Add(op); err != nil {
			return kiterr.Wrapf(err, kiterr.ErrInternal,
				"failed to build operation pipeline for %s", action.Ref)
		}
	}

	d.logger.Debug().
		Str("ref", action.Ref).
		Str("kind", string(action.Kind)).
		Str("target", abs).
		Int("operations", len(ops)).
		Msg("Executing action")

	executor := synthfs.NewExecutor()
	runResult := executor.Run(context.Background(), pipeline, d.fs)
	if runResult.GetError() != nil {
		return kiterr.Wrapf(runResult.GetError(), kiterr.ErrFileWrite,
			"failed to deploy %s", action.Ref).
			WithDetail("target", abs)
	}
	return nil
}

// copyOps lowers a copy-mode action: one copy operation per file, with
// directory components walked recursively. Updates clear the stale
// target first so the copy never trips over existing content.
func (d *Deployer) copyOps(action types.Action, abs string) ([]synthfs.Operation, error) {
	// Clear whatever is already there (Update, or Add under --update
	// after a collision downgrade). os.RemoveAll is a no-op when the
	// path is absent.
	if action.Kind == types.ActionUpdate || d.update {
		if err := os.RemoveAll(abs); err != nil {
			return nil, kiterr.Wrapf(err, kiterr.ErrFileWrite,
				"cannot clear stale target for %s", action.Ref).
				WithDetail("path", abs)
		}
	}

	if !action.IsDir {
		op, err := newCopyOp(action.Source, abs)
		if err != nil {
			return nil, kiterr.Wrapf(err, kiterr.ErrInternal,
				"cannot build copy operation for %s", action.Ref)
		}
		return []synthfs.Operation{op}, nil
	}

	var ops []synthfs.Operation
	err := filepath.Walk(action.Source, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(action.Source, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(abs, rel)
		if info.IsDir() {
			op, err := newMkdirOp(dest, info.Mode().Perm())
			if err != nil {
				return err
			}
			ops = append(ops, op)
			return nil
		}
		op, err := newCopyOp(path, dest)
		if err != nil {
			return err
		}
		ops = append(ops, op)
		return nil
	})
	if err != nil {
		return nil, kiterr.Wrapf(err, kiterr.ErrFileAccess,
			"cannot walk skill directory for %s", action.Ref).
			WithDetail("path", action.Source)
	}
	return ops, nil
}

// symlinkOps lowers a symlink-mode action: remove whatever occupies
// the target, then link it at the absolute source. Re-linking an
// already-correct target is harmless, which makes the mode idempotent
// by construction.
func (d *Deployer) symlinkOps(action types.Action, abs string) ([]synthfs.Operation, error) {
	if _, err := os.Lstat(abs); err == nil {
		if err := os.RemoveAll(abs); err != nil {
			return nil, kiterr.Wrapf(err, kiterr.ErrSymlinkCreate,
				"cannot replace existing target for %s", action.Ref).
				WithDetail("path", abs)
		}
	}
	op, err := newSymlinkOp(action.Source, abs)
	if err != nil {
		return nil, kiterr.Wrapf(err, kiterr.ErrInternal,
			"cannot build symlink operation for %s", action.Ref)
	}
	return []synthfs.Operation{op}, nil
}

// collectPlaceholders scans the content of every MCP component in the
// action list (Removes excluded) for ${VAR_NAME} tokens and returns
// the distinct names, sorted.
func (d *Deployer) collectPlaceholders(actions []types.Action) ([]string, error) {
	seen := make(map[string]bool)
	for _, action := range actions {
		if action.Kind == types.ActionRemove {
			continue
		}
		ref, err := refs.Parse(action.Ref)
		if err != nil || ref.Kind != refs.KindMCP {
			continue
		}
		content, err := os.ReadFile(action.Source)
		if err != nil {
			return nil, kiterr.Wrapf(err, kiterr.ErrFileAccess,
				"cannot scan %s for placeholders", action.Ref).
				WithDetail("path", action.Source)
		}
		for _, match := range placeholderPattern.FindAllStringSubmatch(string(content), -1) {
			seen[match[1]] = true
		}
	}

	if len(seen) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
