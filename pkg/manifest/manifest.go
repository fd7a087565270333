// Package manifest persists the record of what was deployed to a
// target project: which bundle, which mode, when, and the exact
// component set present after the last successful run.
//
// The manifest is the engine's only durable artifact. It is written
// all-or-nothing (temp file + rename) and only after every file
// operation of a run has succeeded, so an interrupted run leaves the
// previous manifest intact.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/arthur-debert/claude-kit/pkg/kiterr"
	"github.com/arthur-debert/claude-kit/pkg/types"
)

// FileName is the manifest's project-relative location.
const (
	Dir      = ".claude"
	FileName = ".toolkit-manifest.json"
)

// Component is one installed artifact as recorded in the manifest.
type Component struct {
	// Ref is the component reference that produced this entry.
	Ref string `json:"ref"`

	// Source is the absolute resolved source path at install time.
	Source string `json:"source"`

	// Target is the deployed path relative to the project root.
	Target string `json:"target"`

	// IsDir marks directory components (skills).
	IsDir bool `json:"isDir,omitempty"`

	// SHA256 is the content hash of the deployed payload. Empty in
	// symlink mode, where the link always reflects the live source.
	SHA256 string `json:"sha256,omitempty"`

	// Explicit marks a component the user added on top of the bundle
	// (--add). Explicit components persist across updates; everything
	// else is re-derived from the bundle on each run.
	Explicit bool `json:"explicit,omitempty"`

	// PendingRemoval marks a component an update run flagged as no
	// longer part of the bundle. The file stays on disk (and stays
	// recorded here) until the user confirms deletion via prune.
	PendingRemoval bool `json:"pendingRemoval,omitempty"`
}

// Manifest is the persisted installation record for one target
// project.
type Manifest struct {
	// Bundle is the bundle name used, empty for pure --add installs.
	Bundle string `json:"bundle,omitempty"`

	// Mode is "copy" or "symlink".
	Mode types.Mode `json:"mode"`

	// InstalledAt is set on first install and preserved afterwards.
	InstalledAt time.Time `json:"installedAt"`

	// UpdatedAt is refreshed on every successful run.
	UpdatedAt time.Time `json:"updatedAt"`

	// Components is the full post-run component set, not a delta.
	Components []Component `json:"components"`
}

// Path returns the manifest location for a target project.
func Path(targetDir string) string {
	return filepath.Join(targetDir, Dir, FileName)
}

// Load reads the manifest for a target project. A missing manifest
// returns (nil, nil). Malformed content returns a MANIFEST_PARSE
// error; callers recover by falling back to filesystem probing.
func Load(targetDir string) (*Manifest, error) {
	data, err := os.ReadFile(Path(targetDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, kiterr.Wrap(err, kiterr.ErrFileAccess, "cannot read manifest").
			WithDetail("path", Path(targetDir))
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, kiterr.Wrap(err, kiterr.ErrManifestParse, "manifest is not valid JSON").
			WithDetail("path", Path(targetDir))
	}
	if !m.Mode.Valid() {
		return nil, kiterr.Newf(kiterr.ErrManifestParse,
			"manifest has invalid mode %q", m.Mode).
			WithDetail("path", Path(targetDir))
	}
	return &m, nil
}

// Lookup finds a recorded component by target-relative path.
func (m *Manifest) Lookup(target string) (Component, bool) {
	for _, c := range m.Components {
		if c.Target == target {
			return c, true
		}
	}
	return Component{}, false
}

// Save writes the manifest atomically: marshal to a temp file in the
// same directory, then rename over the final path.
func (m *Manifest) Save(targetDir string) error {
	dir := filepath.Join(targetDir, Dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return kiterr.Wrap(err, kiterr.ErrDirCreate, "cannot create manifest directory").
			WithDetail("path", dir)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return kiterr.Wrap(err, kiterr.ErrManifestWrite, "cannot encode manifest")
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, FileName+".tmp-*")
	if err != nil {
		return kiterr.Wrap(err, kiterr.ErrManifestWrite, "cannot create manifest temp file").
			WithDetail("dir", dir)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return kiterr.Wrap(err, kiterr.ErrManifestWrite, "cannot write manifest").
			WithDetail("path", tmpPath)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return kiterr.Wrap(err, kiterr.ErrManifestWrite, "cannot write manifest").
			WithDetail("path", tmpPath)
	}
	if err := os.Rename(tmpPath, Path(targetDir)); err != nil {
		_ = os.Remove(tmpPath)
		return kiterr.Wrap(err, kiterr.ErrManifestWrite, "cannot commit manifest").
			WithDetail("path", Path(targetDir))
	}
	return nil
}
