// Package state answers "what is already installed in this target?".
//
// Two providers implement the same interface: one backed by the
// persisted manifest, one that synthesizes state by probing the
// filesystem at every candidate target path implied by the resolved
// bundle. Selection happens at runtime in Detect, keyed on manifest
// presence and parseability; a malformed manifest downgrades to the
// probing path instead of failing the run.
package state

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/claude-kit/pkg/catalog"
	"github.com/arthur-debert/claude-kit/pkg/checksum"
	"github.com/arthur-debert/claude-kit/pkg/kiterr"
	"github.com/arthur-debert/claude-kit/pkg/logging"
	"github.com/arthur-debert/claude-kit/pkg/manifest"
)

// Provider origins.
const (
	OriginManifest   = "manifest"
	OriginFilesystem = "filesystem"
)

// Provider exposes the installed state of a target project.
type Provider interface {
	// Lookup finds an installed component by target-relative path.
	Lookup(target string) (manifest.Component, bool)

	// Components returns everything the provider knows is installed.
	Components() []manifest.Component

	// Origin reports where the state came from ("manifest" or
	// "filesystem").
	Origin() string
}

// Detect picks the best available provider for a target. The manifest
// is preferred; absence or a MANIFEST_PARSE failure falls back to
// probing the filesystem at the targets implied by the resolved
// entries. Other manifest read failures (permissions) are fatal.
func Detect(targetDir string, entries []catalog.Entry) (Provider, error) {
	logger := logging.GetLogger("state")

	m, err := manifest.Load(targetDir)
	switch {
	case err == nil && m != nil:
		logger.Debug().Str("target", targetDir).Msg("Using manifest state")
		return &manifestProvider{m: m}, nil
	case kiterr.IsErrorCode(err, kiterr.ErrManifestParse):
		logger.Warn().Err(err).
			Str("target", targetDir).
			Msg("Manifest unreadable, falling back to filesystem probing")
	case err != nil:
		return nil, err
	default:
		logger.Debug().Str("target", targetDir).Msg("No manifest, probing filesystem")
	}

	return probeFilesystem(targetDir, entries)
}

// manifestProvider serves installed state straight from the manifest.
type manifestProvider struct {
	m *manifest.Manifest
}

func (p *manifestProvider) Lookup(target string) (manifest.Component, bool) {
	return p.m.Lookup(target)
}

func (p *manifestProvider) Components() []manifest.Component {
	return p.m.Components
}

func (p *manifestProvider) Origin() string { return OriginManifest }

// Manifest exposes the underlying manifest when the provider is
// manifest-backed, nil otherwise.
func Manifest(p Provider) *manifest.Manifest {
	if mp, ok := p.(*manifestProvider); ok {
		return mp.m
	}
	return nil
}

// filesystemProvider holds state synthesized by probing disk.
type filesystemProvider struct {
	components map[string]manifest.Component
	ordered    []manifest.Component
}

// probeFilesystem checks, for each resolved entry, whether its target
// path exists, and hashes whatever is found. Only paths the catalog
// can produce are probed; the provider knows nothing about stray
// files.
func probeFilesystem(targetDir string, entries []catalog.Entry) (Provider, error) {
	p := &filesystemProvider{components: make(map[string]manifest.Component)}
	for _, e := range entries {
		abs := filepath.Join(targetDir, e.Target)
		if _, err := os.Lstat(abs); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, kiterr.Wrapf(err, kiterr.ErrFileAccess,
				"cannot probe target path for %s", e.Ref).
				WithDetail("path", abs)
		}

		comp := manifest.Component{
			Ref:    e.Ref.String(),
			Source: e.Source,
			Target: e.Target,
			IsDir:  e.IsDir,
		}
		// Hash regular content only; a symlink's identity is its
		// destination, which the differ checks directly.
		if info, err := os.Lstat(abs); err == nil && info.Mode()&os.ModeSymlink == 0 {
			sum, err := checksum.Path(abs)
			if err != nil {
				return nil, kiterr.Wrapf(err, kiterr.ErrFileAccess,
					"cannot hash installed content for %s", e.Ref).
					WithDetail("path", abs)
			}
			comp.SHA256 = sum
		}
		p.components[e.Target] = comp
		p.ordered = append(p.ordered, comp)
	}
	return p, nil
}

func (p *filesystemProvider) Lookup(target string) (manifest.Component, bool) {
	c, ok := p.components[target]
	return c, ok
}

func (p *filesystemProvider) Components() []manifest.Component {
	return p.ordered
}

func (p *filesystemProvider) Origin() string { return OriginFilesystem }
