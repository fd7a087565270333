// Package catalog maps parsed component references onto concrete
// source files in the kit root and target paths inside a project.
// The mapping for each reference kind is a pure function of the name;
// the only filesystem access is existence probing (MISSING_SOURCE
// detection and my:/external: skill-vs-agent disambiguation).
package catalog

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/claude-kit/pkg/kiterr"
	"github.com/arthur-debert/claude-kit/pkg/logging"
	"github.com/arthur-debert/claude-kit/pkg/refs"
	"github.com/rs/zerolog"
)

// Kit root subdirectories. These define the kit's content layout and
// are not user-configurable.
const (
	RulesDir     = "rules"
	RootFilesDir = "root"
	SettingsDir  = "settings"
	PyprojectDir = "pyproject"
	CommandsDir  = "commands"
	HooksDir     = "hooks"
	SkillsDir    = "skills"
	AgentsDir    = "agents"
	MCPDir       = "mcp"
	BundlesDir   = "bundles"
)

// Target layout inside a project.
const (
	ClaudeDir = ".claude"

	// PyprojectTarget is shared by every pyproject/ variant: they are
	// alternative templates for the same file.
	PyprojectTarget = "pyproject.toml"
)

// Entry is a fully resolved component: where it comes from and where
// it lands, target-relative.
type Entry struct {
	Ref    refs.Ref
	Source string // absolute path in the kit
	Target string // path relative to the target project root
	IsDir  bool   // true for skill directories
}

// Catalog resolves references against one kit root.
type Catalog struct {
	root   string
	logger zerolog.Logger
}

// New creates a Catalog for the given kit root. The root must exist
// and be a directory.
func New(kitRoot string) (*Catalog, error) {
	abs, err := filepath.Abs(kitRoot)
	if err != nil {
		return nil, kiterr.Wrapf(err, kiterr.ErrFileAccess,
			"failed to resolve kit root: %s", kitRoot)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, kiterr.Wrap(err, kiterr.ErrNotFound, "kit root does not exist").
				WithDetail("path", abs)
		}
		return nil, kiterr.Wrap(err, kiterr.ErrFileAccess, "cannot access kit root").
			WithDetail("path", abs)
	}
	if !info.IsDir() {
		return nil, kiterr.New(kiterr.ErrInvalidInput, "kit root is not a directory").
			WithDetail("path", abs)
	}
	return &Catalog{
		root:   abs,
		logger: logging.GetLogger("catalog"),
	}, nil
}

// Root returns the absolute kit root path.
func (c *Catalog) Root() string { return c.root }

// Resolve maps a non-bundle reference to its source and target paths.
// Fails with MISSING_SOURCE when the computed source does not exist,
// or AMBIGUOUS_REF when an addon name exists as both a skill and an
// agent.
func (c *Catalog) Resolve(ref refs.Ref) (Entry, error) {
	if ref.IsBundle() {
		return Entry{}, kiterr.Newf(kiterr.ErrInternal,
			"bundle directive cannot be resolved as a component: %s", ref)
	}

	entry := Entry{Ref: ref}
	switch ref.Kind {
	case refs.KindRule:
		entry.Source = filepath.Join(c.root, RulesDir, ref.Name)
		entry.Target = filepath.Join(ClaudeDir, RulesDir, ref.Name)
	case refs.KindRoot:
		entry.Source = filepath.Join(c.root, RootFilesDir, ref.Name)
		entry.Target = ref.Name
	case refs.KindSettings:
		entry.Source = filepath.Join(c.root, SettingsDir, ref.Name)
		entry.Target = filepath.Join(ClaudeDir, ref.Name)
	case refs.KindPyproject:
		entry.Source = filepath.Join(c.root, PyprojectDir, ref.Name)
		entry.Target = PyprojectTarget
	case refs.KindCommand:
		entry.Source = filepath.Join(c.root, CommandsDir, ref.Name)
		entry.Target = filepath.Join(ClaudeDir, CommandsDir, ref.Name)
	case refs.KindHook:
		entry.Source = filepath.Join(c.root, HooksDir, ref.Name)
		entry.Target = filepath.Join(ClaudeDir, HooksDir, ref.Name)
	case refs.KindMCP:
		entry.Source = filepath.Join(c.root, MCPDir, ref.Name+".json")
		entry.Target = filepath.Join(ClaudeDir, MCPDir, ref.Name+".json")
	case refs.KindAddon:
		return c.resolveAddon(ref)
	default:
		return Entry{}, kiterr.Newf(kiterr.ErrInternal,
			"unhandled reference kind %q for %s", ref.Kind, ref)
	}

	if err := c.requireFile(entry.Source, ref); err != nil {
		return Entry{}, err
	}
	c.logger.Trace().
		Str("ref", ref.String()).
		Str("source", entry.Source).
		Str("target", entry.Target).
		Msg("Resolved component")
	return entry, nil
}

// resolveAddon disambiguates my:/external: references by probing the
// skills and agents namespaces. Skills are directories, agents are
// single markdown files. A name present in both namespaces is a hard
// error, never a silent pick.
func (c *Catalog) resolveAddon(ref refs.Ref) (Entry, error) {
	var skillDir, agentFile string
	switch ref.Namespace {
	case refs.NamespaceMy:
		skillDir = filepath.Join(c.root, SkillsDir, "my", ref.Name)
		agentFile = filepath.Join(c.root, AgentsDir, "my", ref.Name+".md")
	case refs.NamespaceExternal:
		skillDir = filepath.Join(c.root, SkillsDir, "external", ref.Name)
		agentFile = filepath.Join(c.root, AgentsDir, "external", ref.Name+".md")
	case refs.NamespaceScientific:
		// Only skills live under the scientific namespace.
		skillDir = filepath.Join(c.root, SkillsDir, "external", "scientific", ref.Name)
	default:
		return Entry{}, kiterr.Newf(kiterr.ErrInternal,
			"addon reference without namespace: %s", ref)
	}

	skillExists := isDir(skillDir)
	agentExists := agentFile != "" && isFile(agentFile)

	switch {
	case skillExists && agentExists:
		return Entry{}, kiterr.Newf(kiterr.ErrAmbiguousRef,
			"%s matches both a skill and an agent", ref).
			WithDetail("skill", skillDir).
			WithDetail("agent", agentFile)
	case skillExists:
		return Entry{
			Ref:    ref,
			Source: skillDir,
			Target: filepath.Join(ClaudeDir, SkillsDir, ref.Name),
			IsDir:  true,
		}, nil
	case agentExists:
		return Entry{
			Ref:    ref,
			Source: agentFile,
			Target: filepath.Join(ClaudeDir, AgentsDir, ref.Name+".md"),
		}, nil
	default:
		return Entry{}, kiterr.Newf(kiterr.ErrMissingSource,
			"no skill or agent found for %s", ref).
			WithDetail("probedSkill", skillDir).
			WithDetail("probedAgent", agentFile)
	}
}

// BundlePath returns the definition file for a bundle directive.
// Skill sub-bundles live at a parallel path under bundles/skills/.
func (c *Catalog) BundlePath(ref refs.Ref) (string, error) {
	switch ref.Kind {
	case refs.KindBundle:
		return filepath.Join(c.root, BundlesDir, ref.Name+".txt"), nil
	case refs.KindSkillBundle:
		return filepath.Join(c.root, BundlesDir, SkillsDir, ref.Name+".txt"), nil
	default:
		return "", kiterr.Newf(kiterr.ErrInternal,
			"not a bundle reference: %s", ref)
	}
}

// Duplicate reports two distinct references mapping onto one target
// path. At catalog level this is a content-repository defect; it is
// reported, never auto-corrected. (The resolver's last-wins dedup is a
// separate, intentional override mechanism.)
type Duplicate struct {
	Target string
	First  refs.Ref
	Second refs.Ref
}

// CheckTargets scans a resolved entry list for catalog-level target
// duplicates: same target path reached from refs with different
// sources. Pyproject variants are exempt, their shared target is by
// construction.
func (c *Catalog) CheckTargets(entries []Entry) []Duplicate {
	var dups []Duplicate
	seen := make(map[string]Entry)
	for _, e := range entries {
		prev, ok := seen[e.Target]
		if ok && prev.Source != e.Source &&
			!(prev.Ref.Kind == refs.KindPyproject && e.Ref.Kind == refs.KindPyproject) {
			dups = append(dups, Duplicate{
				Target: e.Target,
				First:  prev.Ref,
				Second: e.Ref,
			})
		}
		seen[e.Target] = e
	}
	return dups
}

func (c *Catalog) requireFile(path string, ref refs.Ref) error {
	if isFile(path) {
		return nil
	}
	return kiterr.Newf(kiterr.ErrMissingSource,
		"source file for %s does not exist", ref).
		WithDetail("path", path)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
