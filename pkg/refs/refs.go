// Package refs implements the closed component-reference grammar.
//
// Every deployable artifact in a kit is identified by a short textual
// reference such as "rules/python.md", "my:pdf-skill", or
// "mcp:firecrawl". Parsing happens in exactly one place, Parse, which
// produces a tagged Ref value so the rest of the engine can switch on
// Kind instead of scattering string-prefix comparisons.
package refs

import (
	"strings"

	"github.com/arthur-debert/claude-kit/pkg/kiterr"
)

// Kind is the closed set of reference variants.
type Kind string

const (
	KindRule      Kind = "rule"
	KindRoot      Kind = "root"
	KindSettings  Kind = "settings"
	KindPyproject Kind = "pyproject"
	KindCommand   Kind = "command"
	KindHook      Kind = "hook"

	// KindAddon covers my:/external: references. Whether the name
	// denotes a skill or an agent is decided by the catalog, which
	// probes both namespaces (a hit in both is AMBIGUOUS_REF).
	KindAddon Kind = "addon"

	KindMCP Kind = "mcp"

	// Bundle kinds are inheritance directives, not deployable
	// components.
	KindBundle      Kind = "bundle"
	KindSkillBundle Kind = "skill-bundle"
)

// Namespace qualifies addon references.
type Namespace string

const (
	NamespaceNone       Namespace = ""
	NamespaceMy         Namespace = "my"
	NamespaceExternal   Namespace = "external"
	NamespaceScientific Namespace = "external/scientific"
)

// Ref is one parsed component reference.
type Ref struct {
	// Raw is the reference exactly as written in the bundle.
	Raw string

	Kind      Kind
	Namespace Namespace

	// Name is the remainder after the prefix: "python.md" for
	// "rules/python.md", "pdf-skill" for "my:pdf-skill".
	Name string
}

// String returns the raw reference text.
func (r Ref) String() string { return r.Raw }

// IsBundle reports whether the reference is an inheritance directive.
func (r Ref) IsBundle() bool {
	return r.Kind == KindBundle || r.Kind == KindSkillBundle
}

// Parse interprets a single reference against the closed prefix
// grammar. Anything outside the grammar fails with UNKNOWN_PREFIX.
func Parse(raw string) (Ref, error) {
	ref := Ref{Raw: raw}

	switch {
	case strings.HasPrefix(raw, "@skills/"):
		ref.Kind = KindSkillBundle
		ref.Name = strings.TrimPrefix(raw, "@skills/")

	case strings.HasPrefix(raw, "@"):
		ref.Kind = KindBundle
		ref.Name = strings.TrimPrefix(raw, "@")

	case strings.HasPrefix(raw, "rules/"):
		ref.Kind = KindRule
		ref.Name = strings.TrimPrefix(raw, "rules/")
		if !strings.HasSuffix(ref.Name, ".md") {
			return ref, kiterr.Newf(kiterr.ErrUnknownPrefix,
				"rule reference must end in .md: %s", raw)
		}

	case strings.HasPrefix(raw, "root/"):
		ref.Kind = KindRoot
		ref.Name = strings.TrimPrefix(raw, "root/")

	case strings.HasPrefix(raw, "settings/"):
		ref.Kind = KindSettings
		ref.Name = strings.TrimPrefix(raw, "settings/")
		if !strings.HasSuffix(ref.Name, ".json") {
			return ref, kiterr.Newf(kiterr.ErrUnknownPrefix,
				"settings reference must end in .json: %s", raw)
		}

	case strings.HasPrefix(raw, "pyproject/"):
		ref.Kind = KindPyproject
		ref.Name = strings.TrimPrefix(raw, "pyproject/")
		if !strings.HasSuffix(ref.Name, ".toml") {
			return ref, kiterr.Newf(kiterr.ErrUnknownPrefix,
				"pyproject reference must end in .toml: %s", raw)
		}

	case strings.HasPrefix(raw, "commands/"):
		ref.Kind = KindCommand
		ref.Name = strings.TrimPrefix(raw, "commands/")
		if !strings.HasSuffix(ref.Name, ".md") {
			return ref, kiterr.Newf(kiterr.ErrUnknownPrefix,
				"command reference must end in .md: %s", raw)
		}

	case strings.HasPrefix(raw, "hooks/"):
		ref.Kind = KindHook
		ref.Name = strings.TrimPrefix(raw, "hooks/")

	case strings.HasPrefix(raw, "my:"):
		ref.Kind = KindAddon
		ref.Namespace = NamespaceMy
		ref.Name = strings.TrimPrefix(raw, "my:")

	case strings.HasPrefix(raw, "external:scientific/"):
		ref.Kind = KindAddon
		ref.Namespace = NamespaceScientific
		ref.Name = strings.TrimPrefix(raw, "external:scientific/")

	case strings.HasPrefix(raw, "external:"):
		ref.Kind = KindAddon
		ref.Namespace = NamespaceExternal
		ref.Name = strings.TrimPrefix(raw, "external:")

	case strings.HasPrefix(raw, "mcp:"):
		ref.Kind = KindMCP
		ref.Name = strings.TrimPrefix(raw, "mcp:")

	default:
		return ref, kiterr.Newf(kiterr.ErrUnknownPrefix,
			"unrecognized component reference: %s", raw)
	}

	if err := validateName(raw, ref.Name); err != nil {
		return ref, err
	}
	return ref, nil
}

// validateName rejects empty names and path escapes. References are
// user input spliced into filesystem paths, so ".." and absolute
// segments are refused outright.
func validateName(raw, name string) error {
	if name == "" {
		return kiterr.Newf(kiterr.ErrInvalidInput,
			"component reference has empty name: %s", raw)
	}
	if strings.HasPrefix(name, "/") {
		return kiterr.Newf(kiterr.ErrInvalidInput,
			"component reference must be relative: %s", raw)
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." || seg == "." || seg == "" {
			return kiterr.Newf(kiterr.ErrInvalidInput,
				"component reference contains invalid path segment: %s", raw)
		}
	}
	return nil
}
