// Package bundles expands bundle definitions into flat, deduplicated
// component lists.
//
// A bundle is a text file of component references and inheritance
// directives, one per line. Resolution splices @name and @skills/name
// directives recursively, validates every plain reference against the
// catalog, detects inheritance cycles, and deduplicates entries that
// map to the same target path (last entry in resolution order wins).
package bundles

import (
	"bufio"
	"os"
	"strings"

	"github.com/arthur-debert/claude-kit/pkg/catalog"
	"github.com/arthur-debert/claude-kit/pkg/kiterr"
	"github.com/arthur-debert/claude-kit/pkg/logging"
	"github.com/arthur-debert/claude-kit/pkg/refs"
	"github.com/rs/zerolog"
)

// Override records a target-path collision resolved by the last-wins
// policy. Collisions are legal (child bundles override parents) but
// are always surfaced in diff output.
type Override struct {
	Target string
	Winner refs.Ref
	Loser  refs.Ref
}

// Resolved is the flattened output of bundle expansion.
type Resolved struct {
	// Components is ordered and deduplicated by target path.
	Components []catalog.Entry

	// Overrides lists every dedup decision made, in the order the
	// collisions were discovered.
	Overrides []Override

	// Duplicates are catalog-level defects found during expansion:
	// distinct refs with distinct sources mapping onto one target.
	// Reported to the user, never auto-corrected.
	Duplicates []catalog.Duplicate
}

// Targets returns the set of target paths in the resolved list.
func (r Resolved) Targets() map[string]catalog.Entry {
	m := make(map[string]catalog.Entry, len(r.Components))
	for _, e := range r.Components {
		m[e.Target] = e
	}
	return m
}

// Resolver expands bundles against one catalog.
type Resolver struct {
	cat    *catalog.Catalog
	logger zerolog.Logger
}

// NewResolver creates a Resolver backed by the given catalog.
func NewResolver(cat *catalog.Catalog) *Resolver {
	return &Resolver{
		cat:    cat,
		logger: logging.GetLogger("bundles.resolver"),
	}
}

// ResolveBundle fully expands the named bundle.
func (r *Resolver) ResolveBundle(name string) (Resolved, error) {
	ref, err := refs.Parse("@" + name)
	if err != nil {
		return Resolved{}, err
	}
	exp := &expansion{resolver: r, expanding: make(map[string]bool)}
	if err := exp.expandBundle(ref); err != nil {
		return Resolved{}, err
	}
	return r.finish(exp.entries), nil
}

// ResolveRefs expands an ad-hoc reference list (--add). Bundle
// directives are permitted and spliced the same way as bundle lines.
func (r *Resolver) ResolveRefs(rawRefs []string) (Resolved, error) {
	exp := &expansion{resolver: r, expanding: make(map[string]bool)}
	for _, raw := range rawRefs {
		ref, err := refs.Parse(raw)
		if err != nil {
			return Resolved{}, err
		}
		if err := exp.expandRef(ref); err != nil {
			return Resolved{}, err
		}
	}
	return r.finish(exp.entries), nil
}

// finish runs the post-expansion passes: catalog duplicate detection
// on the raw entry list, then last-wins dedup.
func (r *Resolver) finish(entries []catalog.Entry) Resolved {
	res := dedupe(entries)
	res.Duplicates = r.cat.CheckTargets(entries)
	return res
}

// expansion tracks one resolution run: the accumulated entry list, the
// set of bundles currently being expanded (cycle detection), and the
// expansion stack (cycle path reporting).
type expansion struct {
	resolver  *Resolver
	entries   []catalog.Entry
	expanding map[string]bool
	stack     []string
}

func (e *expansion) expandRef(ref refs.Ref) error {
	if ref.IsBundle() {
		return e.expandBundle(ref)
	}
	entry, err := e.resolver.cat.Resolve(ref)
	if err != nil {
		return err
	}
	e.entries = append(e.entries, entry)
	return nil
}

func (e *expansion) expandBundle(ref refs.Ref) error {
	key := ref.String()
	if e.expanding[key] {
		cycle := append(append([]string{}, e.stack...), key)
		return kiterr.Newf(kiterr.ErrCyclicBundle,
			"bundle inheritance cycle: %s", strings.Join(cycle, " -> "))
	}

	path, err := e.resolver.cat.BundlePath(ref)
	if err != nil {
		return err
	}
	lines, err := readBundleFile(path, ref)
	if err != nil {
		return err
	}

	e.expanding[key] = true
	e.stack = append(e.stack, key)
	defer func() {
		delete(e.expanding, key)
		e.stack = e.stack[:len(e.stack)-1]
	}()

	e.resolver.logger.Debug().
		Str("bundle", key).
		Int("lines", len(lines)).
		Msg("Expanding bundle")

	for _, line := range lines {
		lineRef, err := refs.Parse(line)
		if err != nil {
			return err
		}
		if err := e.expandRef(lineRef); err != nil {
			return err
		}
	}
	return nil
}

// readBundleFile reads a bundle definition, skipping blank lines and
// #-comments. A missing file is BUNDLE_NOT_FOUND.
func readBundleFile(path string, ref refs.Ref) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, kiterr.Newf(kiterr.ErrBundleNotFound,
				"bundle %s not found", ref).
				WithDetail("path", path)
		}
		return nil, kiterr.Wrapf(err, kiterr.ErrFileAccess,
			"cannot read bundle %s", ref)
	}
	defer func() { _ = f.Close() }()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, kiterr.Wrapf(err, kiterr.ErrFileAccess,
			"cannot read bundle %s", ref)
	}
	return lines, nil
}

// dedupe applies the last-wins policy: when several entries map to one
// target path, the final occurrence in resolution order survives and
// keeps its own position. Every displaced entry is recorded as an
// Override.
func dedupe(entries []catalog.Entry) Resolved {
	lastIndex := make(map[string]int, len(entries))
	for i, e := range entries {
		lastIndex[e.Target] = i
	}

	var res Resolved
	lastSeen := make(map[string]catalog.Entry)
	for i, e := range entries {
		// The same ref appearing twice (a bundle listed by two parents,
		// say) is collapsed silently; only genuinely different refs
		// fighting over one target are worth flagging.
		if prev, ok := lastSeen[e.Target]; ok && prev.Ref.Raw != e.Ref.Raw {
			res.Overrides = append(res.Overrides, Override{
				Target: e.Target,
				Winner: e.Ref,
				Loser:  prev.Ref,
			})
		}
		lastSeen[e.Target] = e
		if lastIndex[e.Target] == i {
			res.Components = append(res.Components, e)
		}
	}
	return res
}
