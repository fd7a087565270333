// Package types holds the small shared value types passed between the
// resolver, differ, and deployer. Keeping them here avoids import
// cycles between those packages.
package types

// Mode selects how components are materialized in the target project.
type Mode string

const (
	// ModeCopy byte-copies sources into the target (the default).
	ModeCopy Mode = "copy"

	// ModeSymlink links targets back to the live kit sources.
	ModeSymlink Mode = "symlink"
)

// Valid reports whether m is one of the two supported modes.
func (m Mode) Valid() bool {
	return m == ModeCopy || m == ModeSymlink
}

// ActionKind classifies what the deployer must do for one component.
type ActionKind string

const (
	// ActionAdd deploys a component not present in the target.
	ActionAdd ActionKind = "add"

	// ActionUpdate re-deploys a component whose target content differs
	// from the current source. Never produced in symlink mode.
	ActionUpdate ActionKind = "update"

	// ActionUnchanged means the target already matches the source.
	ActionUnchanged ActionKind = "unchanged"

	// ActionRemove flags a component recorded in the manifest but
	// absent from the newly resolved bundle. Advisory: nothing is
	// deleted without the explicit prune confirmation step.
	ActionRemove ActionKind = "remove"
)

// Action is one step of the plan the differ hands to the deployer.
// The same value is printed verbatim for diff output.
type Action struct {
	Kind ActionKind

	// Ref is the component reference this action applies to.
	Ref string

	// Source is the absolute resolved source path.
	Source string

	// Target is the target path relative to the project directory.
	Target string

	// IsDir marks directory components (skills).
	IsDir bool

	// Reason is a short human-readable note shown in diff output
	// (e.g. "content differs", "not installed").
	Reason string
}

// Mutates reports whether executing the action touches the filesystem.
// Remove is advisory and handled only by the prune step.
func (a Action) Mutates() bool {
	return a.Kind == ActionAdd || a.Kind == ActionUpdate
}
