// Package testutil builds throwaway kit roots and target projects for
// tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Kit is a miniature content repository rooted in a temp directory.
type Kit struct {
	Root string
	t    *testing.T
}

// NewKit creates an empty kit root under t.TempDir().
func NewKit(t *testing.T) *Kit {
	t.Helper()
	return &Kit{Root: t.TempDir(), t: t}
}

// WriteFile writes a file at a kit-relative path, creating parents.
func (k *Kit) WriteFile(rel, content string) string {
	k.t.Helper()
	path := filepath.Join(k.Root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		k.t.Fatalf("mkdir for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		k.t.Fatalf("write %s: %v", rel, err)
	}
	return path
}

// WriteBundle writes bundles/<name>.txt with one line per entry.
func (k *Kit) WriteBundle(name string, lines ...string) {
	k.t.Helper()
	k.WriteFile(filepath.Join("bundles", name+".txt"), strings.Join(lines, "\n")+"\n")
}

// WriteSkillBundle writes bundles/skills/<name>.txt.
func (k *Kit) WriteSkillBundle(name string, lines ...string) {
	k.t.Helper()
	k.WriteFile(filepath.Join("bundles", "skills", name+".txt"), strings.Join(lines, "\n")+"\n")
}

// WriteSkill creates a skill directory under skills/<ns>/<name> with
// the given files (paths relative to the skill dir).
func (k *Kit) WriteSkill(ns, name string, files map[string]string) {
	k.t.Helper()
	for rel, content := range files {
		k.WriteFile(filepath.Join("skills", ns, name, rel), content)
	}
}

// NewTarget creates an empty target project directory.
func NewTarget(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}
