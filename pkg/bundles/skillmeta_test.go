package bundles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSkillFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte(content), 0644))
	return dir
}

func TestLoadSkillMeta(t *testing.T) {
	dir := writeSkillFile(t, "---\nname: pdf-skill\ndescription: Extracts tables from PDFs\n---\n\n# Usage\n")

	meta, err := LoadSkillMeta(dir)
	require.NoError(t, err)
	assert.Equal(t, "pdf-skill", meta.Name)
	assert.Equal(t, "Extracts tables from PDFs", meta.Description)
}

func TestLoadSkillMetaCRLF(t *testing.T) {
	dir := writeSkillFile(t, "---\r\nname: win\r\ndescription: crlf file\r\n---\r\n")

	meta, err := LoadSkillMeta(dir)
	require.NoError(t, err)
	assert.Equal(t, "win", meta.Name)
}

func TestLoadSkillMetaNoFrontMatter(t *testing.T) {
	dir := writeSkillFile(t, "# Just a heading\n")

	meta, err := LoadSkillMeta(dir)
	require.NoError(t, err)
	assert.Empty(t, meta.Name)
	assert.Empty(t, meta.Description)
}

func TestLoadSkillMetaUnterminated(t *testing.T) {
	dir := writeSkillFile(t, "---\nname: dangling\n")

	meta, err := LoadSkillMeta(dir)
	require.NoError(t, err)
	assert.Empty(t, meta.Name)
}

func TestLoadSkillMetaMissingFile(t *testing.T) {
	meta, err := LoadSkillMeta(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, meta.Name)
}

func TestLoadSkillMetaBadYAML(t *testing.T) {
	dir := writeSkillFile(t, "---\nname: [unclosed\n---\n")

	_, err := LoadSkillMeta(dir)
	assert.Error(t, err)
}
