package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arthur-debert/claude-kit/pkg/kiterr"
	"github.com/arthur-debert/claude-kit/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleManifest() *Manifest {
	installed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return &Manifest{
		Bundle:      "quant",
		Mode:        types.ModeCopy,
		InstalledAt: installed,
		UpdatedAt:   installed.Add(time.Hour),
		Components: []Component{
			{
				Ref:    "rules/python.md",
				Source: "/kit/rules/python.md",
				Target: filepath.Join(".claude", "rules", "python.md"),
				SHA256: "abc123",
			},
			{
				Ref:    "my:pdf-skill",
				Source: "/kit/skills/my/pdf-skill",
				Target: filepath.Join(".claude", "skills", "pdf-skill"),
				IsDir:  true,
			},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	target := t.TempDir()
	m := sampleManifest()
	require.NoError(t, m.Save(target))

	loaded, err := Load(target)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, m.Bundle, loaded.Bundle)
	assert.Equal(t, m.Mode, loaded.Mode)
	assert.True(t, m.InstalledAt.Equal(loaded.InstalledAt))
	assert.True(t, m.UpdatedAt.Equal(loaded.UpdatedAt))
	assert.Equal(t, m.Components, loaded.Components)
}

func TestLoadAbsent(t *testing.T) {
	m, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestLoadMalformedJSON(t *testing.T) {
	target := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(target, Dir), 0755))
	require.NoError(t, os.WriteFile(Path(target), []byte("{not json"), 0644))

	_, err := Load(target)
	require.Error(t, err)
	assert.Equal(t, kiterr.ErrManifestParse, kiterr.GetErrorCode(err))
}

func TestLoadInvalidMode(t *testing.T) {
	target := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(target, Dir), 0755))
	require.NoError(t, os.WriteFile(Path(target),
		[]byte(`{"mode":"teleport","components":[]}`), 0644))

	_, err := Load(target)
	require.Error(t, err)
	assert.Equal(t, kiterr.ErrManifestParse, kiterr.GetErrorCode(err))
}

func TestLookup(t *testing.T) {
	m := sampleManifest()

	comp, ok := m.Lookup(filepath.Join(".claude", "skills", "pdf-skill"))
	require.True(t, ok)
	assert.Equal(t, "my:pdf-skill", comp.Ref)
	assert.True(t, comp.IsDir)

	_, ok = m.Lookup("nope")
	assert.False(t, ok)
}

func TestSaveOverwritesAtomically(t *testing.T) {
	target := t.TempDir()
	m := sampleManifest()
	require.NoError(t, m.Save(target))

	m.Bundle = "minimal"
	m.Components = m.Components[:1]
	require.NoError(t, m.Save(target))

	loaded, err := Load(target)
	require.NoError(t, err)
	assert.Equal(t, "minimal", loaded.Bundle)
	assert.Len(t, loaded.Components, 1)

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Join(target, Dir))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPendingRemovalRoundTrip(t *testing.T) {
	target := t.TempDir()
	m := sampleManifest()
	m.Components[1].PendingRemoval = true
	require.NoError(t, m.Save(target))

	loaded, err := Load(target)
	require.NoError(t, err)
	assert.False(t, loaded.Components[0].PendingRemoval)
	assert.True(t, loaded.Components[1].PendingRemoval)
}
