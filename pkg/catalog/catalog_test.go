package catalog_test

import (
	"path/filepath"
	"testing"

	"github.com/arthur-debert/claude-kit/pkg/catalog"
	"github.com/arthur-debert/claude-kit/pkg/kiterr"
	"github.com/arthur-debert/claude-kit/pkg/refs"
	"github.com/arthur-debert/claude-kit/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) refs.Ref {
	t.Helper()
	ref, err := refs.Parse(raw)
	require.NoError(t, err)
	return ref
}

func TestNew(t *testing.T) {
	kit := testutil.NewKit(t)
	cat, err := catalog.New(kit.Root)
	require.NoError(t, err)
	assert.Equal(t, kit.Root, cat.Root())
}

func TestNewMissingRoot(t *testing.T) {
	_, err := catalog.New(filepath.Join(t.TempDir(), "no-such-kit"))
	require.Error(t, err)
	assert.Equal(t, kiterr.ErrNotFound, kiterr.GetErrorCode(err))
}

func TestNewRootIsFile(t *testing.T) {
	kit := testutil.NewKit(t)
	path := kit.WriteFile("not-a-dir", "")
	_, err := catalog.New(path)
	require.Error(t, err)
	assert.Equal(t, kiterr.ErrInvalidInput, kiterr.GetErrorCode(err))
}

func TestResolve(t *testing.T) {
	kit := testutil.NewKit(t)
	kit.WriteFile("rules/python.md", "# python\n")
	kit.WriteFile("root/CLAUDE.md", "# claude\n")
	kit.WriteFile("settings/settings.json", "{}\n")
	kit.WriteFile("pyproject/quant.toml", "[tool]\n")
	kit.WriteFile("commands/review.md", "review\n")
	kit.WriteFile("hooks/session_start.py", "pass\n")
	kit.WriteFile("mcp/firecrawl.json", "{}\n")

	cat, err := catalog.New(kit.Root)
	require.NoError(t, err)

	tests := []struct {
		raw        string
		wantSource string // kit-relative
		wantTarget string
	}{
		{"rules/python.md", "rules/python.md", ".claude/rules/python.md"},
		{"root/CLAUDE.md", "root/CLAUDE.md", "CLAUDE.md"},
		{"settings/settings.json", "settings/settings.json", ".claude/settings.json"},
		{"pyproject/quant.toml", "pyproject/quant.toml", "pyproject.toml"},
		{"commands/review.md", "commands/review.md", ".claude/commands/review.md"},
		{"hooks/session_start.py", "hooks/session_start.py", ".claude/hooks/session_start.py"},
		{"mcp:firecrawl", "mcp/firecrawl.json", ".claude/mcp/firecrawl.json"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			entry, err := cat.Resolve(mustParse(t, tt.raw))
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(kit.Root, tt.wantSource), entry.Source)
			assert.Equal(t, filepath.FromSlash(tt.wantTarget), entry.Target)
			assert.False(t, entry.IsDir)
		})
	}
}

func TestResolveMissingSource(t *testing.T) {
	kit := testutil.NewKit(t)
	cat, err := catalog.New(kit.Root)
	require.NoError(t, err)

	for _, raw := range []string{"rules/absent.md", "mcp:absent", "my:absent"} {
		t.Run(raw, func(t *testing.T) {
			_, err := cat.Resolve(mustParse(t, raw))
			require.Error(t, err)
			assert.Equal(t, kiterr.ErrMissingSource, kiterr.GetErrorCode(err))
		})
	}
}

func TestResolveAddon(t *testing.T) {
	kit := testutil.NewKit(t)
	kit.WriteSkill("my", "pdf-skill", map[string]string{"SKILL.md": "---\nname: pdf\n---\n"})
	kit.WriteFile("agents/my/reviewer.md", "# reviewer\n")
	kit.WriteSkill("external", "context7", map[string]string{"SKILL.md": "x"})
	kit.WriteSkill("external/scientific", "mlflow", map[string]string{"SKILL.md": "x"})

	cat, err := catalog.New(kit.Root)
	require.NoError(t, err)

	t.Run("my skill is a directory", func(t *testing.T) {
		entry, err := cat.Resolve(mustParse(t, "my:pdf-skill"))
		require.NoError(t, err)
		assert.True(t, entry.IsDir)
		assert.Equal(t, filepath.Join(kit.Root, "skills", "my", "pdf-skill"), entry.Source)
		assert.Equal(t, filepath.Join(".claude", "skills", "pdf-skill"), entry.Target)
	})

	t.Run("my agent is a file", func(t *testing.T) {
		entry, err := cat.Resolve(mustParse(t, "my:reviewer"))
		require.NoError(t, err)
		assert.False(t, entry.IsDir)
		assert.Equal(t, filepath.Join(kit.Root, "agents", "my", "reviewer.md"), entry.Source)
		assert.Equal(t, filepath.Join(".claude", "agents", "reviewer.md"), entry.Target)
	})

	t.Run("external skill", func(t *testing.T) {
		entry, err := cat.Resolve(mustParse(t, "external:context7"))
		require.NoError(t, err)
		assert.True(t, entry.IsDir)
	})

	t.Run("scientific skill", func(t *testing.T) {
		entry, err := cat.Resolve(mustParse(t, "external:scientific/mlflow"))
		require.NoError(t, err)
		assert.True(t, entry.IsDir)
		assert.Equal(t, filepath.Join(kit.Root, "skills", "external", "scientific", "mlflow"), entry.Source)
		assert.Equal(t, filepath.Join(".claude", "skills", "mlflow"), entry.Target)
	})
}

func TestResolveAddonAmbiguous(t *testing.T) {
	kit := testutil.NewKit(t)
	kit.WriteSkill("my", "helper", map[string]string{"SKILL.md": "x"})
	kit.WriteFile("agents/my/helper.md", "# also an agent\n")

	cat, err := catalog.New(kit.Root)
	require.NoError(t, err)

	_, err = cat.Resolve(mustParse(t, "my:helper"))
	require.Error(t, err)
	assert.Equal(t, kiterr.ErrAmbiguousRef, kiterr.GetErrorCode(err))
}

func TestBundlePath(t *testing.T) {
	kit := testutil.NewKit(t)
	cat, err := catalog.New(kit.Root)
	require.NoError(t, err)

	path, err := cat.BundlePath(mustParse(t, "@minimal"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(kit.Root, "bundles", "minimal.txt"), path)

	path, err = cat.BundlePath(mustParse(t, "@skills/market-data"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(kit.Root, "bundles", "skills", "market-data.txt"), path)

	_, err = cat.BundlePath(mustParse(t, "rules/python.md"))
	assert.Error(t, err)
}

func TestCheckTargets(t *testing.T) {
	kit := testutil.NewKit(t)
	kit.WriteFile("root/settings.json", "root variant\n")
	kit.WriteFile("pyproject/quant.toml", "a\n")
	kit.WriteFile("pyproject/web.toml", "b\n")
	kit.WriteFile("rules/python.md", "x\n")

	cat, err := catalog.New(kit.Root)
	require.NoError(t, err)

	resolve := func(raw string) catalog.Entry {
		entry, err := cat.Resolve(mustParse(t, raw))
		require.NoError(t, err)
		return entry
	}

	t.Run("pyproject variants are exempt", func(t *testing.T) {
		dups := cat.CheckTargets([]catalog.Entry{
			resolve("pyproject/quant.toml"),
			resolve("pyproject/web.toml"),
		})
		assert.Empty(t, dups)
	})

	t.Run("distinct sources to one target are flagged", func(t *testing.T) {
		a := resolve("rules/python.md")
		b := resolve("root/settings.json")
		b.Target = a.Target // simulate a layout defect
		dups := cat.CheckTargets([]catalog.Entry{a, b})
		require.Len(t, dups, 1)
		assert.Equal(t, a.Target, dups[0].Target)
	})

	t.Run("same source repeated is not a duplicate", func(t *testing.T) {
		a := resolve("rules/python.md")
		dups := cat.CheckTargets([]catalog.Entry{a, a})
		assert.Empty(t, dups)
	})
}
