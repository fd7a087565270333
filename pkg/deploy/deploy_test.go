package deploy_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/claude-kit/pkg/bundles"
	"github.com/arthur-debert/claude-kit/pkg/catalog"
	"github.com/arthur-debert/claude-kit/pkg/deploy"
	"github.com/arthur-debert/claude-kit/pkg/diff"
	"github.com/arthur-debert/claude-kit/pkg/envfile"
	"github.com/arthur-debert/claude-kit/pkg/kiterr"
	"github.com/arthur-debert/claude-kit/pkg/state"
	"github.com/arthur-debert/claude-kit/pkg/testutil"
	"github.com/arthur-debert/claude-kit/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planActions(t *testing.T, kit *testutil.Kit, target string, mode types.Mode, update bool, rawRefs ...string) []types.Action {
	t.Helper()
	cat, err := catalog.New(kit.Root)
	require.NoError(t, err)
	res, err := bundles.NewResolver(cat).ResolveRefs(rawRefs)
	require.NoError(t, err)
	prov, err := state.Detect(target, res.Components)
	require.NoError(t, err)
	actions, err := diff.Compute(target, res, prov, diff.Options{Update: update, Mode: mode})
	require.NoError(t, err)
	return actions
}

func apply(t *testing.T, target string, mode types.Mode, update bool, actions []types.Action) *deploy.Result {
	t.Helper()
	d, err := deploy.New(target, mode, update)
	require.NoError(t, err)
	result, err := d.Apply(actions)
	require.NoError(t, err)
	return result
}

func TestApplyCopyFile(t *testing.T) {
	kit := testutil.NewKit(t)
	kit.WriteFile("rules/python.md", "# python rules\n")
	target := testutil.NewTarget(t)

	actions := planActions(t, kit, target, types.ModeCopy, false, "rules/python.md")
	result := apply(t, target, types.ModeCopy, false, actions)
	require.Len(t, result.Applied, 1)

	data, err := os.ReadFile(filepath.Join(target, ".claude", "rules", "python.md"))
	require.NoError(t, err)
	assert.Equal(t, "# python rules\n", string(data))
}

func TestApplyCopyDirectory(t *testing.T) {
	kit := testutil.NewKit(t)
	kit.WriteSkill("my", "pdf", map[string]string{
		"SKILL.md":       "---\nname: pdf\n---\n",
		"scripts/run.py": "print(1)\n",
	})
	target := testutil.NewTarget(t)

	actions := planActions(t, kit, target, types.ModeCopy, false, "my:pdf")
	apply(t, target, types.ModeCopy, false, actions)

	skillDir := filepath.Join(target, ".claude", "skills", "pdf")
	data, err := os.ReadFile(filepath.Join(skillDir, "scripts", "run.py"))
	require.NoError(t, err)
	assert.Equal(t, "print(1)\n", string(data))
}

func TestApplySymlink(t *testing.T) {
	kit := testutil.NewKit(t)
	source := kit.WriteFile("rules/python.md", "x\n")
	target := testutil.NewTarget(t)

	actions := planActions(t, kit, target, types.ModeSymlink, false, "rules/python.md")
	apply(t, target, types.ModeSymlink, false, actions)

	link := filepath.Join(target, ".claude", "rules", "python.md")
	dest, err := os.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, source, dest)
}

func TestApplySecondRunIsNoop(t *testing.T) {
	kit := testutil.NewKit(t)
	kit.WriteFile("rules/python.md", "x\n")
	target := testutil.NewTarget(t)

	actions := planActions(t, kit, target, types.ModeCopy, false, "rules/python.md")
	apply(t, target, types.ModeCopy, false, actions)

	// Re-plan against the now-populated target: everything is
	// Unchanged and nothing gets applied.
	actions = planActions(t, kit, target, types.ModeCopy, false, "rules/python.md")
	require.Len(t, actions, 1)
	assert.Equal(t, types.ActionUnchanged, actions[0].Kind)

	result := apply(t, target, types.ModeCopy, false, actions)
	assert.Empty(t, result.Applied)
}

func TestApplyUpdateOverwrites(t *testing.T) {
	kit := testutil.NewKit(t)
	kit.WriteFile("rules/python.md", "v1\n")
	target := testutil.NewTarget(t)

	actions := planActions(t, kit, target, types.ModeCopy, false, "rules/python.md")
	apply(t, target, types.ModeCopy, false, actions)

	kit.WriteFile("rules/python.md", "v2\n")
	actions = planActions(t, kit, target, types.ModeCopy, true, "rules/python.md")
	require.Len(t, actions, 1)
	assert.Equal(t, types.ActionUpdate, actions[0].Kind)

	apply(t, target, types.ModeCopy, true, actions)
	data, err := os.ReadFile(filepath.Join(target, ".claude", "rules", "python.md"))
	require.NoError(t, err)
	assert.Equal(t, "v2\n", string(data))
}

func TestApplyCollision(t *testing.T) {
	kit := testutil.NewKit(t)
	kit.WriteFile("root/CLAUDE.md", "kit version\n")
	target := testutil.NewTarget(t)

	// A file the engine never deployed already sits at the target path.
	// State comes from a manifest that does not record it.
	stray := filepath.Join(target, "CLAUDE.md")
	require.NoError(t, os.WriteFile(stray, []byte("handwritten\n"), 0644))

	actions := []types.Action{{
		Kind:   types.ActionAdd,
		Ref:    "root/CLAUDE.md",
		Source: filepath.Join(kit.Root, "root", "CLAUDE.md"),
		Target: "CLAUDE.md",
		Reason: "not installed",
	}}

	d, err := deploy.New(target, types.ModeCopy, false)
	require.NoError(t, err)
	_, err = d.Apply(actions)
	require.Error(t, err)
	assert.Equal(t, kiterr.ErrTargetCollision, kiterr.GetErrorCode(err))

	// Nothing was touched.
	data, err := os.ReadFile(stray)
	require.NoError(t, err)
	assert.Equal(t, "handwritten\n", string(data))

	// The same plan under update overwrites instead.
	d, err = deploy.New(target, types.ModeCopy, true)
	require.NoError(t, err)
	_, err = d.Apply(actions)
	require.NoError(t, err)
	data, err = os.ReadFile(stray)
	require.NoError(t, err)
	assert.Equal(t, "kit version\n", string(data))
}

func TestApplyRemoveIsAdvisory(t *testing.T) {
	kit := testutil.NewKit(t)
	target := testutil.NewTarget(t)
	deployed := filepath.Join(target, ".claude", "rules", "old.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(deployed), 0755))
	require.NoError(t, os.WriteFile(deployed, []byte("old\n"), 0644))

	actions := []types.Action{{
		Kind:   types.ActionRemove,
		Ref:    "rules/old.md",
		Source: filepath.Join(kit.Root, "rules", "old.md"),
		Target: filepath.Join(".claude", "rules", "old.md"),
		Reason: "no longer in bundle",
	}}
	result := apply(t, target, types.ModeCopy, true, actions)
	assert.Empty(t, result.Applied)

	// The flagged file survives until prune.
	_, err := os.Stat(deployed)
	assert.NoError(t, err)
}

func TestApplyCollectsPlaceholders(t *testing.T) {
	kit := testutil.NewKit(t)
	kit.WriteFile("mcp/firecrawl.json",
		`{"env":{"FIRECRAWL_API_KEY":"${FIRECRAWL_API_KEY}","MODE":"${FIRECRAWL_MODE}"}}`)
	kit.WriteFile("rules/decoy.md", "${NOT_AN_MCP_FILE}\n")
	target := testutil.NewTarget(t)

	actions := planActions(t, kit, target, types.ModeCopy, false, "mcp:firecrawl", "rules/decoy.md")
	result := apply(t, target, types.ModeCopy, false, actions)

	assert.Equal(t, []string{"FIRECRAWL_API_KEY", "FIRECRAWL_MODE"}, result.EnvKeys)
	assert.Equal(t, []string{"FIRECRAWL_API_KEY", "FIRECRAWL_MODE"}, result.EnvKeysAdded)

	data, err := os.ReadFile(filepath.Join(target, envfile.FileName))
	require.NoError(t, err)
	assert.Equal(t, "FIRECRAWL_API_KEY=\nFIRECRAWL_MODE=\n", string(data))

	// Second run: components unchanged, placeholders still collected,
	// nothing new appended.
	actions = planActions(t, kit, target, types.ModeCopy, false, "mcp:firecrawl", "rules/decoy.md")
	result = apply(t, target, types.ModeCopy, false, actions)
	assert.Equal(t, []string{"FIRECRAWL_API_KEY", "FIRECRAWL_MODE"}, result.EnvKeys)
	assert.Empty(t, result.EnvKeysAdded)

	data, err = os.ReadFile(filepath.Join(target, envfile.FileName))
	require.NoError(t, err)
	assert.Equal(t, "FIRECRAWL_API_KEY=\nFIRECRAWL_MODE=\n", string(data))
}
