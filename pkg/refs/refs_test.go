package refs

import (
	"testing"

	"github.com/arthur-debert/claude-kit/pkg/kiterr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		wantKind      Kind
		wantNamespace Namespace
		wantName      string
	}{
		{
			name:     "rule",
			raw:      "rules/python.md",
			wantKind: KindRule,
			wantName: "python.md",
		},
		{
			name:     "root file",
			raw:      "root/CLAUDE.md",
			wantKind: KindRoot,
			wantName: "CLAUDE.md",
		},
		{
			name:     "settings",
			raw:      "settings/settings.json",
			wantKind: KindSettings,
			wantName: "settings.json",
		},
		{
			name:     "pyproject",
			raw:      "pyproject/quant.toml",
			wantKind: KindPyproject,
			wantName: "quant.toml",
		},
		{
			name:     "command",
			raw:      "commands/review.md",
			wantKind: KindCommand,
			wantName: "review.md",
		},
		{
			name:     "hook with extension",
			raw:      "hooks/session_start.py",
			wantKind: KindHook,
			wantName: "session_start.py",
		},
		{
			name:          "my addon",
			raw:           "my:pdf-skill",
			wantKind:      KindAddon,
			wantNamespace: NamespaceMy,
			wantName:      "pdf-skill",
		},
		{
			name:          "external addon",
			raw:           "external:context7",
			wantKind:      KindAddon,
			wantNamespace: NamespaceExternal,
			wantName:      "context7",
		},
		{
			name:          "external scientific addon",
			raw:           "external:scientific/mlflow",
			wantKind:      KindAddon,
			wantNamespace: NamespaceScientific,
			wantName:      "mlflow",
		},
		{
			name:     "mcp",
			raw:      "mcp:firecrawl",
			wantKind: KindMCP,
			wantName: "firecrawl",
		},
		{
			name:     "bundle",
			raw:      "@minimal",
			wantKind: KindBundle,
			wantName: "minimal",
		},
		{
			name:     "skill bundle",
			raw:      "@skills/market-data",
			wantKind: KindSkillBundle,
			wantName: "market-data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.raw, ref.Raw)
			assert.Equal(t, tt.wantKind, ref.Kind)
			assert.Equal(t, tt.wantNamespace, ref.Namespace)
			assert.Equal(t, tt.wantName, ref.Name)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantCode kiterr.ErrorCode
	}{
		{name: "unknown prefix", raw: "bogus/thing.md", wantCode: kiterr.ErrUnknownPrefix},
		{name: "bare name", raw: "python", wantCode: kiterr.ErrUnknownPrefix},
		{name: "rule without md", raw: "rules/python.txt", wantCode: kiterr.ErrUnknownPrefix},
		{name: "settings without json", raw: "settings/foo.yaml", wantCode: kiterr.ErrUnknownPrefix},
		{name: "pyproject without toml", raw: "pyproject/foo.cfg", wantCode: kiterr.ErrUnknownPrefix},
		{name: "command without md", raw: "commands/go", wantCode: kiterr.ErrUnknownPrefix},
		{name: "empty bundle name", raw: "@", wantCode: kiterr.ErrInvalidInput},
		{name: "empty mcp name", raw: "mcp:", wantCode: kiterr.ErrInvalidInput},
		{name: "path traversal", raw: "rules/../secrets.md", wantCode: kiterr.ErrInvalidInput},
		{name: "absolute name", raw: "my:/etc/passwd", wantCode: kiterr.ErrInvalidInput},
		{name: "empty string", raw: "", wantCode: kiterr.ErrUnknownPrefix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, kiterr.GetErrorCode(err), "error was: %v", err)
		})
	}
}

func TestIsBundle(t *testing.T) {
	bundle, err := Parse("@minimal")
	require.NoError(t, err)
	assert.True(t, bundle.IsBundle())

	skillBundle, err := Parse("@skills/market-data")
	require.NoError(t, err)
	assert.True(t, skillBundle.IsBundle())

	rule, err := Parse("rules/python.md")
	require.NoError(t, err)
	assert.False(t, rule.IsBundle())
}
