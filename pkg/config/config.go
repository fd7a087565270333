// Package config locates the kit root and the engine's few knobs.
//
// Precedence: the --kit-root flag, then $CLAUDE_KIT_ROOT, then the
// config file at <xdg-config>/claude-kit/config.toml. There is no
// implicit default: the engine refuses to guess where the content
// repository lives.
package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/arthur-debert/claude-kit/pkg/kiterr"
	"github.com/arthur-debert/claude-kit/pkg/types"
	toml "github.com/pelletier/go-toml/v2"
)

// EnvKitRoot overrides the configured kit root.
const EnvKitRoot = "CLAUDE_KIT_ROOT"

// ConfigFileName is the per-user config file under the XDG config dir.
const (
	ConfigDirName  = "claude-kit"
	ConfigFileName = "config.toml"
)

// Config is the engine configuration.
type Config struct {
	// KitRoot is the content repository the catalog reads from.
	KitRoot string `toml:"kit_root"`

	// DefaultMode is the deployment mode used when no flag is given.
	// Defaults to copy.
	DefaultMode types.Mode `toml:"default_mode"`
}

// FilePath returns the user config file location.
func FilePath() string {
	return filepath.Join(xdg.ConfigHome, ConfigDirName, ConfigFileName)
}

// Load resolves the configuration. flagRoot is the --kit-root value,
// empty when the flag was not given.
func Load(flagRoot string) (*Config, error) {
	cfg := &Config{DefaultMode: types.ModeCopy}

	if path := FilePath(); fileExists(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, kiterr.Wrap(err, kiterr.ErrConfigLoad, "cannot read config file").
				WithDetail("path", path)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, kiterr.Wrap(err, kiterr.ErrConfigParse, "cannot parse config file").
				WithDetail("path", path)
		}
		if cfg.DefaultMode == "" {
			cfg.DefaultMode = types.ModeCopy
		}
		if !cfg.DefaultMode.Valid() {
			return nil, kiterr.Newf(kiterr.ErrConfigParse,
				"invalid default_mode %q (want copy or symlink)", cfg.DefaultMode).
				WithDetail("path", path)
		}
	}

	if env := os.Getenv(EnvKitRoot); env != "" {
		cfg.KitRoot = env
	}
	if flagRoot != "" {
		cfg.KitRoot = flagRoot
	}

	if cfg.KitRoot == "" {
		return nil, kiterr.Newf(kiterr.ErrConfigLoad,
			"no kit root configured: pass --kit-root, set %s, or add kit_root to %s",
			EnvKitRoot, FilePath())
	}
	return cfg, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
