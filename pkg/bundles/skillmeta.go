package bundles

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SkillMeta is the YAML front matter of a skill's SKILL.md.
type SkillMeta struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// LoadSkillMeta reads the front matter from <skillDir>/SKILL.md.
// A missing SKILL.md or absent front matter is not an error; the
// returned metadata is simply empty.
func LoadSkillMeta(skillDir string) (SkillMeta, error) {
	var meta SkillMeta

	data, err := os.ReadFile(filepath.Join(skillDir, "SKILL.md"))
	if err != nil {
		if os.IsNotExist(err) {
			return meta, nil
		}
		return meta, err
	}

	front, ok := frontMatter(string(data))
	if !ok {
		return meta, nil
	}
	if err := yaml.Unmarshal([]byte(front), &meta); err != nil {
		return SkillMeta{}, err
	}
	return meta, nil
}

// frontMatter extracts the text between leading "---" fences.
func frontMatter(content string) (string, bool) {
	content = strings.TrimPrefix(content, "\ufeff")
	if !strings.HasPrefix(content, "---\n") && !strings.HasPrefix(content, "---\r\n") {
		return "", false
	}
	rest := strings.TrimPrefix(strings.TrimPrefix(content, "---\r\n"), "---\n")
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}
