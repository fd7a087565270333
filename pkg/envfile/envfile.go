// Package envfile maintains the target project's .env.example: one
// `VAR_NAME=` line per environment variable that deployed MCP
// components require. Existing lines, values, and comments are never
// touched; merging only appends keys that are not yet present, so
// re-running a deployment never duplicates a key.
package envfile

import (
	"bufio"
	"os"
	"strings"

	"github.com/arthur-debert/claude-kit/pkg/kiterr"
)

// FileName is the conventional env template name.
const FileName = ".env.example"

// Merge appends the given keys to the env file at path, skipping any
// key already present. The file is created when absent. It returns the
// keys actually appended, in input order.
func Merge(path string, keys []string) ([]string, error) {
	existing, err := readKeys(path)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, key := range keys {
		if !existing[key] {
			missing = append(missing, key)
			existing[key] = true
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, kiterr.Wrap(err, kiterr.ErrFileCreate, "cannot open env file").
			WithDetail("path", path)
	}
	defer func() { _ = f.Close() }()

	for _, key := range missing {
		if _, err := f.WriteString(key + "=\n"); err != nil {
			return nil, kiterr.Wrap(err, kiterr.ErrFileWrite, "cannot append to env file").
				WithDetail("path", path)
		}
	}
	return missing, nil
}

// readKeys collects the keys of every KEY=... line in the file.
// Comments and malformed lines are ignored, not errors.
func readKeys(path string) (map[string]bool, error) {
	keys := make(map[string]bool)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return keys, nil
		}
		return nil, kiterr.Wrap(err, kiterr.ErrFileAccess, "cannot read env file").
			WithDetail("path", path)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if eq := strings.Index(line, "="); eq > 0 {
			keys[line[:eq]] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, kiterr.Wrap(err, kiterr.ErrFileAccess, "cannot read env file").
			WithDetail("path", path)
	}
	return keys, nil
}
