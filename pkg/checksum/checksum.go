// Package checksum provides the content hashing used by the differ
// and the manifest to decide whether a deployed component still
// matches its source.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// File returns the hex-encoded SHA-256 of a file's contents.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Tree returns a single hex-encoded SHA-256 over a directory tree:
// every regular file's relative path and content hash, in sorted
// order. Two trees with identical layout and contents hash equal
// regardless of walk order or timestamps.
func Tree(root string) (string, error) {
	type fileHash struct {
		rel string
		sum string
	}
	var files []fileHash

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		sum, err := File(path)
		if err != nil {
			return err
		}
		files = append(files, fileHash{rel: filepath.ToSlash(rel), sum: sum})
		return nil
	})
	if err != nil {
		return "", err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].rel < files[j].rel })

	h := sha256.New()
	for _, f := range files {
		fmt.Fprintf(h, "%s\x00%s\x00", f.rel, f.sum)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Path hashes either a file or a directory tree, depending on what the
// path points at.
func Path(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return Tree(path)
	}
	return File(path)
}
