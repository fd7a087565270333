package deploy

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/arthur-debert/synthfs/pkg/synthfs"
	"github.com/arthur-debert/synthfs/pkg/synthfs/core"
	"github.com/arthur-debert/synthfs/pkg/synthfs/operations"
)

// Constructors lowering engine actions to synthfs operations. synthfs
// works against a filesystem rooted at "/", so absolute paths are
// converted to root-relative before building each operation.

func newMkdirOp(target string, mode fs.FileMode) (synthfs.Operation, error) {
	relPath, err := filepath.Rel("/", target)
	if err != nil {
		return nil, fmt.Errorf("failed to convert path %s: %w", target, err)
	}

	opID := core.OperationID(fmt.Sprintf("create-dir-%s", target))
	createOp := operations.NewCreateDirectoryOperation(opID, relPath)
	createOp.SetItem(&directoryItem{
		path: relPath,
		mode: mode,
	})
	return synthfs.NewOperationsPackageAdapter(createOp), nil
}

func newCopyOp(source, target string) (synthfs.Operation, error) {
	relSource, err := filepath.Rel("/", source)
	if err != nil {
		return nil, fmt.Errorf("failed to convert source path %s: %w", source, err)
	}
	relTarget, err := filepath.Rel("/", target)
	if err != nil {
		return nil, fmt.Errorf("failed to convert target path %s: %w", target, err)
	}

	opID := core.OperationID(fmt.Sprintf("copy-%s-to-%s", filepath.Base(source), target))
	copyOp := operations.NewCopyOperation(opID, relTarget)
	copyOp.SetPaths(relSource, relTarget)
	return synthfs.NewOperationsPackageAdapter(copyOp), nil
}

// newSymlinkOp links target at the source path. Both paths are passed
// root-relative (synthfs rejoins them onto its "/" root), so the
// deployed link's destination ends up absolute and can be checked
// against the resolved source without knowing the working directory.
func newSymlinkOp(source, target string) (synthfs.Operation, error) {
	relSource, err := filepath.Rel("/", source)
	if err != nil {
		return nil, fmt.Errorf("failed to convert source path %s: %w", source, err)
	}
	relTarget, err := filepath.Rel("/", target)
	if err != nil {
		return nil, fmt.Errorf("failed to convert target path %s: %w", target, err)
	}

	opID := core.OperationID(fmt.Sprintf("symlink-%s", target))
	symlinkOp := operations.NewCreateSymlinkOperation(opID, relTarget)
	symlinkOp.SetDescriptionDetail("target", relSource)
	symlinkOp.SetItem(&symlinkItem{
		path:   relTarget,
		target: relSource,
	})
	return synthfs.NewOperationsPackageAdapter(symlinkOp), nil
}

// Item types backing the synthfs operations.

type directoryItem struct {
	path string
	mode fs.FileMode
}

func (d *directoryItem) Path() string       { return d.path }
func (d *directoryItem) Type() string       { return "directory" }
func (d *directoryItem) Mode() fs.FileMode  { return d.mode }
func (d *directoryItem) IsDir() bool        { return true }
func (d *directoryItem) ModTime() time.Time { return time.Now() }
func (d *directoryItem) Size() int64        { return 0 }

type symlinkItem struct {
	path   string
	target string
}

func (s *symlinkItem) Path() string   { return s.path }
func (s *symlinkItem) Type() string   { return "symlink" }
func (s *symlinkItem) Target() string { return s.target }
