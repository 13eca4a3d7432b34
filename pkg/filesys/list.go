package filesys

import (
	"fmt"
	"io"

	. "github.com/weberc2/nachofs/pkg/types"
)

// List writes the root directory's entries to `w`.
func (fs *FileSystem) List(w io.Writer) error {
	return fs.ListDirectory(w, "/")
}

// ListDirectory writes the immediate entries of the directory at `path`.
func (fs *FileSystem) ListDirectory(w io.Writer, path string) error {
	dir, err := fs.resolve(SplitPath(path), false)
	if err != nil {
		return fmt.Errorf("listing `%s`: %w", path, err)
	}
	if err := dir.table.List(w); err != nil {
		return fmt.Errorf("listing `%s`: %w", path, err)
	}
	return nil
}

// RecurListDirectory writes the tree rooted at `path`, indented by depth.
func (fs *FileSystem) RecurListDirectory(w io.Writer, path string) error {
	dir, err := fs.resolve(SplitPath(path), false)
	if err != nil {
		return fmt.Errorf("listing `%s` recursively: %w", path, err)
	}
	if err := dir.table.RecursiveList(w, 0, fs.openTable); err != nil {
		return fmt.Errorf("listing `%s` recursively: %w", path, err)
	}
	return nil
}

// ReadDirectory returns the in-use entries of the directory at `path` in
// table order.
func (fs *FileSystem) ReadDirectory(path string) ([]DirEntry, error) {
	dir, err := fs.resolve(SplitPath(path), false)
	if err != nil {
		return nil, fmt.Errorf("reading directory `%s`: %w", path, err)
	}
	return dir.table.Entries(), nil
}
