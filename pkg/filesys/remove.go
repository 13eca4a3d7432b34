package filesys

import (
	"fmt"
	"strings"

	"github.com/weberc2/nachofs/pkg/directory"
	"github.com/weberc2/nachofs/pkg/filehdr"
	. "github.com/weberc2/nachofs/pkg/types"
)

// Remove deletes the entry at `path` and frees its header and data
// sectors. Removing a directory this way doesn't touch its children; use
// RecurRemoveDirectory for that.
func (fs *FileSystem) Remove(path string) error {
	if err := fs.remove(SplitPath(path)); err != nil {
		return fmt.Errorf("removing `%s`: %w", path, err)
	}
	return nil
}

func (fs *FileSystem) remove(components []string) error {
	parent, err := fs.resolve(components, true)
	if err != nil {
		return err
	}
	name := parent.name()
	sector, found := parent.table.Find(name)
	if !found {
		return ErrNotFound
	}

	header := filehdr.New(fs.disk.Geometry())
	if err := header.FetchFrom(fs.disk, sector); err != nil {
		return err
	}
	freeMap, err := fs.fetchBitmap()
	if err != nil {
		return err
	}
	header.Deallocate(freeMap.Bitmap)
	freeMap.Clear(sector)
	if err := parent.table.Remove(name); err != nil {
		return err
	}

	if err := freeMap.WriteBack(fs.freeMapFile); err != nil {
		return err
	}
	return parent.table.WriteBack(parent.file)
}

// RecurRemoveDirectory removes the directory at `path` along with
// everything beneath it, children first in table order.
func (fs *FileSystem) RecurRemoveDirectory(path string) error {
	if err := fs.removeTree(SplitPath(path), 0); err != nil {
		return fmt.Errorf("removing directory `%s`: %w", path, err)
	}
	return nil
}

func (fs *FileSystem) removeTree(components []string, depth int) error {
	if depth >= directory.MaxDepth {
		return fmt.Errorf(
			"removing `/%s`: %w",
			strings.Join(components, "/"),
			ErrTooDeep,
		)
	}

	parent, err := fs.resolve(components, true)
	if err != nil {
		return err
	}
	entry, found := parent.table.Lookup(parent.name())
	if !found {
		return ErrNotFound
	}
	if !entry.IsDirectory {
		return ErrNotADirectory
	}

	_, table, err := fs.openDirectory(entry.Sector)
	if err != nil {
		return err
	}
	for _, child := range table.Entries() {
		childComponents := append(
			components[:len(components):len(components)],
			child.Name,
		)
		if child.IsDirectory {
			err = fs.removeTree(childComponents, depth+1)
		} else {
			err = fs.remove(childComponents)
		}
		if err != nil {
			return fmt.Errorf("removing `%s`: %w", child.Name, err)
		}
	}
	return fs.remove(components)
}
