package filesys

import (
	"fmt"

	"github.com/weberc2/nachofs/pkg/directory"
	"github.com/weberc2/nachofs/pkg/filehdr"
	"github.com/weberc2/nachofs/pkg/openfile"
	. "github.com/weberc2/nachofs/pkg/types"
)

// Create makes a file of exactly `size` bytes at `path`. Its parent
// directory must already exist.
func (fs *FileSystem) Create(path string, size Byte) error {
	if size < 0 {
		return fmt.Errorf(
			"creating file `%s` of `%d` bytes: %w",
			path,
			size,
			ErrInvalidSize,
		)
	}
	if err := fs.create(SplitPath(path), size, false); err != nil {
		return fmt.Errorf("creating file `%s`: %w", path, err)
	}
	return nil
}

// CreateDirectory makes an empty directory at `path`. Missing intermediate
// directories are not created.
func (fs *FileSystem) CreateDirectory(path string) error {
	if err := fs.create(
		SplitPath(path),
		DirectoryFileSize,
		true,
	); err != nil {
		return fmt.Errorf("creating directory `%s`: %w", path, err)
	}
	return nil
}

func (fs *FileSystem) create(
	components []string,
	size Byte,
	isDirectory bool,
) error {
	parent, err := fs.resolve(components, true)
	if err != nil {
		return err
	}
	name := parent.name()
	if _, exists := parent.table.Find(name); exists {
		return ErrAlreadyExists
	}

	freeMap, err := fs.fetchBitmap()
	if err != nil {
		return err
	}
	sector, ok := freeMap.FindAndSet()
	if !ok {
		return ErrNoFreeSector
	}
	if err := parent.table.Add(name, sector, isDirectory); err != nil {
		return err
	}
	header := filehdr.New(fs.disk.Geometry())
	if err := header.Allocate(freeMap.Bitmap, size); err != nil {
		return err
	}

	// everything has succeeded in memory; flush header, contents, parent,
	// and finally the bitmap
	if err := header.WriteBack(fs.disk, sector); err != nil {
		return err
	}
	if isDirectory {
		file, err := openfile.New(fs.disk, sector)
		if err != nil {
			return err
		}
		if err := directory.New(NumDirEntries).WriteBack(file); err != nil {
			return err
		}
	}
	if err := parent.table.WriteBack(parent.file); err != nil {
		return err
	}
	return freeMap.WriteBack(fs.freeMapFile)
}

// Open returns a handle on the file at `path`.
func (fs *FileSystem) Open(path string) (*openfile.OpenFile, error) {
	parent, err := fs.resolve(SplitPath(path), true)
	if err != nil {
		return nil, fmt.Errorf("opening `%s`: %w", path, err)
	}
	sector, found := parent.table.Find(parent.name())
	if !found {
		return nil, fmt.Errorf("opening `%s`: %w", path, ErrNotFound)
	}
	file, err := openfile.New(fs.disk, sector)
	if err != nil {
		return nil, fmt.Errorf("opening `%s`: %w", path, err)
	}
	return file, nil
}

// Stat returns the directory entry for `path`.
func (fs *FileSystem) Stat(path string) (DirEntry, error) {
	parent, err := fs.resolve(SplitPath(path), true)
	if err != nil {
		return DirEntry{}, fmt.Errorf("stat `%s`: %w", path, err)
	}
	entry, found := parent.table.Lookup(parent.name())
	if !found {
		return DirEntry{}, fmt.Errorf("stat `%s`: %w", path, ErrNotFound)
	}
	return entry, nil
}
