package filesys

import (
	"fmt"
	"strings"

	"github.com/weberc2/nachofs/pkg/directory"
	"github.com/weberc2/nachofs/pkg/openfile"
	. "github.com/weberc2/nachofs/pkg/types"
)

// SplitPath breaks a slash-delimited path into its components. Empty
// components are dropped, so leading, trailing and doubled slashes don't
// matter.
func SplitPath(path string) []string {
	parts := strings.Split(path, "/")
	components := parts[:0]
	for _, part := range parts {
		if part != "" {
			components = append(components, part)
		}
	}
	return components
}

// resolved is a directory reached by walking a path, along with the file it
// was read from so changes can be written back.
type resolved struct {
	file       *openfile.OpenFile
	table      *directory.Table
	components []string
}

// name is the final component: the entry the caller is operating on.
func (r *resolved) name() string {
	return r.components[len(r.components)-1]
}

// resolve walks `components` from the root. With `creating` set it stops one
// short and returns the parent of the final component, which must exist.
// Otherwise it returns the directory named by the whole path. Every
// component walked through must be a directory.
func (fs *FileSystem) resolve(
	components []string,
	creating bool,
) (*resolved, error) {
	if err := fs.checkMounted(); err != nil {
		return nil, err
	}
	walk := len(components)
	if creating {
		if walk < 1 {
			return nil, fmt.Errorf("resolving empty path: %w", ErrInvalidPath)
		}
		walk--
	}

	file := fs.directoryFile
	table := directory.New(NumDirEntries)
	if err := table.FetchFrom(file); err != nil {
		return nil, fmt.Errorf("resolving `/`: %w", err)
	}

	for i, component := range components[:walk] {
		entry, found := table.Lookup(component)
		if !found || !entry.IsDirectory {
			return nil, fmt.Errorf(
				"resolving `/%s`: %w",
				strings.Join(components[:i+1], "/"),
				ErrNoSuchDirectory,
			)
		}

		var err error
		if file, table, err = fs.openDirectory(entry.Sector); err != nil {
			return nil, fmt.Errorf(
				"resolving `/%s`: %w",
				strings.Join(components[:i+1], "/"),
				err,
			)
		}
	}

	return &resolved{file: file, table: table, components: components}, nil
}

func (fs *FileSystem) openDirectory(
	sector Sector,
) (*openfile.OpenFile, *directory.Table, error) {
	file, err := openfile.New(fs.disk, sector)
	if err != nil {
		return nil, nil, fmt.Errorf("opening directory: %w", err)
	}
	table := directory.New(NumDirEntries)
	if err := table.FetchFrom(file); err != nil {
		return nil, nil, fmt.Errorf("opening directory: %w", err)
	}
	return file, table, nil
}

// openTable serves as the directory.Opener for recursive listings.
func (fs *FileSystem) openTable(sector Sector) (*directory.Table, error) {
	_, table, err := fs.openDirectory(sector)
	return table, err
}
