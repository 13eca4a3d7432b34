// Package filesys implements a hierarchical file system over a simulated
// disk. Sector 0 holds the header of the free-sector bitmap file and sector 1
// holds the header of the root directory file; every other directory is an
// ordinary file whose contents are a directory table.
//
// Mutating operations work on in-memory copies of the bitmap and the
// affected directory tables. The copies are written back only once every
// step has succeeded, with the bitmap written last; on failure they are
// discarded and the disk is left as it was.
//
// A FileSystem is not safe for concurrent use.
package filesys

import (
	"fmt"
	"io"
	"log"

	"github.com/weberc2/nachofs/pkg/alloc"
	"github.com/weberc2/nachofs/pkg/directory"
	"github.com/weberc2/nachofs/pkg/disk"
	"github.com/weberc2/nachofs/pkg/filehdr"
	"github.com/weberc2/nachofs/pkg/openfile"
	. "github.com/weberc2/nachofs/pkg/types"
)

type FileSystem struct {
	disk          *disk.Disk
	freeMapFile   *openfile.OpenFile
	directoryFile *openfile.OpenFile
}

// DirectoryFileSize is the size of every directory file.
var DirectoryFileSize = directory.EncodedSize(NumDirEntries)

// Format initializes `d` with an empty root directory and a bitmap in which
// only the sectors of those two files are in use.
func Format(d *disk.Disk) (*FileSystem, error) {
	geometry := d.Geometry()
	if err := geometry.Validate(); err != nil {
		return nil, fmt.Errorf("formatting disk: %w", err)
	}

	freeMap := alloc.NewPersistent(geometry.NumSectors)
	freeMap.Mark(FreeMapSector)
	freeMap.Mark(DirectorySector)

	mapHeader := filehdr.New(geometry)
	if err := mapHeader.Allocate(
		freeMap.Bitmap,
		geometry.FreeMapFileSize(),
	); err != nil {
		return nil, fmt.Errorf("formatting disk: bitmap file: %w", err)
	}
	dirHeader := filehdr.New(geometry)
	if err := dirHeader.Allocate(freeMap.Bitmap, DirectoryFileSize); err != nil {
		return nil, fmt.Errorf("formatting disk: root directory file: %w", err)
	}

	// the headers must be on disk before the files can be opened
	if err := mapHeader.WriteBack(d, FreeMapSector); err != nil {
		return nil, fmt.Errorf("formatting disk: %w", err)
	}
	if err := dirHeader.WriteBack(d, DirectorySector); err != nil {
		return nil, fmt.Errorf("formatting disk: %w", err)
	}

	fs, err := Mount(d)
	if err != nil {
		return nil, fmt.Errorf("formatting disk: %w", err)
	}
	if err := freeMap.WriteBack(fs.freeMapFile); err != nil {
		return nil, fmt.Errorf("formatting disk: %w", err)
	}
	if err := directory.New(NumDirEntries).WriteBack(
		fs.directoryFile,
	); err != nil {
		return nil, fmt.Errorf("formatting disk: %w", err)
	}

	log.Printf(
		"formatted disk: sectors=%d sectorSize=%d free=%d",
		geometry.NumSectors,
		geometry.SectorSize,
		freeMap.NumClear(),
	)
	return fs, nil
}

// Mount opens the bitmap and root directory files of a formatted disk.
func Mount(d *disk.Disk) (*FileSystem, error) {
	freeMapFile, err := openfile.New(d, FreeMapSector)
	if err != nil {
		return nil, fmt.Errorf("mounting: opening bitmap file: %w", err)
	}
	directoryFile, err := openfile.New(d, DirectorySector)
	if err != nil {
		return nil, fmt.Errorf("mounting: opening root directory file: %w", err)
	}
	return &FileSystem{
		disk:          d,
		freeMapFile:   freeMapFile,
		directoryFile: directoryFile,
	}, nil
}

// ErrUnmounted is returned by every operation on a FileSystem after
// Unmount.
const ErrUnmounted ConstError = "file system is unmounted"

// Unmount releases the bitmap and root directory files. Later operations
// fail with ErrUnmounted; Mount the disk again to keep using it.
func (fs *FileSystem) Unmount() {
	fs.freeMapFile = nil
	fs.directoryFile = nil
}

func (fs *FileSystem) checkMounted() error {
	if fs.freeMapFile == nil || fs.directoryFile == nil {
		return ErrUnmounted
	}
	return nil
}

func (fs *FileSystem) Disk() *disk.Disk { return fs.disk }

func (fs *FileSystem) fetchBitmap() (alloc.PersistentBitmap, error) {
	freeMap := alloc.NewPersistent(fs.disk.NumSectors())
	if err := fs.checkMounted(); err != nil {
		return freeMap, err
	}
	if err := freeMap.FetchFrom(fs.freeMapFile); err != nil {
		return freeMap, err
	}
	return freeMap, nil
}

// FreeSectors returns the number of unallocated sectors.
func (fs *FileSystem) FreeSectors() (Sector, error) {
	freeMap, err := fs.fetchBitmap()
	if err != nil {
		return 0, fmt.Errorf("counting free sectors: %w", err)
	}
	return freeMap.NumClear(), nil
}

// Print dumps the bitmap and root directory headers, the bitmap, and the
// root directory with every file in it.
func (fs *FileSystem) Print(w io.Writer) error {
	if err := fs.checkMounted(); err != nil {
		return fmt.Errorf("printing file system: %w", err)
	}
	fmt.Fprintln(w, "Bit map file header:")
	if err := fs.freeMapFile.Header().Print(w, fs.disk); err != nil {
		return fmt.Errorf("printing file system: %w", err)
	}
	fmt.Fprintln(w, "Directory file header:")
	if err := fs.directoryFile.Header().Print(w, fs.disk); err != nil {
		return fmt.Errorf("printing file system: %w", err)
	}

	freeMap, err := fs.fetchBitmap()
	if err != nil {
		return fmt.Errorf("printing file system: %w", err)
	}
	freeMap.Print(w)

	table := directory.New(NumDirEntries)
	if err := table.FetchFrom(fs.directoryFile); err != nil {
		return fmt.Errorf("printing file system: %w", err)
	}
	if err := table.Print(w, fs.disk); err != nil {
		return fmt.Errorf("printing file system: %w", err)
	}
	return nil
}
