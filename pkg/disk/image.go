package disk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"

	. "github.com/weberc2/nachofs/pkg/types"
)

const (
	// Magic opens every disk image so that a stray file isn't mistaken for
	// a disk.
	Magic uint32 = 0x456789ab

	MagicSize Byte = 4

	BadMagicErr ConstError = "not a disk image"
)

// ImageFile is a disk image on the host file system: the magic number
// followed by every sector in order.
type ImageFile struct {
	file     *os.File
	geometry Geometry
}

// CreateImage creates (or truncates) the image at `path` and sizes it for
// `geometry`. Every sector reads back as zeroes.
func CreateImage(path string, geometry Geometry) (*ImageFile, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("creating disk image `%s`: %w", path, err)
	}

	var magic [MagicSize]byte
	binary.LittleEndian.PutUint32(magic[:], Magic)
	if _, err := file.WriteAt(magic[:], 0); err != nil {
		file.Close()
		return nil, fmt.Errorf(
			"creating disk image `%s`: writing magic: %w",
			path,
			err,
		)
	}
	if err := file.Truncate(int64(MagicSize + geometry.DiskSize())); err != nil {
		file.Close()
		return nil, fmt.Errorf(
			"creating disk image `%s`: sizing to `%d` bytes: %w",
			path,
			MagicSize+geometry.DiskSize(),
			err,
		)
	}
	return &ImageFile{file: file, geometry: geometry}, nil
}

// OpenImage opens an existing image, validating its magic number. Images
// shorter than `geometry` requires are extended with zeroes.
func OpenImage(path string, geometry Geometry) (*ImageFile, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("opening disk image `%s`: %w", path, err)
	}

	var magic [MagicSize]byte
	if _, err := file.ReadAt(magic[:], 0); err != nil {
		file.Close()
		return nil, fmt.Errorf(
			"opening disk image `%s`: reading magic: %w",
			path,
			err,
		)
	}
	if found := binary.LittleEndian.Uint32(magic[:]); found != Magic {
		file.Close()
		return nil, fmt.Errorf(
			"opening disk image `%s`: magic `%#x`: %w",
			path,
			found,
			BadMagicErr,
		)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("opening disk image `%s`: %w", path, err)
	}
	if size := int64(MagicSize + geometry.DiskSize()); info.Size() < size {
		if err := file.Truncate(size); err != nil {
			file.Close()
			return nil, fmt.Errorf(
				"opening disk image `%s`: extending to `%d` bytes: %w",
				path,
				size,
				err,
			)
		}
	}
	return &ImageFile{file: file, geometry: geometry}, nil
}

// OpenOrCreateImage opens the image at `path`, creating a blank one when no
// file exists there.
func OpenOrCreateImage(path string, geometry Geometry) (*ImageFile, error) {
	image, err := OpenImage(path, geometry)
	if errors.Is(err, fs.ErrNotExist) {
		return CreateImage(path, geometry)
	}
	return image, err
}

func (image *ImageFile) ReadAt(offset Byte, p []byte) error {
	if _, err := image.file.ReadAt(p, int64(offset)); err != nil {
		return fmt.Errorf(
			"reading `%d` bytes from `%s` at offset `%d`: %w",
			len(p),
			image.file.Name(),
			offset,
			err,
		)
	}
	return nil
}

func (image *ImageFile) WriteAt(offset Byte, p []byte) error {
	if _, err := image.file.WriteAt(p, int64(offset)); err != nil {
		return fmt.Errorf(
			"writing `%d` bytes to `%s` at offset `%d`: %w",
			len(p),
			image.file.Name(),
			offset,
			err,
		)
	}
	return nil
}

// Store returns the image's sectors as a SectorStore.
func (image *ImageFile) Store() *VolumeStore {
	return NewOffsetVolumeStore(image, MagicSize, image.geometry.SectorSize)
}

func (image *ImageFile) Sync() error {
	if err := image.file.Sync(); err != nil {
		return fmt.Errorf("syncing disk image `%s`: %w", image.file.Name(), err)
	}
	return nil
}

func (image *ImageFile) Close() error {
	if err := image.file.Close(); err != nil {
		return fmt.Errorf("closing disk image `%s`: %w", image.file.Name(), err)
	}
	return nil
}
