package openfile

import (
	"fmt"

	"github.com/weberc2/nachofs/pkg/disk"
	"github.com/weberc2/nachofs/pkg/filehdr"
	"github.com/weberc2/nachofs/pkg/math"
	. "github.com/weberc2/nachofs/pkg/types"
)

// OpenFile is a byte-addressable view of a file with a seek position.
// Transfers are clipped at the file's length; files never grow.
type OpenFile struct {
	disk     *disk.Disk
	sector   Sector
	header   *filehdr.FileHeader
	position Byte
}

// New opens the file whose header lives in `sector`.
func New(d *disk.Disk, sector Sector) (*OpenFile, error) {
	header := filehdr.New(d.Geometry())
	if err := header.FetchFrom(d, sector); err != nil {
		return nil, fmt.Errorf("opening file at sector `%d`: %w", sector, err)
	}
	return &OpenFile{disk: d, sector: sector, header: header}, nil
}

func (f *OpenFile) HeaderSector() Sector { return f.sector }

func (f *OpenFile) Header() *filehdr.FileHeader { return f.header }

func (f *OpenFile) Length() Byte { return f.header.FileLength() }

func (f *OpenFile) Seek(position Byte) { f.position = position }

// Read transfers from the seek position and advances it by the number of
// bytes read.
func (f *OpenFile) Read(p []byte) (int, error) {
	n, err := f.ReadAt(p, f.position)
	f.position += Byte(n)
	return n, err
}

func (f *OpenFile) Write(p []byte) (int, error) {
	n, err := f.WriteAt(p, f.position)
	f.position += Byte(n)
	return n, err
}

// ReadAt reads up to len(p) bytes at `position`. Reading at or past the end
// of the file transfers nothing.
func (f *OpenFile) ReadAt(p []byte, position Byte) (int, error) {
	size := f.clip(p, position)
	if size == 0 {
		return 0, nil
	}

	sectorSize := f.disk.SectorSize()
	buf := make([]byte, sectorSize)
	var done Byte
	for done < size {
		offset := position + done
		within := offset % sectorSize
		chunk := math.Min(sectorSize-within, size-done)
		s := f.header.ByteToSector(offset)
		if err := f.disk.ReadSector(s, buf); err != nil {
			return int(done), fmt.Errorf(
				"reading `%d` bytes at `%d` from file at sector `%d`: %w",
				size,
				position,
				f.sector,
				err,
			)
		}
		copy(p[done:done+chunk], buf[within:within+chunk])
		done += chunk
	}
	return int(done), nil
}

// WriteAt writes up to len(p) bytes at `position`. Sectors only partially
// covered are read first so their other bytes survive.
func (f *OpenFile) WriteAt(p []byte, position Byte) (int, error) {
	size := f.clip(p, position)
	if size == 0 {
		return 0, nil
	}

	sectorSize := f.disk.SectorSize()
	buf := make([]byte, sectorSize)
	var done Byte
	for done < size {
		offset := position + done
		within := offset % sectorSize
		chunk := math.Min(sectorSize-within, size-done)
		s := f.header.ByteToSector(offset)
		if chunk < sectorSize {
			if err := f.disk.ReadSector(s, buf); err != nil {
				return int(done), fmt.Errorf(
					"writing `%d` bytes at `%d` to file at sector `%d`: %w",
					size,
					position,
					f.sector,
					err,
				)
			}
		}
		copy(buf[within:within+chunk], p[done:done+chunk])
		if err := f.disk.WriteSector(s, buf); err != nil {
			return int(done), fmt.Errorf(
				"writing `%d` bytes at `%d` to file at sector `%d`: %w",
				size,
				position,
				f.sector,
				err,
			)
		}
		done += chunk
	}
	return int(done), nil
}

func (f *OpenFile) clip(p []byte, position Byte) Byte {
	length := f.header.FileLength()
	if position < 0 || position >= length {
		return 0
	}
	return math.Min(Byte(len(p)), length-position)
}
