// Package filehdr implements the per-file header: the file's length and the
// table mapping its byte offsets to disk sectors. A header occupies exactly
// one sector; files too big for its direct slots spill into one indirect
// sector.
package filehdr

import (
	"fmt"
	"io"

	"github.com/weberc2/nachofs/pkg/alloc"
	"github.com/weberc2/nachofs/pkg/disk"
	"github.com/weberc2/nachofs/pkg/encode"
	"github.com/weberc2/nachofs/pkg/math"
	. "github.com/weberc2/nachofs/pkg/types"
)

type FileHeader struct {
	geometry Geometry
	header   Header
	indirect []Sector
}

func New(geometry Geometry) *FileHeader {
	return &FileHeader{geometry: geometry}
}

// Allocate reserves enough data sectors for `size` bytes, plus the indirect
// sector when the direct slots don't suffice. Nothing is marked unless all
// of them are available.
func (fh *FileHeader) Allocate(bitmap *alloc.Bitmap, size Byte) error {
	if size < 0 {
		return fmt.Errorf("allocating `%d` bytes: %w", size, ErrInvalidSize)
	}
	sectors := Sector(math.DivRoundUp(size, fh.geometry.SectorSize))
	if sectors > fh.geometry.MaxFileSectors() {
		return fmt.Errorf(
			"allocating `%d` bytes: maximum is `%d`: %w",
			size,
			fh.geometry.MaxFileSize(),
			ErrFileTooLarge,
		)
	}
	direct := math.Min(sectors, Sector(fh.geometry.NumDirect()))
	needed := sectors
	if sectors > direct {
		needed++
	}
	if free := bitmap.NumClear(); free < needed {
		return fmt.Errorf(
			"allocating `%d` bytes: wanted `%d` sectors; found `%d` free: %w",
			size,
			needed,
			free,
			ErrNoSpace,
		)
	}

	fh.header = Header{
		NumBytes:   size,
		NumSectors: sectors,
		Direct:     make([]Sector, direct),
		Indirect:   SectorNil,
	}
	fh.indirect = nil
	for i := range fh.header.Direct {
		fh.header.Direct[i] = mustFindAndSet(bitmap)
	}
	if sectors > direct {
		fh.header.Indirect = mustFindAndSet(bitmap)
		fh.indirect = make([]Sector, sectors-direct)
		for i := range fh.indirect {
			fh.indirect[i] = mustFindAndSet(bitmap)
		}
	}
	return nil
}

func mustFindAndSet(bitmap *alloc.Bitmap) Sector {
	s, ok := bitmap.FindAndSet()
	if !ok {
		panic("bitmap ran out of sectors after reporting enough free")
	}
	return s
}

// Deallocate frees every sector the header maps, including the indirect
// sector. The header's own sector belongs to the caller.
func (fh *FileHeader) Deallocate(bitmap *alloc.Bitmap) {
	for _, s := range fh.Sectors() {
		bitmap.Clear(s)
	}
	if fh.header.Indirect != SectorNil {
		bitmap.Clear(fh.header.Indirect)
	}
}

func (fh *FileHeader) FetchFrom(d *disk.Disk, sector Sector) error {
	p := make([]byte, d.SectorSize())
	if err := d.ReadSector(sector, p); err != nil {
		return fmt.Errorf("fetching file header from sector `%d`: %w", sector, err)
	}
	encode.DecodeHeader(&fh.header, p)

	fh.indirect = nil
	if fh.header.Indirect == SectorNil {
		return nil
	}
	n := Byte(fh.header.NumSectors) - Byte(len(fh.header.Direct))
	if n > fh.geometry.PointersPerSector() {
		return fmt.Errorf(
			"fetching file header from sector `%d`: `%d` sectors exceeds "+
				"maximum `%d`: %w",
			sector,
			fh.header.NumSectors,
			fh.geometry.MaxFileSectors(),
			CorruptHeaderErr,
		)
	}
	if err := d.ReadSector(fh.header.Indirect, p); err != nil {
		return fmt.Errorf(
			"fetching file header from sector `%d`: indirect sector `%d`: %w",
			sector,
			fh.header.Indirect,
			err,
		)
	}
	fh.indirect = make([]Sector, n)
	encode.DecodeSectorTable(fh.indirect, p)
	return nil
}

func (fh *FileHeader) WriteBack(d *disk.Disk, sector Sector) error {
	p := make([]byte, d.SectorSize())
	if err := encode.EncodeHeader(&fh.header, p); err != nil {
		return fmt.Errorf("writing back file header to sector `%d`: %w", sector, err)
	}
	if err := d.WriteSector(sector, p); err != nil {
		return fmt.Errorf("writing back file header to sector `%d`: %w", sector, err)
	}
	if fh.header.Indirect == SectorNil {
		return nil
	}
	if err := encode.EncodeSectorTable(fh.indirect, p); err != nil {
		return fmt.Errorf("writing back file header to sector `%d`: %w", sector, err)
	}
	if err := d.WriteSector(fh.header.Indirect, p); err != nil {
		return fmt.Errorf(
			"writing back file header to sector `%d`: indirect sector `%d`: %w",
			sector,
			fh.header.Indirect,
			err,
		)
	}
	return nil
}

// ByteToSector returns the sector holding byte `offset` of the file.
func (fh *FileHeader) ByteToSector(offset Byte) Sector {
	i := offset / fh.geometry.SectorSize
	if direct := Byte(len(fh.header.Direct)); i >= direct {
		return fh.indirect[i-direct]
	}
	return fh.header.Direct[i]
}

func (fh *FileHeader) FileLength() Byte { return fh.header.NumBytes }

func (fh *FileHeader) NumSectors() Sector { return fh.header.NumSectors }

// Sectors returns the file's data sectors in file order.
func (fh *FileHeader) Sectors() []Sector {
	sectors := make([]Sector, 0, fh.header.NumSectors)
	sectors = append(sectors, fh.header.Direct...)
	return append(sectors, fh.indirect...)
}

func (fh *FileHeader) Header() Header { return fh.header }

// Print dumps the header and the file's contents, rendering non-printable
// bytes as hex escapes.
func (fh *FileHeader) Print(w io.Writer, d *disk.Disk) error {
	fmt.Fprintf(
		w,
		"FileHeader contents.  File size: %d.  File blocks:\n",
		fh.header.NumBytes,
	)
	for _, s := range fh.Sectors() {
		fmt.Fprintf(w, "%d ", s)
	}
	fmt.Fprintln(w, "\nFile contents:")

	p := make([]byte, d.SectorSize())
	remaining := fh.header.NumBytes
	for _, s := range fh.Sectors() {
		if err := d.ReadSector(s, p); err != nil {
			return fmt.Errorf("printing file header: %w", err)
		}
		for _, c := range p[:math.Min(remaining, d.SectorSize())] {
			if c >= 0x20 && c <= 0x7e {
				fmt.Fprintf(w, "%c", c)
			} else {
				fmt.Fprintf(w, "\\%x", c)
			}
		}
		remaining -= math.Min(remaining, d.SectorSize())
		fmt.Fprintln(w)
	}
	return nil
}

const CorruptHeaderErr ConstError = "corrupt file header"
