package types

import "fmt"

type Byte int64

// Sector is the index of a fixed-size block on the virtual disk. It is the
// unit of allocation.
type Sector uint32

const (
	DefaultSectorSize Byte   = 128
	DefaultNumSectors Sector = 1024
	BitsPerByte       Byte   = 8

	// SectorPointerSize is the on-disk width of a sector number.
	SectorPointerSize Byte = 4

	// FreeMapSector and DirectorySector hold the headers of the bitmap file
	// and the root directory file respectively. They are pinned so the
	// filesystem can bootstrap without a directory lookup.
	FreeMapSector   Sector = 0
	DirectorySector Sector = 1
)

type Geometry struct {
	SectorSize Byte   `json:"sectorSize"`
	NumSectors Sector `json:"numSectors"`
}

var DefaultGeometry = Geometry{
	SectorSize: DefaultSectorSize,
	NumSectors: DefaultNumSectors,
}

func (g Geometry) DiskSize() Byte {
	return g.SectorSize * Byte(g.NumSectors)
}

// FreeMapFileSize is the size of the file holding one bit per sector.
func (g Geometry) FreeMapFileSize() Byte {
	return (Byte(g.NumSectors) + BitsPerByte - 1) / BitsPerByte
}

// PointersPerSector is the number of sector numbers that fit in one sector.
func (g Geometry) PointersPerSector() Byte {
	return g.SectorSize / SectorPointerSize
}

func (g Geometry) Validate() error {
	if g.SectorSize < 4*SectorPointerSize || g.SectorSize%SectorPointerSize != 0 {
		return fmt.Errorf(
			"validating geometry: sector size `%d`: %w",
			g.SectorSize,
			InvalidGeometryErr,
		)
	}
	if g.NumSectors <= DirectorySector {
		return fmt.Errorf(
			"validating geometry: sector count `%d`: %w",
			g.NumSectors,
			InvalidGeometryErr,
		)
	}
	return nil
}

const InvalidGeometryErr ConstError = "invalid disk geometry"
