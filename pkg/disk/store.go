package disk

import . "github.com/weberc2/nachofs/pkg/types"

// SectorStore is a backend that holds whole sectors. Callers always pass a
// buffer exactly one sector long.
type SectorStore interface {
	ReadSector(sector Sector, p []byte) error
	WriteSector(sector Sector, p []byte) error
}

type ReadAt interface {
	ReadAt(offset Byte, p []byte) error
}

type WriteAt interface {
	WriteAt(offset Byte, p []byte) error
}

// Volume is a byte-addressable backend such as an in-memory buffer or an
// image file.
type Volume interface {
	ReadAt
	WriteAt
}
