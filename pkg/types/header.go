package types

// Header is the on-disk image of a file header: the file's length and the
// sectors holding its data. The first sectors are listed directly; the rest
// live in a single indirect sector.
type Header struct {
	NumBytes   Byte     `json:"numBytes"`
	NumSectors Sector   `json:"numSectors"`
	Direct     []Sector `json:"direct"`
	Indirect   Sector   `json:"indirect"`
}

// SectorNil marks an absent indirect sector. Sector 0 always holds the
// bitmap header so it can never be a data sector.
const SectorNil Sector = 0

// NumDirect is the number of direct sector slots in a one-sector header:
// what remains after the length, sector count and indirect fields.
func (g Geometry) NumDirect() int {
	return int((g.SectorSize - 3*SectorPointerSize) / SectorPointerSize)
}

// MaxFileSectors is the largest number of data sectors a header can map.
func (g Geometry) MaxFileSectors() Sector {
	return Sector(g.NumDirect()) + Sector(g.PointersPerSector())
}

func (g Geometry) MaxFileSize() Byte {
	return Byte(g.MaxFileSectors()) * g.SectorSize
}
