package encode

import (
	"fmt"

	. "github.com/weberc2/nachofs/pkg/types"
)

// EncodeHeader writes `h` into the single-sector buffer `p`. The direct
// slots that `h` doesn't use are zeroed.
func EncodeHeader(h *Header, p []byte) error {
	direct := directSlots(p)
	if len(h.Direct) > direct {
		return fmt.Errorf(
			"encoding header: %d direct sectors exceeds capacity %d",
			len(h.Direct),
			direct,
		)
	}
	for i := range p {
		p[i] = 0
	}
	putU32(p, headerNumBytesStart, uint32(h.NumBytes))
	putSector(p, headerNumSectorsStart, h.NumSectors)
	for i, s := range h.Direct {
		putSector(p, directStart(i), s)
	}
	putSector(p, indirectStart(p), h.Indirect)
	return nil
}

// DecodeHeader reads a header out of the single-sector buffer `p`. Only
// the direct slots covered by the sector count are returned.
func DecodeHeader(h *Header, p []byte) {
	h.NumBytes = Byte(getU32(p, headerNumBytesStart))
	h.NumSectors = getSector(p, headerNumSectorsStart)

	n := int(h.NumSectors)
	if direct := directSlots(p); n > direct {
		n = direct
	}
	h.Direct = make([]Sector, n)
	for i := range h.Direct {
		h.Direct[i] = getSector(p, directStart(i))
	}
	h.Indirect = getSector(p, indirectStart(p))
}

// EncodeSectorTable writes a table of sector pointers, as held by an
// indirect sector.
func EncodeSectorTable(sectors []Sector, p []byte) error {
	if Byte(len(sectors))*SectorPointerSize > Byte(len(p)) {
		return fmt.Errorf(
			"encoding sector table: %d pointers exceeds buffer of %d bytes",
			len(sectors),
			len(p),
		)
	}
	for i := range p {
		p[i] = 0
	}
	for i, s := range sectors {
		putSector(p, Byte(i)*SectorPointerSize, s)
	}
	return nil
}

func DecodeSectorTable(sectors []Sector, p []byte) {
	for i := range sectors {
		sectors[i] = getSector(p, Byte(i)*SectorPointerSize)
	}
}

func directSlots(p []byte) int {
	return int((Byte(len(p)) - headerDirectStart - SectorPointerSize) /
		SectorPointerSize)
}

func directStart(i int) Byte {
	return headerDirectStart + Byte(i)*SectorPointerSize
}

func indirectStart(p []byte) Byte {
	return Byte(len(p)) - SectorPointerSize
}

const (
	headerNumBytesStart = 0
	headerNumBytesSize  = 4
	headerNumBytesEnd   = headerNumBytesStart + headerNumBytesSize

	headerNumSectorsStart = headerNumBytesEnd
	headerNumSectorsSize  = SectorPointerSize
	headerNumSectorsEnd   = headerNumSectorsStart + headerNumSectorsSize

	headerDirectStart = headerNumSectorsEnd
)
