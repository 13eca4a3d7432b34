package encode

import (
	"bytes"

	. "github.com/weberc2/nachofs/pkg/types"
)

// EncodeDirEntry writes `entry` as a fixed-width record. Unused entries are
// written as all zeroes so that tables round-trip byte for byte.
func EncodeDirEntry(entry *DirEntry, b *[DirEntrySize]byte) {
	*b = [DirEntrySize]byte{}
	if !entry.InUse {
		return
	}
	p := b[:]
	putBool(p, dirEntryInUseStart, entry.InUse)
	putBool(p, dirEntryIsDirStart, entry.IsDirectory)
	putSector(p, dirEntrySectorStart, entry.Sector)

	// the final byte of the name field stays NUL
	copy(p[dirEntryNameStart:dirEntryNameStart+NameMaxLen], entry.Name)
}

func DecodeDirEntry(entry *DirEntry, b *[DirEntrySize]byte) {
	p := b[:]
	entry.InUse = getBool(p, dirEntryInUseStart)
	if !entry.InUse {
		*entry = DirEntry{}
		return
	}
	entry.IsDirectory = getBool(p, dirEntryIsDirStart)
	entry.Sector = getSector(p, dirEntrySectorStart)

	name := p[dirEntryNameStart:dirEntryNameEnd]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	entry.Name = string(name)
}

const (
	dirEntryInUseStart = 0
	dirEntryInUseSize  = 4
	dirEntryInUseEnd   = dirEntryInUseStart + dirEntryInUseSize

	dirEntryIsDirStart = dirEntryInUseEnd
	dirEntryIsDirSize  = 4
	dirEntryIsDirEnd   = dirEntryIsDirStart + dirEntryIsDirSize

	dirEntrySectorStart = dirEntryIsDirEnd
	dirEntrySectorSize  = SectorPointerSize
	dirEntrySectorEnd   = dirEntrySectorStart + dirEntrySectorSize

	dirEntryNameStart = dirEntrySectorEnd
	dirEntryNameSize  = NameMaxLen + 1
	dirEntryNameEnd   = dirEntryNameStart + dirEntryNameSize

	// two bytes of padding keep records 4-byte aligned
	dirEntryPadSize = 2

	DirEntrySize = dirEntryNameEnd + dirEntryPadSize
)
