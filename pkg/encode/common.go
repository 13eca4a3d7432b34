package encode

import (
	"encoding/binary"

	. "github.com/weberc2/nachofs/pkg/types"
)

func putSector(b []byte, start Byte, s Sector) {
	putU32(b, start, uint32(s))
}

func getSector(b []byte, start Byte) Sector {
	return Sector(getU32(b, start))
}

func putBool(b []byte, start Byte, v bool) {
	var u uint32
	if v {
		u = 1
	}
	putU32(b, start, u)
}

func getBool(b []byte, start Byte) bool {
	return getU32(b, start) != 0
}

func putU32(b []byte, start Byte, u uint32) {
	binary.LittleEndian.PutUint32(b[start:start+4], u)
}

func getU32(b []byte, start Byte) uint32 {
	return binary.LittleEndian.Uint32(b[start : start+4])
}
