package alloc

import (
	"fmt"
	"io"

	"github.com/weberc2/nachofs/pkg/math"
	. "github.com/weberc2/nachofs/pkg/types"
)

// Bitmap tracks which sectors are in use, one bit per sector, most
// significant bit first within each byte.
type Bitmap struct {
	bits  Sector
	bytes []byte
}

func New(bits Sector) *Bitmap {
	return &Bitmap{
		bits:  bits,
		bytes: make([]byte, math.DivRoundUp(Byte(bits), BitsPerByte)),
	}
}

func (bm *Bitmap) Len() Sector { return bm.bits }

func (bm *Bitmap) Mark(s Sector) {
	b := bm.byteOf(s)
	*b = byteSetHigh(*b, bitOf(s))
}

// Clear frees `s`. Freeing a sector that isn't marked means the caller's
// bookkeeping is broken, so it panics.
func (bm *Bitmap) Clear(s Sector) {
	if !bm.Test(s) {
		panic(fmt.Sprintf("freeing sector `%d` which is not in use", s))
	}
	b := bm.byteOf(s)
	*b = byteSetLow(*b, bitOf(s))
}

func (bm *Bitmap) Test(s Sector) bool {
	return !byteIsZero(*bm.byteOf(s), bitOf(s))
}

// FindAndSet marks and returns the lowest free sector.
func (bm *Bitmap) FindAndSet() (Sector, bool) {
	for i, byt := range bm.bytes {
		bit := byteFirstZero(byt)
		if bit == 0xff {
			continue
		}
		s := Sector(i)*Sector(BitsPerByte) + Sector(bit)
		if s >= bm.bits {
			break
		}
		bm.bytes[i] = byteSetHigh(byt, bit)
		return s, true
	}
	return 0, false
}

func (bm *Bitmap) NumClear() Sector {
	var n Sector
	for s := Sector(0); s < bm.bits; s++ {
		if !bm.Test(s) {
			n++
		}
	}
	return n
}

// Bytes returns the bitmap's backing storage, which is also its on-disk
// form.
func (bm *Bitmap) Bytes() []byte { return bm.bytes }

func (bm *Bitmap) SetBytes(p []byte) error {
	if len(p) != len(bm.bytes) {
		return fmt.Errorf(
			"loading `%d`-bit bitmap: wanted `%d` bytes; found `%d`",
			bm.bits,
			len(bm.bytes),
			len(p),
		)
	}
	copy(bm.bytes, p)
	return nil
}

func (bm *Bitmap) byteOf(s Sector) *byte {
	if s >= bm.bits {
		panic(fmt.Sprintf(
			"sector `%d` out of range for `%d`-bit bitmap",
			s,
			bm.bits,
		))
	}
	return &bm.bytes[Byte(s)/BitsPerByte]
}

func bitOf(s Sector) uint8 { return uint8(Byte(s) % BitsPerByte) }

func byteIsZero(byt byte, bit uint8) bool {
	return byt&(0b1000_0000>>bit) == 0
}

func byteSetHigh(byt byte, bit uint8) byte {
	return byt | (0b1000_0000 >> bit)
}

func byteSetLow(byt byte, bit uint8) byte {
	return byt & ^(0b1000_0000 >> bit)
}

func byteFirstZero(byt byte) uint8 {
	for bit := uint8(0); bit < 8; bit++ {
		if byteIsZero(byt, bit) {
			return bit
		}
	}
	return 0xff
}

// Print writes the numbers of every marked sector.
func (bm *Bitmap) Print(w io.Writer) {
	fmt.Fprint(w, "Bitmap set:\n")
	for s := Sector(0); s < bm.bits; s++ {
		if bm.Test(s) {
			fmt.Fprintf(w, "%d, ", s)
		}
	}
	fmt.Fprint(w, "\n")
}
