package alloc

import (
	"fmt"

	. "github.com/weberc2/nachofs/pkg/types"
)

// File is the slice of an open file that a bitmap persists itself through.
type File interface {
	ReadAt(p []byte, position Byte) (int, error)
	WriteAt(p []byte, position Byte) (int, error)
}

// PersistentBitmap is a Bitmap whose contents live in a file.
type PersistentBitmap struct {
	*Bitmap
}

func NewPersistent(bits Sector) PersistentBitmap {
	return PersistentBitmap{New(bits)}
}

// FetchFrom replaces the in-memory contents with the file's.
func (bm PersistentBitmap) FetchFrom(file File) error {
	p := make([]byte, len(bm.bytes))
	n, err := file.ReadAt(p, 0)
	if err != nil {
		return fmt.Errorf("fetching free-sector bitmap: %w", err)
	}
	if n != len(p) {
		return fmt.Errorf(
			"fetching free-sector bitmap: short read: wanted `%d` bytes; "+
				"found `%d`",
			len(p),
			n,
		)
	}
	return bm.SetBytes(p)
}

func (bm PersistentBitmap) WriteBack(file File) error {
	n, err := file.WriteAt(bm.bytes, 0)
	if err != nil {
		return fmt.Errorf("writing back free-sector bitmap: %w", err)
	}
	if n != len(bm.bytes) {
		return fmt.Errorf(
			"writing back free-sector bitmap: short write: wanted `%d` "+
				"bytes; found `%d`",
			len(bm.bytes),
			n,
		)
	}
	return nil
}
