package directory

import (
	"fmt"

	"github.com/weberc2/nachofs/pkg/encode"
	. "github.com/weberc2/nachofs/pkg/types"
)

// File is the slice of an open file a table is persisted through.
type File interface {
	ReadAt(p []byte, position Byte) (int, error)
	WriteAt(p []byte, position Byte) (int, error)
}

func (t *Table) Encode() []byte {
	p := make([]byte, EncodedSize(len(t.entries)))
	var record [encode.DirEntrySize]byte
	for i := range t.entries {
		encode.EncodeDirEntry(&t.entries[i], &record)
		copy(p[Byte(i)*encode.DirEntrySize:], record[:])
	}
	return p
}

// Decode replaces every slot with the records in `p`, which must hold
// exactly one record per slot.
func (t *Table) Decode(p []byte) error {
	if size := EncodedSize(len(t.entries)); Byte(len(p)) != size {
		return fmt.Errorf(
			"decoding `%d`-entry directory: wanted `%d` bytes; found `%d`",
			len(t.entries),
			size,
			len(p),
		)
	}
	var record [encode.DirEntrySize]byte
	for i := range t.entries {
		copy(record[:], p[Byte(i)*encode.DirEntrySize:])
		encode.DecodeDirEntry(&t.entries[i], &record)
	}
	return nil
}

func (t *Table) FetchFrom(file File) error {
	p := make([]byte, EncodedSize(len(t.entries)))
	n, err := file.ReadAt(p, 0)
	if err != nil {
		return fmt.Errorf("fetching directory: %w", err)
	}
	if err := t.Decode(p[:n]); err != nil {
		return fmt.Errorf("fetching directory: %w", err)
	}
	return nil
}

func (t *Table) WriteBack(file File) error {
	p := t.Encode()
	n, err := file.WriteAt(p, 0)
	if err != nil {
		return fmt.Errorf("writing back directory: %w", err)
	}
	if n != len(p) {
		return fmt.Errorf(
			"writing back directory: short write: wanted `%d` bytes; "+
				"found `%d`",
			len(p),
			n,
		)
	}
	return nil
}
