package disk

import (
	"fmt"
	"io"

	. "github.com/weberc2/nachofs/pkg/types"
)

type Buffer struct {
	data []byte
}

func NewBuffer(size Byte) *Buffer {
	return &Buffer{data: make([]byte, size)}
}

func (b *Buffer) Bytes() []byte { return b.data }

func (b *Buffer) ReadAt(offset Byte, p []byte) error {
	if err := b.bounds(offset, p); err != nil {
		return fmt.Errorf("reading from buffer: %w", err)
	}
	copy(p, b.data[offset:])
	return nil
}

func (b *Buffer) WriteAt(offset Byte, p []byte) error {
	if err := b.bounds(offset, p); err != nil {
		return fmt.Errorf("writing to buffer: %w", err)
	}
	copy(b.data[offset:], p)
	return nil
}

func (b *Buffer) bounds(offset Byte, p []byte) error {
	if offset < 0 || offset+Byte(len(p)) > Byte(len(b.data)) {
		return fmt.Errorf(
			"`%d` bytes at offset `%d` overruns `%d` byte buffer: %w",
			len(p),
			offset,
			len(b.data),
			io.EOF,
		)
	}
	return nil
}
