// Package directory implements the fixed-capacity table that maps file
// names to file-header sectors. A directory is stored as the contents of an
// ordinary file: its table encoded one record per slot, in slot order.
package directory

import (
	"fmt"

	"github.com/weberc2/nachofs/pkg/encode"
	. "github.com/weberc2/nachofs/pkg/types"
)

// Table is a directory's entries. Its capacity is fixed when it's created;
// in-use names are unique and lookups scan slots in order.
type Table struct {
	entries []DirEntry
}

func New(capacity int) *Table {
	return &Table{entries: make([]DirEntry, capacity)}
}

// EncodedSize is the number of bytes a table of `capacity` slots occupies
// on disk.
func EncodedSize(capacity int) Byte {
	return Byte(capacity) * encode.DirEntrySize
}

func (t *Table) Capacity() int { return len(t.entries) }

// Len returns the number of in-use entries.
func (t *Table) Len() int {
	var n int
	for i := range t.entries {
		if t.entries[i].InUse {
			n++
		}
	}
	return n
}

// Entries returns the in-use entries in slot order.
func (t *Table) Entries() []DirEntry {
	entries := make([]DirEntry, 0, len(t.entries))
	for _, entry := range t.entries {
		if entry.InUse {
			entries = append(entries, entry)
		}
	}
	return entries
}

// FindIndex returns the slot holding `name`. Only the first NameMaxLen
// bytes of `name` are significant.
func (t *Table) FindIndex(name string) (int, bool) {
	name = TruncateName(name)
	for i := range t.entries {
		if t.entries[i].InUse && t.entries[i].Name == name {
			return i, true
		}
	}
	return -1, false
}

// Find returns the header sector of the file called `name`.
func (t *Table) Find(name string) (Sector, bool) {
	if i, ok := t.FindIndex(name); ok {
		return t.entries[i].Sector, true
	}
	return 0, false
}

// Lookup returns the whole entry for `name`.
func (t *Table) Lookup(name string) (DirEntry, bool) {
	if i, ok := t.FindIndex(name); ok {
		return t.entries[i], true
	}
	return DirEntry{}, false
}

// Add records `name` in the first unused slot.
func (t *Table) Add(name string, sector Sector, isDirectory bool) error {
	if _, exists := t.FindIndex(name); exists {
		return fmt.Errorf("adding `%s`: %w", name, ErrAlreadyExists)
	}
	for i := range t.entries {
		if !t.entries[i].InUse {
			t.entries[i] = DirEntry{
				InUse:       true,
				IsDirectory: isDirectory,
				Sector:      sector,
				Name:        TruncateName(name),
			}
			return nil
		}
	}
	return fmt.Errorf("adding `%s`: %w", name, ErrDirectoryFull)
}

// Remove frees the slot holding `name`.
func (t *Table) Remove(name string) error {
	i, ok := t.FindIndex(name)
	if !ok {
		return fmt.Errorf("removing `%s`: %w", name, ErrNotFound)
	}
	t.entries[i] = DirEntry{}
	return nil
}
