package directory

import (
	"fmt"
	"io"
	"strings"

	"github.com/weberc2/nachofs/pkg/disk"
	"github.com/weberc2/nachofs/pkg/filehdr"
	. "github.com/weberc2/nachofs/pkg/types"
)

// MaxDepth bounds recursive walks. A well-formed tree can't approach it;
// it stops a corrupted image whose directories form a cycle.
const MaxDepth = 32

// EmptyFolder is printed by RecursiveList for a directory with no entries.
const EmptyFolder = "Empty Folder"

// Opener loads the table of the subdirectory whose header is at `sector`.
type Opener func(sector Sector) (*Table, error)

// List writes one line per in-use entry: its name and its kind.
func (t *Table) List(w io.Writer) error {
	for _, entry := range t.Entries() {
		if _, err := fmt.Fprintf(w, "%s %s\n", entry.Name, entry.Tag()); err != nil {
			return fmt.Errorf("listing directory: %w", err)
		}
	}
	return nil
}

// RecursiveList writes the tree rooted at `t`, indenting each level by two
// spaces and descending into subdirectories as they're encountered.
func (t *Table) RecursiveList(w io.Writer, depth int, open Opener) error {
	if depth >= MaxDepth {
		return fmt.Errorf("listing at depth `%d`: %w", depth, ErrTooDeep)
	}
	indent := strings.Repeat("  ", depth)

	entries := t.Entries()
	if len(entries) < 1 {
		if _, err := fmt.Fprintf(w, "%s%s\n", indent, EmptyFolder); err != nil {
			return fmt.Errorf("listing directory: %w", err)
		}
		return nil
	}

	for _, entry := range entries {
		if _, err := fmt.Fprintf(
			w,
			"%s%s %s\n",
			indent,
			entry.Name,
			entry.Tag(),
		); err != nil {
			return fmt.Errorf("listing directory: %w", err)
		}
		if !entry.IsDirectory {
			continue
		}

		child, err := open(entry.Sector)
		if err != nil {
			return fmt.Errorf("listing directory `%s`: %w", entry.Name, err)
		}
		if err := child.RecursiveList(w, depth+1, open); err != nil {
			return fmt.Errorf("listing directory `%s`: %w", entry.Name, err)
		}
	}
	return nil
}

// Print dumps every entry along with its file header and contents.
func (t *Table) Print(w io.Writer, d *disk.Disk) error {
	fmt.Fprintln(w, "Directory contents:")
	for _, entry := range t.Entries() {
		fmt.Fprintf(w, "Name: %s, Sector: %d\n", entry.Name, entry.Sector)
		header := filehdr.New(d.Geometry())
		if err := header.FetchFrom(d, entry.Sector); err != nil {
			return fmt.Errorf("printing directory entry `%s`: %w", entry.Name, err)
		}
		if err := header.Print(w, d); err != nil {
			return fmt.Errorf("printing directory entry `%s`: %w", entry.Name, err)
		}
	}
	fmt.Fprintln(w)
	return nil
}
