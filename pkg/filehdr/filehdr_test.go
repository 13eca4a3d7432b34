package filehdr

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/weberc2/nachofs/pkg/alloc"
	"github.com/weberc2/nachofs/pkg/disk"
	. "github.com/weberc2/nachofs/pkg/types"
)

var testGeometry = Geometry{SectorSize: 32, NumSectors: 64}

func TestAllocate(t *testing.T) {
	// 32-byte sectors leave room for 5 direct slots and 8 indirect pointers
	for _, testCase := range []struct {
		name           string
		size           Byte
		wantedSectors  Sector
		wantedIndirect bool
		wantedErr      error
	}{
		{name: "empty", size: 0},
		{name: "partial-sector", size: 1, wantedSectors: 1},
		{name: "all-direct", size: 5 * 32, wantedSectors: 5},
		{
			name:           "indirect",
			size:           5*32 + 1,
			wantedSectors:  6,
			wantedIndirect: true,
		},
		{
			name:           "maximum",
			size:           13 * 32,
			wantedSectors:  13,
			wantedIndirect: true,
		},
		{name: "too-large", size: 13*32 + 1, wantedErr: ErrFileTooLarge},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			bitmap := alloc.New(testGeometry.NumSectors)
			fh := New(testGeometry)
			err := fh.Allocate(bitmap, testCase.size)
			if !errors.Is(err, testCase.wantedErr) {
				t.Fatalf("wanted `%v`; found `%v`", testCase.wantedErr, err)
			}
			if err != nil {
				if free := bitmap.NumClear(); free != testGeometry.NumSectors {
					t.Fatalf("failed allocation marked `%d` sectors", 64-free)
				}
				return
			}

			if found := fh.NumSectors(); found != testCase.wantedSectors {
				t.Fatalf(
					"wanted `%d` sectors; found `%d`",
					testCase.wantedSectors,
					found,
				)
			}
			wantedUsed := testCase.wantedSectors
			if testCase.wantedIndirect {
				wantedUsed++
			}
			if used := testGeometry.NumSectors - bitmap.NumClear(); used != wantedUsed {
				t.Fatalf("wanted `%d` sectors marked; found `%d`", wantedUsed, used)
			}

			fh.Deallocate(bitmap)
			if free := bitmap.NumClear(); free != testGeometry.NumSectors {
				t.Fatalf("wanted `64` free after deallocation; found `%d`", free)
			}
		})
	}
}

func TestAllocate_NoSpace(t *testing.T) {
	bitmap := alloc.New(4)
	bitmap.Mark(0)
	err := New(testGeometry).Allocate(bitmap, 4*32)
	if !errors.Is(err, ErrNoSpace) {
		t.Fatalf("wanted `%v`; found `%v`", ErrNoSpace, err)
	}
	if free := bitmap.NumClear(); free != 3 {
		t.Fatalf("wanted `3` free; found `%d`", free)
	}
}

func TestAllocate_NegativeSize(t *testing.T) {
	for _, size := range []Byte{-1, -5, -300} {
		bitmap := alloc.New(testGeometry.NumSectors)
		err := New(testGeometry).Allocate(bitmap, size)
		if !errors.Is(err, ErrInvalidSize) {
			t.Fatalf("size `%d`: wanted `%v`; found `%v`", size, ErrInvalidSize, err)
		}
		if free := bitmap.NumClear(); free != testGeometry.NumSectors {
			t.Fatalf(
				"size `%d`: wanted `%d` free; found `%d`",
				size,
				testGeometry.NumSectors,
				free,
			)
		}
	}
}

func TestFetchWriteBack(t *testing.T) {
	d := disk.NewMemory(testGeometry)
	bitmap := alloc.New(testGeometry.NumSectors)
	bitmap.Mark(0)

	wanted := New(testGeometry)
	if err := wanted.Allocate(bitmap, 9*32+7); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := wanted.WriteBack(d, 0); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	found := New(testGeometry)
	if err := found.FetchFrom(d, 0); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if diff := cmp.Diff(wanted.Header(), found.Header()); diff != "" {
		t.Fatalf("unexpected header (-wanted +found):\n%s", diff)
	}
	if !cmp.Equal(wanted.Sectors(), found.Sectors()) {
		t.Fatalf("wanted `%v`; found `%v`", wanted.Sectors(), found.Sectors())
	}
	if found.FileLength() != 9*32+7 {
		t.Fatalf("wanted `%d`; found `%d`", 9*32+7, found.FileLength())
	}

	// sector 0 is the header, data starts at 1, and the indirect sector is
	// allocated after the 5 direct sectors
	for _, testCase := range []struct {
		offset Byte
		wanted Sector
	}{
		{offset: 0, wanted: 1},
		{offset: 31, wanted: 1},
		{offset: 32, wanted: 2},
		{offset: 5 * 32, wanted: 7},
		{offset: 9*32 + 6, wanted: 11},
	} {
		if s := found.ByteToSector(testCase.offset); s != testCase.wanted {
			t.Fatalf(
				"offset `%d`: wanted `%d`; found `%d`",
				testCase.offset,
				testCase.wanted,
				s,
			)
		}
	}
}

func TestPrint(t *testing.T) {
	d := disk.NewMemory(testGeometry)
	bitmap := alloc.New(testGeometry.NumSectors)
	fh := New(testGeometry)
	if err := fh.Allocate(bitmap, 3); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	p := make([]byte, testGeometry.SectorSize)
	copy(p, "hi\n")
	if err := d.WriteSector(fh.ByteToSector(0), p); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	var buf bytes.Buffer
	if err := fh.Print(&buf, d); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.Contains(buf.String(), "hi\\a\n") {
		t.Fatalf("wanted contents `hi\\a`; found `%s`", buf.String())
	}
}
