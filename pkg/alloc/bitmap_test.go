package alloc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	. "github.com/weberc2/nachofs/pkg/types"
)

func TestBitmap_MarkOrder(t *testing.T) {
	bm := New(16)
	bm.Mark(0)
	bm.Mark(1)
	bm.Mark(9)
	if wanted := []byte{0b1100_0000, 0b0100_0000}; !cmp.Equal(
		wanted,
		bm.Bytes(),
	) {
		t.Fatalf("wanted `%08b`; found `%08b`", wanted, bm.Bytes())
	}
}

func TestBitmap_FindAndSet(t *testing.T) {
	for _, testCase := range []struct {
		name     string
		bits     Sector
		marked   []Sector
		wanted   Sector
		wantedOK bool
	}{
		{name: "empty", bits: 8, wanted: 0, wantedOK: true},
		{
			name:     "skips-marked",
			bits:     16,
			marked:   []Sector{0, 1, 2, 3, 4, 5, 6, 7, 8},
			wanted:   9,
			wantedOK: true,
		},
		{name: "full", bits: 2, marked: []Sector{0, 1}},
		{
			// the padding bits in the last byte are never handed out
			name:   "full-partial-byte",
			bits:   3,
			marked: []Sector{0, 1, 2},
		},
	} {
		t.Run(testCase.name, func(t *testing.T) {
			bm := New(testCase.bits)
			for _, s := range testCase.marked {
				bm.Mark(s)
			}
			found, ok := bm.FindAndSet()
			if ok != testCase.wantedOK {
				t.Fatalf("wanted ok `%t`; found `%t`", testCase.wantedOK, ok)
			}
			if ok && found != testCase.wanted {
				t.Fatalf("wanted `%d`; found `%d`", testCase.wanted, found)
			}
			if ok && !bm.Test(found) {
				t.Fatalf("sector `%d` wasn't marked", found)
			}
		})
	}
}

func TestBitmap_NumClear(t *testing.T) {
	bm := New(10)
	bm.Mark(3)
	bm.Mark(9)
	if found := bm.NumClear(); found != 8 {
		t.Fatalf("wanted `8`; found `%d`", found)
	}
	bm.Clear(3)
	if found := bm.NumClear(); found != 9 {
		t.Fatalf("wanted `9`; found `%d`", found)
	}
}

func TestBitmap_DoubleFreePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("wanted panic; found none")
		}
	}()
	New(8).Clear(4)
}

type fileFake []byte

func (f fileFake) ReadAt(p []byte, position Byte) (int, error) {
	return copy(p, f[position:]), nil
}

func (f fileFake) WriteAt(p []byte, position Byte) (int, error) {
	return copy(f[position:], p), nil
}

func TestPersistentBitmap(t *testing.T) {
	file := make(fileFake, 2)
	bm := NewPersistent(16)
	bm.Mark(5)
	bm.Mark(15)
	if err := bm.WriteBack(file); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	fetched := NewPersistent(16)
	if err := fetched.FetchFrom(file); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !cmp.Equal(bm.Bytes(), fetched.Bytes()) {
		t.Fatalf("wanted `%08b`; found `%08b`", bm.Bytes(), fetched.Bytes())
	}
}
