package disk

import (
	"fmt"
	"sync/atomic"

	. "github.com/weberc2/nachofs/pkg/types"
)

// Disk is the simulated drive. It checks every request against its
// geometry and counts transfers. Out-of-range sectors and wrongly sized
// buffers are programming errors and panic.
type Disk struct {
	store    SectorStore
	geometry Geometry
	reads    uint64
	writes   uint64
}

func New(store SectorStore, geometry Geometry) *Disk {
	return &Disk{store: store, geometry: geometry}
}

// NewMemory returns a zeroed disk backed by a byte slice.
func NewMemory(geometry Geometry) *Disk {
	return New(
		NewVolumeStore(NewBuffer(geometry.DiskSize()), geometry.SectorSize),
		geometry,
	)
}

func (d *Disk) Geometry() Geometry { return d.geometry }

func (d *Disk) SectorSize() Byte { return d.geometry.SectorSize }

func (d *Disk) NumSectors() Sector { return d.geometry.NumSectors }

func (d *Disk) ReadSector(sector Sector, p []byte) error {
	d.check(sector, p)
	if err := d.store.ReadSector(sector, p); err != nil {
		return fmt.Errorf("reading sector `%d`: %w", sector, err)
	}
	atomic.AddUint64(&d.reads, 1)
	return nil
}

func (d *Disk) WriteSector(sector Sector, p []byte) error {
	d.check(sector, p)
	if err := d.store.WriteSector(sector, p); err != nil {
		return fmt.Errorf("writing sector `%d`: %w", sector, err)
	}
	atomic.AddUint64(&d.writes, 1)
	return nil
}

func (d *Disk) check(sector Sector, p []byte) {
	if sector >= d.geometry.NumSectors {
		panic(fmt.Sprintf(
			"sector `%d` out of range; disk has `%d` sectors",
			sector,
			d.geometry.NumSectors,
		))
	}
	if Byte(len(p)) != d.geometry.SectorSize {
		panic(fmt.Sprintf(
			"buffer of `%d` bytes; sector size is `%d`",
			len(p),
			d.geometry.SectorSize,
		))
	}
}

type Stats struct {
	Reads  uint64 `json:"reads"`
	Writes uint64 `json:"writes"`
}

func (d *Disk) Stats() Stats {
	return Stats{
		Reads:  atomic.LoadUint64(&d.reads),
		Writes: atomic.LoadUint64(&d.writes),
	}
}
