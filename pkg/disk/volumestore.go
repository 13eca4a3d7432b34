package disk

import (
	"fmt"

	. "github.com/weberc2/nachofs/pkg/types"
)

// VolumeStore lays sectors out back to back over a byte volume, starting at
// `offset`.
type VolumeStore struct {
	volume     Volume
	offset     Byte
	sectorSize Byte
}

func NewVolumeStore(volume Volume, sectorSize Byte) *VolumeStore {
	return &VolumeStore{volume: volume, sectorSize: sectorSize}
}

// NewOffsetVolumeStore skips `offset` leading bytes of the volume, e.g. a
// file header.
func NewOffsetVolumeStore(
	volume Volume,
	offset Byte,
	sectorSize Byte,
) *VolumeStore {
	return &VolumeStore{
		volume:     volume,
		offset:     offset,
		sectorSize: sectorSize,
	}
}

func (store *VolumeStore) ReadSector(sector Sector, p []byte) error {
	if err := store.volume.ReadAt(store.position(sector), p); err != nil {
		return fmt.Errorf(
			"reading sector `%d` at volume offset `%d`: %w",
			sector,
			store.position(sector),
			err,
		)
	}
	return nil
}

func (store *VolumeStore) WriteSector(sector Sector, p []byte) error {
	if err := store.volume.WriteAt(store.position(sector), p); err != nil {
		return fmt.Errorf(
			"writing sector `%d` at volume offset `%d`: %w",
			sector,
			store.position(sector),
			err,
		)
	}
	return nil
}

func (store *VolumeStore) position(sector Sector) Byte {
	return store.offset + Byte(sector)*store.sectorSize
}
