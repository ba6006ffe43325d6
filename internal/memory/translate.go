package memory

import "nescore/internal/cartridge"

// Region names the subsystem an address belongs to.
type Region uint8

const (
	RegionInvalid Region = iota
	RegionRAM
	RegionPPU
	RegionAPU
	RegionController
	RegionMapper
	RegionCHR
	RegionNametable
	RegionPalette
)

func (r Region) String() string {
	switch r {
	case RegionRAM:
		return "ram"
	case RegionPPU:
		return "ppu"
	case RegionAPU:
		return "apu"
	case RegionController:
		return "controller"
	case RegionMapper:
		return "mapper"
	case RegionCHR:
		return "chr"
	case RegionNametable:
		return "nametable"
	case RegionPalette:
		return "palette"
	}
	return "invalid"
}

// Location is a translated address: the owning subsystem and the offset
// inside it.
type Location struct {
	Region Region
	Offset uint16
}

// OAMDMA is the CPU address that starts a sprite DMA transfer.
const OAMDMA = 0x4014

// TranslateCPU maps a CPU address to its subsystem. RAM repeats every 2KB
// below $2000 and the eight PPU registers repeat up to $3FFF. Mapper
// addresses are passed through unchanged.
func TranslateCPU(address uint16) Location {
	switch {
	case address < 0x2000:
		return Location{RegionRAM, address % 0x0800}
	case address < 0x4000:
		return Location{RegionPPU, 0x2000 + address%8}
	case address == OAMDMA:
		return Location{RegionPPU, OAMDMA}
	case address == 0x4015:
		return Location{RegionAPU, address}
	case address == 0x4016, address == 0x4017:
		return Location{RegionController, address}
	case address < 0x4020:
		return Location{RegionAPU, address}
	case address >= 0x6000:
		return Location{RegionMapper, address}
	}
	return Location{RegionInvalid, address}
}

// MirrorLookup maps (mirror mode, logical nametable) to a physical 1KB
// nametable, four entries per mode.
var MirrorLookup = [...]uint16{
	0, 0, 1, 1, // horizontal
	0, 1, 0, 1, // vertical
	0, 0, 0, 0, // single screen 0
	1, 1, 1, 1, // single screen 1
	0, 1, 2, 3, // four screen
}

// TranslatePPU maps a PPU address to pattern tables, nametable RAM or
// palette RAM. Nametable offsets are physical; palette offsets are 0-31
// before entry mirroring.
func TranslatePPU(address uint16, mirror cartridge.Mirror) Location {
	address %= 0x4000
	switch {
	case address < 0x2000:
		return Location{RegionCHR, address}
	case address < 0x3F00:
		return Location{RegionNametable, mirrorNametable(address, mirror)}
	}
	return Location{RegionPalette, address % 32}
}

func mirrorNametable(address uint16, mirror cartridge.Mirror) uint16 {
	address = (address - 0x2000) % 0x1000
	table := address / 0x0400
	offset := address % 0x0400
	return MirrorLookup[uint16(mirror)*4+table]*0x0400 + offset
}

// paletteIndex folds the sprite backdrop entries onto the background ones.
func paletteIndex(offset uint16) uint16 {
	offset %= 32
	if offset >= 16 && offset%4 == 0 {
		offset -= 16
	}
	return offset
}
