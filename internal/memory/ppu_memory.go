package memory

import "nescore/internal/cartridge"

// CHR is the PPU side of a mapper: pattern tables plus the current
// nametable arrangement.
type CHR interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
	Mirroring() cartridge.Mirror
}

// PPUMemory represents the PPU's memory space
type PPUMemory struct {
	vram    [0x1000]uint8 // room for four-screen cartridges
	palette [32]uint8
	chr     CHR
}

// NewPPUMemory creates the PPU address space backed by chr
func NewPPUMemory(chr CHR) *PPUMemory {
	return &PPUMemory{chr: chr}
}

// Read reads from PPU memory space ($0000-$3FFF)
func (pm *PPUMemory) Read(address uint16) uint8 {
	loc := TranslatePPU(address, pm.mirroring())
	switch loc.Region {
	case RegionCHR:
		if pm.chr == nil {
			return 0
		}
		return pm.chr.Read(loc.Offset)
	case RegionNametable:
		return pm.vram[loc.Offset]
	}
	return pm.palette[paletteIndex(loc.Offset)]
}

// Write writes to PPU memory space ($0000-$3FFF)
func (pm *PPUMemory) Write(address uint16, value uint8) {
	loc := TranslatePPU(address, pm.mirroring())
	switch loc.Region {
	case RegionCHR:
		if pm.chr != nil {
			pm.chr.Write(loc.Offset, value)
		}
	case RegionNametable:
		pm.vram[loc.Offset] = value
	default:
		pm.palette[paletteIndex(loc.Offset)] = value
	}
}

// ReadPalette returns a palette entry, index 0-31
func (pm *PPUMemory) ReadPalette(index uint8) uint8 {
	return pm.palette[paletteIndex(uint16(index))]
}

func (pm *PPUMemory) mirroring() cartridge.Mirror {
	if pm.chr == nil {
		return cartridge.MirrorHorizontal
	}
	return pm.chr.Mirroring()
}
