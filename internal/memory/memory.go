// Package memory implements the CPU and PPU address spaces of the NES.
package memory

import (
	"log/slog"
)

// Bus represents the CPU memory map
type Bus struct {
	// Internal RAM (2KB, mirrored to 8KB)
	ram [0x800]uint8

	ppu    PPURegisters
	apu    APURegisters
	input  InputPorts
	mapper Cartridge

	// Logger receives debug records for accesses that hit nothing.
	Logger *slog.Logger

	dmaPage    uint8
	dmaPending bool
}

// PPURegisters is the $2000-$2007 register window
type PPURegisters interface {
	ReadRegister(address uint16) uint8
	WriteRegister(address uint16, value uint8)
}

// APURegisters is the sound register file
type APURegisters interface {
	WriteRegister(address uint16, value uint8)
	ReadStatus() uint8
}

// InputPorts serves $4016 and $4017
type InputPorts interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// Cartridge is the CPU side of a mapper
type Cartridge interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// New creates a bus. Any of the collaborators may be nil, in which case
// accesses to its window behave like unmapped space.
func New(ppu PPURegisters, apu APURegisters, mapper Cartridge) *Bus {
	return &Bus{
		ppu:    ppu,
		apu:    apu,
		mapper: mapper,
		Logger: slog.Default(),
	}
}

// SetInputSystem attaches the controller ports
func (b *Bus) SetInputSystem(input InputPorts) {
	b.input = input
}

// Read reads a byte from the given address
func (b *Bus) Read(address uint16) uint8 {
	loc := TranslateCPU(address)
	switch loc.Region {
	case RegionRAM:
		return b.ram[loc.Offset]

	case RegionPPU:
		if loc.Offset == OAMDMA || b.ppu == nil {
			return b.unmapped("read", address)
		}
		return b.ppu.ReadRegister(loc.Offset)

	case RegionAPU:
		// only the status register is readable
		if loc.Offset == 0x4015 && b.apu != nil {
			return b.apu.ReadStatus()
		}
		return b.unmapped("read", address)

	case RegionController:
		if b.input == nil {
			return b.unmapped("read", address)
		}
		return b.input.Read(loc.Offset)

	case RegionMapper:
		if b.mapper == nil {
			return b.unmapped("read", address)
		}
		return b.mapper.Read(loc.Offset)
	}
	return b.unmapped("read", address)
}

// Write writes a byte to the given address
func (b *Bus) Write(address uint16, value uint8) {
	loc := TranslateCPU(address)
	switch loc.Region {
	case RegionRAM:
		b.ram[loc.Offset] = value

	case RegionPPU:
		if loc.Offset == OAMDMA {
			b.dmaPage = value
			b.dmaPending = true
			return
		}
		if b.ppu != nil {
			b.ppu.WriteRegister(loc.Offset, value)
		}

	case RegionAPU:
		if b.apu != nil {
			b.apu.WriteRegister(loc.Offset, value)
		}

	case RegionController:
		// $4017 writes belong to the APU frame counter
		if loc.Offset == 0x4017 {
			if b.apu != nil {
				b.apu.WriteRegister(loc.Offset, value)
			}
			return
		}
		if b.input != nil {
			b.input.Write(loc.Offset, value)
		}

	case RegionMapper:
		if b.mapper != nil {
			b.mapper.Write(loc.Offset, value)
		}

	default:
		b.unmapped("write", address)
	}
}

// Read16 reads a little-endian word.
func (b *Bus) Read16(address uint16) uint16 {
	lo := uint16(b.Read(address))
	hi := uint16(b.Read(address + 1))
	return hi<<8 | lo
}

// Write16 writes a little-endian word.
func (b *Bus) Write16(address uint16, value uint16) {
	b.Write(address, uint8(value))
	b.Write(address+1, uint8(value>>8))
}

// Read16Bug reads a word from address and address+1. Callers emulating the
// JMP indirect page bug keep the two bytes on one page themselves.
func (b *Bus) Read16Bug(address uint16) uint16 {
	return b.Read16(address)
}

// TakeDMA reports a $4014 write since the last call and the page it named.
func (b *Bus) TakeDMA() (page uint8, ok bool) {
	if !b.dmaPending {
		return 0, false
	}
	b.dmaPending = false
	return b.dmaPage, true
}

func (b *Bus) unmapped(op string, address uint16) uint8 {
	if b.Logger != nil {
		b.Logger.Debug("unmapped access", "op", op, "address", address)
	}
	return 0
}
