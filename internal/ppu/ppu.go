// Package ppu implements the Picture Processing Unit for the NES.
package ppu

import (
	"nescore/internal/memory"
)

const (
	// ScreenWidth and ScreenHeight are the visible frame dimensions.
	ScreenWidth  = 256
	ScreenHeight = 240

	dotsPerLine    = 341
	linesPerFrame  = 262
	vblankLine     = 241
	preRenderLine  = 261
	nmiDelayCycles = 15
)

// PPU represents the NES Picture Processing Unit (2C02)
type PPU struct {
	memory *memory.PPUMemory

	Cycle    int    // 0-340
	ScanLine int    // 0-261, 261 is the pre-render line
	Frame    uint64 // frames completed since reset
	oddFrame bool

	// last value written to any register, visible in the low status bits
	register uint8

	ppuCtrl uint8 // $2000
	ppuMask uint8 // $2001
	oamAddr uint8 // $2003

	// Internal PPU State
	v uint16 // Current VRAM address (15 bits)
	t uint16 // Temporary VRAM address (15 bits)
	x uint8  // Fine X scroll (3 bits)
	w bool   // Write latch

	readBuffer uint8

	nmiOccurred bool
	nmiOutput   bool
	nmiPrevious bool
	nmiDelay    uint8
	nmiPending  bool

	sprite0Hit     bool
	spriteOverflow bool

	// background fetch latches
	nameTableByte uint8
	attributeByte uint8
	lowTileByte   uint8
	highTileByte  uint8
	tileData      uint64

	// Sprite Data
	oam              [256]uint8
	spriteCount      int
	spritePatterns   [8]uint32
	spritePositions  [8]uint8
	spritePriorities [8]uint8
	spriteIndexes    [8]uint8

	front *[ScreenWidth * ScreenHeight]uint8
	back  *[ScreenWidth * ScreenHeight]uint8
}

// New creates a PPU reading pattern, nametable and palette data from mem.
func New(mem *memory.PPUMemory) *PPU {
	p := &PPU{
		memory: mem,
		front:  new([ScreenWidth * ScreenHeight]uint8),
		back:   new([ScreenWidth * ScreenHeight]uint8),
	}
	p.Reset()
	return p
}

// Reset places the PPU just before vertical blank of frame zero.
func (p *PPU) Reset() {
	p.Cycle = 340
	p.ScanLine = 240
	p.Frame = 0
	p.oddFrame = false
	p.nmiOccurred = false
	p.nmiPrevious = false
	p.sprite0Hit = false
	p.spriteOverflow = false
	p.writeControl(0)
	p.ppuMask = 0
	p.oamAddr = 0
	p.w = false
	p.nmiPending = false
	p.nmiDelay = 0
}

// ReadRegister reads from a PPU register (CPU $2000-$2007)
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch address {
	case 0x2002:
		return p.readStatus()
	case 0x2004:
		return p.readOAMData()
	case 0x2007:
		return p.readData()
	}
	return 0
}

// WriteRegister writes to a PPU register (CPU $2000-$2007)
func (p *PPU) WriteRegister(address uint16, value uint8) {
	p.register = value
	switch address {
	case 0x2000:
		p.writeControl(value)
	case 0x2001:
		p.ppuMask = value
	case 0x2003:
		p.oamAddr = value
	case 0x2004:
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case 0x2005:
		p.writeScroll(value)
	case 0x2006:
		p.writeAddress(value)
	case 0x2007:
		p.memory.Write(p.v, value)
		p.incrementAddress()
	}
}

// WriteOAM stores one DMA byte at OAMADDR+offset.
func (p *PPU) WriteOAM(offset uint8, value uint8) {
	p.oam[p.oamAddr+offset] = value
}

// TakeNMI reports whether an NMI became due since the last call.
func (p *PPU) TakeNMI() bool {
	pending := p.nmiPending
	p.nmiPending = false
	return pending
}

// Buffer returns the last completed frame as palette color indices, row by
// row.
func (p *PPU) Buffer() []uint8 {
	return p.front[:]
}

// RenderingEnabled reports whether background or sprites are shown.
func (p *PPU) RenderingEnabled() bool {
	return p.ppuMask&0x18 != 0
}

// VBlank reports the vertical blank flag without clearing it.
func (p *PPU) VBlank() bool {
	return p.nmiOccurred
}

func (p *PPU) writeControl(value uint8) {
	p.ppuCtrl = value
	p.nmiOutput = value&0x80 != 0
	p.nmiChange()
	p.t = (p.t & 0xF3FF) | (uint16(value)&0x03)<<10
}

func (p *PPU) readStatus() uint8 {
	result := p.register & 0x1F
	if p.spriteOverflow {
		result |= 0x20
	}
	if p.sprite0Hit {
		result |= 0x40
	}
	if p.nmiOccurred {
		result |= 0x80
	}
	p.nmiOccurred = false
	p.nmiChange()
	p.w = false
	return result
}

func (p *PPU) readOAMData() uint8 {
	data := p.oam[p.oamAddr]
	// attribute bytes have no bits 2-4
	if p.oamAddr&0x03 == 0x02 {
		data &= 0xE3
	}
	return data
}

func (p *PPU) writeScroll(value uint8) {
	if !p.w {
		p.t = (p.t & 0xFFE0) | uint16(value)>>3
		p.x = value & 0x07
		p.w = true
	} else {
		p.t = (p.t & 0x8FFF) | (uint16(value)&0x07)<<12
		p.t = (p.t & 0xFC1F) | (uint16(value)&0xF8)<<2
		p.w = false
	}
}

func (p *PPU) writeAddress(value uint8) {
	if !p.w {
		p.t = (p.t & 0x80FF) | (uint16(value)&0x3F)<<8
		p.w = true
	} else {
		p.t = (p.t & 0xFF00) | uint16(value)
		p.v = p.t
		p.w = false
	}
}

func (p *PPU) readData() uint8 {
	value := p.memory.Read(p.v)
	if p.v%0x4000 < 0x3F00 {
		value, p.readBuffer = p.readBuffer, value
	} else {
		// palette reads are immediate; the buffer gets the nametable below
		p.readBuffer = p.memory.Read(p.v - 0x1000)
	}
	p.incrementAddress()
	return value
}

func (p *PPU) incrementAddress() {
	if p.ppuCtrl&0x04 != 0 {
		p.v += 32
	} else {
		p.v++
	}
}

// nmiChange arms the delay counter on a rising edge of output && occurred.
func (p *PPU) nmiChange() {
	nmi := p.nmiOutput && p.nmiOccurred
	if nmi && !p.nmiPrevious {
		p.nmiDelay = nmiDelayCycles
	}
	p.nmiPrevious = nmi
}

func (p *PPU) setVerticalBlank() {
	p.front, p.back = p.back, p.front
	p.nmiOccurred = true
	p.nmiChange()
}

func (p *PPU) clearVerticalBlank() {
	p.nmiOccurred = false
	p.nmiChange()
}
