package cartridge

import (
	"bytes"
)

// ImageBuilder provides a fluent interface for assembling iNES images in
// memory, used to build small test cartridges.
type ImageBuilder struct {
	prgPages uint8
	chrPages uint8
	ramPages uint8
	mapper   uint8
	mirror   Mirror
	battery  bool
	trainer  bool

	prg     map[uint16]uint8 // CPU address -> byte
	chr     []uint8
	vectors [3]uint16 // NMI, reset, IRQ
}

// NewImageBuilder creates a builder for a 16KB PRG, 8KB CHR NROM image
// whose vectors all point at $8000.
func NewImageBuilder() *ImageBuilder {
	return &ImageBuilder{
		prgPages: 1,
		chrPages: 1,
		prg:      make(map[uint16]uint8),
		vectors:  [3]uint16{0x8000, 0x8000, 0x8000},
	}
}

// WithPRGPages sets the PRG ROM size in 16KB units
func (b *ImageBuilder) WithPRGPages(n uint8) *ImageBuilder {
	b.prgPages = n
	return b
}

// WithCHRPages sets the CHR ROM size in 8KB units; zero selects CHR RAM
func (b *ImageBuilder) WithCHRPages(n uint8) *ImageBuilder {
	b.chrPages = n
	return b
}

// WithPRGRAMPages sets header byte 8
func (b *ImageBuilder) WithPRGRAMPages(n uint8) *ImageBuilder {
	b.ramPages = n
	return b
}

func (b *ImageBuilder) WithMapper(id uint8) *ImageBuilder {
	b.mapper = id
	return b
}

func (b *ImageBuilder) WithMirror(m Mirror) *ImageBuilder {
	b.mirror = m
	return b
}

func (b *ImageBuilder) WithBattery() *ImageBuilder {
	b.battery = true
	return b
}

func (b *ImageBuilder) WithTrainer() *ImageBuilder {
	b.trainer = true
	return b
}

// WithProgram places code at a CPU address in $8000-$FFFF. Addresses below
// $C000 land in the first bank, the rest in the last bank.
func (b *ImageBuilder) WithProgram(address uint16, code ...uint8) *ImageBuilder {
	for i, v := range code {
		b.prg[address+uint16(i)] = v
	}
	return b
}

// WithCHR sets the start of CHR ROM
func (b *ImageBuilder) WithCHR(data ...uint8) *ImageBuilder {
	b.chr = data
	return b
}

func (b *ImageBuilder) WithNMIVector(address uint16) *ImageBuilder {
	b.vectors[0] = address
	return b
}

func (b *ImageBuilder) WithResetVector(address uint16) *ImageBuilder {
	b.vectors[1] = address
	return b
}

func (b *ImageBuilder) WithIRQVector(address uint16) *ImageBuilder {
	b.vectors[2] = address
	return b
}

// Bytes encodes the iNES file.
func (b *ImageBuilder) Bytes() []byte {
	header := make([]byte, headerSize)
	copy(header, "NES\x1A")
	header[4] = b.prgPages
	header[5] = b.chrPages

	flags6 := (b.mapper & 0x0F) << 4
	switch b.mirror {
	case MirrorVertical:
		flags6 |= 0x01
	case MirrorFour:
		flags6 |= 0x08
	}
	if b.battery {
		flags6 |= 0x02
	}
	if b.trainer {
		flags6 |= 0x04
	}
	header[6] = flags6
	header[7] = b.mapper & 0xF0
	header[8] = b.ramPages

	var buf bytes.Buffer
	buf.Write(header)
	if b.trainer {
		buf.Write(make([]byte, trainerSize))
	}

	prg := make([]byte, int(b.prgPages)*prgPageSize)
	if len(prg) > 0 {
		for address, v := range b.prg {
			prg[b.prgOffset(address)] = v
		}
		for i, v := range b.vectors {
			at := b.prgOffset(0xFFFA + uint16(i)*2)
			prg[at] = uint8(v)
			prg[at+1] = uint8(v >> 8)
		}
	}
	buf.Write(prg)

	chr := make([]byte, int(b.chrPages)*chrPageSize)
	copy(chr, b.chr)
	buf.Write(chr)
	return buf.Bytes()
}

// Image encodes the file and loads it back.
func (b *ImageBuilder) Image() (*Image, error) {
	return Load(bytes.NewReader(b.Bytes()))
}

func (b *ImageBuilder) prgOffset(address uint16) int {
	if address >= 0xC000 {
		return (int(b.prgPages)-1)*prgPageSize + int(address-0xC000)
	}
	return int(address-0x8000) % prgPageSize
}
