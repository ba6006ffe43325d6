package cartridge

// Mapper000 implements NROM (mapper 0)
// NROM has no bank switching:
// - 16KB or 32KB PRG ROM (16KB is mirrored to fill 32KB address space)
// - 8KB CHR ROM or CHR RAM
// - PRG RAM at 0x6000-0x7FFF
type Mapper000 struct {
	banks
	prgBanks int
}

// NewMapper000 creates a new NROM mapper
func NewMapper000(img *Image) *Mapper000 {
	return &Mapper000{
		banks:    newBanks(img),
		prgBanks: len(img.PRG) / prgPageSize,
	}
}

// Read reads CHR, PRG RAM or PRG ROM.
func (m *Mapper000) Read(address uint16) uint8 {
	switch {
	case address < 0x2000:
		return m.chr[address]
	case address >= 0x8000:
		offset := int(address - 0x8000)
		if m.prgBanks == 1 {
			offset %= prgPageSize
		}
		return m.prg[offset%len(m.prg)]
	case address >= 0x6000:
		return m.readRAM(address)
	}
	return 0
}

// Write stores to CHR RAM or PRG RAM. ROM writes are ignored.
func (m *Mapper000) Write(address uint16, value uint8) {
	switch {
	case address < 0x2000:
		if m.chrRAM {
			m.chr[address] = value
		}
	case address >= 0x8000:
	case address >= 0x6000:
		m.writeRAM(address, value)
	}
}
