package cartridge

// Mapper002 implements UxROM (mapper 2). A write anywhere in $8000-$FFFF
// selects the 16KB bank at $8000; $C000 is fixed to the last bank.
type Mapper002 struct {
	banks
	prgBanks int
	prgBank1 int
	prgBank2 int
}

// NewMapper002 creates a new UxROM mapper
func NewMapper002(img *Image) *Mapper002 {
	n := len(img.PRG) / prgPageSize
	return &Mapper002{
		banks:    newBanks(img),
		prgBanks: n,
		prgBank2: n - 1,
	}
}

func (m *Mapper002) Read(address uint16) uint8 {
	switch {
	case address < 0x2000:
		return m.chr[address]
	case address >= 0xC000:
		return m.prg[m.prgBank2*prgPageSize+int(address-0xC000)]
	case address >= 0x8000:
		return m.prg[m.prgBank1*prgPageSize+int(address-0x8000)]
	case address >= 0x6000:
		return m.readRAM(address)
	}
	return 0
}

func (m *Mapper002) Write(address uint16, value uint8) {
	switch {
	case address < 0x2000:
		if m.chrRAM {
			m.chr[address] = value
		}
	case address >= 0x8000:
		m.prgBank1 = int(value) % m.prgBanks
	case address >= 0x6000:
		m.writeRAM(address, value)
	}
}
