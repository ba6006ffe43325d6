package cartridge

// Mapper001 implements MMC1 (mapper 1).
//
// Registers are loaded serially: five writes of bit 0 into $8000-$FFFF fill
// a shift register, and the fifth write commits it to the register picked by
// address bits 13-14. A write with bit 7 set resets the shift register and
// locks PRG mode 3.
type Mapper001 struct {
	banks
	shiftRegister uint8
	control       uint8
	prgMode       uint8
	chrMode       uint8
	prgBank       uint8
	chrBank0      uint8
	chrBank1      uint8
	prgOffsets    [2]int
	chrOffsets    [2]int
}

// NewMapper001 creates a new MMC1 mapper
func NewMapper001(img *Image) *Mapper001 {
	m := &Mapper001{
		banks:         newBanks(img),
		shiftRegister: 0x10,
		control:       0x0C,
		prgMode:       3,
	}
	m.updateOffsets()
	return m
}

func (m *Mapper001) Read(address uint16) uint8 {
	switch {
	case address < 0x2000:
		bank := address / 0x1000
		return m.chr[m.chrOffsets[bank]+int(address%0x1000)]
	case address >= 0x8000:
		offset := address - 0x8000
		bank := offset / prgPageSize
		return m.prg[m.prgOffsets[bank]+int(offset%prgPageSize)]
	case address >= 0x6000:
		return m.readRAM(address)
	}
	return 0
}

func (m *Mapper001) Write(address uint16, value uint8) {
	switch {
	case address < 0x2000:
		if m.chrRAM {
			bank := address / 0x1000
			m.chr[m.chrOffsets[bank]+int(address%0x1000)] = value
		}
	case address >= 0x8000:
		m.loadRegister(address, value)
	case address >= 0x6000:
		m.writeRAM(address, value)
	}
}

func (m *Mapper001) loadRegister(address uint16, value uint8) {
	if value&0x80 != 0 {
		m.shiftRegister = 0x10
		m.writeControl(m.control | 0x0C)
		return
	}
	complete := m.shiftRegister&1 == 1
	m.shiftRegister >>= 1
	m.shiftRegister |= (value & 1) << 4
	if complete {
		m.writeRegister(address, m.shiftRegister)
		m.shiftRegister = 0x10
	}
}

func (m *Mapper001) writeRegister(address uint16, value uint8) {
	switch {
	case address <= 0x9FFF:
		m.writeControl(value)
	case address <= 0xBFFF:
		m.chrBank0 = value
		m.updateOffsets()
	case address <= 0xDFFF:
		m.chrBank1 = value
		m.updateOffsets()
	default:
		m.prgBank = value & 0x0F
		m.updateOffsets()
	}
}

// writeControl decodes mirroring and the bank modes. The low two bits use
// a different numbering than the iNES header.
func (m *Mapper001) writeControl(value uint8) {
	m.control = value
	m.prgMode = (value >> 2) & 3
	m.chrMode = (value >> 4) & 1
	switch value & 3 {
	case 0:
		m.mirror = MirrorSingle0
	case 1:
		m.mirror = MirrorSingle1
	case 2:
		m.mirror = MirrorVertical
	case 3:
		m.mirror = MirrorHorizontal
	}
	m.updateOffsets()
}

// prgOffset returns the byte offset of a 16KB bank; negative indexes count
// from the end.
func (m *Mapper001) prgOffset(index int) int {
	count := len(m.prg) / prgPageSize
	index %= count
	if index < 0 {
		index += count
	}
	return index * prgPageSize
}

// chrOffset returns the byte offset of a 4KB bank.
func (m *Mapper001) chrOffset(index int) int {
	count := len(m.chr) / 0x1000
	index %= count
	if index < 0 {
		index += count
	}
	return index * 0x1000
}

// updateOffsets applies the bank modes:
// PRG 0,1: 32KB at $8000 ignoring bit 0; 2: first bank fixed at $8000;
// 3: last bank fixed at $C000. CHR 0: 8KB; 1: two 4KB banks.
func (m *Mapper001) updateOffsets() {
	switch m.prgMode {
	case 0, 1:
		m.prgOffsets[0] = m.prgOffset(int(m.prgBank & 0xFE))
		m.prgOffsets[1] = m.prgOffset(int(m.prgBank | 0x01))
	case 2:
		m.prgOffsets[0] = 0
		m.prgOffsets[1] = m.prgOffset(int(m.prgBank))
	case 3:
		m.prgOffsets[0] = m.prgOffset(int(m.prgBank))
		m.prgOffsets[1] = m.prgOffset(-1)
	}
	switch m.chrMode {
	case 0:
		m.chrOffsets[0] = m.chrOffset(int(m.chrBank0 & 0xFE))
		m.chrOffsets[1] = m.chrOffset(int(m.chrBank0 | 0x01))
	case 1:
		m.chrOffsets[0] = m.chrOffset(int(m.chrBank0))
		m.chrOffsets[1] = m.chrOffset(int(m.chrBank1))
	}
}
