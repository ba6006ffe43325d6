// Package apu implements the register file of the NES Audio Processing Unit.
// No sound is synthesized; writes are latched so that software polling the
// status register sees consistent channel state.
package apu

const (
	firstRegister = 0x4000
	statusAddress = 0x4015
	frameCounter  = 0x4017

	channelCount = 5 // pulse1, pulse2, triangle, noise, dmc
)

// APU represents the NES Audio Processing Unit
type APU struct {
	registers [0x18]uint8

	// Channel enable flags from $4015
	channelEnable [channelCount]bool

	frameMode       bool // false = 4-step, true = 5-step
	frameIRQInhibit bool
}

// New creates a new APU instance
func New() *APU {
	return &APU{}
}

// Reset silences every channel, the way a reset clears $4015.
func (apu *APU) Reset() {
	apu.channelEnable = [channelCount]bool{}
}

// WriteRegister writes to an APU register
func (apu *APU) WriteRegister(address uint16, value uint8) {
	if address < firstRegister || address > frameCounter || address == 0x4014 || address == 0x4016 {
		return
	}
	apu.registers[address-firstRegister] = value

	switch address {
	case statusAddress:
		for i := range apu.channelEnable {
			apu.channelEnable[i] = value&(1<<i) != 0
		}
	case frameCounter:
		apu.frameMode = value&0x80 != 0
		apu.frameIRQInhibit = value&0x40 != 0
	}
}

// ReadStatus reads the APU status register ($4015)
func (apu *APU) ReadStatus() uint8 {
	var status uint8
	for i, enabled := range apu.channelEnable {
		if enabled {
			status |= 1 << i
		}
	}
	return status
}

// Register returns the last value written to address.
func (apu *APU) Register(address uint16) uint8 {
	if address < firstRegister || address > frameCounter {
		return 0
	}
	return apu.registers[address-firstRegister]
}

// FiveStepMode reports the frame counter sequence selected through $4017
func (apu *APU) FiveStepMode() bool {
	return apu.frameMode
}
