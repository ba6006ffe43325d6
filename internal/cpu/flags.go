package cpu

// Status register bit masks
const (
	carryMask     = 0x01
	zeroMask      = 0x02
	interruptMask = 0x04
	decimalMask   = 0x08
	breakMask     = 0x10
	unusedMask    = 0x20
	overflowMask  = 0x40
	negativeMask  = 0x80
)

// Flags is the processor status register. Bits 4 and 5 have no effect on
// execution but are kept so the register round-trips through the stack.
type Flags struct {
	Carry            bool
	Zero             bool
	InterruptDisable bool
	Decimal          bool
	Break            bool
	Unused           bool
	Overflow         bool
	Negative         bool
}

// FlagsFromByte unpacks a status byte.
func FlagsFromByte(b uint8) Flags {
	return Flags{
		Carry:            b&carryMask != 0,
		Zero:             b&zeroMask != 0,
		InterruptDisable: b&interruptMask != 0,
		Decimal:          b&decimalMask != 0,
		Break:            b&breakMask != 0,
		Unused:           b&unusedMask != 0,
		Overflow:         b&overflowMask != 0,
		Negative:         b&negativeMask != 0,
	}
}

// Byte packs the flags into a status byte.
func (f Flags) Byte() uint8 {
	var b uint8
	if f.Carry {
		b |= carryMask
	}
	if f.Zero {
		b |= zeroMask
	}
	if f.InterruptDisable {
		b |= interruptMask
	}
	if f.Decimal {
		b |= decimalMask
	}
	if f.Break {
		b |= breakMask
	}
	if f.Unused {
		b |= unusedMask
	}
	if f.Overflow {
		b |= overflowMask
	}
	if f.Negative {
		b |= negativeMask
	}
	return b
}

// setZN updates zero and negative from an 8-bit result.
func (f *Flags) setZN(v uint8) {
	f.Zero = v == 0
	f.Negative = v&negativeMask != 0
}
