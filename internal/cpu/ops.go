package cpu

import "fmt"

// step is the decoded operand handed to an instruction handler.
type step struct {
	address uint16
	mode    AddressingMode
	pc      uint16 // PC after the instruction bytes
}

// UnsupportedOpcodeError reports an undocumented opcode whose hardware
// behavior is unstable. The instruction executes as a no-op.
type UnsupportedOpcodeError struct {
	Opcode   uint8
	Mnemonic Mnemonic
}

func (e *UnsupportedOpcodeError) Error() string {
	return fmt.Sprintf("unsupported opcode $%02X (%s) executed as NOP", e.Opcode, e.Mnemonic)
}

// execute dispatches one decoded instruction to its handler.
func execute(cpu *CPU, inst Instruction, s step) error {
	switch inst.Mnemonic {
	case ADC:
		adc(cpu, s)
	case AND:
		and(cpu, s)
	case ASL:
		asl(cpu, s)
	case BCC:
		branch(cpu, s, !cpu.P.Carry)
	case BCS:
		branch(cpu, s, cpu.P.Carry)
	case BEQ:
		branch(cpu, s, cpu.P.Zero)
	case BIT:
		bit(cpu, s)
	case BMI:
		branch(cpu, s, cpu.P.Negative)
	case BNE:
		branch(cpu, s, !cpu.P.Zero)
	case BPL:
		branch(cpu, s, !cpu.P.Negative)
	case BRK:
		brk(cpu, s)
	case BVC:
		branch(cpu, s, !cpu.P.Overflow)
	case BVS:
		branch(cpu, s, cpu.P.Overflow)
	case CLC:
		cpu.P.Carry = false
	case CLD:
		cpu.P.Decimal = false
	case CLI:
		cpu.P.InterruptDisable = false
	case CLV:
		cpu.P.Overflow = false
	case CMP:
		compare(cpu, cpu.A, cpu.read(s.address))
	case CPX:
		compare(cpu, cpu.X, cpu.read(s.address))
	case CPY:
		compare(cpu, cpu.Y, cpu.read(s.address))
	case DEC:
		dec(cpu, s)
	case DEX:
		cpu.X--
		cpu.P.setZN(cpu.X)
	case DEY:
		cpu.Y--
		cpu.P.setZN(cpu.Y)
	case EOR:
		eor(cpu, s)
	case INC:
		inc(cpu, s)
	case INX:
		cpu.X++
		cpu.P.setZN(cpu.X)
	case INY:
		cpu.Y++
		cpu.P.setZN(cpu.Y)
	case JMP:
		cpu.PC = s.address
	case JSR:
		jsr(cpu, s)
	case LDA:
		cpu.A = cpu.read(s.address)
		cpu.P.setZN(cpu.A)
	case LDX:
		cpu.X = cpu.read(s.address)
		cpu.P.setZN(cpu.X)
	case LDY:
		cpu.Y = cpu.read(s.address)
		cpu.P.setZN(cpu.Y)
	case LSR:
		lsr(cpu, s)
	case NOP:
	case ORA:
		ora(cpu, s)
	case PHA:
		cpu.push(cpu.A)
	case PHP:
		php(cpu, s)
	case PLA:
		cpu.A = cpu.pull()
		cpu.P.setZN(cpu.A)
	case PLP:
		plp(cpu, s)
	case ROL:
		rol(cpu, s)
	case ROR:
		ror(cpu, s)
	case RTI:
		rti(cpu, s)
	case RTS:
		cpu.PC = cpu.pull16() + 1
	case SBC:
		sbc(cpu, s)
	case SEC:
		cpu.P.Carry = true
	case SED:
		cpu.P.Decimal = true
	case SEI:
		cpu.P.InterruptDisable = true
	case STA:
		cpu.write(s.address, cpu.A)
	case STX:
		cpu.write(s.address, cpu.X)
	case STY:
		cpu.write(s.address, cpu.Y)
	case TAX:
		cpu.X = cpu.A
		cpu.P.setZN(cpu.X)
	case TAY:
		cpu.Y = cpu.A
		cpu.P.setZN(cpu.Y)
	case TSX:
		cpu.X = cpu.SP
		cpu.P.setZN(cpu.X)
	case TXA:
		cpu.A = cpu.X
		cpu.P.setZN(cpu.A)
	case TXS:
		cpu.SP = cpu.X
	case TYA:
		cpu.A = cpu.Y
		cpu.P.setZN(cpu.A)

	// undocumented, stable
	case ALR:
		alr(cpu, s)
	case ANC:
		anc(cpu, s)
	case ARR:
		arr(cpu, s)
	case AXS:
		axs(cpu, s)
	case DCP:
		dcp(cpu, s)
	case ISC:
		isc(cpu, s)
	case LAX:
		lax(cpu, s)
	case RLA:
		rla(cpu, s)
	case RRA:
		rra(cpu, s)
	case SAX:
		cpu.write(s.address, cpu.A&cpu.X)
	case SLO:
		slo(cpu, s)
	case SRE:
		sre(cpu, s)

	// undocumented, unstable or halting
	case AHX, KIL, LAS, SHX, SHY, TAS, XAA:
		return &UnsupportedOpcodeError{Opcode: inst.Opcode, Mnemonic: inst.Mnemonic}

	default:
		panic(fmt.Sprintf("cpu: no handler for %s (opcode $%02X)", inst.Mnemonic, inst.Opcode))
	}
	return nil
}

// addWithCarry is shared by ADC and RRA. Zero and negative are left alone in
// decimal mode.
func addWithCarry(cpu *CPU, value uint8) {
	a := cpu.A
	var carry uint16
	if cpu.P.Carry {
		carry = 1
	}
	sum := uint16(a) + uint16(value) + carry
	result := uint8(sum)
	cpu.A = result
	cpu.P.Carry = sum > 0xFF
	cpu.P.Overflow = (a^result)&(value^result)&0x80 != 0
	if !cpu.P.Decimal {
		cpu.P.setZN(result)
	}
}

// subtractWithCarry is shared by SBC and ISC.
func subtractWithCarry(cpu *CPU, value uint8) {
	a := cpu.A
	borrow := 1
	if cpu.P.Carry {
		borrow = 0
	}
	diff := int(a) - int(value) - borrow
	result := uint8(diff)
	cpu.A = result
	cpu.P.Carry = diff >= 0
	cpu.P.Overflow = (a^value)&(a^result)&0x80 != 0
	if !cpu.P.Decimal {
		cpu.P.setZN(result)
	}
}

func compare(cpu *CPU, a, b uint8) {
	cpu.P.setZN(a - b)
	cpu.P.Carry = a >= b
}

func adc(cpu *CPU, s step) {
	addWithCarry(cpu, cpu.read(s.address))
}

func sbc(cpu *CPU, s step) {
	subtractWithCarry(cpu, cpu.read(s.address))
}

func and(cpu *CPU, s step) {
	cpu.A &= cpu.read(s.address)
	cpu.P.setZN(cpu.A)
}

func ora(cpu *CPU, s step) {
	cpu.A |= cpu.read(s.address)
	cpu.P.setZN(cpu.A)
}

func eor(cpu *CPU, s step) {
	cpu.A ^= cpu.read(s.address)
	cpu.P.setZN(cpu.A)
}

func bit(cpu *CPU, s step) {
	value := cpu.read(s.address)
	cpu.P.Overflow = value&overflowMask != 0
	cpu.P.Negative = value&negativeMask != 0
	cpu.P.Zero = value&cpu.A == 0
}

// modify applies a read-modify-write operation to the accumulator or to
// memory depending on the addressing mode, and returns the result.
func modify(cpu *CPU, s step, op func(uint8) uint8) uint8 {
	if s.mode == Accumulator {
		cpu.A = op(cpu.A)
		cpu.P.setZN(cpu.A)
		return cpu.A
	}
	value := op(cpu.read(s.address))
	cpu.write(s.address, value)
	cpu.P.setZN(value)
	return value
}

func asl(cpu *CPU, s step) {
	modify(cpu, s, func(v uint8) uint8 {
		cpu.P.Carry = v&0x80 != 0
		return v << 1
	})
}

func lsr(cpu *CPU, s step) {
	modify(cpu, s, func(v uint8) uint8 {
		cpu.P.Carry = v&0x01 != 0
		return v >> 1
	})
}

func rol(cpu *CPU, s step) {
	modify(cpu, s, func(v uint8) uint8 {
		var in uint8
		if cpu.P.Carry {
			in = 1
		}
		cpu.P.Carry = v&0x80 != 0
		return v<<1 | in
	})
}

func ror(cpu *CPU, s step) {
	modify(cpu, s, func(v uint8) uint8 {
		var in uint8
		if cpu.P.Carry {
			in = 0x80
		}
		cpu.P.Carry = v&0x01 != 0
		return v>>1 | in
	})
}

func inc(cpu *CPU, s step) {
	value := cpu.read(s.address) + 1
	cpu.write(s.address, value)
	cpu.P.setZN(value)
}

func dec(cpu *CPU, s step) {
	value := cpu.read(s.address) - 1
	cpu.write(s.address, value)
	cpu.P.setZN(value)
}

// branch jumps when cond holds: one extra cycle, two if the target is on
// another page.
func branch(cpu *CPU, s step, cond bool) {
	if !cond {
		return
	}
	cpu.Cycles++
	if pagesDiffer(s.pc, s.address) {
		cpu.Cycles++
	}
	cpu.PC = s.address
}

// brk skips the padding byte after the opcode and pushes status with the
// break bit set.
func brk(cpu *CPU, s step) {
	cpu.push16(cpu.PC + 1)
	cpu.push(cpu.P.Byte() | breakMask | unusedMask)
	cpu.P.InterruptDisable = true
	cpu.PC = cpu.read16(irqVector)
}

func jsr(cpu *CPU, s step) {
	cpu.push16(cpu.PC - 1)
	cpu.PC = s.address
}

func php(cpu *CPU, _ step) {
	cpu.push(cpu.P.Byte() | breakMask | unusedMask)
}

func plp(cpu *CPU, _ step) {
	cpu.P = FlagsFromByte(cpu.pull()&^breakMask | unusedMask)
}

func rti(cpu *CPU, _ step) {
	cpu.P = FlagsFromByte(cpu.pull()&^breakMask | unusedMask)
	cpu.PC = cpu.pull16()
}

func lax(cpu *CPU, s step) {
	value := cpu.read(s.address)
	cpu.A = value
	cpu.X = value
	cpu.P.setZN(value)
}

func dcp(cpu *CPU, s step) {
	value := cpu.read(s.address) - 1
	cpu.write(s.address, value)
	compare(cpu, cpu.A, value)
}

func isc(cpu *CPU, s step) {
	value := cpu.read(s.address) + 1
	cpu.write(s.address, value)
	subtractWithCarry(cpu, value)
}

func slo(cpu *CPU, s step) {
	value := cpu.read(s.address)
	cpu.P.Carry = value&0x80 != 0
	value <<= 1
	cpu.write(s.address, value)
	cpu.A |= value
	cpu.P.setZN(cpu.A)
}

func rla(cpu *CPU, s step) {
	value := cpu.read(s.address)
	var in uint8
	if cpu.P.Carry {
		in = 1
	}
	cpu.P.Carry = value&0x80 != 0
	value = value<<1 | in
	cpu.write(s.address, value)
	cpu.A &= value
	cpu.P.setZN(cpu.A)
}

func sre(cpu *CPU, s step) {
	value := cpu.read(s.address)
	cpu.P.Carry = value&0x01 != 0
	value >>= 1
	cpu.write(s.address, value)
	cpu.A ^= value
	cpu.P.setZN(cpu.A)
}

func rra(cpu *CPU, s step) {
	value := cpu.read(s.address)
	var in uint8
	if cpu.P.Carry {
		in = 0x80
	}
	cpu.P.Carry = value&0x01 != 0
	value = value>>1 | in
	cpu.write(s.address, value)
	addWithCarry(cpu, value)
}

func anc(cpu *CPU, s step) {
	cpu.A &= cpu.read(s.address)
	cpu.P.setZN(cpu.A)
	cpu.P.Carry = cpu.P.Negative
}

func alr(cpu *CPU, s step) {
	cpu.A &= cpu.read(s.address)
	cpu.P.Carry = cpu.A&0x01 != 0
	cpu.A >>= 1
	cpu.P.setZN(cpu.A)
}

func arr(cpu *CPU, s step) {
	cpu.A &= cpu.read(s.address)
	var in uint8
	if cpu.P.Carry {
		in = 0x80
	}
	cpu.A = cpu.A>>1 | in
	cpu.P.setZN(cpu.A)
	bit6 := cpu.A&0x40 != 0
	bit5 := cpu.A&0x20 != 0
	cpu.P.Carry = bit6
	cpu.P.Overflow = bit6 != bit5
}

func axs(cpu *CPU, s step) {
	value := cpu.read(s.address)
	ax := cpu.A & cpu.X
	cpu.P.Carry = ax >= value
	cpu.X = ax - value
	cpu.P.setZN(cpu.X)
}
