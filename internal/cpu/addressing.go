package cpu

import "fmt"

// Resolve computes the effective operand address of the instruction at the
// CPU's current PC and reports whether indexing crossed a page.
//
// Zero page indexing wraps within page zero before the address is used.
// Relative targets are computed from the address after the two byte branch
// and never report a page cross; taken branches charge that themselves.
func Resolve(cpu *CPU, inst Instruction) (address uint16, pageCrossed bool) {
	pc := cpu.PC
	switch inst.Mode {
	case Implied, Accumulator:
		return 0, false
	case Immediate:
		return pc + 1, false
	case ZeroPage:
		return uint16(cpu.read(pc + 1)), false
	case ZeroPageX:
		return uint16(cpu.read(pc+1) + cpu.X), false
	case ZeroPageY:
		return uint16(cpu.read(pc+1) + cpu.Y), false
	case Absolute:
		return cpu.read16(pc + 1), false
	case AbsoluteX:
		base := cpu.read16(pc + 1)
		address = base + uint16(cpu.X)
		return address, pagesDiffer(base, address)
	case AbsoluteY:
		base := cpu.read16(pc + 1)
		address = base + uint16(cpu.Y)
		return address, pagesDiffer(base, address)
	case IndexedIndirect:
		return cpu.readZeroPage16(cpu.read(pc+1) + cpu.X), false
	case IndirectIndexed:
		base := cpu.readZeroPage16(cpu.read(pc + 1))
		address = base + uint16(cpu.Y)
		return address, pagesDiffer(base, address)
	case Indirect:
		return cpu.readIndirect(cpu.read16(pc + 1)), false
	case Relative:
		offset := int8(cpu.read(pc + 1))
		return pc + 2 + uint16(offset), false
	}
	panic(fmt.Sprintf("cpu: opcode $%02X has unknown addressing mode %d", inst.Opcode, inst.Mode))
}

// readIndirect reproduces the JMP ($xxFF) defect: the high byte is fetched
// from the start of the same page instead of the next one.
func (cpu *CPU) readIndirect(pointer uint16) uint16 {
	if pointer&0x00FF == 0x00FF {
		lo := uint16(cpu.read(pointer))
		hi := uint16(cpu.read(pointer & 0xFF00))
		return hi<<8 | lo
	}
	return cpu.memory.Read16Bug(pointer)
}
