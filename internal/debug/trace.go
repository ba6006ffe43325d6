// Package debug provides execution tracing and frame dumping for the emulator.
package debug

import (
	"fmt"
	"io"
	"strings"

	"nescore/internal/cpu"

	"github.com/retroenv/retrogolib/nes/addressing"
	nescpu "github.com/retroenv/retrogolib/nes/cpu"
)

// Memory is the side effect free view a tracer reads operands through.
type Memory interface {
	Read(address uint16) uint8
}

// Tracer writes one nestest style line per executed instruction.
type Tracer struct {
	w   io.Writer
	mem Memory
	err error
}

// NewTracer creates a tracer writing to w.
func NewTracer(w io.Writer, mem Memory) *Tracer {
	return &Tracer{w: w, mem: mem}
}

// Trace logs the instruction at the CPU program counter together with the
// register file, the PPU position and the cycle counter. It must be called
// before the instruction executes.
func (t *Tracer) Trace(c *cpu.CPU, scanLine, dot int) {
	if t.err != nil {
		return
	}
	d := Disassemble(t.mem, c)
	prefix := " "
	if !d.Official {
		prefix = "*"
	}
	_, t.err = fmt.Fprintf(t.w, "%04X  %-8s %s%-31s A:%02X X:%02X Y:%02X P:%02X SP:%02X PPU:%3d,%3d CYC:%d\n",
		c.PC, d.hexBytes(), prefix, d.Text,
		c.A, c.X, c.Y, c.P.Byte(), c.SP, scanLine, dot, c.Cycles)
}

// Err returns the first write error. Tracing stops after it.
func (t *Tracer) Err() error {
	return t.err
}

// Disassembly is one decoded instruction.
type Disassembly struct {
	Bytes    []uint8
	Name     string
	Mode     cpu.AddressingMode
	Official bool
	Text     string
}

func (d Disassembly) hexBytes() string {
	parts := make([]string, len(d.Bytes))
	for i, b := range d.Bytes {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}

// Disassemble decodes the instruction at the CPU program counter. Documented
// opcodes are named from the retrogolib opcode table, everything else falls
// back to the emulator's own instruction table.
func Disassemble(mem Memory, c *cpu.CPU) Disassembly {
	pc := c.PC
	op := mem.Read(pc)
	inst := cpu.Lookup(int(op))

	d := Disassembly{
		Name:     inst.Name(),
		Mode:     inst.Mode,
		Official: inst.Official(),
	}
	if ref := nescpu.Opcodes[op]; d.Official && ref.Instruction != nil {
		d.Name = strings.ToUpper(ref.Instruction.Name)
		if mode, ok := modeFromAddressing(ref.Addressing); ok && !impliedOperand(mode, d.Mode) {
			d.Mode = mode
		}
	}

	d.Bytes = make([]uint8, inst.Size)
	for i := range d.Bytes {
		d.Bytes[i] = mem.Read(pc + uint16(i))
	}
	d.Text = d.Name + operandText(mem, c, d)
	return d
}

var addressingModes = map[addressing.Mode]cpu.AddressingMode{
	addressing.ImpliedAddressing:     cpu.Implied,
	addressing.AccumulatorAddressing: cpu.Accumulator,
	addressing.ImmediateAddressing:   cpu.Immediate,
	addressing.AbsoluteAddressing:    cpu.Absolute,
	addressing.AbsoluteXAddressing:   cpu.AbsoluteX,
	addressing.AbsoluteYAddressing:   cpu.AbsoluteY,
	addressing.ZeroPageAddressing:    cpu.ZeroPage,
	addressing.ZeroPageXAddressing:   cpu.ZeroPageX,
	addressing.ZeroPageYAddressing:   cpu.ZeroPageY,
	addressing.RelativeAddressing:    cpu.Relative,
	addressing.IndirectAddressing:    cpu.Indirect,
	addressing.IndirectXAddressing:   cpu.IndexedIndirect,
	addressing.IndirectYAddressing:   cpu.IndirectIndexed,
}

// impliedOperand reports whether both modes take no operand bytes. Tables
// differ on whether shifts of A are implied or accumulator addressing.
func impliedOperand(a, b cpu.AddressingMode) bool {
	noOperand := func(m cpu.AddressingMode) bool {
		return m == cpu.Implied || m == cpu.Accumulator
	}
	return noOperand(a) && noOperand(b)
}

func modeFromAddressing(mode addressing.Mode) (cpu.AddressingMode, bool) {
	m, ok := addressingModes[mode]
	return m, ok
}

// operandText renders the operand the way the nestest log does, including the
// effective address and the value found there.
func operandText(mem Memory, c *cpu.CPU, d Disassembly) string {
	var lo, hi uint8
	if len(d.Bytes) > 1 {
		lo = d.Bytes[1]
	}
	if len(d.Bytes) > 2 {
		hi = d.Bytes[2]
	}
	word := uint16(hi)<<8 | uint16(lo)

	switch d.Mode {
	case cpu.Implied:
		return ""
	case cpu.Accumulator:
		return " A"
	case cpu.Immediate:
		return fmt.Sprintf(" #$%02X", lo)
	case cpu.ZeroPage:
		return fmt.Sprintf(" $%02X%s", lo, peek(mem, uint16(lo)))
	case cpu.ZeroPageX:
		addr := uint16(lo + c.X)
		return fmt.Sprintf(" $%02X,X @ %02X%s", lo, addr, peek(mem, addr))
	case cpu.ZeroPageY:
		addr := uint16(lo + c.Y)
		return fmt.Sprintf(" $%02X,Y @ %02X%s", lo, addr, peek(mem, addr))
	case cpu.Absolute:
		if d.Name == "JMP" || d.Name == "JSR" {
			return fmt.Sprintf(" $%04X", word)
		}
		return fmt.Sprintf(" $%04X%s", word, peek(mem, word))
	case cpu.AbsoluteX:
		addr := word + uint16(c.X)
		return fmt.Sprintf(" $%04X,X @ %04X%s", word, addr, peek(mem, addr))
	case cpu.AbsoluteY:
		addr := word + uint16(c.Y)
		return fmt.Sprintf(" $%04X,Y @ %04X%s", word, addr, peek(mem, addr))
	case cpu.Relative:
		target := c.PC + 2 + uint16(int8(lo))
		return fmt.Sprintf(" $%04X", target)
	case cpu.Indirect:
		// the high byte comes from the start of the same page
		next := word&0xFF00 | uint16(uint8(word)+1)
		target := uint16(mem.Read(next))<<8 | uint16(mem.Read(word))
		return fmt.Sprintf(" ($%04X) = %04X", word, target)
	case cpu.IndexedIndirect:
		ptr := lo + c.X
		addr := zeroPageWord(mem, ptr)
		return fmt.Sprintf(" ($%02X,X) @ %02X = %04X%s", lo, ptr, addr, peek(mem, addr))
	case cpu.IndirectIndexed:
		base := zeroPageWord(mem, lo)
		addr := base + uint16(c.Y)
		return fmt.Sprintf(" ($%02X),Y = %04X @ %04X%s", lo, base, addr, peek(mem, addr))
	}
	panic(fmt.Sprintf("debug: unknown addressing mode %v", d.Mode))
}

func zeroPageWord(mem Memory, ptr uint8) uint16 {
	return uint16(mem.Read(uint16(ptr+1)))<<8 | uint16(mem.Read(uint16(ptr)))
}

// peek annotates an operand with the value at addr. Register windows are
// skipped since reading them changes PPU and controller state.
func peek(mem Memory, addr uint16) string {
	if addr >= 0x2000 && addr < 0x6000 {
		return ""
	}
	return fmt.Sprintf(" = %02X", mem.Read(addr))
}
