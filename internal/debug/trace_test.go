package debug

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"nescore/internal/cpu"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/nes/addressing"
	nescpu "github.com/retroenv/retrogolib/nes/cpu"
)

type flatMemory [0x10000]uint8

func (m *flatMemory) Read(address uint16) uint8 { return m[address] }

func (m *flatMemory) Write(address uint16, value uint8) { m[address] = value }

func (m *flatMemory) Read16Bug(address uint16) uint16 {
	return uint16(m[address+1])<<8 | uint16(m[address])
}

func newTraceCPU(mem *flatMemory, program ...uint8) *cpu.CPU {
	copy(mem[0xC000:], program)
	c := cpu.New(mem)
	c.PC = 0xC000
	c.SP = 0xFD
	return c
}

func TestTraceLineFormat(t *testing.T) {
	mem := &flatMemory{}
	c := newTraceCPU(mem, 0x4C, 0xF5, 0xC5)
	c.Cycles = 7

	var out bytes.Buffer
	tracer := NewTracer(&out, mem)
	tracer.Trace(c, 0, 21)

	want := "C000  4C F5 C5  JMP $C5F5" + strings.Repeat(" ", 23) +
		"A:00 X:00 Y:00 P:24 SP:FD PPU:  0, 21 CYC:7\n"
	assert.Equal(t, want, out.String())
	assert.NoError(t, tracer.Err())
}

func TestTraceMarksUndocumentedOpcodes(t *testing.T) {
	mem := &flatMemory{}
	c := newTraceCPU(mem, 0x04, 0xA9)

	var out bytes.Buffer
	NewTracer(&out, mem).Trace(c, 12, 300)

	line := out.String()
	assert.True(t, strings.HasPrefix(line, "C000  04 A9    *NOP $A9 = 00 "), line)
	assert.True(t, strings.Contains(line, "PPU: 12,300 "), line)
}

func TestDisassembleOperands(t *testing.T) {
	tests := []struct {
		name    string
		program []uint8
		setup   func(mem *flatMemory, c *cpu.CPU)
		want    string
	}{
		{"implied", []uint8{0xE8}, nil, "INX"},
		{"accumulator", []uint8{0x4A}, nil, "LSR A"},
		{"immediate", []uint8{0xA9, 0x10}, nil, "LDA #$10"},
		{"zero page", []uint8{0x86, 0x00}, func(mem *flatMemory, _ *cpu.CPU) {
			mem[0x00] = 0x3C
		}, "STX $00 = 3C"},
		{"zero page x wraps", []uint8{0xB5, 0xFF}, func(mem *flatMemory, c *cpu.CPU) {
			c.X = 2
			mem[0x01] = 0x44
		}, "LDA $FF,X @ 01 = 44"},
		{"absolute", []uint8{0xAD, 0x00, 0x03}, func(mem *flatMemory, _ *cpu.CPU) {
			mem[0x0300] = 0x89
		}, "LDA $0300 = 89"},
		{"absolute register window", []uint8{0x8D, 0x00, 0x20}, nil, "STA $2000"},
		{"jump", []uint8{0x4C, 0x00, 0xD0}, nil, "JMP $D000"},
		{"call", []uint8{0x20, 0x00, 0xD0}, nil, "JSR $D000"},
		{"absolute x", []uint8{0xBD, 0x00, 0x03}, func(mem *flatMemory, c *cpu.CPU) {
			c.X = 1
			mem[0x0301] = 0x55
		}, "LDA $0300,X @ 0301 = 55"},
		{"relative", []uint8{0xF0, 0xFE}, nil, "BEQ $C000"},
		{"indirect", []uint8{0x6C, 0x00, 0x02}, func(mem *flatMemory, _ *cpu.CPU) {
			mem[0x0200] = 0x7E
			mem[0x0201] = 0xDB
		}, "JMP ($0200) = DB7E"},
		{"indirect page wrap", []uint8{0x6C, 0xFF, 0x02}, func(mem *flatMemory, _ *cpu.CPU) {
			mem[0x02FF] = 0x34
			mem[0x0200] = 0x12
			mem[0x0300] = 0x99
		}, "JMP ($02FF) = 1234"},
		{"indexed indirect", []uint8{0xA1, 0x80}, func(mem *flatMemory, c *cpu.CPU) {
			c.X = 2
			mem[0x82] = 0x00
			mem[0x83] = 0x02
			mem[0x0200] = 0x5A
		}, "LDA ($80,X) @ 82 = 0200 = 5A"},
		{"indirect indexed", []uint8{0xB1, 0x89}, func(mem *flatMemory, c *cpu.CPU) {
			c.Y = 3
			mem[0x89] = 0x00
			mem[0x8A] = 0x03
			mem[0x0303] = 0x89
		}, "LDA ($89),Y = 0300 @ 0303 = 89"},
		{"undocumented", []uint8{0xA7, 0x10}, func(mem *flatMemory, _ *cpu.CPU) {
			mem[0x10] = 0x01
		}, "LAX $10 = 01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := &flatMemory{}
			c := newTraceCPU(mem, tt.program...)
			if tt.setup != nil {
				tt.setup(mem, c)
			}

			d := Disassemble(mem, c)
			assert.Equal(t, tt.want, d.Text)
			assert.Equal(t, tt.program, d.Bytes)
		})
	}
}

type failingWriter struct{ writes int }

func (w *failingWriter) Write([]byte) (int, error) {
	w.writes++
	return 0, errors.New("disk full")
}

func TestTraceStopsAfterWriteError(t *testing.T) {
	mem := &flatMemory{}
	c := newTraceCPU(mem, 0xEA)
	w := &failingWriter{}
	tracer := NewTracer(w, mem)

	tracer.Trace(c, 0, 0)
	tracer.Trace(c, 0, 3)
	assert.Error(t, tracer.Err(), "disk full")
	assert.Equal(t, 1, w.writes)
}

// The instruction table and retrogolib must agree on every documented opcode.
func TestInstructionTableMatchesReference(t *testing.T) {
	for op := 0; op < 256; op++ {
		inst := cpu.Lookup(op)
		if !inst.Official() {
			continue
		}

		ref := nescpu.Opcodes[uint8(op)]
		if ref.Instruction == nil {
			t.Errorf("opcode $%02X: %s is unknown to the reference table", op, inst.Name())
			continue
		}
		if !strings.EqualFold(ref.Instruction.Name, inst.Name()) {
			t.Errorf("opcode $%02X: name %s, reference %s", op, inst.Name(), ref.Instruction.Name)
		}

		mode, ok := modeFromAddressing(ref.Addressing)
		if !ok {
			t.Errorf("opcode $%02X: unmapped reference addressing %v", op, ref.Addressing)
			continue
		}
		if mode != inst.Mode && !impliedOperand(mode, inst.Mode) {
			t.Errorf("opcode $%02X: mode %v, reference %v", op, inst.Mode, mode)
		}
	}
}

func TestAddressingModeMapping(t *testing.T) {
	assert.Equal(t, 13, len(addressingModes))

	mode, ok := modeFromAddressing(addressing.IndirectYAddressing)
	assert.True(t, ok)
	assert.Equal(t, cpu.IndirectIndexed, mode)
}
