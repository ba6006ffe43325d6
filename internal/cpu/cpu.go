// Package cpu implements the 6502 CPU emulation for the NES.
package cpu

import (
	"log/slog"
)

const (
	stackBase = 0x0100

	nmiVector   = 0xFFFA
	resetVector = 0xFFFC
	irqVector   = 0xFFFE

	// cost of servicing an NMI or IRQ
	interruptCycles = 7
)

// Interrupt is the pending-interrupt slot. A non-zero value is the vector the
// CPU will jump through on its next step.
type Interrupt uint16

const (
	NoInterrupt Interrupt = 0
	NMI         Interrupt = nmiVector
	IRQ         Interrupt = irqVector
)

// Vector returns the address the handler pointer is read from.
func (i Interrupt) Vector() uint16 { return uint16(i) }

func (i Interrupt) String() string {
	switch i {
	case NMI:
		return "NMI"
	case IRQ:
		return "IRQ"
	case NoInterrupt:
		return "none"
	}
	return "unknown"
}

// Memory is the CPU view of the address space.
type Memory interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
	// Read16Bug reads a little-endian word from address and address+1
	// without any wrapping. Callers keep both bytes on one page.
	Read16Bug(address uint16) uint16
}

// CPU represents the 6502 processor used in the NES
type CPU struct {
	PC uint16
	SP uint8
	A  uint8
	X  uint8
	Y  uint8
	P  Flags

	// Cycles counts every cycle since power on.
	Cycles uint64

	// Pending is written by interrupt sources and consumed by Step.
	Pending Interrupt

	// Diagnostics counts executed opcodes that have no stable behavior.
	Diagnostics uint64

	stall  int
	memory Memory
	logger *slog.Logger
}

// Option configures a CPU.
type Option func(*CPU)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(cpu *CPU) {
		cpu.logger = logger
	}
}

// New creates a CPU in its power-on state. Call Reset before stepping.
func New(memory Memory, opts ...Option) *CPU {
	cpu := &CPU{
		memory: memory,
		P:      FlagsFromByte(0x24),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(cpu)
	}
	return cpu
}

// Reset emulates the reset line. The stack pointer drops by three as if an
// interrupt had been taken and PC is loaded from the reset vector. No other
// register changes.
func (cpu *CPU) Reset() {
	cpu.SP -= 3
	cpu.PC = cpu.read16(resetVector)
	cpu.Pending = NoInterrupt
	cpu.stall = 0
}

// Step executes one instruction, or services a pending interrupt, and returns
// the number of cycles it took.
func (cpu *CPU) Step() int {
	if cpu.stall > 0 {
		n := cpu.stall
		cpu.stall = 0
		cpu.Cycles += uint64(n)
		return n
	}

	switch {
	case cpu.Pending == NMI,
		cpu.Pending == IRQ && !cpu.P.InterruptDisable:
		cpu.interrupt(cpu.Pending.Vector())
		cpu.Pending = NoInterrupt
		return interruptCycles
	}

	start := cpu.Cycles
	pc := cpu.PC
	inst := Lookup(int(cpu.read(pc)))
	address, pageCrossed := Resolve(cpu, inst)

	cpu.PC += uint16(inst.Size)
	cpu.Cycles += uint64(inst.Cycles)
	if pageCrossed {
		cpu.Cycles += uint64(inst.PageCycles)
	}

	if err := execute(cpu, inst, step{address: address, mode: inst.Mode, pc: cpu.PC}); err != nil {
		cpu.Diagnostics++
		cpu.logger.Debug("cpu diagnostic", "pc", pc, "error", err)
	}
	return int(cpu.Cycles - start)
}

// TriggerNMI latches a non-maskable interrupt. It replaces a pending IRQ.
func (cpu *CPU) TriggerNMI() {
	cpu.Pending = NMI
}

// TriggerIRQ latches a maskable interrupt unless an NMI is already waiting.
func (cpu *CPU) TriggerIRQ() {
	if cpu.Pending != NMI {
		cpu.Pending = IRQ
	}
}

// Stall suspends the CPU for n cycles, used by OAM DMA.
func (cpu *CPU) Stall(n int) {
	cpu.stall += n
}

// interrupt runs the hardware interrupt sequence. The status is pushed as it
// is apart from the break bit, which is cleared.
func (cpu *CPU) interrupt(vector uint16) {
	cpu.push16(cpu.PC)
	cpu.push(cpu.P.Byte() &^ breakMask)
	cpu.P.InterruptDisable = true
	cpu.PC = cpu.read16(vector)
	cpu.Cycles += interruptCycles
}

func (cpu *CPU) read(address uint16) uint8 {
	return cpu.memory.Read(address)
}

func (cpu *CPU) write(address uint16, value uint8) {
	cpu.memory.Write(address, value)
}

func (cpu *CPU) read16(address uint16) uint16 {
	lo := uint16(cpu.read(address))
	hi := uint16(cpu.read(address + 1))
	return hi<<8 | lo
}

// readZeroPage16 fetches a pointer from zero page, wrapping at $FF.
func (cpu *CPU) readZeroPage16(address uint8) uint16 {
	lo := uint16(cpu.read(uint16(address)))
	hi := uint16(cpu.read(uint16(address + 1)))
	return hi<<8 | lo
}

func (cpu *CPU) push(value uint8) {
	cpu.write(stackBase|uint16(cpu.SP), value)
	cpu.SP--
}

func (cpu *CPU) pull() uint8 {
	cpu.SP++
	return cpu.read(stackBase | uint16(cpu.SP))
}

func (cpu *CPU) push16(value uint16) {
	cpu.push(uint8(value >> 8))
	cpu.push(uint8(value))
}

func (cpu *CPU) pull16() uint16 {
	lo := uint16(cpu.pull())
	hi := uint16(cpu.pull())
	return hi<<8 | lo
}

func pagesDiffer(a, b uint16) bool {
	return a&0xFF00 != b&0xFF00
}
