// Package bus connects the NES components into a console.
package bus

import (
	"fmt"
	"io"
	"log/slog"

	"nescore/internal/apu"
	"nescore/internal/cartridge"
	"nescore/internal/cpu"
	"nescore/internal/input"
	"nescore/internal/memory"
	"nescore/internal/ppu"
)

const (
	// CPUCyclesPerFrame is the NTSC frame quota, 89342 PPU dots / 3.
	CPUCyclesPerFrame = 29781

	// CPUFrequency is the NTSC CPU clock in Hz.
	CPUFrequency = 1789773

	oamDMACycles = 513
	mapperDot    = 280
)

// Console connects all NES components together
type Console struct {
	CPU    *cpu.CPU
	PPU    *ppu.PPU
	APU    *apu.APU
	Bus    *memory.Bus
	Mapper cartridge.Mapper
	Input  *input.Ports

	image  *cartridge.Image
	logger *slog.Logger
}

// Option configures a Console
type Option func(*Console)

// WithLogger sets the logger handed to the CPU and the memory bus.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Console) {
		c.logger = logger
	}
}

// New builds a console for a cartridge image and resets it. Unsupported
// mappers are rejected here, before any emulation runs.
func New(img *cartridge.Image, opts ...Option) (*Console, error) {
	c := &Console{
		image:  img,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	mapper, err := cartridge.NewMapper(img)
	if err != nil {
		return nil, fmt.Errorf("creating mapper: %w", err)
	}
	c.Mapper = mapper

	c.PPU = ppu.New(memory.NewPPUMemory(mapper))
	c.APU = apu.New()
	c.Input = input.NewPorts()

	c.Bus = memory.New(c.PPU, c.APU, mapper)
	c.Bus.Logger = c.logger
	c.Bus.SetInputSystem(c.Input)

	c.CPU = cpu.New(c.Bus, cpu.WithLogger(c.logger))
	c.Reset()

	c.logger.Debug("console created",
		"mapper", img.Mapper,
		"prg_pages", img.PRGPages,
		"chr_pages", img.CHRPages,
		"mirror", img.Mirror.String())
	return c, nil
}

// Reset presses the reset button. RAM and cartridge state survive.
func (c *Console) Reset() {
	c.CPU.Reset()
	c.PPU.Reset()
	c.APU.Reset()
	c.Bus.TakeDMA()
}

// Step executes one CPU instruction and runs the PPU three dots for every
// cycle it took. It returns the CPU cycles consumed.
func (c *Console) Step() int {
	cycles := c.CPU.Step()

	if page, ok := c.Bus.TakeDMA(); ok {
		c.oamDMA(page)
	}

	for i := 0; i < cycles*3; i++ {
		c.PPU.Step()
		if c.PPU.TakeNMI() {
			c.CPU.TriggerNMI()
		}
		c.stepMapper()
	}
	return cycles
}

// ExecuteCycle runs one video frame's worth of CPU cycles.
func (c *Console) ExecuteCycle() {
	target := c.CPU.Cycles + CPUCyclesPerFrame
	for c.CPU.Cycles < target {
		c.Step()
	}
}

// StepFrame runs until the PPU finishes the current frame.
func (c *Console) StepFrame() {
	frame := c.PPU.Frame
	for frame == c.PPU.Frame {
		c.Step()
	}
}

// Frame returns the last complete picture, one palette index per pixel.
func (c *Console) Frame() []uint8 {
	return c.PPU.Buffer()
}

// Controller returns the controller plugged into port 1 or 2.
func (c *Console) Controller(port int) *input.Controller {
	return c.Input.Port(port)
}

// Image returns the cartridge the console was built from.
func (c *Console) Image() *cartridge.Image {
	return c.image
}

// SaveRAM writes the cartridge RAM verbatim.
func (c *Console) SaveRAM(w io.Writer) error {
	if _, err := w.Write(c.Mapper.PRGRAM()); err != nil {
		return fmt.Errorf("writing cartridge RAM: %w", err)
	}
	return nil
}

// LoadRAM fills the cartridge RAM from r. A short save leaves the rest of
// the RAM untouched.
func (c *Console) LoadRAM(r io.Reader) error {
	ram := c.Mapper.PRGRAM()
	n, err := io.ReadFull(r, ram)
	switch {
	case err == io.ErrUnexpectedEOF:
		c.logger.Warn("short battery save", "bytes", n, "expected", len(ram))
		return nil
	case err != nil:
		return fmt.Errorf("reading cartridge RAM: %w", err)
	}
	return nil
}

// oamDMA copies a CPU page into sprite memory and stalls the CPU for the
// duration of the transfer.
func (c *Console) oamDMA(page uint8) {
	address := uint16(page) << 8
	for i := 0; i < 256; i++ {
		c.PPU.WriteOAM(uint8(i), c.Bus.Read(address+uint16(i)))
	}

	stall := oamDMACycles
	if c.CPU.Cycles%2 == 1 {
		stall++
	}
	c.CPU.Stall(stall)
}

// stepMapper clocks the mapper scanline hook on rendering lines.
func (c *Console) stepMapper() {
	p := c.PPU
	if p.Cycle != mapperDot || !p.RenderingEnabled() {
		return
	}
	if p.ScanLine < ppu.ScreenHeight || p.ScanLine == 261 {
		c.Mapper.Step()
	}
}
