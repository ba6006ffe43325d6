package bus

import (
	"bytes"
	"errors"
	"testing"

	"nescore/internal/cartridge"
	"nescore/internal/input"

	"github.com/retroenv/retrogolib/assert"
)

// loop is JMP $8000 assembled at $8000
var loop = []uint8{0x4C, 0x00, 0x80}

func newTestConsole(t *testing.T, builder *cartridge.ImageBuilder) *Console {
	t.Helper()
	img, err := builder.Image()
	assert.NoError(t, err)
	c, err := New(img)
	assert.NoError(t, err)
	return c
}

func TestNROMTopOfAddressSpace(t *testing.T) {
	c := newTestConsole(t, cartridge.NewImageBuilder().WithProgram(0x8000, loop...))

	prg := c.Image().PRG
	assert.Equal(t, 0x4000, len(prg))
	assert.Equal(t, prg[len(prg)-1], c.Bus.Read(0xFFFF))
	assert.Equal(t, uint8(0x80), c.Bus.Read(0xFFFF), "high byte of the IRQ vector")
	assert.Equal(t, c.Bus.Read(0xBFFF), c.Bus.Read(0xFFFF), "single bank is mirrored")
}

func TestNewRejectsUnsupportedMapper(t *testing.T) {
	img, err := cartridge.NewImageBuilder().WithMapper(7).Image()
	assert.NoError(t, err)

	_, err = New(img)
	var unsupported *cartridge.UnsupportedMapperError
	assert.True(t, errors.As(err, &unsupported))
}

func TestResetState(t *testing.T) {
	c := newTestConsole(t, cartridge.NewImageBuilder().WithResetVector(0x8123))

	assert.Equal(t, uint16(0x8123), c.CPU.PC)
	assert.Equal(t, uint8(0xFD), c.CPU.SP)
	assert.Equal(t, 340, c.PPU.Cycle)
	assert.Equal(t, 240, c.PPU.ScanLine)

	c.Bus.Write(0x0000, 0x99)
	c.Reset()
	assert.Equal(t, uint8(0xFA), c.CPU.SP)
	assert.Equal(t, uint8(0x99), c.Bus.Read(0x0000), "RAM survives reset")
}

func TestExecuteCycleRunsOneFrame(t *testing.T) {
	c := newTestConsole(t, cartridge.NewImageBuilder().WithProgram(0x8000, loop...))

	c.ExecuteCycle()
	assert.True(t, c.CPU.Cycles >= CPUCyclesPerFrame)
	assert.True(t, c.CPU.Cycles < CPUCyclesPerFrame+3)
	assert.Equal(t, uint64(1), c.PPU.Frame)
	assert.Equal(t, 256*240, len(c.Frame()))
}

func TestStepKeepsPPUInLockstep(t *testing.T) {
	c := newTestConsole(t, cartridge.NewImageBuilder().WithProgram(0x8000, loop...))

	dots := 0
	for i := 0; i < 10; i++ {
		dots += 3 * c.Step()
	}
	// 340/240 is one dot before the start of line 241
	assert.Equal(t, 241, c.PPU.ScanLine)
	assert.Equal(t, dots-1, c.PPU.Cycle)
}

func TestNMIReachesCPU(t *testing.T) {
	builder := cartridge.NewImageBuilder().
		WithProgram(0x8000,
			0xA9, 0x80, // LDA #$80
			0x8D, 0x00, 0x20, // STA $2000
			0x4C, 0x05, 0x80, // JMP $8005
		).
		WithProgram(0x9000,
			0xE6, 0x10, // INC $10
			0x40, // RTI
		).
		WithNMIVector(0x9000)
	c := newTestConsole(t, builder)

	c.ExecuteCycle()
	c.ExecuteCycle()
	count := c.Bus.Read(0x0010)
	if count < 1 || count > 2 {
		t.Errorf("Expected one NMI per frame, got %d", count)
	}
}

func TestOAMDMA(t *testing.T) {
	builder := cartridge.NewImageBuilder().WithProgram(0x8000,
		0xA9, 0x07, // LDA #$07
		0x8D, 0x14, 0x40, // STA $4014
		0x4C, 0x05, 0x80, // JMP $8005
	)
	c := newTestConsole(t, builder)
	for i := 0; i < 256; i++ {
		c.Bus.Write(0x0700+uint16(i), uint8(i))
	}

	c.Step()
	c.Step()
	stall := c.Step()
	if stall != 513 && stall != 514 {
		t.Errorf("Expected a 513 or 514 cycle stall, got %d", stall)
	}

	c.PPU.WriteRegister(0x2003, 0x41)
	assert.Equal(t, uint8(0x41), c.PPU.ReadRegister(0x2004))
	c.PPU.WriteRegister(0x2003, 0xFF)
	assert.Equal(t, uint8(0xFF), c.PPU.ReadRegister(0x2004))
}

func TestControllerThroughBus(t *testing.T) {
	c := newTestConsole(t, cartridge.NewImageBuilder())
	c.Controller(1).SetButton(input.ButtonA, true)
	c.Controller(2).SetButton(input.ButtonB, true)

	c.Bus.Write(0x4016, 1)
	c.Bus.Write(0x4016, 0)

	assert.Equal(t, uint8(1), c.Bus.Read(0x4016)&1)
	assert.Equal(t, uint8(0), c.Bus.Read(0x4017)&1)
	assert.Equal(t, uint8(1), c.Bus.Read(0x4017)&1)
	assert.True(t, c.Controller(3) == nil)
}

func TestBatteryRAM(t *testing.T) {
	builder := cartridge.NewImageBuilder().WithBattery()
	c := newTestConsole(t, builder)
	c.Bus.Write(0x6000, 0x42)
	c.Bus.Write(0x7FFF, 0x43)

	var save bytes.Buffer
	assert.NoError(t, c.SaveRAM(&save))
	assert.Equal(t, 0x2000, save.Len())

	restored := newTestConsole(t, builder)
	assert.NoError(t, restored.LoadRAM(bytes.NewReader(save.Bytes())))
	assert.Equal(t, uint8(0x42), restored.Bus.Read(0x6000))
	assert.Equal(t, uint8(0x43), restored.Bus.Read(0x7FFF))

	short := newTestConsole(t, builder)
	assert.NoError(t, short.LoadRAM(bytes.NewReader([]byte{1, 2, 3})))
	assert.Equal(t, uint8(3), short.Bus.Read(0x6002))
	assert.Equal(t, uint8(0), short.Bus.Read(0x6003))
}

func TestTrainerCartridgeRunsFromPRG(t *testing.T) {
	c := newTestConsole(t, cartridge.NewImageBuilder().WithTrainer().WithProgram(0x8000, 0xA9, 0x42))
	assert.True(t, c.Image().Trainer)
	assert.Equal(t, uint8(0xA9), c.Bus.Read(0x8000))
	assert.Equal(t, uint8(0x42), c.Bus.Read(0x8001))
}

func TestFourScreenNametables(t *testing.T) {
	c := newTestConsole(t, cartridge.NewImageBuilder().WithMirror(cartridge.MirrorFour))
	assert.Equal(t, cartridge.MirrorFour, c.Image().Mirror)

	write := func(address uint16, value uint8) {
		c.Bus.Read(0x2002)
		c.Bus.Write(0x2006, uint8(address>>8))
		c.Bus.Write(0x2006, uint8(address))
		c.Bus.Write(0x2007, value)
	}
	read := func(address uint16) uint8 {
		c.Bus.Read(0x2002)
		c.Bus.Write(0x2006, uint8(address>>8))
		c.Bus.Write(0x2006, uint8(address))
		c.Bus.Read(0x2007)
		return c.Bus.Read(0x2007)
	}

	for i, address := range []uint16{0x2000, 0x2400, 0x2800, 0x2C00} {
		write(address, uint8(i+1))
	}
	for i, address := range []uint16{0x2000, 0x2400, 0x2800, 0x2C00} {
		assert.Equal(t, uint8(i+1), read(address))
	}
}

type countingMapper struct {
	cartridge.Mapper
	steps int
}

func (m *countingMapper) Step() { m.steps++ }

func TestMapperScanlineHook(t *testing.T) {
	c := newTestConsole(t, cartridge.NewImageBuilder().WithProgram(0x8000, loop...))
	counter := &countingMapper{Mapper: c.Mapper}
	c.Mapper = counter

	c.StepFrame()
	assert.Equal(t, 0, counter.steps, "not clocked while rendering is off")

	c.Bus.Write(0x2001, 0x18)
	c.StepFrame()
	first := counter.steps
	c.StepFrame()
	assert.Equal(t, 241, counter.steps-first, "visible lines plus the pre-render line")
}
