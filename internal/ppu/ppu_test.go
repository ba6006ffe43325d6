package ppu

import (
	"testing"

	"nescore/internal/cartridge"
	"nescore/internal/memory"

	"github.com/retroenv/retrogolib/assert"
)

// MockCHR implements pattern table storage for testing
type MockCHR struct {
	data      [0x2000]uint8
	mirror    cartridge.Mirror
	readCount int
}

func (m *MockCHR) Read(address uint16) uint8 {
	m.readCount++
	return m.data[address&0x1FFF]
}

func (m *MockCHR) Write(address uint16, value uint8) {
	m.data[address&0x1FFF] = value
}

func (m *MockCHR) Mirroring() cartridge.Mirror { return m.mirror }

func newTestPPU() (*PPU, *MockCHR) {
	chr := &MockCHR{}
	return New(memory.NewPPUMemory(chr)), chr
}

// setAddress points v at address through $2006
func setAddress(p *PPU, address uint16) {
	p.WriteRegister(0x2006, uint8(address>>8))
	p.WriteRegister(0x2006, uint8(address))
}

// stepTo runs the PPU until it reaches the given position
func stepTo(p *PPU, scanLine, cycle int) {
	for i := 0; i < dotsPerLine*linesPerFrame*2; i++ {
		if p.ScanLine == scanLine && p.Cycle == cycle {
			return
		}
		p.Step()
	}
}

func TestPPUReset(t *testing.T) {
	p, _ := newTestPPU()
	p.Cycle = 17
	p.ScanLine = 100
	p.Frame = 9
	p.ppuMask = 0x18
	p.w = true

	p.Reset()

	if p.Cycle != 340 || p.ScanLine != 240 || p.Frame != 0 {
		t.Errorf("Expected position 240/340 frame 0, got %d/%d frame %d", p.ScanLine, p.Cycle, p.Frame)
	}
	assert.False(t, p.w)
	assert.False(t, p.RenderingEnabled())
}

func TestResetDuringVBlankClearsStatus(t *testing.T) {
	p, _ := newTestPPU()
	stepTo(p, vblankLine, 1)
	p.Step()
	assert.True(t, p.VBlank())
	p.sprite0Hit = true
	p.spriteOverflow = true

	p.Reset()

	assert.False(t, p.VBlank())
	assert.Equal(t, uint8(0), p.ReadRegister(0x2002)&0xE0)
	assert.False(t, p.TakeNMI())
}

func TestFrameTiming(t *testing.T) {
	p, _ := newTestPPU()

	for i := 0; i < dotsPerLine*linesPerFrame; i++ {
		p.Step()
	}
	assert.Equal(t, uint64(1), p.Frame)
	assert.Equal(t, 340, p.Cycle)
	assert.Equal(t, 240, p.ScanLine)
}

func TestOddFrameSkipsDot(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(0x2001, 0x08)

	// frame 0 is even and keeps all dots, frame 1 is odd and drops one
	stepTo(p, 0, 0)
	assert.Equal(t, uint64(1), p.Frame)

	dots := 0
	for p.Frame < 2 {
		p.Step()
		dots++
	}
	assert.Equal(t, dotsPerLine*linesPerFrame-1, dots)

	dots = 0
	for p.Frame < 3 {
		p.Step()
		dots++
	}
	assert.Equal(t, dotsPerLine*linesPerFrame, dots)
}

func TestVBlankFlag(t *testing.T) {
	p, _ := newTestPPU()

	stepTo(p, vblankLine, 0)
	assert.False(t, p.VBlank())
	p.Step()
	assert.True(t, p.VBlank())

	status := p.ReadRegister(0x2002)
	assert.Equal(t, uint8(0x80), status&0x80)
	assert.False(t, p.VBlank(), "reading status clears vblank")
	assert.Equal(t, uint8(0), p.ReadRegister(0x2002)&0x80)

	// next frame, left unread until the pre-render line
	stepTo(p, vblankLine+1, 0)
	stepTo(p, vblankLine, 1)
	assert.True(t, p.VBlank())
	stepTo(p, preRenderLine, 1)
	assert.False(t, p.VBlank())
}

func TestNMIDelivery(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(0x2000, 0x80)

	stepTo(p, vblankLine, 1)
	assert.False(t, p.TakeNMI(), "NMI waits for the delay")

	for i := 0; i < nmiDelayCycles-1; i++ {
		p.Step()
		assert.False(t, p.TakeNMI())
	}
	p.Step()
	assert.True(t, p.TakeNMI())
	assert.False(t, p.TakeNMI(), "the slot empties once taken")
}

func TestNMIDisabled(t *testing.T) {
	p, _ := newTestPPU()
	stepTo(p, vblankLine, 1)
	for i := 0; i < 100; i++ {
		p.Step()
	}
	assert.False(t, p.TakeNMI())
}

func TestNMIOnControlWriteDuringVBlank(t *testing.T) {
	p, _ := newTestPPU()
	stepTo(p, vblankLine, 10)

	p.WriteRegister(0x2000, 0x80)
	for i := 0; i < nmiDelayCycles; i++ {
		p.Step()
	}
	assert.True(t, p.TakeNMI())

	// toggling output off and on during vblank raises another edge
	p.WriteRegister(0x2000, 0x00)
	p.WriteRegister(0x2000, 0x80)
	for i := 0; i < nmiDelayCycles; i++ {
		p.Step()
	}
	assert.True(t, p.TakeNMI())
}

func TestStatusRegister(t *testing.T) {
	p, _ := newTestPPU()

	p.WriteRegister(0x2003, 0x1B)
	p.sprite0Hit = true
	p.spriteOverflow = true
	p.w = true

	assert.Equal(t, uint8(0x7B), p.ReadRegister(0x2002))
	assert.False(t, p.w, "reading status resets the write latch")
}

func TestWriteOnlyRegistersReadZero(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(0x2000, 0xFF)
	for _, address := range []uint16{0x2000, 0x2001, 0x2003, 0x2005, 0x2006} {
		if v := p.ReadRegister(address); v != 0 {
			t.Errorf("Expected $%04X to read 0, got $%02X", address, v)
		}
	}
}

func TestControlWriteSetsNametableBits(t *testing.T) {
	p, _ := newTestPPU()
	p.t = 0xFFFF
	p.WriteRegister(0x2000, 0x02)
	assert.Equal(t, uint16(0xFBFF), p.t)
}

func TestScrollWrites(t *testing.T) {
	p, _ := newTestPPU()

	p.WriteRegister(0x2005, 0x7D) // coarse X 15, fine X 5
	assert.Equal(t, uint16(0x000F), p.t)
	assert.Equal(t, uint8(5), p.x)
	assert.True(t, p.w)

	p.WriteRegister(0x2005, 0x5E) // coarse Y 11, fine Y 6
	assert.Equal(t, uint16(0x616F), p.t)
	assert.False(t, p.w)
}

func TestAddressWrites(t *testing.T) {
	p, _ := newTestPPU()
	p.t = 0x4000

	p.WriteRegister(0x2006, 0xFD)
	assert.Equal(t, uint16(0x3D00), p.t, "first write keeps six bits and clears bit 14")
	p.WriteRegister(0x2006, 0x42)
	assert.Equal(t, uint16(0x3D42), p.t)
	assert.Equal(t, uint16(0x3D42), p.v)
}

func TestDataReadBuffering(t *testing.T) {
	p, chr := newTestPPU()
	chr.data[0x0100] = 0xAA
	chr.data[0x0101] = 0xBB

	setAddress(p, 0x0100)
	assert.Equal(t, uint8(0), p.ReadRegister(0x2007), "first read returns the stale buffer")
	assert.Equal(t, uint8(0xAA), p.ReadRegister(0x2007))
	assert.Equal(t, uint8(0xBB), p.ReadRegister(0x2007))
}

func TestPaletteReadsAreImmediate(t *testing.T) {
	p, _ := newTestPPU()

	setAddress(p, 0x2F05)
	p.WriteRegister(0x2007, 0x66)
	setAddress(p, 0x3F05)
	p.WriteRegister(0x2007, 0x21)

	setAddress(p, 0x3F05)
	assert.Equal(t, uint8(0x21), p.ReadRegister(0x2007))
	assert.Equal(t, uint8(0x66), p.readBuffer, "buffer holds the nametable under the palette")
}

func TestDataIncrementModes(t *testing.T) {
	p, _ := newTestPPU()

	setAddress(p, 0x2000)
	p.WriteRegister(0x2007, 1)
	assert.Equal(t, uint16(0x2001), p.v)

	p.WriteRegister(0x2000, 0x04)
	p.WriteRegister(0x2007, 2)
	assert.Equal(t, uint16(0x2021), p.v)
}

func TestOAMAccess(t *testing.T) {
	p, _ := newTestPPU()

	p.WriteRegister(0x2003, 0x00)
	for _, v := range []uint8{0x10, 0x20, 0xFF, 0x30} {
		p.WriteRegister(0x2004, v)
	}
	assert.Equal(t, uint8(0x04), p.oamAddr)

	p.WriteRegister(0x2003, 0x02)
	assert.Equal(t, uint8(0xE3), p.ReadRegister(0x2004), "attribute bits 2-4 read back as zero")
	p.WriteRegister(0x2003, 0x01)
	assert.Equal(t, uint8(0x20), p.ReadRegister(0x2004))
}

func TestWriteOAMStartsAtOAMAddress(t *testing.T) {
	p, _ := newTestPPU()
	p.WriteRegister(0x2003, 0xFE)

	p.WriteOAM(0, 1)
	p.WriteOAM(1, 2)
	p.WriteOAM(2, 3)

	assert.Equal(t, uint8(1), p.oam[0xFE])
	assert.Equal(t, uint8(2), p.oam[0xFF])
	assert.Equal(t, uint8(3), p.oam[0x00])
}

func TestScrollIncrements(t *testing.T) {
	p, _ := newTestPPU()

	p.v = 0x001F
	p.incrementX()
	assert.Equal(t, uint16(0x0400), p.v, "coarse X wraps into the next nametable")

	p.v = 0x7000 | 29<<5
	p.incrementY()
	assert.Equal(t, uint16(0x0800), p.v, "row 29 wraps into the next nametable")

	p.v = 0x7000 | 31<<5
	p.incrementY()
	assert.Equal(t, uint16(0x0000), p.v, "row 31 wraps in place")

	p.v = 0
	p.t = 0x7FFF
	p.copyX()
	assert.Equal(t, uint16(0x041F), p.v)
	p.copyY()
	assert.Equal(t, uint16(0x7FFF), p.v)
}

// fillScreen writes a solid background of tile 1 using palette entry 1.
func fillScreen(p *PPU, chr *MockCHR, color uint8) {
	for i := 0; i < 8; i++ {
		chr.data[16+i] = 0xFF
	}
	setAddress(p, 0x2000)
	for i := 0; i < 960; i++ {
		p.WriteRegister(0x2007, 1)
	}
	setAddress(p, 0x3F00)
	p.WriteRegister(0x2007, 0x0F)
	p.WriteRegister(0x2007, color)

	p.WriteRegister(0x2000, 0)
	p.WriteRegister(0x2005, 0)
	p.WriteRegister(0x2005, 0)
}

func runFrames(p *PPU, n uint64) {
	target := p.Frame + n
	for p.Frame < target {
		p.Step()
	}
}

func TestBackgroundRendering(t *testing.T) {
	p, chr := newTestPPU()
	fillScreen(p, chr, 0x21)
	p.WriteRegister(0x2001, 0x0A)

	runFrames(p, 2)

	frame := p.Buffer()
	assert.Equal(t, ScreenWidth*ScreenHeight, len(frame))
	for _, xy := range [][2]int{{0, 0}, {100, 100}, {255, 239}} {
		if c := frame[xy[1]*ScreenWidth+xy[0]]; c != 0x21 {
			t.Errorf("Expected color $21 at %v, got $%02X", xy, c)
		}
	}
}

func TestLeftColumnMask(t *testing.T) {
	p, chr := newTestPPU()
	fillScreen(p, chr, 0x21)
	p.WriteRegister(0x2001, 0x08)

	runFrames(p, 2)

	frame := p.Buffer()
	assert.Equal(t, uint8(0x0F), frame[50*ScreenWidth+7], "hidden left column shows the backdrop")
	assert.Equal(t, uint8(0x21), frame[50*ScreenWidth+8])
}

func TestSpriteRendering(t *testing.T) {
	p, chr := newTestPPU()
	for i := 0; i < 8; i++ {
		chr.data[16+i] = 0xFF
	}
	setAddress(p, 0x3F00)
	p.WriteRegister(0x2007, 0x0F)
	setAddress(p, 0x3F11)
	p.WriteRegister(0x2007, 0x16)

	p.oam[0] = 9  // y
	p.oam[1] = 1  // tile
	p.oam[2] = 0  // attributes
	p.oam[3] = 50 // x
	for i := 4; i < 256; i += 4 {
		p.oam[i] = 0xFF
	}
	p.WriteRegister(0x2001, 0x14)

	runFrames(p, 2)

	frame := p.Buffer()
	assert.Equal(t, uint8(0x16), frame[10*ScreenWidth+50], "sprites appear one line below their Y")
	assert.Equal(t, uint8(0x16), frame[17*ScreenWidth+57])
	assert.Equal(t, uint8(0x0F), frame[9*ScreenWidth+50])
	assert.Equal(t, uint8(0x0F), frame[18*ScreenWidth+50])
	assert.Equal(t, uint8(0x0F), frame[10*ScreenWidth+58])
}

func TestSpriteZeroHit(t *testing.T) {
	p, chr := newTestPPU()
	fillScreen(p, chr, 0x21)
	p.oam[0] = 30
	p.oam[1] = 1
	p.oam[3] = 40
	for i := 4; i < 256; i += 4 {
		p.oam[i] = 0xFF
	}
	p.WriteRegister(0x2001, 0x1E)

	runFrames(p, 1)
	stepTo(p, 100, 0)
	assert.Equal(t, uint8(0x40), p.ReadRegister(0x2002)&0x40)

	stepTo(p, preRenderLine, 2)
	assert.Equal(t, uint8(0), p.ReadRegister(0x2002)&0x40, "cleared on the pre-render line")
}

func TestSpriteOverflow(t *testing.T) {
	p, _ := newTestPPU()
	for i := 0; i < 64; i++ {
		p.oam[i*4] = 0xFF
	}
	for i := 0; i < 9; i++ {
		p.oam[i*4] = 20
		p.oam[i*4+3] = uint8(i * 10)
	}
	p.WriteRegister(0x2001, 0x10)

	runFrames(p, 1)
	stepTo(p, 22, 0)
	assert.Equal(t, 8, p.spriteCount)
	assert.Equal(t, uint8(0x20), p.ReadRegister(0x2002)&0x20)
}

func TestPaletteImage(t *testing.T) {
	c := RGBA(0x21)
	assert.Equal(t, uint8(0x64), c.R)
	assert.Equal(t, uint8(0xB0), c.G)
	assert.Equal(t, uint8(0xFF), c.B)
	assert.Equal(t, RGBA(0x01), RGBA(0x41), "only six bits select a color")

	frame := make([]uint8, ScreenWidth*ScreenHeight)
	frame[1] = 0x21
	img := Image(frame)
	assert.Equal(t, c, img.RGBAAt(1, 0))
	assert.Equal(t, RGBA(0), img.RGBAAt(0, 0))
}
