package ppu

// tick advances the dot counters and counts down a pending NMI.
func (p *PPU) tick() {
	if p.nmiDelay > 0 {
		p.nmiDelay--
		if p.nmiDelay == 0 && p.nmiOutput && p.nmiOccurred {
			p.nmiPending = true
		}
	}

	// odd frames skip the last dot of the pre-render line
	if p.RenderingEnabled() && p.oddFrame && p.ScanLine == preRenderLine && p.Cycle == 339 {
		p.Cycle = 0
		p.ScanLine = 0
		p.Frame++
		p.oddFrame = !p.oddFrame
		return
	}

	p.Cycle++
	if p.Cycle >= dotsPerLine {
		p.Cycle = 0
		p.ScanLine++
		if p.ScanLine >= linesPerFrame {
			p.ScanLine = 0
			p.Frame++
			p.oddFrame = !p.oddFrame
		}
	}
}

// Step advances the PPU by one dot
func (p *PPU) Step() {
	p.tick()

	rendering := p.RenderingEnabled()
	visibleLine := p.ScanLine < ScreenHeight
	preLine := p.ScanLine == preRenderLine
	renderLine := visibleLine || preLine
	visibleCycle := p.Cycle >= 1 && p.Cycle <= 256
	prefetchCycle := p.Cycle >= 321 && p.Cycle <= 336
	fetchCycle := visibleCycle || prefetchCycle

	if rendering {
		if visibleLine && visibleCycle {
			p.renderPixel()
		}
		if renderLine && fetchCycle {
			p.tileData <<= 4
			switch p.Cycle % 8 {
			case 1:
				p.fetchNameTableByte()
			case 3:
				p.fetchAttributeByte()
			case 5:
				p.lowTileByte = p.memory.Read(p.patternAddress())
			case 7:
				p.highTileByte = p.memory.Read(p.patternAddress() + 8)
			case 0:
				p.storeTileData()
			}
		}
		if preLine && p.Cycle >= 280 && p.Cycle <= 304 {
			p.copyY()
		}
		if renderLine {
			if fetchCycle && p.Cycle%8 == 0 {
				p.incrementX()
			}
			if p.Cycle == 256 {
				p.incrementY()
			}
			if p.Cycle == 257 {
				p.copyX()
			}
		}
		if p.Cycle == 257 {
			if visibleLine {
				p.evaluateSprites()
			} else {
				p.spriteCount = 0
			}
		}
	}

	if p.ScanLine == vblankLine && p.Cycle == 1 {
		p.setVerticalBlank()
	}
	if preLine && p.Cycle == 1 {
		p.clearVerticalBlank()
		p.sprite0Hit = false
		p.spriteOverflow = false
	}
}

func (p *PPU) renderPixel() {
	x := p.Cycle - 1
	y := p.ScanLine

	background := p.backgroundPixel()
	i, sprite := p.spritePixel()

	if x < 8 && p.ppuMask&0x02 == 0 {
		background = 0
	}
	if x < 8 && p.ppuMask&0x04 == 0 {
		sprite = 0
	}

	opaqueBackground := background%4 != 0
	opaqueSprite := sprite%4 != 0

	var color uint8
	switch {
	case !opaqueBackground && !opaqueSprite:
		color = 0
	case !opaqueBackground:
		color = sprite | 0x10
	case !opaqueSprite:
		color = background
	default:
		if p.spriteIndexes[i] == 0 && x < 255 {
			p.sprite0Hit = true
		}
		if p.spritePriorities[i] == 0 {
			color = sprite | 0x10
		} else {
			color = background
		}
	}

	p.back[y*ScreenWidth+x] = p.memory.ReadPalette(color) % 64
}

func (p *PPU) backgroundPixel() uint8 {
	if p.ppuMask&0x08 == 0 {
		return 0
	}
	data := uint32(p.tileData>>32) >> ((7 - p.x) * 4)
	return uint8(data & 0x0F)
}

// spritePixel returns the slot and 4-bit color of the first opaque sprite
// covering the current dot.
func (p *PPU) spritePixel() (uint8, uint8) {
	if p.ppuMask&0x10 == 0 {
		return 0, 0
	}
	for i := 0; i < p.spriteCount; i++ {
		offset := p.Cycle - 1 - int(p.spritePositions[i])
		if offset < 0 || offset > 7 {
			continue
		}
		color := uint8(p.spritePatterns[i] >> uint((7-offset)*4) & 0x0F)
		if color%4 == 0 {
			continue
		}
		return uint8(i), color
	}
	return 0, 0
}

// evaluateSprites loads up to eight sprites for the current line and sets
// the overflow flag when more are in range.
func (p *PPU) evaluateSprites() {
	height := 8
	if p.ppuCtrl&0x20 != 0 {
		height = 16
	}

	count := 0
	for i := 0; i < 64; i++ {
		y := p.oam[i*4]
		attributes := p.oam[i*4+2]
		x := p.oam[i*4+3]
		row := p.ScanLine - int(y)
		if row < 0 || row >= height {
			continue
		}
		if count < 8 {
			p.spritePatterns[count] = p.fetchSpritePattern(i, row)
			p.spritePositions[count] = x
			p.spritePriorities[count] = attributes >> 5 & 1
			p.spriteIndexes[count] = uint8(i)
		}
		count++
	}
	if count > 8 {
		count = 8
		p.spriteOverflow = true
	}
	p.spriteCount = count
}

func (p *PPU) fetchSpritePattern(i, row int) uint32 {
	tile := p.oam[i*4+1]
	attributes := p.oam[i*4+2]

	var address uint16
	if p.ppuCtrl&0x20 == 0 {
		if attributes&0x80 != 0 {
			row = 7 - row
		}
		table := uint16(p.ppuCtrl>>3) & 1
		address = 0x1000*table + uint16(tile)*16 + uint16(row)
	} else {
		if attributes&0x80 != 0 {
			row = 15 - row
		}
		table := uint16(tile & 1)
		tile &= 0xFE
		if row > 7 {
			tile++
			row -= 8
		}
		address = 0x1000*table + uint16(tile)*16 + uint16(row)
	}

	low := p.memory.Read(address)
	high := p.memory.Read(address + 8)
	palette := (attributes & 3) << 2

	var data uint32
	for n := 0; n < 8; n++ {
		var p1, p2 uint8
		if attributes&0x40 != 0 {
			p1 = low & 1
			p2 = (high & 1) << 1
			low >>= 1
			high >>= 1
		} else {
			p1 = (low & 0x80) >> 7
			p2 = (high & 0x80) >> 6
			low <<= 1
			high <<= 1
		}
		data = data<<4 | uint32(palette|p1|p2)
	}
	return data
}

func (p *PPU) fetchNameTableByte() {
	p.nameTableByte = p.memory.Read(0x2000 | p.v&0x0FFF)
}

func (p *PPU) fetchAttributeByte() {
	v := p.v
	address := 0x23C0 | v&0x0C00 | (v>>4)&0x38 | (v>>2)&0x07
	shift := (v>>4)&4 | v&2
	p.attributeByte = (p.memory.Read(address) >> shift & 3) << 2
}

// patternAddress is the low plane address of the current background tile
// row.
func (p *PPU) patternAddress() uint16 {
	table := uint16(p.ppuCtrl>>4) & 1
	fineY := (p.v >> 12) & 7
	return 0x1000*table + uint16(p.nameTableByte)*16 + fineY
}

func (p *PPU) storeTileData() {
	var data uint32
	for i := 0; i < 8; i++ {
		p1 := (p.lowTileByte & 0x80) >> 7
		p2 := (p.highTileByte & 0x80) >> 6
		p.lowTileByte <<= 1
		p.highTileByte <<= 1
		data = data<<4 | uint32(p.attributeByte|p1|p2)
	}
	p.tileData |= uint64(data)
}

// incrementX increments the coarse X and wraps to next nametable if needed
func (p *PPU) incrementX() {
	if p.v&0x001F == 31 {
		p.v &= 0xFFE0
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

// incrementY increments fine Y, and if it overflows, increments coarse Y
func (p *PPU) incrementY() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &= 0x8FFF
	y := (p.v & 0x03E0) >> 5
	switch y {
	case 29:
		y = 0
		p.v ^= 0x0800
	case 31:
		// attribute rows wrap without switching nametable
		y = 0
	default:
		y++
	}
	p.v = (p.v & 0xFC1F) | y<<5
}

// copyX copies all X-related bits from t to v (bits 10, 4-0)
func (p *PPU) copyX() {
	p.v = (p.v & 0xFBE0) | (p.t & 0x041F)
}

// copyY copies all Y-related bits from t to v (bits 11, 14-5)
func (p *PPU) copyY() {
	p.v = (p.v & 0x841F) | (p.t & 0x7BE0)
}
