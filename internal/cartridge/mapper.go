package cartridge

import "fmt"

// Mapper is the cartridge hardware seen by both buses. CHR lives at
// $0000-$1FFF, PRG RAM at $6000-$7FFF and PRG ROM at $8000-$FFFF.
type Mapper interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
	// Mirroring is queried on every nametable access since some mappers
	// switch it at runtime.
	Mirroring() Mirror
	// PRGRAM exposes cartridge RAM for battery saves.
	PRGRAM() []uint8
	// Step is clocked at dot 280 of every rendered scanline, the hook
	// scanline counting mappers hang their IRQ on.
	Step()
}

// UnsupportedMapperError is returned for mapper numbers with no
// implementation.
type UnsupportedMapperError struct {
	Mapper uint8
}

func (e *UnsupportedMapperError) Error() string {
	return fmt.Sprintf("unsupported mapper %d", e.Mapper)
}

// NewMapper creates the mapper an image asks for.
func NewMapper(img *Image) (Mapper, error) {
	switch img.Mapper {
	case 0:
		return NewMapper000(img), nil
	case 1:
		return NewMapper001(img), nil
	case 2:
		return NewMapper002(img), nil
	}
	return nil, &UnsupportedMapperError{Mapper: img.Mapper}
}

// banks holds the memory every mapper variant shares.
type banks struct {
	prg    []uint8
	chr    []uint8
	chrRAM bool
	ram    []uint8
	mirror Mirror
}

func newBanks(img *Image) banks {
	b := banks{
		prg:    img.PRG,
		chr:    img.CHR,
		mirror: img.Mirror,
	}
	if img.CHRPages == 0 || len(b.chr) == 0 {
		b.chr = make([]uint8, chrPageSize)
		b.chrRAM = true
	}
	pages := img.PRGRAMPages
	if pages < 1 {
		pages = 1
	}
	b.ram = make([]uint8, pages*ramPageSize)
	return b
}

func (b *banks) Mirroring() Mirror { return b.mirror }

func (b *banks) PRGRAM() []uint8 { return b.ram }

func (b *banks) Step() {}

func (b *banks) readRAM(address uint16) uint8 {
	return b.ram[int(address-0x6000)%len(b.ram)]
}

func (b *banks) writeRAM(address uint16, value uint8) {
	b.ram[int(address-0x6000)%len(b.ram)] = value
}
