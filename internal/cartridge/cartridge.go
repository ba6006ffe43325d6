// Package cartridge loads iNES images and implements the cartridge mappers.
package cartridge

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	ines "github.com/retroenv/retrogolib/nes/cartridge"
)

const (
	headerSize  = 16
	trainerSize = 512
	prgPageSize = 0x4000
	chrPageSize = 0x2000
	ramPageSize = 0x2000
)

var (
	// ErrInvalidHeader is returned when the image does not start with a
	// valid iNES header.
	ErrInvalidHeader = errors.New("invalid iNES header")
	// ErrTruncated is returned when the payload is shorter than the header
	// announces.
	ErrTruncated = errors.New("truncated iNES image")
)

// Mirror is the nametable mirroring mode.
type Mirror uint8

const (
	MirrorHorizontal Mirror = iota
	MirrorVertical
	MirrorSingle0
	MirrorSingle1
	MirrorFour
)

func (m Mirror) String() string {
	switch m {
	case MirrorHorizontal:
		return "horizontal"
	case MirrorVertical:
		return "vertical"
	case MirrorSingle0:
		return "single-screen 0"
	case MirrorSingle1:
		return "single-screen 1"
	case MirrorFour:
		return "four-screen"
	}
	return fmt.Sprintf("mirror(%d)", uint8(m))
}

// Image is a parsed cartridge: its metadata and the ROM payloads.
type Image struct {
	PRGPages    int // 16KB units
	CHRPages    int // 8KB units, zero means CHR RAM
	PRGRAMPages int // 8KB units, at least one
	Mapper      uint8
	Mirror      Mirror
	Battery     bool
	Trainer     bool

	PRG []uint8
	CHR []uint8
}

// LoadFile loads an iNES image from disk.
func LoadFile(path string) (*Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening cartridge: %w", err)
	}
	defer file.Close()

	return Load(file)
}

// Load parses an iNES image. The mirroring, trainer and PRG RAM rules are
// read from the raw header bytes. retrogolib decodes the rest from a copy
// with the trainer removed and flags 6 bits 2-3 cleared, since it reads the
// trainer flag from the four-screen bit.
func Load(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading cartridge: %w", err)
	}
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d byte header", ErrTruncated, len(data))
	}
	if !bytes.Equal(data[:4], []byte("NES\x1A")) {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidHeader, data[:4])
	}

	prgPages := int(data[4])
	chrPages := int(data[5])
	flags6 := data[6]
	if prgPages == 0 {
		return nil, fmt.Errorf("%w: no PRG ROM", ErrInvalidHeader)
	}

	trainer := flags6&0x04 != 0
	expected := headerSize + prgPages*prgPageSize + chrPages*chrPageSize
	if trainer {
		expected += trainerSize
	}
	if len(data) < expected {
		return nil, fmt.Errorf("%w: have %d bytes, header needs %d", ErrTruncated, len(data), expected)
	}

	payload := data[headerSize:]
	if trainer {
		payload = payload[trainerSize:]
	}
	normalized := make([]byte, 0, headerSize+len(payload))
	normalized = append(normalized, data[:headerSize]...)
	normalized[6] &^= 0x0C
	normalized = append(normalized, payload...)

	cart, err := ines.LoadFile(bytes.NewReader(normalized))
	if err != nil {
		return nil, fmt.Errorf("parsing iNES image: %w", err)
	}

	img := &Image{
		PRGPages:    prgPages,
		CHRPages:    chrPages,
		PRGRAMPages: int(data[8]),
		Mapper:      cart.Mapper,
		Mirror:      Mirror(flags6&0x01 | (flags6>>3&0x01)<<2),
		Battery:     cart.Battery != 0,
		Trainer:     trainer,
		PRG:         cart.PRG,
		CHR:         cart.CHR,
	}
	if img.PRGRAMPages == 0 {
		img.PRGRAMPages = 1
	}
	return img, nil
}
