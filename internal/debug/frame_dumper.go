package debug

import (
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"nescore/internal/ppu"
)

// FrameDumper writes selected frames as PNG files
type FrameDumper struct {
	outputDir    string
	maxDumps     int
	dumpInterval uint64 // dump every N frames
	dumped       int
}

// NewFrameDumper creates a frame dumper writing into outputDir. It dumps
// every frame until maxDumps files exist; zero means no limit.
func NewFrameDumper(outputDir string, maxDumps int) *FrameDumper {
	return &FrameDumper{
		outputDir:    outputDir,
		maxDumps:     maxDumps,
		dumpInterval: 1,
	}
}

// SetDumpInterval sets the interval between frame dumps
func (fd *FrameDumper) SetDumpInterval(interval uint64) {
	if interval == 0 {
		interval = 1
	}
	fd.dumpInterval = interval
}

// Dumped returns the number of files written so far.
func (fd *FrameDumper) Dumped() int {
	return fd.dumped
}

// Dump writes frame number frameNum if it is selected by the interval and the
// dump limit. It returns the path written, or an empty string when skipped.
func (fd *FrameDumper) Dump(frame []uint8, frameNum uint64) (string, error) {
	if frameNum%fd.dumpInterval != 0 {
		return "", nil
	}
	if fd.maxDumps > 0 && fd.dumped >= fd.maxDumps {
		return "", nil
	}

	if err := os.MkdirAll(fd.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating frame dump directory: %w", err)
	}
	path := filepath.Join(fd.outputDir, fmt.Sprintf("frame_%06d.png", frameNum))
	if err := WritePNGFile(path, frame); err != nil {
		return "", err
	}
	fd.dumped++
	return path, nil
}

// WritePNG encodes a frame of palette indices as PNG.
func WritePNG(w io.Writer, frame []uint8) error {
	if err := png.Encode(w, ppu.Image(frame)); err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}
	return nil
}

// WritePNGFile writes a frame of palette indices to a PNG file.
func WritePNGFile(path string, frame []uint8) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating frame file: %w", err)
	}

	if err := WritePNG(file, frame); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing frame file: %w", err)
	}
	return nil
}
