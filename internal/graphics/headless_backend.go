package graphics

import (
	"errors"
	"fmt"

	"nescore/internal/debug"
	"nescore/internal/ppu"
)

// HeadlessBackend implements the Backend interface for headless operation
type HeadlessBackend struct {
	initialized bool
	config      Config
}

// HeadlessWindow keeps the last frame in memory and writes it as a PNG
// when cleaned up.
type HeadlessWindow struct {
	running    bool
	frameCount int
	lastFrame  []uint8
	outputPath string
}

// NewHeadlessBackend creates a new headless graphics backend
func NewHeadlessBackend() Backend {
	return &HeadlessBackend{}
}

// Initialize initializes the headless backend
func (b *HeadlessBackend) Initialize(config Config) error {
	if b.initialized {
		return errors.New("headless backend already initialized")
	}
	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow creates a headless "window" (no actual window)
func (b *HeadlessBackend) CreateWindow() (Window, error) {
	if !b.initialized {
		return nil, errors.New("backend not initialized")
	}
	return &HeadlessWindow{
		running:    true,
		lastFrame:  make([]uint8, ppu.ScreenWidth*ppu.ScreenHeight),
		outputPath: b.config.OutputPath,
	}, nil
}

// Cleanup releases all headless resources
func (b *HeadlessBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true (this is a headless backend)
func (b *HeadlessBackend) IsHeadless() bool {
	return true
}

// Name returns the backend name
func (b *HeadlessBackend) Name() string {
	return "Headless"
}

// RenderFrame keeps a copy of the frame
func (w *HeadlessWindow) RenderFrame(frame []uint8) error {
	if len(frame) != len(w.lastFrame) {
		return fmt.Errorf("frame has %d pixels", len(frame))
	}
	copy(w.lastFrame, frame)
	w.frameCount++
	return nil
}

// PollEvents returns no events, there is no input in headless mode
func (w *HeadlessWindow) PollEvents() []InputEvent {
	return nil
}

// ShouldClose returns true after Cleanup
func (w *HeadlessWindow) ShouldClose() bool {
	return !w.running
}

// Cleanup writes the last rendered frame to the output path, if any
func (w *HeadlessWindow) Cleanup() error {
	if !w.running {
		return nil
	}
	w.running = false
	if w.outputPath == "" || w.frameCount == 0 {
		return nil
	}
	return debug.WritePNGFile(w.outputPath, w.lastFrame)
}

// FrameCount returns the number of frames rendered
func (w *HeadlessWindow) FrameCount() int {
	return w.frameCount
}

// LastFrame returns the most recent frame
func (w *HeadlessWindow) LastFrame() []uint8 {
	return w.lastFrame
}
