package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nescore/internal/bus"
	"nescore/internal/debug"
)

// Emulator manages the emulation loop and timing
type Emulator struct {
	console *bus.Console

	targetFrameTime time.Duration

	frameCount       uint64
	emulationTime    time.Duration
	averageFrameTime time.Duration

	tracer *debug.Tracer
	dumper *debug.FrameDumper
	logger *slog.Logger
}

// EmulatorOption configures an Emulator.
type EmulatorOption func(*Emulator)

// WithTracer logs every executed instruction through t.
func WithTracer(t *debug.Tracer) EmulatorOption {
	return func(e *Emulator) {
		e.tracer = t
	}
}

// WithFrameDumper hands every completed frame to d.
func WithFrameDumper(d *debug.FrameDumper) EmulatorOption {
	return func(e *Emulator) {
		e.dumper = d
	}
}

// WithEmulatorLogger sets the logger used by the loop.
func WithEmulatorLogger(logger *slog.Logger) EmulatorOption {
	return func(e *Emulator) {
		e.logger = logger
	}
}

// NewEmulator creates an emulator paced at frameRate frames per second. A
// zero frame rate runs as fast as possible.
func NewEmulator(console *bus.Console, frameRate float64, opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		console: console,
		logger:  slog.Default(),
	}
	if frameRate > 0 {
		e.targetFrameTime = time.Duration(float64(time.Second) / frameRate)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Console returns the emulated console.
func (e *Emulator) Console() *bus.Console {
	return e.console
}

// StepFrame executes exactly one frame of emulation
func (e *Emulator) StepFrame() error {
	start := time.Now()

	if e.tracer == nil {
		e.console.ExecuteCycle()
	} else {
		c := e.console
		target := c.CPU.Cycles + bus.CPUCyclesPerFrame
		for c.CPU.Cycles < target {
			e.tracer.Trace(c.CPU, c.PPU.ScanLine, c.PPU.Cycle)
			c.Step()
		}
		if err := e.tracer.Err(); err != nil {
			return fmt.Errorf("writing trace: %w", err)
		}
	}
	e.frameCount++

	if e.dumper != nil {
		path, err := e.dumper.Dump(e.console.Frame(), e.frameCount)
		if err != nil {
			return fmt.Errorf("dumping frame %d: %w", e.frameCount, err)
		}
		if path != "" {
			e.logger.Debug("frame dumped", "frame", e.frameCount, "path", path)
		}
	}

	e.emulationTime = time.Since(start)
	e.updateAverage()
	return nil
}

// Run steps frames until ctx is cancelled or, when frames is positive, that
// many frames have run. After each frame present receives the picture;
// returning an error from it stops the loop.
func (e *Emulator) Run(ctx context.Context, frames int, present func(frame []uint8) error) error {
	var tick <-chan time.Time
	if e.targetFrameTime > 0 {
		ticker := time.NewTicker(e.targetFrameTime)
		defer ticker.Stop()
		tick = ticker.C
	}

	for n := 0; frames <= 0 || n < frames; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := e.StepFrame(); err != nil {
			return err
		}
		if present != nil {
			if err := present(e.console.Frame()); err != nil {
				return err
			}
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		}
	}

	e.logger.Debug("emulation finished",
		"frames", e.frameCount,
		"average_frame_time", e.averageFrameTime)
	return nil
}

// FrameCount returns the number of frames run
func (e *Emulator) FrameCount() uint64 {
	return e.frameCount
}

// TargetFrameTime returns the pacing interval, zero when unpaced.
func (e *Emulator) TargetFrameTime() time.Duration {
	return e.targetFrameTime
}

// AverageFrameTime returns the smoothed time spent emulating a frame.
func (e *Emulator) AverageFrameTime() time.Duration {
	return e.averageFrameTime
}

func (e *Emulator) updateAverage() {
	if e.averageFrameTime == 0 {
		e.averageFrameTime = e.emulationTime
		return
	}
	e.averageFrameTime = time.Duration(
		float64(e.averageFrameTime)*0.95 + float64(e.emulationTime)*0.05,
	)
}
