package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"nescore/internal/bus"
	"nescore/internal/debug"
)

const (
	blarggStatus    = 0x6000
	blarggSignature = 0x6001
	blarggText      = 0x6004
	blarggTextLimit = 0x1000

	blarggRunning    = 0x80
	blarggNeedsReset = 0x81

	// frames of emulated time to hold before pressing reset, about 100ms
	blarggResetDelay = 6

	nestestStart = 0xC000
	nestestEnd   = 0xC66E
)

var blarggMagic = [3]uint8{0xDE, 0xB0, 0x61}

// ErrTimeout is returned when a test ROM does not finish in time.
var ErrTimeout = errors.New("test ROM did not finish")

// TestResult is the outcome reported by a blargg style test ROM.
type TestResult struct {
	Code uint8
	Text string
}

// Passed reports whether the ROM reported success.
func (r TestResult) Passed() bool {
	return r.Code == 0
}

func (r TestResult) String() string {
	if r.Passed() {
		return "passed"
	}
	return fmt.Sprintf("failed with code %d: %s", r.Code, r.Text)
}

// RunBlargg runs a test ROM that reports through the $6000 protocol until it
// finishes, maxFrames frames have run or ctx is cancelled. A ROM asking for a
// reset gets one after about 100ms of emulated time.
func RunBlargg(ctx context.Context, console *bus.Console, maxFrames int, logger *slog.Logger) (TestResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	resetAt := -1
	armed := true
	for frame := 0; frame < maxFrames; frame++ {
		if err := ctx.Err(); err != nil {
			return TestResult{}, err
		}
		console.ExecuteCycle()

		if resetAt >= 0 && frame >= resetAt {
			logger.Debug("test ROM reset", "frame", frame)
			console.Reset()
			resetAt = -1
			continue
		}

		if !blarggSigned(console) {
			continue
		}

		status := console.Bus.Read(blarggStatus)
		switch {
		case status == blarggRunning:
			armed = true
		case status == blarggNeedsReset:
			if armed && resetAt < 0 {
				resetAt = frame + blarggResetDelay
				armed = false
			}
		case status < blarggRunning:
			result := TestResult{Code: status, Text: blarggMessage(console)}
			logger.Info("test ROM finished", "code", result.Code, "frames", frame+1)
			return result, nil
		}
	}
	return TestResult{}, fmt.Errorf("%w after %d frames", ErrTimeout, maxFrames)
}

func blarggSigned(console *bus.Console) bool {
	for i, b := range blarggMagic {
		if console.Bus.Read(blarggSignature+uint16(i)) != b {
			return false
		}
	}
	return true
}

func blarggMessage(console *bus.Console) string {
	var text []byte
	for addr := uint16(blarggText); addr < blarggText+blarggTextLimit; addr++ {
		b := console.Bus.Read(addr)
		if b == 0 {
			break
		}
		text = append(text, b)
	}
	return string(text)
}

// NestestResult holds the error codes nestest leaves in zero page.
type NestestResult struct {
	Official   uint8 // $02
	Unofficial uint8 // $03
	Steps      int
}

// Passed reports whether both test groups succeeded.
func (r NestestResult) Passed() bool {
	return r.Official == 0 && r.Unofficial == 0
}

// RunNestest runs the nestest ROM in automation mode: execution starts at
// $C000 and ends when the program counter reaches $C66E. When trace is not
// nil every instruction is logged in nestest format.
func RunNestest(console *bus.Console, trace io.Writer, maxSteps int) (NestestResult, error) {
	console.Reset()
	console.CPU.PC = nestestStart

	var tracer *debug.Tracer
	if trace != nil {
		tracer = debug.NewTracer(trace, console.Bus)
	}

	steps := 0
	for console.CPU.PC != nestestEnd {
		if steps >= maxSteps {
			return NestestResult{Steps: steps}, fmt.Errorf("%w after %d instructions", ErrTimeout, steps)
		}
		if tracer != nil {
			tracer.Trace(console.CPU, console.PPU.ScanLine, console.PPU.Cycle)
		}
		console.Step()
		steps++
	}
	if tracer != nil {
		if err := tracer.Err(); err != nil {
			return NestestResult{Steps: steps}, fmt.Errorf("writing trace: %w", err)
		}
	}

	return NestestResult{
		Official:   console.Bus.Read(0x02),
		Unofficial: console.Bus.Read(0x03),
		Steps:      steps,
	}, nil
}
