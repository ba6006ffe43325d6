// Package graphics provides an abstraction layer for different rendering backends
package graphics

import (
	"fmt"

	"nescore/internal/input"
)

// Backend represents a graphics rendering backend
type Backend interface {
	// Initialize initializes the graphics backend
	Initialize(config Config) error

	// CreateWindow creates the output surface
	CreateWindow() (Window, error)

	// Cleanup releases all resources
	Cleanup() error

	// IsHeadless returns true if the backend never opens a window
	IsHeadless() bool

	// Name returns the backend name for identification
	Name() string
}

// Window receives frames and produces input events
type Window interface {
	// RenderFrame presents a frame of palette indices
	RenderFrame(frame []uint8) error

	// PollEvents returns the input events since the last call
	PollEvents() []InputEvent

	// ShouldClose returns true if the user asked to quit
	ShouldClose() bool

	// Cleanup releases window resources
	Cleanup() error
}

// LoopOwner is implemented by windows that must own the main loop. The
// update function is called once per displayed frame.
type LoopOwner interface {
	Run(update func() error) error
}

// Config contains configuration for graphics backends
type Config struct {
	WindowTitle string
	Scale       int
	Fullscreen  bool
	VSync       bool
	Filter      string // "nearest", "linear"

	// Key names per controller button name, one map per player
	Player1Keys map[string]string
	Player2Keys map[string]string

	// OutputPath receives the last frame as PNG when a headless window is
	// cleaned up. Empty disables the dump.
	OutputPath string
}

// InputEventType represents the type of input event
type InputEventType int

const (
	InputEventTypeButton InputEventType = iota
	InputEventTypeQuit
	InputEventTypeReset
)

// InputEvent represents an input event from the window
type InputEvent struct {
	Type    InputEventType
	Player  int // 1 or 2
	Button  input.Button
	Pressed bool
}

// BackendType represents different graphics backend types
type BackendType string

const (
	BackendEbitengine BackendType = "ebitengine"
	BackendHeadless   BackendType = "headless"
)

// CreateBackend creates a graphics backend of the specified type
func CreateBackend(backendType BackendType) (Backend, error) {
	switch backendType {
	case BackendEbitengine:
		return NewEbitengineBackend(), nil
	case BackendHeadless:
		return NewHeadlessBackend(), nil
	}
	return nil, fmt.Errorf("unknown graphics backend %q", backendType)
}

// buttonBinding ties one key name to a controller button
type buttonBinding struct {
	player int
	button input.Button
	key    string
}

// bindings flattens both players' key maps. Unknown button names are
// reported as errors.
func bindings(config Config) ([]buttonBinding, error) {
	var result []buttonBinding
	for player, keys := range []map[string]string{config.Player1Keys, config.Player2Keys} {
		for name, key := range keys {
			if key == "" {
				continue
			}
			button, ok := input.ParseButton(name)
			if !ok {
				return nil, fmt.Errorf("player %d: unknown button %q", player+1, name)
			}
			result = append(result, buttonBinding{player: player + 1, button: button, key: key})
		}
	}
	return result, nil
}
