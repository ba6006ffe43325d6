// Package app drives the console: configuration, the frame loop, battery
// saves and the automated test ROM runners.
package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config holds all application configuration
type Config struct {
	Window    WindowConfig    `json:"window"`
	Video     VideoConfig     `json:"video"`
	Emulation EmulationConfig `json:"emulation"`
	Input     InputConfig     `json:"input"`
	Debug     DebugConfig     `json:"debug"`
	Paths     PathsConfig     `json:"paths"`

	configPath string
}

// WindowConfig contains window-related configuration
type WindowConfig struct {
	Title      string `json:"title"`
	Scale      int    `json:"scale"` // NES resolution multiplier
	Fullscreen bool   `json:"fullscreen"`
}

// VideoConfig contains video output configuration
type VideoConfig struct {
	Backend string `json:"backend"` // "ebitengine" or "headless"
	VSync   bool   `json:"vsync"`
	Filter  string `json:"filter"` // "nearest" or "linear"
	Output  string `json:"output"` // PNG receiving the last headless frame
}

// EmulationConfig contains emulation-specific settings
type EmulationConfig struct {
	FrameRate float64 `json:"frame_rate"` // target frames per second, zero runs unpaced
	Frames    int     `json:"frames"`     // frames to run in headless mode
	Battery   bool    `json:"battery"`    // persist battery backed RAM
}

// InputConfig contains the keyboard bindings of both controllers
type InputConfig struct {
	Player1Keys KeyMapping `json:"player1_keys"`
	Player2Keys KeyMapping `json:"player2_keys"`
}

// KeyMapping maps NES controller buttons to keyboard key names
type KeyMapping struct {
	Up     string `json:"up"`
	Down   string `json:"down"`
	Left   string `json:"left"`
	Right  string `json:"right"`
	A      string `json:"a"`
	B      string `json:"b"`
	Start  string `json:"start"`
	Select string `json:"select"`
}

// Buttons returns the mapping keyed by controller button name.
func (k KeyMapping) Buttons() map[string]string {
	return map[string]string{
		"up":     k.Up,
		"down":   k.Down,
		"left":   k.Left,
		"right":  k.Right,
		"a":      k.A,
		"b":      k.B,
		"start":  k.Start,
		"select": k.Select,
	}
}

// DebugConfig contains debugging and development options
type DebugConfig struct {
	LogLevel   string `json:"log_level"`  // "DEBUG", "INFO", "WARN", "ERROR"
	LogFormat  string `json:"log_format"` // "text" or "json"
	TraceFile  string `json:"trace_file"` // nestest style CPU trace, empty disables
	DumpFrames int    `json:"dump_frames"`
	DumpEvery  int    `json:"dump_every"`
}

// Level parses LogLevel.
func (d DebugConfig) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(d.LogLevel)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// PathsConfig contains file and directory paths
type PathsConfig struct {
	SaveData    string `json:"save_data"`
	Screenshots string `json:"screenshots"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Title: "nescore",
			Scale: 3,
		},
		Video: VideoConfig{
			Backend: "ebitengine",
			VSync:   true,
			Filter:  "nearest",
		},
		Emulation: EmulationConfig{
			FrameRate: 60.0988,
			Frames:    600,
			Battery:   true,
		},
		Input: InputConfig{
			Player1Keys: KeyMapping{
				Up:     "ArrowUp",
				Down:   "ArrowDown",
				Left:   "ArrowLeft",
				Right:  "ArrowRight",
				A:      "X",
				B:      "Z",
				Start:  "Enter",
				Select: "ShiftRight",
			},
			Player2Keys: KeyMapping{
				Up:     "W",
				Down:   "S",
				Left:   "A",
				Right:  "D",
				A:      "K",
				B:      "J",
				Start:  "Digit2",
				Select: "Digit1",
			},
		},
		Debug: DebugConfig{
			LogLevel:  "INFO",
			LogFormat: "text",
			DumpEvery: 1,
		},
		Paths: PathsConfig{
			SaveData:    "./saves",
			Screenshots: "./screenshots",
		},
	}
}

// LoadConfig reads a JSON file over the defaults. Fields missing from the
// file keep their default value, and a missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	config := NewConfig()
	config.configPath = path

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	c.configPath = path
	return nil
}

// Path returns the file the configuration was loaded from or saved to.
func (c *Config) Path() string {
	return c.configPath
}

// Validate checks the configuration values. Out of range values that have a
// natural fallback are corrected instead of rejected.
func (c *Config) Validate() error {
	if c.Window.Scale <= 0 || c.Window.Scale > 8 {
		return &ConfigError{Field: "window.scale", Value: c.Window.Scale, Err: ErrOutOfRange}
	}

	switch c.Video.Backend {
	case "ebitengine", "headless":
	default:
		return &ConfigError{Field: "video.backend", Value: c.Video.Backend, Err: ErrUnknownValue}
	}
	if c.Video.Filter != "linear" {
		c.Video.Filter = "nearest"
	}

	if c.Emulation.FrameRate < 0 {
		c.Emulation.FrameRate = 0
	}
	if c.Emulation.Frames < 0 {
		return &ConfigError{Field: "emulation.frames", Value: c.Emulation.Frames, Err: ErrOutOfRange}
	}

	if _, err := c.Debug.Level(); err != nil {
		return &ConfigError{Field: "debug.log_level", Value: c.Debug.LogLevel, Err: ErrUnknownValue}
	}
	switch strings.ToLower(c.Debug.LogFormat) {
	case "text", "json":
	default:
		return &ConfigError{Field: "debug.log_format", Value: c.Debug.LogFormat, Err: ErrUnknownValue}
	}
	if c.Debug.DumpFrames < 0 {
		return &ConfigError{Field: "debug.dump_frames", Value: c.Debug.DumpFrames, Err: ErrOutOfRange}
	}
	if c.Debug.DumpEvery <= 0 {
		c.Debug.DumpEvery = 1
	}
	return nil
}

// WindowSize returns the window resolution based on scale
func (c *Config) WindowSize() (int, int) {
	return 256 * c.Window.Scale, 240 * c.Window.Scale
}

var (
	// ErrOutOfRange marks a numeric setting outside its allowed range.
	ErrOutOfRange = errors.New("value out of range")
	// ErrUnknownValue marks a setting that is not one of the known choices.
	ErrUnknownValue = errors.New("unknown value")
)

// ConfigError represents configuration-related errors
type ConfigError struct {
	Field string
	Value any
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s' with value '%v': %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
