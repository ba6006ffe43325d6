package app

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestNewConfigIsValid(t *testing.T) {
	config := NewConfig()
	assert.NoError(t, config.Validate())

	width, height := config.WindowSize()
	assert.Equal(t, 768, width)
	assert.Equal(t, 720, height)

	level, err := config.Debug.Level()
	assert.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoadConfigMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nescore.json")
	data := `{"window": {"scale": 2}, "debug": {"log_level": "debug"}}`
	assert.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	config, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, 2, config.Window.Scale)
	assert.Equal(t, "nescore", config.Window.Title, "unset fields keep defaults")
	assert.Equal(t, "ebitengine", config.Video.Backend)
	assert.Equal(t, path, config.Path())

	level, err := config.Debug.Level()
	assert.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	assert.NoError(t, err)
	assert.Equal(t, NewConfig().Window, config.Window)
}

func TestLoadConfigRejectsBadInput(t *testing.T) {
	dir := t.TempDir()

	broken := filepath.Join(dir, "broken.json")
	assert.NoError(t, os.WriteFile(broken, []byte("{"), 0o644))
	_, err := LoadConfig(broken)
	assert.True(t, err != nil, "truncated JSON")

	invalid := filepath.Join(dir, "invalid.json")
	assert.NoError(t, os.WriteFile(invalid, []byte(`{"video": {"backend": "sdl2"}}`), 0o644))
	_, err = LoadConfig(invalid)
	var configErr *ConfigError
	assert.True(t, errors.As(err, &configErr))
	assert.Equal(t, "video.backend", configErr.Field)
	assert.True(t, errors.Is(err, ErrUnknownValue))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		want   error
	}{
		{"zero scale", func(c *Config) { c.Window.Scale = 0 }, ErrOutOfRange},
		{"huge scale", func(c *Config) { c.Window.Scale = 20 }, ErrOutOfRange},
		{"negative frames", func(c *Config) { c.Emulation.Frames = -1 }, ErrOutOfRange},
		{"unknown level", func(c *Config) { c.Debug.LogLevel = "chatty" }, ErrUnknownValue},
		{"unknown format", func(c *Config) { c.Debug.LogFormat = "xml" }, ErrUnknownValue},
		{"negative dumps", func(c *Config) { c.Debug.DumpFrames = -2 }, ErrOutOfRange},
		{"headless", func(c *Config) { c.Video.Backend = "headless" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewConfig()
			tt.modify(config)
			err := config.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want))
		})
	}
}

func TestValidateCorrectsFallbacks(t *testing.T) {
	config := NewConfig()
	config.Video.Filter = "cubic"
	config.Emulation.FrameRate = -5
	config.Debug.DumpEvery = 0

	assert.NoError(t, config.Validate())
	assert.Equal(t, "nearest", config.Video.Filter)
	assert.Equal(t, 0.0, config.Emulation.FrameRate)
	assert.Equal(t, 1, config.Debug.DumpEvery)
}

func TestSaveToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "nescore.json")
	config := NewConfig()
	config.Input.Player1Keys.A = "Space"

	assert.NoError(t, config.SaveToFile(path))
	loaded, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, "Space", loaded.Input.Player1Keys.A)
	assert.Equal(t, "Space", loaded.Input.Player1Keys.Buttons()["a"])
}
