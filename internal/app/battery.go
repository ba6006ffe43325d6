package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"nescore/internal/bus"
)

// BatteryStore keeps battery backed cartridge RAM in .sav files, one per ROM.
type BatteryStore struct {
	directory string
	logger    *slog.Logger
}

// NewBatteryStore creates a store writing into directory.
func NewBatteryStore(directory string, logger *slog.Logger) *BatteryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &BatteryStore{directory: directory, logger: logger}
}

// Path returns the save file for a ROM: its base name with a .sav extension.
func (s *BatteryStore) Path(romPath string) string {
	name := filepath.Base(romPath)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Join(s.directory, name+".sav")
}

// Load restores the cartridge RAM of a battery backed cartridge. A missing
// save file is not an error.
func (s *BatteryStore) Load(console *bus.Console, romPath string) error {
	if !console.Image().Battery {
		return nil
	}

	path := s.Path(romPath)
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("no battery save", "path", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening battery save: %w", err)
	}
	defer file.Close()

	if err := console.LoadRAM(file); err != nil {
		return fmt.Errorf("loading battery save %s: %w", path, err)
	}
	s.logger.Info("battery save loaded", "path", path)
	return nil
}

// Save writes the cartridge RAM of a battery backed cartridge.
func (s *BatteryStore) Save(console *bus.Console, romPath string) error {
	if !console.Image().Battery {
		return nil
	}

	if err := os.MkdirAll(s.directory, 0o755); err != nil {
		return fmt.Errorf("creating save directory: %w", err)
	}

	path := s.Path(romPath)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating battery save: %w", err)
	}
	if err := console.SaveRAM(file); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing battery save: %w", err)
	}
	s.logger.Info("battery save written", "path", path)
	return nil
}
