package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"nescore/internal/bus"
	"nescore/internal/cartridge"
	"nescore/internal/debug"
	"nescore/internal/graphics"
)

// Application represents the main NES emulator application
type Application struct {
	config *Config
	logger *slog.Logger

	console  *bus.Console
	emulator *Emulator
	battery  *BatteryStore
	romPath  string

	backend graphics.Backend
	window  graphics.Window

	traceFile *os.File
}

// ApplicationError represents application-specific errors
type ApplicationError struct {
	Component string
	Operation string
	Err       error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("%s error during %s: %v", e.Component, e.Operation, e.Err)
}

func (e *ApplicationError) Unwrap() error {
	return e.Err
}

// NewApplication creates an application from a validated configuration
func NewApplication(config *Config, logger *slog.Logger) *Application {
	if logger == nil {
		logger = slog.Default()
	}
	return &Application{
		config:  config,
		logger:  logger,
		battery: NewBatteryStore(config.Paths.SaveData, logger),
	}
}

// LoadROM loads a ROM file, builds the console and restores battery RAM
func (app *Application) LoadROM(romPath string) error {
	img, err := cartridge.LoadFile(romPath)
	if err != nil {
		return &ApplicationError{Component: "cartridge", Operation: "load ROM", Err: err}
	}

	console, err := bus.New(img, bus.WithLogger(app.logger))
	if err != nil {
		return &ApplicationError{Component: "console", Operation: "create", Err: err}
	}
	app.console = console
	app.romPath = romPath

	if app.config.Emulation.Battery {
		if err := app.battery.Load(console, romPath); err != nil {
			return &ApplicationError{Component: "battery", Operation: "load", Err: err}
		}
	}

	opts := []EmulatorOption{WithEmulatorLogger(app.logger)}
	if path := app.config.Debug.TraceFile; path != "" {
		file, err := os.Create(path)
		if err != nil {
			return &ApplicationError{Component: "debug", Operation: "open trace", Err: err}
		}
		app.traceFile = file
		opts = append(opts, WithTracer(debug.NewTracer(file, console.Bus)))
	}
	if app.config.Debug.DumpFrames > 0 {
		dumper := debug.NewFrameDumper(app.config.Paths.Screenshots, app.config.Debug.DumpFrames)
		dumper.SetDumpInterval(uint64(app.config.Debug.DumpEvery))
		opts = append(opts, WithFrameDumper(dumper))
	}
	app.emulator = NewEmulator(console, app.config.Emulation.FrameRate, opts...)

	app.logger.Info("ROM loaded",
		"path", romPath,
		"mapper", img.Mapper,
		"battery", img.Battery)
	return nil
}

// Console returns the console built by LoadROM.
func (app *Application) Console() *bus.Console {
	return app.console
}

// Run opens the configured backend and runs the emulator until the window
// closes, ctx is cancelled or, in headless mode, the configured number of
// frames has run.
func (app *Application) Run(ctx context.Context) error {
	if app.console == nil {
		return errors.New("no ROM loaded")
	}
	if err := app.openWindow(); err != nil {
		return &ApplicationError{Component: "graphics", Operation: "open window", Err: err}
	}
	app.logger.Debug("starting emulation", "backend", app.backend.Name())

	if owner, ok := app.window.(graphics.LoopOwner); ok {
		return owner.Run(func() error {
			if ctx.Err() != nil {
				return app.window.Cleanup()
			}
			app.processInput()
			if app.window.ShouldClose() {
				return nil
			}
			if err := app.emulator.StepFrame(); err != nil {
				return err
			}
			return app.window.RenderFrame(app.console.Frame())
		})
	}

	err := app.emulator.Run(ctx, app.config.Emulation.Frames, app.window.RenderFrame)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (app *Application) openWindow() error {
	backend, err := graphics.CreateBackend(graphics.BackendType(app.config.Video.Backend))
	if err != nil {
		return err
	}

	output := app.config.Video.Output
	if output == "" && backend.IsHeadless() {
		name := filepath.Base(app.romPath)
		output = filepath.Join(app.config.Paths.Screenshots,
			name[:len(name)-len(filepath.Ext(name))]+".png")
	}
	if output != "" {
		if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	config := graphics.Config{
		WindowTitle: fmt.Sprintf("%s - %s", app.config.Window.Title, filepath.Base(app.romPath)),
		Scale:       app.config.Window.Scale,
		Fullscreen:  app.config.Window.Fullscreen,
		VSync:       app.config.Video.VSync,
		Filter:      app.config.Video.Filter,
		Player1Keys: app.config.Input.Player1Keys.Buttons(),
		Player2Keys: app.config.Input.Player2Keys.Buttons(),
		OutputPath:  output,
	}
	if err := backend.Initialize(config); err != nil {
		return err
	}
	window, err := backend.CreateWindow()
	if err != nil {
		_ = backend.Cleanup()
		return err
	}

	app.backend = backend
	app.window = window
	return nil
}

// processInput applies window events to the controllers
func (app *Application) processInput() {
	for _, event := range app.window.PollEvents() {
		switch event.Type {
		case graphics.InputEventTypeQuit:
			_ = app.window.Cleanup()
		case graphics.InputEventTypeReset:
			app.logger.Info("console reset")
			app.console.Reset()
		case graphics.InputEventTypeButton:
			if controller := app.console.Controller(event.Player); controller != nil {
				controller.SetButton(event.Button, event.Pressed)
			}
		}
	}
}

// Cleanup saves battery RAM and releases the window, the backend and the
// trace file.
func (app *Application) Cleanup() error {
	var errs []error
	if app.console != nil && app.config.Emulation.Battery {
		if err := app.battery.Save(app.console, app.romPath); err != nil {
			errs = append(errs, err)
		}
	}
	if app.window != nil {
		if err := app.window.Cleanup(); err != nil {
			errs = append(errs, fmt.Errorf("closing window: %w", err))
		}
	}
	if app.backend != nil {
		if err := app.backend.Cleanup(); err != nil {
			errs = append(errs, fmt.Errorf("closing backend: %w", err))
		}
	}
	if app.traceFile != nil {
		if err := app.traceFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing trace: %w", err))
		}
		app.traceFile = nil
	}
	return errors.Join(errs...)
}
