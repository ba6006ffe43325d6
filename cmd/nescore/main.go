// Package main implements the nescore NES emulator executable.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"nescore/internal/app"
	"nescore/internal/bus"
	"nescore/internal/cartridge"
	"nescore/internal/version"
)

const (
	defaultConfigPath = "./config/nescore.json"

	// nestest finishes its automated run in under 9000 instructions
	nestestMaxSteps = 50000
	// blargg ROMs get a minute of emulated time unless -frames says otherwise
	blarggMaxFrames = 3600
)

type options struct {
	rom       string
	config    string
	headless  bool
	frames    int
	output    string
	trace     string
	logLevel  string
	logFormat string
	nestest   bool
	blargg    bool
	version   bool

	set map[string]bool // flags given on the command line
}

func main() {
	opts, err := readArguments(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}
	if opts.version {
		fmt.Println(version.Get().Detailed())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, opts, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func readArguments(args []string, output io.Writer) (options, error) {
	flags := flag.NewFlagSet("nescore", flag.ContinueOnError)
	flags.SetOutput(output)
	flags.Usage = func() {
		fmt.Fprintf(output, "usage: nescore [options] <file to emulate>\n\n")
		flags.PrintDefaults()
	}

	var opts options
	flags.StringVar(&opts.config, "config", defaultConfigPath, "configuration file")
	flags.BoolVar(&opts.headless, "headless", false, "run without a window")
	flags.IntVar(&opts.frames, "frames", 0, "frames to run in headless and blargg mode")
	flags.StringVar(&opts.output, "o", "", "PNG file receiving the last headless frame")
	flags.StringVar(&opts.trace, "trace", "", "write a nestest style CPU trace to this file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: DEBUG, INFO, WARN or ERROR")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format: text or json")
	flags.BoolVar(&opts.nestest, "nestest", false, "run nestest in automation mode and report the result")
	flags.BoolVar(&opts.blargg, "blargg", false, "run a blargg test ROM and report the result")
	flags.BoolVar(&opts.version, "version", false, "print version information and exit")

	if err := flags.Parse(args); err != nil {
		return options{}, err
	}

	opts.set = make(map[string]bool)
	flags.Visit(func(f *flag.Flag) {
		opts.set[f.Name] = true
	})

	if opts.version {
		return opts, nil
	}
	if opts.nestest && opts.blargg {
		fmt.Fprintln(output, "-nestest and -blargg are mutually exclusive")
		return options{}, errors.New("conflicting modes")
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return options{}, errors.New("missing ROM file")
	}
	opts.rom = flags.Arg(0)
	return opts, nil
}

// applyOverrides copies explicitly set flags over the loaded configuration.
func applyOverrides(config *app.Config, opts options) error {
	if opts.headless {
		config.Video.Backend = "headless"
	}
	if opts.set["frames"] {
		config.Emulation.Frames = opts.frames
	}
	if opts.set["o"] {
		config.Video.Output = opts.output
	}
	if opts.set["trace"] {
		config.Debug.TraceFile = opts.trace
	}
	if opts.set["log-level"] {
		config.Debug.LogLevel = strings.ToUpper(opts.logLevel)
	}
	if opts.set["log-format"] {
		config.Debug.LogFormat = opts.logFormat
	}
	return config.Validate()
}

func newLogger(config app.DebugConfig, w io.Writer) *slog.Logger {
	level, err := config.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(config.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func run(ctx context.Context, opts options, stdout, stderr io.Writer) int {
	config, err := app.LoadConfig(opts.config)
	if err != nil {
		fmt.Fprintf(stderr, "loading configuration: %v\n", err)
		return 1
	}
	if err := applyOverrides(config, opts); err != nil {
		fmt.Fprintf(stderr, "invalid option: %v\n", err)
		return 2
	}
	logger := newLogger(config.Debug, stderr)
	logger.Debug("starting", "version", version.Get().String(), "config", opts.config)

	switch {
	case opts.nestest:
		err = runNestest(opts.rom, config, logger, stdout)
	case opts.blargg:
		frames := blarggMaxFrames
		if opts.set["frames"] && opts.frames > 0 {
			frames = opts.frames
		}
		err = runBlargg(ctx, opts.rom, frames, logger, stdout)
	default:
		err = runEmulator(ctx, opts.rom, config, logger)
	}

	if err != nil {
		logger.Error("emulation failed", "error", err)
		return 1
	}
	return 0
}

func runEmulator(ctx context.Context, rom string, config *app.Config, logger *slog.Logger) (err error) {
	application := app.NewApplication(config, logger)
	defer func() {
		if cleanupErr := application.Cleanup(); cleanupErr != nil {
			err = errors.Join(err, cleanupErr)
		}
	}()

	if err := application.LoadROM(rom); err != nil {
		return err
	}
	return application.Run(ctx)
}

func loadConsole(rom string, logger *slog.Logger) (*bus.Console, error) {
	img, err := cartridge.LoadFile(rom)
	if err != nil {
		return nil, err
	}
	return bus.New(img, bus.WithLogger(logger))
}

var errTestFailed = errors.New("test ROM reported a failure")

func runNestest(rom string, config *app.Config, logger *slog.Logger, stdout io.Writer) error {
	console, err := loadConsole(rom, logger)
	if err != nil {
		return err
	}

	var trace io.Writer
	if path := config.Debug.TraceFile; path != "" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating trace file: %w", err)
		}
		defer file.Close()
		trace = file
	}

	result, err := app.RunNestest(console, trace, nestestMaxSteps)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "nestest: official $%02X, unofficial $%02X after %d instructions\n",
		result.Official, result.Unofficial, result.Steps)
	if !result.Passed() {
		return errTestFailed
	}
	return nil
}

func runBlargg(ctx context.Context, rom string, frames int, logger *slog.Logger, stdout io.Writer) error {
	console, err := loadConsole(rom, logger)
	if err != nil {
		return err
	}

	result, err := app.RunBlargg(ctx, console, frames, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s: %s\n", rom, result)
	if !result.Passed() {
		return errTestFailed
	}
	return nil
}
