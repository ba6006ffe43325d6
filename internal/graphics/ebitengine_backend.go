//go:build !headless

package graphics

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"nescore/internal/ppu"
)

// EbitengineBackend implements the Backend interface using Ebitengine
type EbitengineBackend struct {
	initialized bool
	config      Config
}

// EbitengineWindow implements the Window interface for Ebitengine
type EbitengineWindow struct {
	game    *EbitengineGame
	running bool
	events  []InputEvent
	update  func() error
}

// EbitengineGame implements ebiten.Game for the NES emulator
type EbitengineGame struct {
	window     *EbitengineWindow
	frameImage *ebiten.Image
	pixels     []uint8
	filter     ebiten.Filter
	keys       []keyBinding
}

type keyBinding struct {
	buttonBinding
	ebitenKey ebiten.Key
}

// NewEbitengineBackend creates a new Ebitengine graphics backend
func NewEbitengineBackend() Backend {
	return &EbitengineBackend{}
}

// Initialize initializes the Ebitengine backend
func (b *EbitengineBackend) Initialize(config Config) error {
	if b.initialized {
		return errors.New("ebitengine backend already initialized")
	}
	if config.Scale <= 0 {
		config.Scale = 1
	}
	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow creates an Ebitengine window
func (b *EbitengineBackend) CreateWindow() (Window, error) {
	if !b.initialized {
		return nil, errors.New("backend not initialized")
	}

	keys, err := resolveKeys(b.config)
	if err != nil {
		return nil, err
	}

	game := &EbitengineGame{
		frameImage: ebiten.NewImage(ppu.ScreenWidth, ppu.ScreenHeight),
		pixels:     make([]uint8, ppu.ScreenWidth*ppu.ScreenHeight*4),
		filter:     ebiten.FilterNearest,
		keys:       keys,
	}
	if b.config.Filter == "linear" {
		game.filter = ebiten.FilterLinear
	}

	window := &EbitengineWindow{
		game:    game,
		running: true,
	}
	game.window = window

	ebiten.SetWindowTitle(b.config.WindowTitle)
	ebiten.SetWindowSize(ppu.ScreenWidth*b.config.Scale, ppu.ScreenHeight*b.config.Scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(b.config.VSync)
	ebiten.SetFullscreen(b.config.Fullscreen)
	return window, nil
}

// Cleanup releases all Ebitengine resources
func (b *EbitengineBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns false, Ebitengine always opens a window
func (b *EbitengineBackend) IsHeadless() bool {
	return false
}

// Name returns the backend name
func (b *EbitengineBackend) Name() string {
	return "Ebitengine"
}

// resolveKeys maps configured key names such as "ArrowUp" or "X" to
// Ebitengine keys, ignoring case.
func resolveKeys(config Config) ([]keyBinding, error) {
	bound, err := bindings(config)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]ebiten.Key)
	for k := ebiten.Key(0); k <= ebiten.KeyMax; k++ {
		byName[strings.ToLower(k.String())] = k
	}

	keys := make([]keyBinding, 0, len(bound))
	for _, b := range bound {
		k, ok := byName[strings.ToLower(b.key)]
		if !ok {
			return nil, fmt.Errorf("player %d: unknown key %q", b.player, b.key)
		}
		keys = append(keys, keyBinding{buttonBinding: b, ebitenKey: k})
	}
	return keys, nil
}

// RenderFrame uploads a frame of palette indices to the window texture
func (w *EbitengineWindow) RenderFrame(frame []uint8) error {
	if len(frame) != ppu.ScreenWidth*ppu.ScreenHeight {
		return fmt.Errorf("frame has %d pixels", len(frame))
	}
	ppu.FillRGBA(w.game.pixels, frame)
	w.game.frameImage.WritePixels(w.game.pixels)
	return nil
}

// PollEvents processes input events and returns them
func (w *EbitengineWindow) PollEvents() []InputEvent {
	events := w.events
	w.events = nil
	return events
}

// ShouldClose returns true if window should close
func (w *EbitengineWindow) ShouldClose() bool {
	return !w.running
}

// Cleanup releases window resources
func (w *EbitengineWindow) Cleanup() error {
	w.running = false
	return nil
}

// Run starts the Ebitengine game loop. It returns when the window closes or
// update fails.
func (w *EbitengineWindow) Run(update func() error) error {
	w.update = update
	err := ebiten.RunGame(w.game)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// Update implements ebiten.Game.Update
func (g *EbitengineGame) Update() error {
	g.processInput()

	if g.window.update != nil {
		if err := g.window.update(); err != nil {
			return err
		}
	}
	if !g.window.running {
		return ebiten.Termination
	}
	return nil
}

// Draw implements ebiten.Game.Draw
func (g *EbitengineGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)

	bounds := screen.Bounds()
	scaleX := float64(bounds.Dx()) / ppu.ScreenWidth
	scaleY := float64(bounds.Dy()) / ppu.ScreenHeight
	scale := min(scaleX, scaleY)

	offsetX := (float64(bounds.Dx()) - ppu.ScreenWidth*scale) / 2
	offsetY := (float64(bounds.Dy()) - ppu.ScreenHeight*scale) / 2

	op := &ebiten.DrawImageOptions{Filter: g.filter}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(offsetX, offsetY)
	screen.DrawImage(g.frameImage, op)
}

// Layout implements ebiten.Game.Layout
func (g *EbitengineGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// processInput turns key transitions into controller events
func (g *EbitengineGame) processInput() {
	w := g.window
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		w.events = append(w.events, InputEvent{Type: InputEventTypeQuit, Pressed: true})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		w.events = append(w.events, InputEvent{Type: InputEventTypeReset, Pressed: true})
	}

	for _, k := range g.keys {
		switch {
		case inpututil.IsKeyJustPressed(k.ebitenKey):
			w.events = append(w.events, InputEvent{
				Type:    InputEventTypeButton,
				Player:  k.player,
				Button:  k.button,
				Pressed: true,
			})
		case inpututil.IsKeyJustReleased(k.ebitenKey):
			w.events = append(w.events, InputEvent{
				Type:    InputEventTypeButton,
				Player:  k.player,
				Button:  k.button,
				Pressed: false,
			})
		}
	}
}
