//go:build headless

package graphics

import "errors"

var errNoEbitengine = errors.New("ebitengine backend not available in headless build")

// EbitengineBackend stub for headless builds
type EbitengineBackend struct{}

// NewEbitengineBackend creates a stub backend for headless builds
func NewEbitengineBackend() Backend {
	return &EbitengineBackend{}
}

func (b *EbitengineBackend) Initialize(Config) error { return errNoEbitengine }

func (b *EbitengineBackend) CreateWindow() (Window, error) { return nil, errNoEbitengine }

func (b *EbitengineBackend) Cleanup() error { return nil }

func (b *EbitengineBackend) IsHeadless() bool { return true }

func (b *EbitengineBackend) Name() string { return "Ebitengine-Stub" }
