package backends

import (
	"context"
	"fmt"

	"github.com/famish99/songd/internal/backends/timed"
	"github.com/famish99/songd/internal/catalog"
	"github.com/famish99/songd/internal/config"
)

// Renderer defines the interface that different audio backends must implement
type Renderer interface {
	// Render plays song and blocks until it finishes or ctx is cancelled.
	// A cancelled render returns ctx.Err().
	Render(ctx context.Context, song catalog.Song) error

	// Backend information
	Name() string
}

// RendererFactory creates a new backend instance
type RendererFactory func(cfg config.PlaybackConfig) (Renderer, error)

var factories = map[string]RendererFactory{
	"timed": func(cfg config.PlaybackConfig) (Renderer, error) {
		return timed.New(cfg.TimeScale), nil
	},
	"null": func(config.PlaybackConfig) (Renderer, error) {
		return Null{}, nil
	},
}

// New creates the backend named by cfg.Backend
func New(cfg config.PlaybackConfig) (Renderer, error) {
	factory, ok := factories[cfg.Backend]
	if !ok {
		return nil, fmt.Errorf("unknown playback backend: %s", cfg.Backend)
	}
	return factory(cfg)
}

// Null finishes every song immediately
type Null struct{}

// Render returns at once unless ctx is already cancelled
func (Null) Render(ctx context.Context, _ catalog.Song) error {
	return ctx.Err()
}

// Name returns "null"
func (Null) Name() string { return "null" }
