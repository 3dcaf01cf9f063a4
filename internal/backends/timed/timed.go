// Package timed provides a renderer that stands in for an audio device by
// holding each song for its duration.
package timed

import (
	"context"
	"time"

	"github.com/famish99/songd/internal/catalog"
)

// Backend "plays" a song by waiting for its duration multiplied by scale
type Backend struct {
	scale float64
}

// New creates a timed backend. scale is wall seconds per song second.
func New(scale float64) *Backend {
	if scale <= 0 {
		scale = 1
	}
	return &Backend{scale: scale}
}

// Render waits for the scaled duration or until ctx is cancelled
func (b *Backend) Render(ctx context.Context, song catalog.Song) error {
	timer := time.NewTimer(b.Duration(song))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Duration returns how long Render holds song
func (b *Backend) Duration(song catalog.Song) time.Duration {
	secs := song.DurationSeconds
	if secs < 0 {
		secs = 0
	}
	return time.Duration(float64(secs) * b.scale * float64(time.Second))
}

// Name returns "timed"
func (b *Backend) Name() string { return "timed" }
