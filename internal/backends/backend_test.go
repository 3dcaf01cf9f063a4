package backends

import (
	"context"
	"testing"
	"time"

	"github.com/famish99/songd/internal/catalog"
	"github.com/famish99/songd/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	r, err := New(config.PlaybackConfig{Backend: "timed", TimeScale: 0.001})
	require.NoError(t, err)
	assert.Equal(t, "timed", r.Name())

	r, err = New(config.PlaybackConfig{Backend: "null"})
	require.NoError(t, err)
	assert.Equal(t, "null", r.Name())

	_, err = New(config.PlaybackConfig{Backend: "alsa"})
	assert.Error(t, err)
}

func TestTimedRender(t *testing.T) {
	song := catalog.Song{Title: "Short", DurationSeconds: 10}

	t.Run("finishes after scaled duration", func(t *testing.T) {
		r, err := New(config.PlaybackConfig{Backend: "timed", TimeScale: 0.002})
		require.NoError(t, err)

		start := time.Now()
		require.NoError(t, r.Render(context.Background(), song))
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("stops promptly when cancelled", func(t *testing.T) {
		r, err := New(config.PlaybackConfig{Backend: "timed", TimeScale: 100})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		start := time.Now()
		err = r.Render(ctx, song)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Less(t, time.Since(start), time.Second)
	})
}

func TestNullRender(t *testing.T) {
	assert.NoError(t, Null{}.Render(context.Background(), catalog.Song{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Null{}.Render(ctx, catalog.Song{}), context.Canceled)
}
