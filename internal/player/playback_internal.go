package player

import (
	"context"
	"errors"

	"github.com/famish99/songd/internal/catalog"
)

// playbackLoop renders songs in order until the queue is exhausted or ctx is
// cancelled. The first song's play has already been recorded.
func (p *Player) playbackLoop(ctx context.Context, t *task, queue []catalog.Song) {
	defer p.release(t)

	logger := p.logger.With("conn", t.id)
	if t.playlist != "" {
		logger = logger.With("playlist", t.playlist)
	}

	for i, song := range queue {
		if ctx.Err() != nil {
			logger.Debug("Playback loop cancelled")
			return
		}

		if i > 0 {
			recorded, err := p.recorder.RecordPlay(song.Title)
			if err != nil {
				logger.Error("Skipping song", "song", song.Title, "err", err)
				continue
			}
			song = recorded
			t.setCurrent(song)
		}

		logger.Debug("Playing song", "index", i, "song", song.Title)
		err := p.renderer.Render(ctx, song)

		switch {
		case ctx.Err() != nil:
			logger.Info("Playback cancelled", "song", song.Title)
			return
		case errors.Is(err, context.Canceled):
			return
		case err != nil:
			logger.Error("Error playing song", "song", song.Title, "err", err)
		default:
			logger.Debug("Song finished naturally", "song", song.Title)
		}
	}

	logger.Info("Playback finished")
}
