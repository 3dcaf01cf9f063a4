package player

import (
	"context"
	"fmt"
	"time"

	"github.com/famish99/songd/internal/catalog"
	"github.com/famish99/songd/internal/session"
)

// Play starts playing the song titled title for id and returns once the task
// is running. The play count is recorded before Play returns.
func (p *Player) Play(id session.ConnID, title string) (catalog.Song, error) {
	t, ctx, err := p.reserve(id, "")
	if err != nil {
		return catalog.Song{}, err
	}

	song, err := p.recorder.RecordPlay(title)
	if err != nil {
		p.release(t)
		return catalog.Song{}, err
	}

	t.setCurrent(song)
	go p.playbackLoop(ctx, t, []catalog.Song{song})

	p.logger.Info("Playback started", "conn", id, "song", song.Title)
	return song, nil
}

// PlayPlaylist plays songs in order as one task for id. The first song's play
// is recorded before PlayPlaylist returns; later songs are recorded as they
// start. Stopping the task abandons the rest of the playlist.
func (p *Player) PlayPlaylist(id session.ConnID, name string, songs []catalog.Song) error {
	if len(songs) == 0 {
		if p.IsPlaying(id) {
			return ErrAlreadyPlaying
		}
		return fmt.Errorf("%w: %s", ErrEmptyPlaylist, name)
	}

	t, ctx, err := p.reserve(id, name)
	if err != nil {
		return err
	}

	first, err := p.recorder.RecordPlay(songs[0].Title)
	if err != nil {
		p.release(t)
		return err
	}

	queue := make([]catalog.Song, len(songs))
	copy(queue, songs)
	queue[0] = first

	t.setCurrent(first)
	go p.playbackLoop(ctx, t, queue)

	p.logger.Info("Playlist started", "conn", id, "playlist", name, "songs", len(queue))
	return nil
}

// Stop cancels the task for id and blocks until it has left the table, or
// until the stop timeout passes.
func (p *Player) Stop(id session.ConnID) error {
	p.mu.Lock()
	t, ok := p.tasks[id]
	p.mu.Unlock()

	if !ok {
		return ErrNoSongPlaying
	}

	t.cancel()

	if p.stopTimeout <= 0 {
		<-t.done
		return nil
	}

	timer := time.NewTimer(p.stopTimeout)
	defer timer.Stop()

	select {
	case <-t.done:
		p.logger.Debug("Playback stopped", "conn", id)
		return nil
	case <-timer.C:
		p.logger.Error("Timeout waiting for playback to stop", "conn", id, "timeout", p.stopTimeout)
		return ErrStopTimeout
	}
}

// Cancel signals the task for id without waiting for it. It reports whether
// a task was active.
func (p *Player) Cancel(id session.ConnID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.tasks[id]
	if ok {
		t.cancel()
	}
	return ok
}

// reserve inserts a new task entry for id, holding its place in the table
// until the task goroutine starts or release is called.
func (p *Player) reserve(id session.ConnID, playlist string) (*task, context.Context, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, nil, ErrClosed
	}
	if _, ok := p.tasks[id]; ok {
		return nil, nil, ErrAlreadyPlaying
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &task{
		id:       id,
		playlist: playlist,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	p.tasks[id] = t
	p.wg.Add(1)

	return t, ctx, nil
}

// release removes t from the table and marks it done.
func (p *Player) release(t *task) {
	p.mu.Lock()
	if p.tasks[t.id] == t {
		delete(p.tasks, t.id)
	}
	p.mu.Unlock()

	t.cancel()
	close(t.done)
	p.wg.Done()
}
