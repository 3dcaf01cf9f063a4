package player

import (
	"github.com/famish99/songd/internal/catalog"
	"github.com/famish99/songd/internal/session"
)

// IsPlaying reports whether id has an entry in the playback table
func (p *Player) IsPlaying(id session.ConnID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.tasks[id]
	return ok
}

// NowPlaying returns the song id's task is on and the playlist it belongs to,
// if any
func (p *Player) NowPlaying(id session.ConnID) (song catalog.Song, playlist string, ok bool) {
	p.mu.Lock()
	t, ok := p.tasks[id]
	p.mu.Unlock()

	if !ok {
		return catalog.Song{}, "", false
	}
	return t.song(), t.playlist, true
}

// Active returns the number of tasks in the table
func (p *Player) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tasks)
}
