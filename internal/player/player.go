// Package player coordinates background playback tasks.
//
// Each connection has at most one active task in the playback table. A task
// plays a single song or a whole playlist in order and removes its own table
// entry when it ends, whether it finished or was cancelled.
package player

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/famish99/songd/internal/backends"
	"github.com/famish99/songd/internal/catalog"
	"github.com/famish99/songd/internal/logging"
	"github.com/famish99/songd/internal/session"
)

var (
	ErrAlreadyPlaying = errors.New("song is already playing")
	ErrNoSongPlaying  = errors.New("no song is playing")
	ErrEmptyPlaylist  = errors.New("playlist is empty")
	ErrStopTimeout    = errors.New("playback did not stop in time")
	ErrClosed         = errors.New("player is closed")
)

// Recorder counts plays. [catalog.Catalog] implements it.
type Recorder interface {
	RecordPlay(title string) (catalog.Song, error)
}

// Options configures a [Player]
type Options struct {
	Renderer    backends.Renderer
	Recorder    Recorder
	Logger      *log.Logger
	StopTimeout time.Duration // 0 waits forever
}

// Player owns the playback task table
type Player struct {
	mu     sync.Mutex
	tasks  map[session.ConnID]*task
	closed bool
	wg     sync.WaitGroup

	renderer    backends.Renderer
	recorder    Recorder
	logger      *log.Logger
	stopTimeout time.Duration
}

// task is one cancellable unit of background playback
type task struct {
	id       session.ConnID
	playlist string // empty for a single song
	cancel   context.CancelFunc
	done     chan struct{} // closed after the table entry is removed

	mu      sync.Mutex
	current catalog.Song
}

// NewPlayer creates a new player instance
func NewPlayer(opts Options) *Player {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Player{
		tasks:       make(map[session.ConnID]*task),
		renderer:    opts.Renderer,
		recorder:    opts.Recorder,
		logger:      opts.Logger.WithPrefix("player"),
		stopTimeout: opts.StopTimeout,
	}
}

// Close cancels every task and waits for all of them to exit
func (p *Player) Close() {
	p.mu.Lock()
	p.closed = true
	for _, t := range p.tasks {
		t.cancel()
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (t *task) setCurrent(song catalog.Song) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = song
}

func (t *task) song() catalog.Song {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}
