// Package dispatch routes parsed commands to their handlers and turns every
// outcome, including failures, into a reply string.
package dispatch

import (
	"runtime/debug"

	"github.com/charmbracelet/log"
	"github.com/famish99/songd/internal/auth"
	"github.com/famish99/songd/internal/catalog"
	"github.com/famish99/songd/internal/logging"
	"github.com/famish99/songd/internal/player"
	"github.com/famish99/songd/internal/playlist"
	"github.com/famish99/songd/internal/protocol"
	"github.com/famish99/songd/internal/session"
)

// Result is the outcome of one command line.
type Result struct {
	Reply string
	Close bool // the connection should be closed after Reply is written
}

// Deps are the components the handlers operate on.
type Deps struct {
	Sessions  *session.Registry
	Users     *auth.Users
	Catalog   *catalog.Catalog
	Playlists *playlist.Store
	Player    *player.Player
	Logger    *log.Logger
}

// Dispatcher executes commands against the shared state.
type Dispatcher struct {
	sessions  *session.Registry
	users     *auth.Users
	catalog   *catalog.Catalog
	playlists *playlist.Store
	player    *player.Player
	logger    *log.Logger
}

// New creates a Dispatcher
func New(deps Deps) *Dispatcher {
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	return &Dispatcher{
		sessions:  deps.Sessions,
		users:     deps.Users,
		catalog:   deps.Catalog,
		playlists: deps.Playlists,
		player:    deps.Player,
		logger:    deps.Logger.WithPrefix("dispatch"),
	}
}

// Open registers a new, unauthenticated connection.
func (d *Dispatcher) Open(id session.ConnID) {
	d.sessions.Open(id)
}

// Close drops all state held for id. Playback is cancelled without waiting.
func (d *Dispatcher) Close(id session.ConnID) {
	if d.player.Cancel(id) {
		d.logger.Info("Cancelled playback of closed connection", "conn", id)
	}
	d.sessions.Close(id)
}

// Handle parses and executes one line for id. It never panics.
func (d *Dispatcher) Handle(id session.ConnID, line string) (res Result) {
	cmd := protocol.Parse(line)

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Command panicked", "conn", id, "cmd", cmd.Name, "panic", r, "stack", string(debug.Stack()))
			res = Result{Reply: protocol.Ack(protocol.AckSystem, cmd.Name, msgSomethingWrong)}
		}
	}()

	d.logger.Debug("Command", "conn", id, "cmd", cmd.Name)
	return d.route(id, cmd)
}
