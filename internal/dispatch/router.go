package dispatch

import (
	"github.com/famish99/songd/internal/protocol"
	"github.com/famish99/songd/internal/session"
)

// route sends a parsed command to its handler
func (d *Dispatcher) route(id session.ConnID, cmd protocol.Command) Result {
	switch cmd.Name {
	case protocol.Register:
		return reply(d.cmdRegister(cmd))

	case protocol.Login:
		return reply(d.cmdLogin(id, cmd))

	case protocol.Logout:
		return reply(d.authed(id, cmd, d.cmdLogout))

	case protocol.Disconnect:
		return d.cmdDisconnect(id, cmd)

	case protocol.Search:
		return reply(d.cmdSearch(cmd))

	case protocol.Top:
		return reply(d.cmdTop(cmd))

	case protocol.CreatePlaylist:
		return reply(d.authed(id, cmd, d.cmdCreatePlaylist))

	case protocol.DeletePlaylist:
		return reply(d.authed(id, cmd, d.cmdDeletePlaylist))

	case protocol.AddSongTo:
		return reply(d.authed(id, cmd, d.cmdAddSongTo))

	case protocol.RemoveSongFrom:
		return reply(d.authed(id, cmd, d.cmdRemoveSongFrom))

	case protocol.ShowPlaylist:
		return reply(d.authed(id, cmd, d.cmdShowPlaylist))

	case protocol.ShowPlaylists:
		return reply(d.authed(id, cmd, d.cmdShowPlaylists))

	case protocol.Play:
		return reply(d.authed(id, cmd, d.cmdPlay))

	case protocol.PlayPlaylist:
		return reply(d.authed(id, cmd, d.cmdPlayPlaylist))

	case protocol.Stop:
		return reply(d.authed(id, cmd, d.cmdStop))

	case protocol.Help:
		return reply(protocol.OK(protocol.HelpText()...))

	default:
		return reply(protocol.NotUnderstood)
	}
}

// authedHandler runs with the email the connection is logged in as
type authedHandler func(id session.ConnID, email string, cmd protocol.Command) string

// authed runs h only if id is logged in
func (d *Dispatcher) authed(id session.ConnID, cmd protocol.Command, h authedHandler) string {
	email, ok := d.sessions.User(id)
	if !ok {
		return d.fail(cmd.Name, session.ErrNotAuthenticated)
	}
	return h(id, email, cmd)
}

func reply(s string) Result {
	return Result{Reply: s}
}
