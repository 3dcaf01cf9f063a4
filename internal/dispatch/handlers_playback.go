package dispatch

import (
	"fmt"

	"github.com/famish99/songd/internal/player"
	"github.com/famish99/songd/internal/protocol"
	"github.com/famish99/songd/internal/session"
)

// cmdPlay handles the 'play' command
// play SONG - starts playback and returns without waiting for it
func (d *Dispatcher) cmdPlay(id session.ConnID, _ string, cmd protocol.Command) string {
	song, err := d.player.Play(id, cmd.Arg(0))
	if err != nil {
		return d.fail(cmd.Name, err)
	}
	return protocol.OK(fmt.Sprintf("Playing %s - %s", song.Title, song.Artist))
}

// cmdPlayPlaylist handles the 'play-playlist' command
// play-playlist TITLE - plays every song in order; stop abandons the rest
func (d *Dispatcher) cmdPlayPlaylist(id session.ConnID, email string, cmd protocol.Command) string {
	if d.player.IsPlaying(id) {
		return d.fail(cmd.Name, player.ErrAlreadyPlaying)
	}

	p, err := d.playlists.Get(email, cmd.Arg(0))
	if err != nil {
		return d.fail(cmd.Name, err)
	}

	if err := d.player.PlayPlaylist(id, p.Title, p.Songs); err != nil {
		return d.fail(cmd.Name, err)
	}
	return protocol.OK(fmt.Sprintf("Playing playlist %s (%d songs)", p.Title, p.Length()))
}

// cmdStop handles the 'stop' command
// Blocks until the playback task has exited
func (d *Dispatcher) cmdStop(id session.ConnID, _ string, cmd protocol.Command) string {
	song, _, _ := d.player.NowPlaying(id)

	if err := d.player.Stop(id); err != nil {
		return d.fail(cmd.Name, err)
	}
	return protocol.OK("Stopped " + song.Title)
}
