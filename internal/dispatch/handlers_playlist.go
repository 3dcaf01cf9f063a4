package dispatch

import (
	"fmt"

	"github.com/famish99/songd/internal/protocol"
	"github.com/famish99/songd/internal/session"
)

// cmdCreatePlaylist handles the 'create-playlist' command
func (d *Dispatcher) cmdCreatePlaylist(_ session.ConnID, email string, cmd protocol.Command) string {
	title := cmd.Arg(0)
	if err := d.playlists.Create(email, title); err != nil {
		return d.fail(cmd.Name, err)
	}
	return protocol.OK("Created playlist " + title)
}

// cmdDeletePlaylist handles the 'delete-playlist' command
// Only empty playlists can be deleted
func (d *Dispatcher) cmdDeletePlaylist(_ session.ConnID, email string, cmd protocol.Command) string {
	title := cmd.Arg(0)
	if err := d.playlists.Delete(email, title); err != nil {
		return d.fail(cmd.Name, err)
	}
	return protocol.OK("Deleted playlist " + title)
}

// cmdAddSongTo handles the 'add-song-to' command
// add-song-to PLAYLIST SONG - SONG is a catalog title, matched ignoring case
func (d *Dispatcher) cmdAddSongTo(_ session.ConnID, email string, cmd protocol.Command) string {
	title, songTitle := cmd.Arg(0), cmd.Arg(1)

	if _, err := d.playlists.Get(email, title); err != nil {
		return d.fail(cmd.Name, err)
	}

	song, err := d.catalog.Find(songTitle)
	if err != nil {
		return d.fail(cmd.Name, err)
	}

	if err := d.playlists.AddSong(email, title, song); err != nil {
		return d.fail(cmd.Name, err)
	}
	return protocol.OK(fmt.Sprintf("Added %s to %s", song.Title, title))
}

// cmdRemoveSongFrom handles the 'remove-song-from' command
func (d *Dispatcher) cmdRemoveSongFrom(_ session.ConnID, email string, cmd protocol.Command) string {
	title := cmd.Arg(0)

	song, err := d.playlists.RemoveSong(email, title, cmd.Arg(1))
	if err != nil {
		return d.fail(cmd.Name, err)
	}
	return protocol.OK(fmt.Sprintf("Removed %s from %s", song.Title, title))
}

// cmdShowPlaylist handles the 'show-playlist' command
func (d *Dispatcher) cmdShowPlaylist(_ session.ConnID, email string, cmd protocol.Command) string {
	p, err := d.playlists.Get(email, cmd.Arg(0))
	if err != nil {
		return d.fail(cmd.Name, err)
	}
	if p.Length() == 0 {
		return protocol.OK(fmt.Sprintf("Playlist %s is empty", p.Title))
	}

	items := make([]string, len(p.Songs))
	for i, s := range p.Songs {
		items[i] = s.String()
	}
	return protocol.OK(protocol.Numbered(items)...)
}

// cmdShowPlaylists handles the 'show-playlists' command
func (d *Dispatcher) cmdShowPlaylists(_ session.ConnID, email string, _ protocol.Command) string {
	titles := d.playlists.List(email)
	if len(titles) == 0 {
		return protocol.OK("No playlists")
	}
	return protocol.OK(protocol.Numbered(titles)...)
}
