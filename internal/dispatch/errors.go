package dispatch

import (
	"errors"

	"github.com/famish99/songd/internal/auth"
	"github.com/famish99/songd/internal/catalog"
	"github.com/famish99/songd/internal/player"
	"github.com/famish99/songd/internal/playlist"
	"github.com/famish99/songd/internal/protocol"
	"github.com/famish99/songd/internal/session"
	"github.com/famish99/songd/internal/storage"
)

const (
	msgSomethingWrong = "something went wrong"
	msgUnavailable    = "service temporarily unavailable"
	msgBadLimit       = "argument must be a positive integer"
)

// failure is the fixed reply for one error kind
type failure struct {
	err  error
	code protocol.AckCode
	msg  string
}

var failures = []failure{
	{auth.ErrInvalidEmail, protocol.AckArg, "invalid email"},
	{auth.ErrUserExists, protocol.AckExist, "user already exists"},
	{auth.ErrUserNotFound, protocol.AckPassword, "user not found"},
	{session.ErrAlreadyAuthenticated, protocol.AckPermission, "already logged in"},
	{session.ErrNotAuthenticated, protocol.AckPermission, "not logged in"},
	{catalog.ErrSongNotFound, protocol.AckNoExist, "song not found"},
	{catalog.ErrInvalidLimit, protocol.AckArg, msgBadLimit},
	{playlist.ErrPlaylistExists, protocol.AckExist, "playlist already exists"},
	{playlist.ErrPlaylistNotFound, protocol.AckNoExist, "playlist not found"},
	{playlist.ErrPlaylistNotEmpty, protocol.AckPlayerSync, "playlist is not empty"},
	{playlist.ErrSongExists, protocol.AckExist, "song already in playlist"},
	{playlist.ErrSongNotInList, protocol.AckNoExist, "song not in playlist"},
	{player.ErrAlreadyPlaying, protocol.AckPlayerSync, "song is already playing"},
	{player.ErrNoSongPlaying, protocol.AckPlayerSync, "no song is playing"},
	{player.ErrEmptyPlaylist, protocol.AckNoExist, "playlist is empty"},
	{player.ErrStopTimeout, protocol.AckSystem, "playback did not stop in time"},
}

// fail translates err into the reply for command. Infrastructure and
// unanticipated errors are logged here.
func (d *Dispatcher) fail(command protocol.Name, err error) string {
	for _, f := range failures {
		if errors.Is(err, f.err) {
			return protocol.Ack(f.code, command, f.msg)
		}
	}

	if errors.Is(err, storage.ErrUnavailable) {
		d.logger.Error("Storage failure", "cmd", command, "err", err)
		return protocol.Ack(protocol.AckSystem, command, msgUnavailable)
	}

	d.logger.Error("Unexpected failure", "cmd", command, "err", err)
	return protocol.Ack(protocol.AckSystem, command, msgSomethingWrong)
}
