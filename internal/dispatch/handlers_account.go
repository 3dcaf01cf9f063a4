package dispatch

import (
	"errors"

	"github.com/famish99/songd/internal/player"
	"github.com/famish99/songd/internal/protocol"
	"github.com/famish99/songd/internal/session"
)

// cmdRegister handles the 'register' command
// register EMAIL PASSWORD
func (d *Dispatcher) cmdRegister(cmd protocol.Command) string {
	email, password := cmd.Arg(0), cmd.Arg(1)

	if err := d.users.Register(email, password); err != nil {
		return d.fail(cmd.Name, err)
	}

	d.logger.Info("Registered user", "email", email)
	return protocol.OK("Registered " + email)
}

// cmdLogin handles the 'login' command
// login EMAIL PASSWORD - fails on an already authenticated connection
// whatever the credentials
func (d *Dispatcher) cmdLogin(id session.ConnID, cmd protocol.Command) string {
	if _, ok := d.sessions.User(id); ok {
		return d.fail(cmd.Name, session.ErrAlreadyAuthenticated)
	}

	email, password := cmd.Arg(0), cmd.Arg(1)
	if err := d.users.Verify(email, password); err != nil {
		return d.fail(cmd.Name, err)
	}
	if err := d.sessions.Login(id, email); err != nil {
		return d.fail(cmd.Name, err)
	}

	d.logger.Info("Logged in", "conn", id, "email", email)
	return protocol.OK("Logged in as " + email)
}

// cmdLogout handles the 'logout' command
func (d *Dispatcher) cmdLogout(id session.ConnID, email string, cmd protocol.Command) string {
	if err := d.logout(id, email); err != nil {
		return d.fail(cmd.Name, err)
	}
	return protocol.OK("Logged out")
}

// cmdDisconnect handles the 'disconnect' command. It always succeeds and
// asks the server to close the connection.
func (d *Dispatcher) cmdDisconnect(id session.ConnID, cmd protocol.Command) Result {
	if email, ok := d.sessions.User(id); ok {
		if err := d.logout(id, email); err != nil {
			d.logger.Warn("Logout on disconnect failed", "conn", id, "err", err)
			d.sessions.Logout(id)
		}
	}
	return Result{Reply: protocol.OK("Goodbye"), Close: true}
}

// logout stops playback and clears the session. If playback does not stop
// in time the session is kept, so the user still owns the stopping task.
func (d *Dispatcher) logout(id session.ConnID, email string) error {
	if err := d.player.Stop(id); err != nil && !errors.Is(err, player.ErrNoSongPlaying) {
		d.logger.Warn("Playback still stopping at logout", "conn", id, "err", err)
		return err
	}
	if err := d.sessions.Logout(id); err != nil {
		return err
	}
	d.logger.Info("Logged out", "conn", id, "email", email)
	return nil
}
