package server

import (
	"bytes"
	"errors"
	"io"
	"net"

	"github.com/famish99/songd/internal/logging"
	"github.com/famish99/songd/internal/protocol"
	"github.com/famish99/songd/internal/session"
)

const msgRateLimited = "too many commands"

// loop owns the connection table. It blocks only on the event channel.
func (s *Server) loop() {
	defer close(s.loopDone)

	peers := make(map[session.ConnID]*peer)

	for {
		select {
		case <-s.quit:
			for _, c := range peers {
				s.closePeer(peers, c, "server stopping")
			}
			return

		case ev := <-s.events:
			switch ev.kind {
			case evAccept:
				s.accept(peers, ev.conn)

			case evData:
				if c, ok := peers[ev.id]; ok {
					s.receive(peers, c, ev.data)
				}

			case evClosed:
				if c, ok := peers[ev.id]; ok {
					reason := "peer closed"
					if !errors.Is(ev.err, io.EOF) && !errors.Is(ev.err, net.ErrClosed) {
						reason = ev.err.Error()
					}
					s.closePeer(peers, c, reason)
				}
			}
		}
	}
}

// accept registers conn, greets it and starts its reader
func (s *Server) accept(peers map[session.ConnID]*peer, conn net.Conn) {
	id := session.NewConnID()
	c := &peer{
		id:      id,
		conn:    conn,
		lines:   protocol.NewLineBuffer(s.cfg.MaxLineBytes),
		limiter: newLimiter(s.cfg.CommandsPerSecond, s.cfg.CommandBurst),
		logger:  logging.With(s.logger, "conn", id, "remote", conn.RemoteAddr().String()),
	}
	peers[id] = c
	s.handler.Open(id)

	c.logger.Info("Client connected")

	if err := s.write(c, protocol.Greeting()); err != nil {
		s.closePeer(peers, c, err.Error())
		return
	}

	s.wg.Add(1)
	go s.readLoop(id, conn)
}

// receive feeds data into the client's line buffer and executes every line
// it completes, in order. Replies are written before the next line runs.
func (s *Server) receive(peers map[session.ConnID]*peer, c *peer, data []byte) {
	for len(data) > 0 {
		// feed one line at a time so a too-long reply keeps its place
		chunk := data
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			chunk = data[:i+1]
		}
		data = data[len(chunk):]

		lines, err := c.lines.Feed(chunk)
		if errors.Is(err, protocol.ErrLineTooLong) {
			c.logger.Warn("Line too long", "max", s.cfg.MaxLineBytes)
			if !s.reply(peers, c, protocol.Ack(protocol.AckArg, "", err.Error())) {
				return
			}
		}

		for _, line := range lines {
			if !s.execute(peers, c, line) {
				return
			}
		}
	}
}

// execute runs one command line and reports whether the client is still open
func (s *Server) execute(peers map[session.ConnID]*peer, c *peer, line string) bool {
	if c.limiter != nil && !c.limiter.Allow() {
		cmd := protocol.Parse(line)
		c.logger.Warn("Rate limited", "cmd", cmd.Name)
		return s.reply(peers, c, protocol.Ack(protocol.AckSystem, cmd.Name, msgRateLimited))
	}

	res := s.handler.Handle(c.id, line)
	if !s.reply(peers, c, res.Reply) {
		return false
	}
	if res.Close {
		s.closePeer(peers, c, "client disconnected")
		return false
	}
	return true
}

// reply writes a reply, closing the client if the write fails
func (s *Server) reply(peers map[session.ConnID]*peer, c *peer, text string) bool {
	if err := s.write(c, text); err != nil {
		s.closePeer(peers, c, "write failed: "+err.Error())
		return false
	}
	return true
}

// closePeer drops all state for c and closes its socket. Its reader exits
// on the resulting read error.
func (s *Server) closePeer(peers map[session.ConnID]*peer, c *peer, reason string) {
	delete(peers, c.id)
	s.handler.Close(c.id)
	if err := c.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		c.logger.Debug("Close error", "err", err)
	}
	c.logger.Info("Client disconnected", "reason", reason)
}
