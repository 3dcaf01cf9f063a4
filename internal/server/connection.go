package server

import (
	"io"
	"net"
	"time"

	"github.com/charmbracelet/log"
	"github.com/famish99/songd/internal/protocol"
	"github.com/famish99/songd/internal/session"
	"golang.org/x/time/rate"
)

type eventKind int

const (
	evAccept eventKind = iota
	evData
	evClosed
)

// event is what helper goroutines report to the loop
type event struct {
	kind eventKind
	conn net.Conn       // evAccept
	id   session.ConnID // evData, evClosed
	data []byte         // evData
	err  error          // evClosed
}

// peer is the loop's record of one open connection
type peer struct {
	id      session.ConnID
	conn    net.Conn
	lines   *protocol.LineBuffer
	limiter *rate.Limiter // nil when unlimited
	logger  *log.Logger
}

// newLimiter returns the per-connection command limiter, or nil if disabled
func newLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// readLoop reads with a fixed-size buffer and forwards every chunk to the
// loop. It exits when the connection fails or the server stops.
func (s *Server) readLoop(id session.ConnID, conn net.Conn) {
	defer s.wg.Done()

	buf := make([]byte, s.cfg.ReadBufferBytes)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			if !s.send(event{kind: evData, id: id, data: data}) {
				return
			}
		}
		if err != nil {
			s.send(event{kind: evClosed, id: id, err: err})
			return
		}
	}
}

// write sends one reply, bounded by the write timeout
func (s *Server) write(c *peer, reply string) error {
	if s.cfg.WriteTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			return err
		}
	}
	_, err := io.WriteString(c.conn, reply)
	return err
}
