// Package server runs the TCP event loop.
//
// One loop goroutine owns every connection and executes every command, so
// commands never run concurrently. The accept goroutine and one reader
// goroutine per connection only hand bytes to the loop over a channel.
package server

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/famish99/songd/internal/config"
	"github.com/famish99/songd/internal/dispatch"
	"github.com/famish99/songd/internal/logging"
	"github.com/famish99/songd/internal/session"
)

// Handler executes commands for the loop. [dispatch.Dispatcher] implements it.
type Handler interface {
	Open(id session.ConnID)
	Handle(id session.ConnID, line string) dispatch.Result
	Close(id session.ConnID)
}

// Server accepts line-protocol connections
type Server struct {
	mu       sync.Mutex
	cfg      config.ServerConfig
	handler  Handler
	logger   *log.Logger
	listener net.Listener
	running  bool

	events   chan event
	quit     chan struct{}
	stopOnce sync.Once
	loopDone chan struct{}
	wg       sync.WaitGroup // accept and reader goroutines
}

// New creates a server that dispatches commands to h
func New(cfg config.ServerConfig, h Handler, logger *log.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	if cfg.ReadBufferBytes <= 0 {
		cfg.ReadBufferBytes = config.DefaultConfig().Server.ReadBufferBytes
	}
	return &Server{
		cfg:      cfg,
		handler:  h,
		logger:   logger.WithPrefix("server"),
		events:   make(chan event),
		quit:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
}

// Start listens on the configured address and starts the loop
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}
	select {
	case <-s.quit:
		return fmt.Errorf("server stopped")
	default:
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	s.listener = listener
	s.running = true

	s.logger.Info("Listening", "addr", listener.Addr().String())

	s.wg.Add(1)
	go s.acceptLoop()
	go s.loop()

	return nil
}

// Addr returns the listening address, or nil before Start
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop wakes the loop, closes every connection and waits for all server
// goroutines to exit. Playback of closed connections is cancelled, not joined.
func (s *Server) Stop() error {
	s.mu.Lock()
	running := s.running
	s.running = false
	s.mu.Unlock()

	if !running {
		return nil
	}

	var err error
	s.stopOnce.Do(func() {
		close(s.quit)
		if cerr := s.listener.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
		<-s.loopDone
		s.wg.Wait()
		s.logger.Info("Server stopped")
	})
	return err
}

// acceptLoop accepts incoming connections and hands them to the loop
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("Accept error", "err", err)
			continue
		}

		if !s.send(event{kind: evAccept, conn: conn}) {
			conn.Close()
			return
		}
	}
}

// send delivers ev to the loop unless the server is stopping
func (s *Server) send(ev event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.quit:
		return false
	}
}
