// Package client speaks the songd line protocol from the client side.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/famish99/songd/internal/protocol"
)

var (
	ErrBadGreeting = errors.New("unexpected greeting")
	ErrClosed      = errors.New("connection closed")
)

// Client is one protocol connection. It is safe for concurrent use; commands
// are sent one at a time.
type Client struct {
	mu       sync.Mutex
	conn     net.Conn
	r        *bufio.Reader
	greeting string
}

// Dial connects to addr and reads the server greeting
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	c := &Client{conn: conn, r: bufio.NewReader(conn)}

	stop := c.watch(ctx)
	line, err := c.readLine()
	stop()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to read greeting: %w", err)
	}
	if !strings.HasPrefix(line, "OK songd ") {
		conn.Close()
		return nil, fmt.Errorf("%w: %q", ErrBadGreeting, line)
	}

	c.greeting = line
	return c, nil
}

// Greeting returns the line the server greeted with
func (c *Client) Greeting() string {
	return c.greeting
}

// Version returns the server version announced in the greeting
func (c *Client) Version() string {
	return strings.TrimPrefix(c.greeting, "OK songd ")
}

// Send writes one command line and reads the reply up to its terminator.
// A failure reply is returned as a [protocol.Reply] with OK false, not as an error.
func (c *Client) Send(ctx context.Context, line string) (protocol.Reply, error) {
	if strings.ContainsAny(line, "\r\n") {
		return protocol.Reply{}, fmt.Errorf("command must be a single line")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return protocol.Reply{}, ErrClosed
	}

	stop := c.watch(ctx)
	defer stop()

	if _, err := c.conn.Write([]byte(line + "\n")); err != nil {
		return protocol.Reply{}, fmt.Errorf("failed to send command: %w", err)
	}

	var body []string
	for {
		l, err := c.readLine()
		if err != nil {
			return protocol.Reply{}, fmt.Errorf("failed to read reply: %w", err)
		}

		if l == "OK" {
			return protocol.Reply{Body: body, OK: true}, nil
		}
		if ack, ok := protocol.ParseAck(l); ok {
			ack.Body = body
			return ack, nil
		}
		body = append(body, l)
	}
}

// Close closes the connection without sending disconnect
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) readLine() (string, error) {
	line, err := c.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r"), nil
}

// watch applies ctx's deadline to the connection and interrupts blocked I/O
// when ctx is cancelled. The returned func undoes both.
func (c *Client) watch(ctx context.Context) func() {
	if dl, ok := ctx.Deadline(); ok {
		c.conn.SetDeadline(dl)
	}
	conn := c.conn
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Unix(1, 0))
	})
	return func() {
		stop()
		conn.SetDeadline(time.Time{})
	}
}
