package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/famish99/songd/internal/auth"
	"github.com/famish99/songd/internal/backends"
	"github.com/famish99/songd/internal/catalog"
	"github.com/famish99/songd/internal/client"
	"github.com/famish99/songd/internal/config"
	"github.com/famish99/songd/internal/dispatch"
	"github.com/famish99/songd/internal/logging"
	"github.com/famish99/songd/internal/player"
	"github.com/famish99/songd/internal/playlist"
	"github.com/famish99/songd/internal/protocol"
	"github.com/famish99/songd/internal/server"
	"github.com/famish99/songd/internal/session"
	"github.com/famish99/songd/internal/storage"
	"github.com/urfave/cli/v3"
)

// Runner holds the dependencies shared by every command action.
type Runner struct {
	logger *log.Logger
	input  io.Reader
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Logger *log.Logger
	Input  io.Reader
	Output io.Writer
}

// NewRunner creates a new Runner
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = logging.New(os.Stderr, "info", "text")
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Runner{logger: opts.Logger, input: opts.Input, output: opts.Output}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){serveCommand, clientCommand, hashCommand} {
		commands = append(commands, fn(r))
	}
	return commands
}

func (r *Runner) writePlainln(format string, args ...any) {
	fmt.Fprintf(r.output, format+"\n", args...)
}

// Serve loads state, starts the server and blocks until SIGINT or SIGTERM.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadConfig(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if addr := cmd.String("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if lvl := cmd.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}

	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	r.logger = logger

	srv, p, err := r.build(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	if err := srv.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info("Shutting down...")
	return srv.Stop()
}

// build wires the stores, the player and the dispatcher into a server.
func (r *Runner) build(cfg *config.Config) (*server.Server, *player.Player, error) {
	cat, err := catalog.Load(storage.NewJSONFile(cfg.Storage.Songs))
	if err != nil {
		return nil, nil, err
	}
	if cat.Len() == 0 {
		r.logger.Warn("Song catalog is empty", "path", cfg.Storage.Songs)
	}

	store, err := playlist.Load(storage.NewJSONFile(cfg.Storage.Playlists))
	if err != nil {
		return nil, nil, err
	}

	renderer, err := backends.New(cfg.Playback)
	if err != nil {
		return nil, nil, err
	}

	p := player.NewPlayer(player.Options{
		Renderer:    renderer,
		Recorder:    cat,
		Logger:      r.logger,
		StopTimeout: cfg.Playback.StopTimeout,
	})

	d := dispatch.New(dispatch.Deps{
		Sessions:  session.NewRegistry(),
		Users:     auth.NewUsers(storage.NewLineFile(cfg.Storage.Users), auth.BcryptHasher{Cost: cfg.Auth.BcryptCost}),
		Catalog:   cat,
		Playlists: store,
		Player:    p,
		Logger:    r.logger,
	})

	r.logger.Info("State loaded", "songs", cat.Len(), "playlist_owners", store.Owners(), "backend", renderer.Name())

	return server.New(cfg.Server, d, r.logger), p, nil
}

// Client sends commands to a running server. Without -e it reads commands
// from the input until EOF or disconnect.
func (r *Runner) Client(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		cfg, err := config.LoadConfig(cmd.String("config"))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		addr = cfg.Server.Addr
	}

	c, err := client.Dial(ctx, addr)
	if err != nil {
		return err
	}
	defer c.Close()

	timeout := cmd.Duration("timeout")

	if lines := cmd.StringSlice("exec"); len(lines) > 0 {
		for _, line := range lines {
			reply, err := r.send(ctx, c, line, timeout)
			if err != nil {
				return err
			}
			r.printReply(reply)
		}
		return nil
	}

	r.writePlainln("Connected to songd %s at %s. Type help for commands.", c.Version(), addr)

	scanner := bufio.NewScanner(r.input)
	for {
		fmt.Fprint(r.output, "> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		reply, err := r.send(ctx, c, line, timeout)
		if err != nil {
			return err
		}
		r.printReply(reply)

		if reply.OK && protocol.Parse(line).Name == protocol.Disconnect {
			return nil
		}
	}
	return scanner.Err()
}

func (r *Runner) send(ctx context.Context, c *client.Client, line string, timeout time.Duration) (protocol.Reply, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	reply, err := c.Send(ctx, line)
	if timeout > 0 && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded)) {
		return reply, fmt.Errorf("no reply to %q within %s", line, timeout)
	}
	return reply, err
}

func (r *Runner) printReply(reply protocol.Reply) {
	for _, line := range reply.Body {
		r.writePlainln("%s", line)
	}
	if !reply.OK {
		r.writePlainln("error: %s", reply.Message)
	}
}

// Hash prints the users file line for the given credentials.
func (r *Runner) Hash(_ context.Context, cmd *cli.Command) error {
	email, password := cmd.StringArg("email"), cmd.StringArg("password")
	if email == "" || password == "" {
		return fmt.Errorf("email and password are required")
	}
	if !auth.ValidEmail(email) {
		return fmt.Errorf("%w: %s", auth.ErrInvalidEmail, email)
	}

	cfg, err := config.LoadConfig(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	hash, err := auth.BcryptHasher{Cost: cfg.Auth.BcryptCost}.Hash(password)
	if err != nil {
		return err
	}
	r.writePlainln("%s", auth.Record(email, hash))
	return nil
}
