package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   getDefaultConfigPath(),
	}
}

// serveCommand runs the server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the server until interrupted",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address, overrides server.addr",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level, overrides log.level",
			},
		},
		Action: r.Serve,
	}
}

// clientCommand talks to a running server
func clientCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "client",
		Usage: "Send commands to a server, interactively or from -e flags",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Server address, defaults to server.addr",
			},
			&cli.StringSliceFlag{
				Name:    "exec",
				Aliases: []string{"e"},
				Usage:   "Command to send; may be repeated. Skips the prompt",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Per-command timeout, 0 waits forever",
			},
		},
		Action: r.Client,
	}
}

// hashCommand prints a credential line
func hashCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "hash",
		Usage: "Print the users file line for an email and password",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "email"},
			&cli.StringArg{Name: "password"},
		},
		Flags: []cli.Flag{
			configFlag(),
		},
		Action: r.Hash,
	}
}
