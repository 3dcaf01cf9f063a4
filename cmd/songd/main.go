package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/famish99/songd/internal/logging"
	"github.com/famish99/songd/internal/protocol"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := logging.New(os.Stderr, "info", "text")

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "songd",
		Usage:    "Song catalog and playlist server",
		Version:  protocol.Version,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatal("application error", "err", err)
	}
}

func getDefaultConfigPath() string {
	// Check common locations
	locations := []string{
		"./songd.yaml",
		"./config.yaml",
		filepath.Join(os.Getenv("HOME"), ".config", "songd", "config.yaml"),
		"/etc/songd/config.yaml",
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	// Default to first location if none exist
	return locations[0]
}
