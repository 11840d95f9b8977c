package main

import (
	"fmt"
	"log/slog"
	"os"

	app "github.com/valter-silva-au/aion-audit/internal"
	"github.com/valter-silva-au/aion-audit/internal/cli"
)

// Set by goreleaser ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	a, err := app.NewApp(app.ResolveBasePath(), app.WithLogger(logger), app.WithLogLevel(level))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing aion: %v\n", err)
		os.Exit(1)
	}

	err = cli.Execute()
	_ = a.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
