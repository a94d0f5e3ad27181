// Command repoindexd runs the repository indexing service as an MCP
// server on stdio.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/otto-pm/repoindex/internal/app"
	"github.com/otto-pm/repoindex/internal/config"
	"github.com/otto-pm/repoindex/internal/mcp"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("repoindexd MCP server\n")
		fmt.Printf("Version: %s\n", version)
		fmt.Printf("Build Time: %s\n", buildTime)
		os.Exit(0)
	}

	fs := pflag.NewFlagSet("repoindexd", pflag.ContinueOnError)
	cfg, err := config.Load("", fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr; stdout carries the MCP protocol.
	log := app.NewLogger(cfg.LogLevel)
	log.Info().Str("version", version).Msg("repoindexd starting")

	a, err := app.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to wire application")
	}

	srv := mcp.NewServer(a.Pipeline, a.Searcher, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	case err := <-errChan:
		if err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	}

	log.Info().Msg("server stopped")
}
