// Command repoindex drives the pipeline from the command line:
//
//	repoindex index owner/name [--branch main] [--force]
//	repoindex search owner/name "query" [--top-k 5] [--language go]
//	repoindex status owner/name
//	repoindex history owner/name [--limit 10]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/otto-pm/repoindex/internal/app"
	"github.com/otto-pm/repoindex/internal/config"
	"github.com/otto-pm/repoindex/internal/pipeline"
	"github.com/otto-pm/repoindex/internal/searcher"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	command := os.Args[1]
	os.Args = append(os.Args[:1], os.Args[2:]...)

	fs := pflag.NewFlagSet("repoindex "+command, pflag.ContinueOnError)
	branch := fs.String("branch", "", "Branch to index")
	force := fs.Bool("force", false, "Re-embed even when embeddings exist")
	language := fs.String("language", "", "Language filter for search")
	limit := fs.Int("limit", 10, "History entries to show")

	cfg, err := config.Load("", fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := app.NewLogger(cfg.LogLevel)
	a, err := app.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to wire application")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	args := fs.Args()
	switch command {
	case "index":
		if len(args) < 1 {
			fatalUsage("index requires a repository argument")
		}
		status := a.Pipeline.RunFull(ctx, pipeline.Request{Repo: args[0], Branch: *branch, Force: *force})
		printJSON(status)
		if !status.Success {
			os.Exit(1)
		}
	case "search":
		if len(args) < 2 {
			fatalUsage("search requires repository and query arguments")
		}
		results, err := a.Searcher.Search(ctx, searcher.Query{
			Repo:     args[0],
			Text:     args[1],
			TopK:     cfg.TopK,
			Language: *language,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("search failed")
		}
		printJSON(results)
	case "status":
		if len(args) < 1 {
			fatalUsage("status requires a repository argument")
		}
		status, err := a.Pipeline.Status(ctx, args[0])
		if err != nil {
			log.Fatal().Err(err).Msg("status lookup failed")
		}
		printJSON(status)
	case "history":
		if len(args) < 1 {
			fatalUsage("history requires a repository argument")
		}
		history, err := a.Pipeline.History(ctx, args[0], *limit)
		if err != nil {
			log.Fatal().Err(err).Msg("history lookup failed")
		}
		printJSON(history)
	default:
		usage()
		os.Exit(2)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "encoding output: %v\n", err)
		os.Exit(1)
	}
}

func fatalUsage(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	usage()
	os.Exit(2)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  repoindex index <owner/name> [--branch BRANCH] [--force]
  repoindex search <owner/name> <query> [--language LANG]
  repoindex status <owner/name>
  repoindex history <owner/name> [--limit N]`)
}
