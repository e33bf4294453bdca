// Command coachly-mcp serves the Coachly MCP tools over stdio against a
// remote Coachly server, for MCP clients that only speak stdio.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	coachmcp "github.com/claude/coachly/internal/mcp"
	"github.com/claude/coachly/internal/periodize"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", os.Getenv("COACHLY_URL"), "Coachly server URL")
	owner := flag.String("user", "", "login to act as (dev mode servers only)")
	policy := flag.String("routine-policy", "share", "routine policy for local conversions: share or clone")
	flag.Parse()

	// stdout carries the protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: coachly-mcp -server <URL> [-user <login>] [-routine-policy share|clone]\n")
		os.Exit(1)
	}

	p, err := periodize.ParseRoutinePolicy(*policy)
	if err != nil {
		log.Error("invalid routine policy", "error", err)
		os.Exit(1)
	}

	client := coachmcp.NewHTTPClient(*serverURL)
	m := coachmcp.New(client, periodize.New(periodize.WithRoutinePolicy(p)), client, Version, log)

	err = mcpserver.ServeStdio(m, mcpserver.WithStdioContextFunc(func(ctx context.Context) context.Context {
		if *owner == "" {
			return ctx
		}
		return coachmcp.WithOwner(ctx, *owner)
	}))
	if err != nil {
		log.Error("stdio server failed", "error", err)
		os.Exit(1)
	}
}
