package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/claude/coachly/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "Coachly server URL (e.g. https://coachly.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("COACHLY_API_KEY"), "API key for the sheet upload endpoint")
	userID := flag.String("user", "", "login to upload as (dev mode servers only)")
	sheetsPath := flag.String("path", "", "directory of training sheets")
	dryRun := flag.Bool("dry-run", false, "parse sheets locally but don't send to server")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("coachly-upload", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *sheetsPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: coachly-upload -server <URL> -api-key <key> -path <sheets dir> [-user <login>] [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *serverURL == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -server is required (or use -dry-run)\n")
		os.Exit(1)
	}

	*serverURL = strings.TrimRight(*serverURL, "/")

	info, err := os.Stat(*sheetsPath)
	if err != nil || !info.IsDir() {
		log.Error("sheets directory not found", "path", *sheetsPath)
		os.Exit(1)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}
	stateDir := filepath.Join(homeDir, ".coachly-upload")

	state, err := upload.OpenStateDB(stateDir)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	// Create client (nil-safe in dry-run mode)
	var client *upload.Client
	if !*dryRun {
		client = upload.NewClient(*serverURL, *apiKey, *userID)
	}

	if *dryRun {
		log.Info("DRY RUN mode: sheets will be parsed but not sent")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	uploader := upload.New(client, state, *sheetsPath, *dryRun, log)
	stats, err := uploader.Run(ctx)
	if err != nil {
		log.Error("upload failed", "error", err)
		printStats(stats)
		os.Exit(1)
	}

	printStats(stats)
	log.Info("upload complete")
}

func printStats(stats *upload.Stats) {
	if stats == nil {
		return
	}
	fmt.Println()
	fmt.Println("=== Upload Summary ===")
	fmt.Printf("  Files total:      %d\n", stats.FilesTotal)
	fmt.Printf("  Files uploaded:   %d\n", stats.FilesUploaded)
	fmt.Printf("  Files skipped:    %d (unchanged)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:    %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Routines:         %d\n", stats.RoutinesImported)
	fmt.Printf("  Placements:       %d\n", stats.PlacementsImported)

	if len(stats.Rejected) > 0 {
		fmt.Printf("\n  Rejected sheets:\n")
		for _, m := range stats.Rejected {
			fmt.Printf("    - %s\n", m)
		}
	}
	fmt.Println()
}
