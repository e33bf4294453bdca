package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/claude/coachly/internal/config"
	"github.com/claude/coachly/internal/importer"
	"github.com/claude/coachly/internal/periodize"
	"github.com/claude/coachly/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	sheetsPath := flag.String("path", "", "directory of training sheets to import")
	owner := flag.String("owner", "", "login of the user who owns the programs (required)")
	template := flag.String("template", "", "ID of a stored template to copy to -users")
	users := flag.String("users", "", "comma-separated logins receiving the template")
	dryRun := flag.Bool("dry-run", false, "report counts without inserting into database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *owner == "" || (*sheetsPath == "" && *template == "") {
		fmt.Fprintf(os.Stderr, "Usage:\n  coachly-import -config config.yaml -owner <login> -path /path/to/sheets [-dry-run]\n  coachly-import -config config.yaml -owner <login> -template <id> -users a,b,c [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var targets []string
	for _, u := range strings.Split(*users, ",") {
		if u = strings.TrimSpace(u); u != "" {
			targets = append(targets, u)
		}
	}
	if *template != "" && len(targets) == 0 {
		log.Error("-template needs at least one user in -users")
		os.Exit(1)
	}

	if *sheetsPath != "" {
		info, err := os.Stat(*sheetsPath)
		if err != nil || !info.IsDir() {
			log.Error("sheets path does not exist or is not a directory", "path", *sheetsPath)
			os.Exit(1)
		}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	ctx := context.Background()

	if *dryRun {
		log.Info("DRY RUN mode: no data will be written to the database")
	}

	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	engine := periodize.New(periodize.WithRoutinePolicy(cfg.Engine.Policy()))
	imp := importer.New(db, engine, log, *dryRun)

	var stats *importer.Stats
	if *sheetsPath != "" {
		stats, err = imp.ImportDir(ctx, *sheetsPath, *owner)
	} else {
		stats, err = imp.Assign(ctx, *owner, *template, targets)
	}
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	if stats == nil {
		return
	}
	log.Info("import stats",
		"files_processed", stats.FilesProcessed,
		"files_errored", stats.FilesErrored,
		"programs_created", stats.ProgramsCreated,
		"routines_imported", stats.RoutinesImported,
		"placements_imported", stats.PlacementsImported,
	)
	if len(stats.Failed) > 0 {
		log.Info("failed imports", "items", stats.Failed)
	}
}
