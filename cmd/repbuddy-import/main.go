package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/claude/repbuddy/internal/config"
	"github.com/claude/repbuddy/internal/ingest"
	"github.com/claude/repbuddy/internal/ingest/alpha"
	"github.com/claude/repbuddy/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	csvPath := flag.String("file", "", "path to Alpha Progression CSV export (required)")
	warmups := flag.Bool("warmups", false, "import warm-up sets too")
	dryRun := flag.Bool("dry-run", false, "parse and report counts without writing to the store")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *csvPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: repbuddy-import [-config config.yaml] -file export.csv [-warmups] [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		log.Error("cannot open CSV", "path", *csvPath, "error", err)
		os.Exit(1)
	}
	defer f.Close()

	if *dryRun {
		log.Info("DRY RUN mode: nothing will be written to the store")
		sessions, err := alpha.Parse(f)
		if err != nil {
			log.Error("parse failed", "error", err)
			os.Exit(1)
		}
		sets := 0
		for _, s := range sessions {
			for _, ex := range s.Exercises {
				sets += len(ex.Sets)
			}
		}
		log.Info("parsed", "sessions", len(sessions), "sets", sets)
		return
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.StoreDSN()
	if err := storage.RunMigrations(cfg.Storage.Driver, dsn); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	ctx := context.Background()
	kv, err := storage.Open(ctx, cfg.Storage.Driver, dsn)
	if err != nil {
		log.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	store := storage.NewStore(kv)
	defer store.Close()

	start := time.Now()
	result, err := alpha.NewProvider(store, log, *warmups).Ingest(ctx, f)
	if logErr := store.AppendImportLog(ctx, storage.NewImportLog("alpha-import", start, result, err, time.Since(start))); logErr != nil {
		log.Warn("failed to log import", "error", logErr)
	}
	if err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}

	printResult(log, result)
	log.Info("import complete")
}

func printResult(log *slog.Logger, r *ingest.Result) {
	log.Info("import stats",
		"sessions_received", r.SessionsReceived,
		"workouts_saved", r.WorkoutsSaved,
		"workouts_replaced", r.WorkoutsReplaced,
		"exercises_created", r.ExercisesCreated,
		"sets_received", r.SetsReceived,
		"sets_imported", r.SetsImported,
		"warmups_skipped", r.WarmupsSkipped,
	)
	if r.Message != "" {
		log.Info(r.Message)
	}
}
