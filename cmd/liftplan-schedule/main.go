package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/claude/liftplan/internal/schedule"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "LiftPlan server URL")
	apiKey := flag.String("api-key", os.Getenv("LIFTPLAN_AUTH_API_KEY"), "API key for mutating endpoints")
	filePath := flag.String("file", "schedule.yaml", "path to schedule YAML file")
	stateDir := flag.String("state-dir", defaultStateDir(), "directory for the local state database")
	dryRun := flag.Bool("dry-run", false, "print what would be applied without sending")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	f, err := schedule.LoadFile(*filePath)
	if err != nil {
		log.Error("failed to load schedule", "error", err)
		os.Exit(1)
	}

	state, err := schedule.OpenStateDB(*stateDir)
	if err != nil {
		log.Error("failed to open state db", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	client := schedule.NewClient(*serverURL, *apiKey)
	applier := schedule.NewApplier(client, state, *dryRun, log)

	stats, err := applier.Run(f)
	if err != nil {
		log.Error("apply failed", "error", err)
		os.Exit(1)
	}

	log.Info("schedule applied",
		"total", stats.Total,
		"applied", stats.Applied,
		"skipped", stats.Skipped,
		"errored", stats.Errored,
	)
	if stats.Errored > 0 {
		os.Exit(1)
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".liftplan"
	}
	return filepath.Join(home, ".liftplan")
}
