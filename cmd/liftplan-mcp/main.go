// liftplan-mcp serves the LiftPlan MCP tools over stdio, for use as a local
// MCP server by an assistant client.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/claude/liftplan/internal/config"
	"github.com/claude/liftplan/internal/mcp"
	"github.com/claude/liftplan/internal/planner"
	"github.com/claude/liftplan/internal/runner"
	"github.com/claude/liftplan/internal/storage"
	"github.com/claude/liftplan/internal/templates"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// stdout carries the MCP protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Error("failed to resolve timezone", "error", err)
		os.Exit(1)
	}

	db, err := storage.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	templateSvc := templates.New(db)
	plannerSvc := planner.New(db, templateSvc, log)
	runnerSvc := runner.New(db, templateSvc, log)

	s := mcp.New(plannerSvc, runnerSvc, templateSvc, loc, Version, log)
	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
