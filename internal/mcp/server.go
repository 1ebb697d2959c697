// Package mcp exposes the planner and runner over the Model Context Protocol
// so assistants can inspect the schedule, the running session, and the streak.
package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/planner"
	"github.com/claude/liftplan/internal/runner"
	"github.com/claude/liftplan/internal/templates"
	"github.com/claude/liftplan/internal/timeutil"
)

// New creates an MCP server with all tools and resources registered.
func New(p *planner.Service, r *runner.Service, t *templates.Service, loc *time.Location, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftPlan", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftPlan workout server. Query the day schedule, the running session's progression, templates, and the weekly consistency streak."),
	)

	h := &handlers{planner: p, runner: r, templates: t, loc: loc, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetDayPlan, Handler: h.getDayPlan},
		server.ServerTool{Tool: toolGetWeekSchedule, Handler: h.getWeekSchedule},
		server.ServerTool{Tool: toolGetProgression, Handler: h.getProgression},
		server.ServerTool{Tool: toolCurrentStreak, Handler: h.currentStreak},
		server.ServerTool{Tool: toolListTemplates, Handler: h.listTemplates},
	)

	s.AddResources(
		server.ServerResource{Resource: resToday, Handler: h.today},
		server.ServerResource{Resource: resStreak, Handler: h.streak},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	planner   *planner.Service
	runner    *runner.Service
	templates *templates.Service
	loc       *time.Location
	log       *slog.Logger
}

// --- Resource definitions ---

var resToday = mcp.NewResource(
	"liftplan://today",
	"Today",
	mcp.WithResourceDescription("Today's plan, including session progression when a workout is running"),
	mcp.WithMIMEType("application/json"),
)

var resStreak = mcp.NewResource(
	"liftplan://streak",
	"Consistency Streak",
	mcp.WithResourceDescription("Count of consecutive fully-adherent weeks ending at the last complete week"),
	mcp.WithMIMEType("application/json"),
)

func (h *handlers) today(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	today := timeutil.FormatDate(timeutil.Today(h.loc))

	plan, err := h.planner.Plan(ctx, today)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"date": today,
		"plan": plan,
	}
	if plan.Status == models.StatusActive {
		prog, err := h.runner.Progression(ctx, plan.ID)
		if err != nil {
			h.log.Warn("today resource: progression failed", "error", err)
		} else {
			payload["progression"] = prog
		}
	}

	return jsonResource(req.Params.URI, payload)
}

func (h *handlers) streak(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	streak, err := h.planner.CurrentStreak(ctx, timeutil.Today(h.loc))
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, map[string]int{"streak": streak})
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
