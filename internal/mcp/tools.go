package mcp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/liftplan/internal/timeutil"
)

// resolveDate parses an optional YYYY-MM-DD argument, defaulting to today in
// the configured timezone.
func (h *handlers) resolveDate(dateStr string) (time.Time, error) {
	if dateStr == "" {
		return timeutil.Today(h.loc), nil
	}
	return timeutil.ParseDate(dateStr)
}

// --- Tool definitions ---

var toolGetDayPlan = mcp.NewTool("get_day_plan",
	mcp.WithDescription("Get the plan for a calendar date: rest day, workout (with status and template), or unscheduled."),
	mcp.WithString("date", mcp.Description("Date (YYYY-MM-DD). Defaults to today.")),
)

var toolGetWeekSchedule = mcp.NewTool("get_week_schedule",
	mcp.WithDescription("Get all plans for the Monday-to-Sunday week containing a date."),
	mcp.WithString("date", mcp.Description("Any date inside the week (YYYY-MM-DD). Defaults to today.")),
)

var toolGetProgression = mcp.NewTool("get_progression",
	mcp.WithDescription("Get the running session's progression: current exercise and set, phase (READY/IN_SET/REST/COMPLETED), completed-set history, and the timer anchor."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID returned by starting a workout")),
)

var toolCurrentStreak = mcp.NewTool("current_streak",
	mcp.WithDescription("Count consecutive consistent weeks ending at the last complete week. A week counts when it has a rest day, at least one workout, and every workout completed."),
	mcp.WithString("date", mcp.Description("Reference date (YYYY-MM-DD). Defaults to today.")),
)

var toolListTemplates = mcp.NewTool("list_templates",
	mcp.WithDescription("List all workout templates."),
)

// --- Tool handlers ---

func (h *handlers) getDayPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	day, err := h.resolveDate(req.GetString("date", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	plan, err := h.planner.Plan(ctx, timeutil.FormatDate(day))
	if err != nil {
		h.log.Error("mcp get_day_plan", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(plan)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWeekSchedule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	day, err := h.resolveDate(req.GetString("date", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	plans, err := h.planner.Week(ctx, timeutil.FormatDate(day))
	if err != nil {
		h.log.Error("mcp get_week_schedule", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(plans)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getProgression(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := uuid.Parse(req.GetString("session_id", ""))
	if err != nil {
		return mcp.NewToolResultError("session_id must be a UUID"), nil
	}

	prog, err := h.runner.Progression(ctx, sessionID)
	if err != nil {
		h.log.Error("mcp get_progression", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(prog)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) currentStreak(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	day, err := h.resolveDate(req.GetString("date", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	streak, err := h.planner.CurrentStreak(ctx, day)
	if err != nil {
		h.log.Error("mcp current_streak", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]int{"streak": streak})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listTemplates(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := h.templates.List(ctx)
	if err != nil {
		h.log.Error("mcp list_templates", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(list)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
