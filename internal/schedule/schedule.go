// Package schedule bulk-applies calendar assignments from a YAML file to a
// running LiftPlan server, tracking what was already pushed in a local SQLite
// state database.
package schedule

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/claude/liftplan/internal/timeutil"
)

// Assignment is one date entry in a schedule file.
type Assignment struct {
	Date     string `yaml:"date"`
	Kind     string `yaml:"kind"` // "workout" or "rest"
	Template string `yaml:"template,omitempty"`
}

// File is the YAML schedule layout.
type File struct {
	Assignments []Assignment `yaml:"assignments"`
}

// Stats tracks apply progress.
type Stats struct {
	Total   int
	Applied int
	Skipped int
	Errored int
}

// LoadFile parses and validates a schedule YAML file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schedule file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing schedule file: %w", err)
	}

	for i, a := range f.Assignments {
		if _, err := timeutil.ParseDate(a.Date); err != nil {
			return nil, fmt.Errorf("assignment %d: %w", i, err)
		}
		switch a.Kind {
		case "workout":
			if a.Template == "" {
				return nil, fmt.Errorf("assignment %d (%s): workout requires a template", i, a.Date)
			}
		case "rest":
		default:
			return nil, fmt.Errorf("assignment %d (%s): kind must be workout or rest, got %q", i, a.Date, a.Kind)
		}
	}
	return &f, nil
}

// Applier pushes a schedule file through the server API.
type Applier struct {
	client *Client
	state  *StateDB
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// NewApplier creates an Applier.
func NewApplier(client *Client, state *StateDB, dryRun bool, log *slog.Logger) *Applier {
	return &Applier{client: client, state: state, dryRun: dryRun, log: log}
}

// Run applies every assignment in the file, skipping ones already pushed.
// Individual failures (e.g. a date locked by an active session) are counted
// and logged without aborting the rest of the schedule.
func (a *Applier) Run(f *File) (*Stats, error) {
	a.stats = Stats{Total: len(f.Assignments)}

	var templates map[string]string
	if !a.dryRun {
		var err error
		templates, err = a.client.FetchTemplates()
		if err != nil {
			return &a.stats, err
		}
		a.log.Info("fetched templates", "count", len(templates))
	}

	for _, assignment := range f.Assignments {
		applied, err := a.state.IsApplied(assignment.Date, assignment.Kind, assignment.Template)
		if err != nil {
			return &a.stats, fmt.Errorf("checking state for %s: %w", assignment.Date, err)
		}
		if applied {
			a.stats.Skipped++
			continue
		}

		if a.dryRun {
			a.log.Info("would apply", "date", assignment.Date, "kind", assignment.Kind, "template", assignment.Template)
			a.stats.Applied++
			continue
		}

		if err := a.apply(assignment, templates); err != nil {
			a.log.Error("assignment failed", "date", assignment.Date, "error", err)
			a.stats.Errored++
			continue
		}
		if err := a.state.MarkApplied(assignment.Date, assignment.Kind, assignment.Template); err != nil {
			return &a.stats, fmt.Errorf("recording state for %s: %w", assignment.Date, err)
		}
		a.stats.Applied++
	}
	return &a.stats, nil
}

func (a *Applier) apply(assignment Assignment, templates map[string]string) error {
	switch assignment.Kind {
	case "rest":
		return a.client.AssignRest(assignment.Date)
	case "workout":
		templateID, ok := templates[assignment.Template]
		if !ok {
			return fmt.Errorf("unknown template %q", assignment.Template)
		}
		return a.client.AssignWorkout(assignment.Date, templateID)
	default:
		return fmt.Errorf("unknown kind %q", assignment.Kind)
	}
}
