// Package planner manages the calendar: date assignments, range queries, and
// the weekly consistency streak.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/storage"
	"github.com/claude/liftplan/internal/timeutil"
)

// Store is the plan storage surface the planner needs.
type Store interface {
	GetPlan(ctx context.Context, date string) (*models.Plan, error)
	UpsertPlan(ctx context.Context, date string, kind models.PlanKind, templateID *uuid.UUID, name string) error
	DeletePlan(ctx context.Context, date string) error
	GetRange(ctx context.Context, start, end string) ([]models.Plan, error)
}

// TemplateReader resolves template references when assigning workouts.
type TemplateReader interface {
	Template(ctx context.Context, id uuid.UUID) (*models.Template, error)
}

// Service implements calendar assignment and streak computation.
type Service struct {
	store     Store
	templates TemplateReader
	log       *slog.Logger
}

// New creates a planner service.
func New(store Store, templates TemplateReader, log *slog.Logger) *Service {
	return &Service{store: store, templates: templates, log: log}
}

// Plan returns the plan for a date. Unscheduled dates come back as a
// synthetic UNSCHEDULED plan rather than an error.
func (s *Service) Plan(ctx context.Context, date string) (*models.Plan, error) {
	p, err := s.store.GetPlan(ctx, date)
	if errors.Is(err, storage.ErrNotFound) {
		return &models.Plan{Date: date, Kind: models.KindUnscheduled}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading plan for %s: %w", date, err)
	}
	return p, nil
}

// Range returns all plans between start and end inclusive, ordered by date.
func (s *Service) Range(ctx context.Context, start, end string) ([]models.Plan, error) {
	plans, err := s.store.GetRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("loading plans %s..%s: %w", start, end, err)
	}
	return plans, nil
}

// Week returns the plans for the Monday-to-Sunday week containing date.
func (s *Service) Week(ctx context.Context, date string) ([]models.Plan, error) {
	d, err := timeutil.ParseDate(date)
	if err != nil {
		return nil, err
	}
	return s.Range(ctx, timeutil.FormatDate(timeutil.WeekStart(d)), timeutil.FormatDate(timeutil.WeekEnd(d)))
}

// AssignWorkout schedules a template on a date. Fails with
// storage.ErrActiveSession if the date's plan is mid-workout, and
// storage.ErrNotFound if the template does not resolve.
func (s *Service) AssignWorkout(ctx context.Context, date string, templateID uuid.UUID) error {
	if err := s.guardActive(ctx, date); err != nil {
		return err
	}
	t, err := s.templates.Template(ctx, templateID)
	if err != nil {
		return fmt.Errorf("resolving template %s: %w", templateID, err)
	}
	if err := s.store.UpsertPlan(ctx, date, models.KindWorkout, &templateID, t.Name); err != nil {
		return err
	}
	s.log.Info("workout assigned", "date", date, "template", t.Name)
	return nil
}

// AssignRest schedules a rest day on a date.
func (s *Service) AssignRest(ctx context.Context, date string) error {
	if err := s.guardActive(ctx, date); err != nil {
		return err
	}
	return s.store.UpsertPlan(ctx, date, models.KindRest, nil, "Rest Day")
}

// AssignOff removes any plan from a date.
func (s *Service) AssignOff(ctx context.Context, date string) error {
	if err := s.guardActive(ctx, date); err != nil {
		return err
	}
	return s.store.DeletePlan(ctx, date)
}

// guardActive protects a running session from being silently reassigned.
func (s *Service) guardActive(ctx context.Context, date string) error {
	p, err := s.store.GetPlan(ctx, date)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking plan for %s: %w", date, err)
	}
	if p.Status == models.StatusActive {
		return fmt.Errorf("cannot change plan for %s: %w", date, storage.ErrActiveSession)
	}
	return nil
}
