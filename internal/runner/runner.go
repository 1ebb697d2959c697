// Package runner drives the workout session lifecycle: snapshotting a
// template into session storage, deriving progression from the snapshot, and
// recording set completions back into both the session and the template.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/claude/liftplan/internal/models"
)

// Store is the session storage surface the runner needs.
type Store interface {
	StartSession(ctx context.Context, date string, templateID uuid.UUID, startedAt time.Time) (uuid.UUID, error)
	SessionExercises(ctx context.Context, planID uuid.UUID) ([]models.SessionExercise, error)
	SessionSet(ctx context.Context, planID uuid.UUID, exerciseOrder, setNumber int) (*models.SessionSet, error)
	MarkSetStarted(ctx context.Context, setID uuid.UUID, at time.Time) error
	MarkSetCompleted(ctx context.Context, setID uuid.UUID, reps int, load float64, at time.Time) error
	ResolveSet(ctx context.Context, setID uuid.UUID) (*models.SetRef, error)
	PlanTemplate(ctx context.Context, planID uuid.UUID) (*uuid.UUID, error)
	MarkSessionCompleted(ctx context.Context, planID uuid.UUID, at time.Time) error
}

// TemplateSync receives the actuals of a completed set so template targets
// drift toward the user's most recent real performance.
type TemplateSync interface {
	WriteTargetSet(ctx context.Context, templateID uuid.UUID, exerciseOrder, setNumber, reps int, load float64) error
}

// Service implements the session lifecycle over a Store.
type Service struct {
	store Store
	sync  TemplateSync
	log   *slog.Logger
	now   func() time.Time
}

// New creates a runner service. The template sync is a named collaborator so
// the propagation step can be tested apart from progression.
func New(store Store, sync TemplateSync, log *slog.Logger) *Service {
	return &Service{store: store, sync: sync, log: log, now: time.Now}
}

// Start snapshots the template onto the date and activates the session.
// Fails with storage.ErrActiveSession while any session is active anywhere.
func (s *Service) Start(ctx context.Context, date string, templateID uuid.UUID) (uuid.UUID, error) {
	sessionID, err := s.store.StartSession(ctx, date, templateID, s.now())
	if err != nil {
		return uuid.Nil, fmt.Errorf("starting session for %s: %w", date, err)
	}
	s.log.Info("session started", "date", date, "session_id", sessionID, "template_id", templateID)
	return sessionID, nil
}

// Progression recomputes the runner view for a session.
func (s *Service) Progression(ctx context.Context, sessionID uuid.UUID) (models.Progression, error) {
	exercises, err := s.store.SessionExercises(ctx, sessionID)
	if err != nil {
		return models.Progression{}, fmt.Errorf("loading session %s: %w", sessionID, err)
	}
	if len(exercises) == 0 {
		// Zero rows also come back for a session ID that exists nowhere.
		// Only an existing plan may report its empty snapshot as completed.
		if _, err := s.store.PlanTemplate(ctx, sessionID); err != nil {
			return models.Progression{}, fmt.Errorf("loading session %s: %w", sessionID, err)
		}
	}
	return DeriveProgression(exercises), nil
}

// StartSet stamps the start anchor on the set at (exercise order, set
// number). Restarting a set overwrites the anchor.
func (s *Service) StartSet(ctx context.Context, sessionID uuid.UUID, exerciseOrder, setNumber int) error {
	set, err := s.store.SessionSet(ctx, sessionID, exerciseOrder, setNumber)
	if err != nil {
		return fmt.Errorf("locating set %d/%d: %w", exerciseOrder, setNumber, err)
	}
	if err := s.store.MarkSetStarted(ctx, set.ID, s.now()); err != nil {
		return fmt.Errorf("starting set %d/%d: %w", exerciseOrder, setNumber, err)
	}
	return nil
}

// CompleteSet records the actuals for a set and propagates them to the
// template's matching target. Idempotent: repeating the call rewrites the
// same row and re-syncs the same target.
func (s *Service) CompleteSet(ctx context.Context, sessionID uuid.UUID, exerciseOrder, setNumber, actualReps int, actualLoad float64) error {
	set, err := s.store.SessionSet(ctx, sessionID, exerciseOrder, setNumber)
	if err != nil {
		return fmt.Errorf("locating set %d/%d: %w", exerciseOrder, setNumber, err)
	}
	if err := s.store.MarkSetCompleted(ctx, set.ID, actualReps, actualLoad, s.now()); err != nil {
		return fmt.Errorf("completing set %d/%d: %w", exerciseOrder, setNumber, err)
	}

	templateID, err := s.store.PlanTemplate(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("resolving session template: %w", err)
	}
	return s.syncTemplate(ctx, templateID, exerciseOrder, setNumber, actualReps, actualLoad)
}

// UpdateCompletedSet edits an already-completed set's actuals by set ID and
// re-syncs the template through set → exercise → plan → template.
func (s *Service) UpdateCompletedSet(ctx context.Context, setID uuid.UUID, actualReps int, actualLoad float64) error {
	ref, err := s.store.ResolveSet(ctx, setID)
	if err != nil {
		return fmt.Errorf("resolving set %s: %w", setID, err)
	}
	if err := s.store.MarkSetCompleted(ctx, setID, actualReps, actualLoad, s.now()); err != nil {
		return fmt.Errorf("updating set %s: %w", setID, err)
	}
	return s.syncTemplate(ctx, ref.TemplateID, ref.ExerciseOrder, ref.SetNumber, actualReps, actualLoad)
}

// syncTemplate propagates actuals into the originating template's target set.
// A session without a template reference skips the sync silently.
func (s *Service) syncTemplate(ctx context.Context, templateID *uuid.UUID, exerciseOrder, setNumber, reps int, load float64) error {
	if templateID == nil {
		return nil
	}
	if err := s.sync.WriteTargetSet(ctx, *templateID, exerciseOrder, setNumber, reps, load); err != nil {
		return fmt.Errorf("syncing template target %d/%d: %w", exerciseOrder, setNumber, err)
	}
	return nil
}

// CompleteSession finishes the session. Deliberately permissive: it does not
// verify that every set was completed, so the user can bail out early.
// Callers that want strictness check Progression().IsCompleted first.
func (s *Service) CompleteSession(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.store.MarkSessionCompleted(ctx, sessionID, s.now()); err != nil {
		return fmt.Errorf("completing session %s: %w", sessionID, err)
	}
	s.log.Info("session completed", "session_id", sessionID)
	return nil
}
