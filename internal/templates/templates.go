// Package templates owns the template collaborator contract: reading routine
// definitions for snapshotting, validating edits, and receiving target-set
// writebacks from completed sets.
package templates

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/claude/liftplan/internal/models"
)

// ValidationError reports malformed input: empty names, negative reps or load.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Store is the template storage surface.
type Store interface {
	CreateTemplate(ctx context.Context, name string) (uuid.UUID, error)
	GetTemplate(ctx context.Context, id uuid.UUID) (*models.Template, error)
	ListTemplates(ctx context.Context) ([]models.Template, error)
	RenameTemplate(ctx context.Context, id uuid.UUID, name string) error
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
	AddTemplateExercise(ctx context.Context, templateID, exerciseID uuid.UUID) (uuid.UUID, error)
	RemoveTemplateExercise(ctx context.Context, templateExerciseID uuid.UUID) error
	AddTemplateSet(ctx context.Context, templateExerciseID uuid.UUID, reps int, load float64) error
	UpdateTemplateSet(ctx context.Context, setID uuid.UUID, reps int, load float64) error
	DeleteTemplateSet(ctx context.Context, setID uuid.UUID) error
	WriteTargetSet(ctx context.Context, templateID uuid.UUID, exerciseOrder, setNumber, reps int, load float64) error
	ListExercises(ctx context.Context) ([]models.Exercise, error)
	CreateExercise(ctx context.Context, name, notes string) (uuid.UUID, error)
}

// Service implements template management over a Store.
type Service struct {
	store Store
}

// New creates a template service.
func New(store Store) *Service {
	return &Service{store: store}
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Msg: "name cannot be empty"}
	}
	return nil
}

func validateSet(reps int, load float64) error {
	if reps < 1 {
		return &ValidationError{Msg: "reps must be at least 1"}
	}
	if load < 0 {
		return &ValidationError{Msg: "load cannot be negative"}
	}
	return nil
}

// Template reads a full template definition.
func (s *Service) Template(ctx context.Context, id uuid.UUID) (*models.Template, error) {
	return s.store.GetTemplate(ctx, id)
}

// List returns all templates without structure.
func (s *Service) List(ctx context.Context) ([]models.Template, error) {
	return s.store.ListTemplates(ctx)
}

// Create validates and creates a template.
func (s *Service) Create(ctx context.Context, name string) (uuid.UUID, error) {
	if err := validateName(name); err != nil {
		return uuid.Nil, err
	}
	return s.store.CreateTemplate(ctx, strings.TrimSpace(name))
}

// Rename validates and renames a template.
func (s *Service) Rename(ctx context.Context, id uuid.UUID, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	return s.store.RenameTemplate(ctx, id, strings.TrimSpace(name))
}

// Delete removes a template and its structure.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteTemplate(ctx, id)
}

// AddExercise appends an exercise slot at the end of the template.
func (s *Service) AddExercise(ctx context.Context, templateID, exerciseID uuid.UUID) (uuid.UUID, error) {
	return s.store.AddTemplateExercise(ctx, templateID, exerciseID)
}

// RemoveExercise removes a slot and renormalizes the order.
func (s *Service) RemoveExercise(ctx context.Context, templateExerciseID uuid.UUID) error {
	return s.store.RemoveTemplateExercise(ctx, templateExerciseID)
}

// AddSet validates and appends a target set.
func (s *Service) AddSet(ctx context.Context, templateExerciseID uuid.UUID, reps int, load float64) error {
	if err := validateSet(reps, load); err != nil {
		return err
	}
	return s.store.AddTemplateSet(ctx, templateExerciseID, reps, load)
}

// UpdateSet validates and rewrites a target set.
func (s *Service) UpdateSet(ctx context.Context, setID uuid.UUID, reps int, load float64) error {
	if err := validateSet(reps, load); err != nil {
		return err
	}
	return s.store.UpdateTemplateSet(ctx, setID, reps, load)
}

// DeleteSet removes a target set and renumbers the rest.
func (s *Service) DeleteSet(ctx context.Context, setID uuid.UUID) error {
	return s.store.DeleteTemplateSet(ctx, setID)
}

// WriteTargetSet propagates a completed set's actuals into the matching
// target. This is the runner's sync hook. Unlike authored targets, actuals
// may legitimately be zero (a failed set), so only negatives are rejected.
func (s *Service) WriteTargetSet(ctx context.Context, templateID uuid.UUID, exerciseOrder, setNumber, reps int, load float64) error {
	if reps < 0 {
		return &ValidationError{Msg: "reps cannot be negative"}
	}
	if load < 0 {
		return &ValidationError{Msg: "load cannot be negative"}
	}
	return s.store.WriteTargetSet(ctx, templateID, exerciseOrder, setNumber, reps, load)
}

// Exercises returns the exercise library.
func (s *Service) Exercises(ctx context.Context) ([]models.Exercise, error) {
	return s.store.ListExercises(ctx)
}

// CreateExercise validates and creates a library exercise.
func (s *Service) CreateExercise(ctx context.Context, name, notes string) (uuid.UUID, error) {
	if err := validateName(name); err != nil {
		return uuid.Nil, err
	}
	id, err := s.store.CreateExercise(ctx, strings.TrimSpace(name), notes)
	if err != nil {
		return uuid.Nil, fmt.Errorf("creating exercise: %w", err)
	}
	return id, nil
}
