package models

import (
	"time"

	"github.com/google/uuid"
)

// PlanKind classifies what a calendar date holds.
type PlanKind string

const (
	KindUnscheduled PlanKind = "UNSCHEDULED"
	KindRest        PlanKind = "REST"
	KindWorkout     PlanKind = "WORKOUT"
)

// PlanStatus is the lifecycle of a WORKOUT plan.
type PlanStatus string

const (
	StatusPlanned   PlanStatus = "PLANNED"
	StatusActive    PlanStatus = "ACTIVE"
	StatusCompleted PlanStatus = "COMPLETED"
)

// Plan is the scheduling record for one calendar date. A WORKOUT plan doubles
// as the session row once started; its ID is the session ID.
type Plan struct {
	ID          uuid.UUID  `json:"id"`
	Date        string     `json:"date"`
	Kind        PlanKind   `json:"kind"`
	Status      PlanStatus `json:"status"`
	TemplateID  *uuid.UUID `json:"template_id,omitempty"`
	Name        string     `json:"name"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Exercise is a library entry referenced by templates and session snapshots.
type Exercise struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Notes string    `json:"notes,omitempty"`
}

// Template is a reusable routine: ordered exercises, each with ordered
// target sets.
type Template struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	CreatedAt time.Time          `json:"created_at"`
	Exercises []TemplateExercise `json:"exercises"`
}

// TemplateExercise is one slot in a template, at a 1-based order position.
type TemplateExercise struct {
	ID         uuid.UUID     `json:"id"`
	ExerciseID uuid.UUID     `json:"exercise_id"`
	Name       string        `json:"name"`
	Order      int           `json:"order"`
	Sets       []TemplateSet `json:"sets"`
}

// TemplateSet is a target definition within a template exercise.
type TemplateSet struct {
	ID         uuid.UUID `json:"id"`
	Number     int       `json:"number"`
	TargetReps int       `json:"target_reps"`
	TargetLoad float64   `json:"target_load"`
}

// SessionExercise is a snapshot of a template exercise, owned by a plan.
type SessionExercise struct {
	ID         uuid.UUID    `json:"id"`
	ExerciseID uuid.UUID    `json:"exercise_id"`
	Name       string       `json:"name"`
	Order      int          `json:"order"`
	Sets       []SessionSet `json:"sets"`
}

// SessionSet is one set within a session snapshot. Actuals stay nil until the
// set is completed; Completed and the actuals are written together.
type SessionSet struct {
	ID          uuid.UUID  `json:"id"`
	Number      int        `json:"number"`
	PlannedReps int        `json:"planned_reps"`
	PlannedLoad float64    `json:"planned_load"`
	ActualReps  *int       `json:"actual_reps,omitempty"`
	ActualLoad  *float64   `json:"actual_load,omitempty"`
	Completed   bool       `json:"completed"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Phase is the derived runner state. It is never stored; it is recomputed
// from set timestamps and completion flags on every read.
type Phase string

const (
	PhaseReady     Phase = "READY"
	PhaseInSet     Phase = "IN_SET"
	PhaseRest      Phase = "REST"
	PhaseCompleted Phase = "COMPLETED"
)

// Progression is the computed "where am I in this workout" view.
type Progression struct {
	IsCompleted     bool             `json:"is_completed"`
	Phase           Phase            `json:"phase"`
	CurrentExercise *SessionExercise `json:"current_exercise,omitempty"`
	CurrentSet      *SessionSet      `json:"current_set,omitempty"`
	History         []SessionSet     `json:"history"`
	TotalExercises  int              `json:"total_exercises"`
	TimerAnchor     *time.Time       `json:"timer_anchor,omitempty"`
}

// SetRef locates a session set within the plan/template structure. Used to
// resolve a bare set ID back to its template position for target sync.
type SetRef struct {
	PlanID        uuid.UUID
	TemplateID    *uuid.UUID
	ExerciseOrder int
	SetNumber     int
}
