package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/liftplan/internal/models"
)

// StartSession snapshots a template into the session tables for a date and
// activates the plan. The whole sequence — activate plan, drop any previous
// snapshot, insert fresh exercises and sets — runs in one transaction, so a
// failure mid-snapshot leaves the prior state intact.
//
// Returns ErrActiveSession if any plan is ACTIVE anywhere (the partial unique
// index on plans.status settles concurrent starts), and ErrNotFound if the
// template does not exist.
func (db *DB) StartSession(ctx context.Context, date string, templateID uuid.UUID, startedAt time.Time) (uuid.UUID, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("beginning snapshot tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Explicit guard first: the partial index would not object to
	// re-activating the one row that is already ACTIVE.
	var activeExists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM plans WHERE status = 'ACTIVE')`).Scan(&activeExists)
	if err != nil {
		return uuid.Nil, fmt.Errorf("checking for active session: %w", err)
	}
	if activeExists {
		return uuid.Nil, ErrActiveSession
	}

	var templateName string
	err = tx.QueryRow(ctx, `SELECT name FROM templates WHERE id = $1`, templateID).Scan(&templateName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("querying template: %w", err)
	}

	var planID uuid.UUID
	err = tx.QueryRow(ctx,
		`INSERT INTO plans (date, kind, status, template_id, name, started_at)
		 VALUES ($1, 'WORKOUT', 'ACTIVE', $2, $3, $4)
		 ON CONFLICT (date) DO UPDATE
		 SET kind = 'WORKOUT', status = 'ACTIVE', template_id = EXCLUDED.template_id,
		     name = EXCLUDED.name, started_at = EXCLUDED.started_at, completed_at = NULL
		 RETURNING id`,
		date, templateID, templateName, startedAt).Scan(&planID)
	if err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, ErrActiveSession
		}
		return uuid.Nil, fmt.Errorf("activating plan for %s: %w", date, err)
	}

	// Re-starting discards the previous snapshot structure for this date.
	if _, err := tx.Exec(ctx, `DELETE FROM session_exercises WHERE plan_id = $1`, planID); err != nil {
		return uuid.Nil, fmt.Errorf("clearing previous snapshot: %w", err)
	}

	rows, err := tx.Query(ctx,
		`SELECT te.exercise_id, te.order_index, ts.set_number, ts.target_reps, ts.target_load
		 FROM template_exercises te
		 LEFT JOIN template_sets ts ON ts.template_exercise_id = te.id
		 WHERE te.template_id = $1
		 ORDER BY te.order_index, ts.set_number`,
		templateID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("querying template structure: %w", err)
	}

	type targetSet struct {
		number int
		reps   int
		load   float64
	}
	type snapshotExercise struct {
		exerciseID uuid.UUID
		order      int
		sets       []targetSet
	}
	var exercises []snapshotExercise
	for rows.Next() {
		var exerciseID uuid.UUID
		var order int
		var setNumber, reps *int
		var load *float64
		if err := rows.Scan(&exerciseID, &order, &setNumber, &reps, &load); err != nil {
			rows.Close()
			return uuid.Nil, fmt.Errorf("scanning template structure: %w", err)
		}
		if len(exercises) == 0 || exercises[len(exercises)-1].order != order {
			exercises = append(exercises, snapshotExercise{exerciseID: exerciseID, order: order})
		}
		if setNumber != nil {
			last := &exercises[len(exercises)-1]
			s := targetSet{number: *setNumber}
			if reps != nil {
				s.reps = *reps
			}
			if load != nil {
				s.load = *load
			}
			last.sets = append(last.sets, s)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return uuid.Nil, fmt.Errorf("reading template structure: %w", err)
	}

	for _, ex := range exercises {
		var sessionExerciseID uuid.UUID
		err := tx.QueryRow(ctx,
			`INSERT INTO session_exercises (plan_id, exercise_id, order_index)
			 VALUES ($1, $2, $3) RETURNING id`,
			planID, ex.exerciseID, ex.order).Scan(&sessionExerciseID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("inserting session exercise %d: %w", ex.order, err)
		}
		for _, s := range ex.sets {
			_, err := tx.Exec(ctx,
				`INSERT INTO session_sets (session_exercise_id, set_number, planned_reps, planned_load)
				 VALUES ($1, $2, $3, $4)`,
				sessionExerciseID, s.number, s.reps, s.load)
			if err != nil {
				return uuid.Nil, fmt.Errorf("inserting session set %d/%d: %w", ex.order, s.number, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, ErrActiveSession
		}
		return uuid.Nil, fmt.Errorf("committing snapshot: %w", err)
	}
	return planID, nil
}

// SessionExercises retrieves the full snapshot structure for a plan, ordered
// by (exercise order, set number).
func (db *DB) SessionExercises(ctx context.Context, planID uuid.UUID) ([]models.SessionExercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT se.id, se.exercise_id, e.name, se.order_index,
		        ss.id, ss.set_number, ss.planned_reps, ss.planned_load,
		        ss.actual_reps, ss.actual_load, ss.completed, ss.started_at, ss.completed_at
		 FROM session_exercises se
		 JOIN exercises e ON e.id = se.exercise_id
		 LEFT JOIN session_sets ss ON ss.session_exercise_id = se.id
		 WHERE se.plan_id = $1
		 ORDER BY se.order_index, ss.set_number`,
		planID)
	if err != nil {
		return nil, fmt.Errorf("querying session exercises: %w", err)
	}
	defer rows.Close()

	var exercises []models.SessionExercise
	for rows.Next() {
		var exID, exerciseID uuid.UUID
		var name string
		var order int
		var setID *uuid.UUID
		var setNumber, plannedReps, actualReps *int
		var plannedLoad, actualLoad *float64
		var completed *bool
		var startedAt, completedAt *time.Time
		err := rows.Scan(&exID, &exerciseID, &name, &order,
			&setID, &setNumber, &plannedReps, &plannedLoad,
			&actualReps, &actualLoad, &completed, &startedAt, &completedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning session exercise: %w", err)
		}
		if len(exercises) == 0 || exercises[len(exercises)-1].ID != exID {
			exercises = append(exercises, models.SessionExercise{
				ID: exID, ExerciseID: exerciseID, Name: name, Order: order,
			})
		}
		if setID != nil {
			s := models.SessionSet{
				ID:         *setID,
				Number:     *setNumber,
				ActualReps: actualReps,
				ActualLoad: actualLoad,
				Completed:  *completed,
				StartedAt:  startedAt, CompletedAt: completedAt,
			}
			if plannedReps != nil {
				s.PlannedReps = *plannedReps
			}
			if plannedLoad != nil {
				s.PlannedLoad = *plannedLoad
			}
			last := &exercises[len(exercises)-1]
			last.Sets = append(last.Sets, s)
		}
	}
	return exercises, rows.Err()
}

// SessionSet locates the unique set at (plan, exercise order, set number).
func (db *DB) SessionSet(ctx context.Context, planID uuid.UUID, exerciseOrder, setNumber int) (*models.SessionSet, error) {
	var s models.SessionSet
	err := db.Pool.QueryRow(ctx,
		`SELECT ss.id, ss.set_number, ss.planned_reps, ss.planned_load,
		        ss.actual_reps, ss.actual_load, ss.completed, ss.started_at, ss.completed_at
		 FROM session_sets ss
		 JOIN session_exercises se ON se.id = ss.session_exercise_id
		 WHERE se.plan_id = $1 AND se.order_index = $2 AND ss.set_number = $3`,
		planID, exerciseOrder, setNumber).Scan(
		&s.ID, &s.Number, &s.PlannedReps, &s.PlannedLoad,
		&s.ActualReps, &s.ActualLoad, &s.Completed, &s.StartedAt, &s.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying session set: %w", err)
	}
	return &s, nil
}

// MarkSetStarted stamps a set's start time. Re-starting a set overwrites the
// anchor rather than erroring.
func (db *DB) MarkSetStarted(ctx context.Context, setID uuid.UUID, at time.Time) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE session_sets SET started_at = $2 WHERE id = $1`, setID, at)
	if err != nil {
		return fmt.Errorf("stamping set start: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkSetCompleted records the actuals and the completion stamp together.
// Calling again with the same arguments rewrites the same row and touches
// nothing else.
func (db *DB) MarkSetCompleted(ctx context.Context, setID uuid.UUID, reps int, load float64, at time.Time) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE session_sets
		 SET actual_reps = $2, actual_load = $3, completed = true, completed_at = $4
		 WHERE id = $1`,
		setID, reps, load, at)
	if err != nil {
		return fmt.Errorf("completing set: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ResolveSet walks a bare set ID back up to its plan and template position.
func (db *DB) ResolveSet(ctx context.Context, setID uuid.UUID) (*models.SetRef, error) {
	var ref models.SetRef
	err := db.Pool.QueryRow(ctx,
		`SELECT p.id, p.template_id, se.order_index, ss.set_number
		 FROM session_sets ss
		 JOIN session_exercises se ON se.id = ss.session_exercise_id
		 JOIN plans p ON p.id = se.plan_id
		 WHERE ss.id = $1`,
		setID).Scan(&ref.PlanID, &ref.TemplateID, &ref.ExerciseOrder, &ref.SetNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("resolving set: %w", err)
	}
	return &ref, nil
}

// MarkSessionCompleted moves the plan to COMPLETED and stamps completed_at.
// It does not check that every set was finished; bailing early is allowed.
func (db *DB) MarkSessionCompleted(ctx context.Context, planID uuid.UUID, at time.Time) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE plans SET status = 'COMPLETED', completed_at = $2 WHERE id = $1`,
		planID, at)
	if err != nil {
		return fmt.Errorf("completing session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetDay deletes the day's snapshot structure and reverts the plan to
// PLANNED, clearing its timestamps. Used by the admin reset endpoint.
func (db *DB) ResetDay(ctx context.Context, date string) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning reset tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var planID uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM plans WHERE date = $1`, date).Scan(&planID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("querying plan for reset: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM session_exercises WHERE plan_id = $1`, planID); err != nil {
		return fmt.Errorf("deleting snapshot for reset: %w", err)
	}
	_, err = tx.Exec(ctx,
		`UPDATE plans SET status = 'PLANNED', started_at = NULL, completed_at = NULL WHERE id = $1`,
		planID)
	if err != nil {
		return fmt.Errorf("reverting plan for reset: %w", err)
	}
	return tx.Commit(ctx)
}
