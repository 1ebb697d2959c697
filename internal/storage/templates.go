package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/liftplan/internal/models"
)

// CreateTemplate inserts a template and returns its ID.
func (db *DB) CreateTemplate(ctx context.Context, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO templates (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("creating template: %w", err)
	}
	return id, nil
}

// GetTemplate retrieves a template with its exercises and target sets nested,
// in order.
func (db *DB) GetTemplate(ctx context.Context, id uuid.UUID) (*models.Template, error) {
	var t models.Template
	err := db.Pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM templates WHERE id = $1`, id).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying template: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT te.id, te.exercise_id, e.name, te.order_index,
		        ts.id, ts.set_number, ts.target_reps, ts.target_load
		 FROM template_exercises te
		 JOIN exercises e ON e.id = te.exercise_id
		 LEFT JOIN template_sets ts ON ts.template_exercise_id = te.id
		 WHERE te.template_id = $1
		 ORDER BY te.order_index, ts.set_number`,
		id)
	if err != nil {
		return nil, fmt.Errorf("querying template structure: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var teID, exerciseID uuid.UUID
		var name string
		var order int
		var setID *uuid.UUID
		var setNumber, reps *int
		var load *float64
		if err := rows.Scan(&teID, &exerciseID, &name, &order, &setID, &setNumber, &reps, &load); err != nil {
			return nil, fmt.Errorf("scanning template structure: %w", err)
		}
		if len(t.Exercises) == 0 || t.Exercises[len(t.Exercises)-1].ID != teID {
			t.Exercises = append(t.Exercises, models.TemplateExercise{
				ID: teID, ExerciseID: exerciseID, Name: name, Order: order,
			})
		}
		if setID != nil {
			last := &t.Exercises[len(t.Exercises)-1]
			last.Sets = append(last.Sets, models.TemplateSet{
				ID: *setID, Number: *setNumber, TargetReps: *reps, TargetLoad: *load,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTemplates retrieves all templates without structure, ordered by name.
func (db *DB) ListTemplates(ctx context.Context) ([]models.Template, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, created_at FROM templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	defer rows.Close()

	var templates []models.Template
	for rows.Next() {
		var t models.Template
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// RenameTemplate updates a template's name.
func (db *DB) RenameTemplate(ctx context.Context, id uuid.UUID, name string) error {
	tag, err := db.Pool.Exec(ctx, `UPDATE templates SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return fmt.Errorf("renaming template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTemplate removes a template and cascades to its structure.
func (db *DB) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddTemplateExercise appends an exercise at the end of the template's order.
func (db *DB) AddTemplateExercise(ctx context.Context, templateID, exerciseID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO template_exercises (template_id, exercise_id, order_index)
		 SELECT $1, $2, COALESCE(MAX(order_index), 0) + 1
		 FROM template_exercises WHERE template_id = $1
		 RETURNING id`,
		templateID, exerciseID).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("adding template exercise: %w", err)
	}
	return id, nil
}

// RemoveTemplateExercise deletes an exercise slot and shifts later slots down
// so order stays contiguous.
func (db *DB) RemoveTemplateExercise(ctx context.Context, templateExerciseID uuid.UUID) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning remove tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var templateID uuid.UUID
	var order int
	err = tx.QueryRow(ctx,
		`DELETE FROM template_exercises WHERE id = $1 RETURNING template_id, order_index`,
		templateExerciseID).Scan(&templateID, &order)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting template exercise: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE template_exercises SET order_index = order_index - 1
		 WHERE template_id = $1 AND order_index > $2`,
		templateID, order)
	if err != nil {
		return fmt.Errorf("renumbering template exercises: %w", err)
	}
	return tx.Commit(ctx)
}

// AddTemplateSet appends a target set at the next set number.
func (db *DB) AddTemplateSet(ctx context.Context, templateExerciseID uuid.UUID, reps int, load float64) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO template_sets (template_exercise_id, set_number, target_reps, target_load)
		 SELECT $1, COALESCE(MAX(set_number), 0) + 1, $2, $3
		 FROM template_sets WHERE template_exercise_id = $1`,
		templateExerciseID, reps, load)
	if err != nil {
		return fmt.Errorf("adding template set: %w", err)
	}
	return nil
}

// UpdateTemplateSet rewrites a target set's values by ID.
func (db *DB) UpdateTemplateSet(ctx context.Context, setID uuid.UUID, reps int, load float64) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE template_sets SET target_reps = $2, target_load = $3 WHERE id = $1`,
		setID, reps, load)
	if err != nil {
		return fmt.Errorf("updating template set: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTemplateSet removes a target set and renumbers the later sets of the
// same exercise.
func (db *DB) DeleteTemplateSet(ctx context.Context, setID uuid.UUID) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning delete tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var templateExerciseID uuid.UUID
	var number int
	err = tx.QueryRow(ctx,
		`DELETE FROM template_sets WHERE id = $1 RETURNING template_exercise_id, set_number`,
		setID).Scan(&templateExerciseID, &number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting template set: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE template_sets SET set_number = set_number - 1
		 WHERE template_exercise_id = $1 AND set_number > $2`,
		templateExerciseID, number)
	if err != nil {
		return fmt.Errorf("renumbering template sets: %w", err)
	}
	return tx.Commit(ctx)
}

// WriteTargetSet updates the template set at (exercise order, set number) to
// the given values. Missing positions are skipped silently: the template may
// have been restructured since the session snapshot was taken.
func (db *DB) WriteTargetSet(ctx context.Context, templateID uuid.UUID, exerciseOrder, setNumber, reps int, load float64) error {
	_, err := db.Pool.Exec(ctx,
		`UPDATE template_sets ts SET target_reps = $4, target_load = $5
		 FROM template_exercises te
		 WHERE ts.template_exercise_id = te.id
		   AND te.template_id = $1 AND te.order_index = $2 AND ts.set_number = $3`,
		templateID, exerciseOrder, setNumber, reps, load)
	if err != nil {
		return fmt.Errorf("syncing target set: %w", err)
	}
	return nil
}

// ListExercises retrieves the exercise library ordered by name.
func (db *DB) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx, `SELECT id, name, notes FROM exercises ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing exercises: %w", err)
	}
	defer rows.Close()

	var exercises []models.Exercise
	for rows.Next() {
		var e models.Exercise
		if err := rows.Scan(&e.ID, &e.Name, &e.Notes); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		exercises = append(exercises, e)
	}
	return exercises, rows.Err()
}

// CreateExercise inserts a library exercise and returns its ID.
func (db *DB) CreateExercise(ctx context.Context, name, notes string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO exercises (name, notes) VALUES ($1, $2) RETURNING id`,
		name, notes).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("creating exercise: %w", err)
	}
	return id, nil
}
