package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/timeutil"
)

const planColumns = `id, date, kind, status, template_id, name, started_at, completed_at`

func scanPlan(row pgx.Row) (*models.Plan, error) {
	var p models.Plan
	var date time.Time
	err := row.Scan(&p.ID, &date, &p.Kind, &p.Status, &p.TemplateID, &p.Name, &p.StartedAt, &p.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning plan: %w", err)
	}
	p.Date = timeutil.FormatDate(date)
	return &p, nil
}

// GetPlan retrieves the plan for a date. Returns ErrNotFound when the date is
// unscheduled.
func (db *DB) GetPlan(ctx context.Context, date string) (*models.Plan, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+planColumns+` FROM plans WHERE date = $1`, date)
	return scanPlan(row)
}

// GetPlanByID retrieves a plan by its ID (which is also the session ID).
func (db *DB) GetPlanByID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+planColumns+` FROM plans WHERE id = $1`, id)
	return scanPlan(row)
}

// UpsertPlan creates or rewrites the assignment for a date. Rewriting with
// the same kind preserves the existing status and timestamps; changing the
// kind resets the row to PLANNED so a reassigned date carries no lifecycle
// stamps from its previous assignment.
func (db *DB) UpsertPlan(ctx context.Context, date string, kind models.PlanKind, templateID *uuid.UUID, name string) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO plans (date, kind, template_id, name)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (date) DO UPDATE
		 SET kind = EXCLUDED.kind, template_id = EXCLUDED.template_id, name = EXCLUDED.name,
		     status = CASE WHEN plans.kind = EXCLUDED.kind THEN plans.status ELSE 'PLANNED' END,
		     started_at = CASE WHEN plans.kind = EXCLUDED.kind THEN plans.started_at ELSE NULL END,
		     completed_at = CASE WHEN plans.kind = EXCLUDED.kind THEN plans.completed_at ELSE NULL END`,
		date, kind, templateID, name)
	if err != nil {
		return fmt.Errorf("upserting plan for %s: %w", date, err)
	}
	return nil
}

// DeletePlan removes the plan for a date. Session structure goes with it via
// cascade. Deleting an unscheduled date is a no-op.
func (db *DB) DeletePlan(ctx context.Context, date string) error {
	if _, err := db.Pool.Exec(ctx, `DELETE FROM plans WHERE date = $1`, date); err != nil {
		return fmt.Errorf("deleting plan for %s: %w", date, err)
	}
	return nil
}

// GetRange retrieves all plans between start and end inclusive, ordered by date.
func (db *DB) GetRange(ctx context.Context, start, end string) ([]models.Plan, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+planColumns+` FROM plans WHERE date >= $1 AND date <= $2 ORDER BY date`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("querying plans %s..%s: %w", start, end, err)
	}
	defer rows.Close()

	var plans []models.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// PlanTemplate returns the template reference of a plan, nil when the plan
// has none.
func (db *DB) PlanTemplate(ctx context.Context, planID uuid.UUID) (*uuid.UUID, error) {
	var templateID *uuid.UUID
	err := db.Pool.QueryRow(ctx,
		`SELECT template_id FROM plans WHERE id = $1`, planID).Scan(&templateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying plan template: %w", err)
	}
	return templateID, nil
}
