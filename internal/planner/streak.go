package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/timeutil"
)

// streakCap bounds the backward scan to one year of weeks.
const streakCap = 52

// CurrentStreak counts consecutive consistent weeks ending at the most
// recently completed full week. The week containing today never counts, even
// when already consistent: it is still in progress. The scan stops at the
// first inconsistent week and is capped at a year.
func (s *Service) CurrentStreak(ctx context.Context, today time.Time) (int, error) {
	monday := timeutil.WeekStart(today).AddDate(0, 0, -7)

	streak := 0
	for i := 0; i < streakCap; i++ {
		start := timeutil.FormatDate(monday)
		end := timeutil.FormatDate(monday.AddDate(0, 0, 6))

		plans, err := s.store.GetRange(ctx, start, end)
		if err != nil {
			return 0, fmt.Errorf("loading week %s: %w", start, err)
		}
		if !weekIsConsistent(plans) {
			break
		}
		streak++
		monday = monday.AddDate(0, 0, -7)
	}
	return streak, nil
}

// weekIsConsistent applies the adherence rule to one week of plans: at least
// one rest day, at least one workout, and every workout completed. A week
// with zero workouts never counts toward a streak.
func weekIsConsistent(plans []models.Plan) bool {
	hasRest := false
	workouts := 0
	for _, p := range plans {
		switch p.Kind {
		case models.KindRest:
			hasRest = true
		case models.KindWorkout:
			workouts++
			if p.Status != models.StatusCompleted {
				return false
			}
		}
	}
	return hasRest && workouts > 0
}
