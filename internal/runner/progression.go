package runner

import (
	"github.com/claude/liftplan/internal/models"
)

// DeriveProgression computes the runner view from a session snapshot. The
// phase is a pure function of completion flags and timestamps; nothing here
// is stored.
//
// The current set is the first incomplete set in (exercise order, set number)
// order. A session with no exercises at all reports COMPLETED: an empty
// snapshot has nothing left to do.
func DeriveProgression(exercises []models.SessionExercise) models.Progression {
	p := models.Progression{
		Phase:          models.PhaseCompleted,
		IsCompleted:    true,
		History:        []models.SessionSet{},
		TotalExercises: len(exercises),
	}

	var currentExercise *models.SessionExercise
	var currentSet *models.SessionSet
	var previous *models.SessionSet

	for i := range exercises {
		ex := &exercises[i]
		for j := range ex.Sets {
			s := &ex.Sets[j]
			if !s.Completed && currentSet == nil {
				currentExercise = ex
				currentSet = s
			}
			if currentSet == nil {
				previous = s
			}
		}
	}

	if currentSet == nil {
		return p
	}

	p.IsCompleted = false
	p.CurrentSet = currentSet

	// Current exercise view without its trailing sets; history carries the
	// already-completed sets of the same exercise for review and edits.
	exCopy := *currentExercise
	exCopy.Sets = nil
	p.CurrentExercise = &exCopy
	for _, s := range currentExercise.Sets {
		if s.Number < currentSet.Number && s.Completed {
			p.History = append(p.History, s)
		}
	}

	switch {
	case currentSet.StartedAt != nil:
		p.Phase = models.PhaseInSet
		p.TimerAnchor = currentSet.StartedAt
	case previous != nil && previous.Completed && previous.CompletedAt != nil:
		p.Phase = models.PhaseRest
		p.TimerAnchor = previous.CompletedAt
	default:
		// First set of the workout: no anchor to rest against.
		p.Phase = models.PhaseReady
	}
	return p
}
