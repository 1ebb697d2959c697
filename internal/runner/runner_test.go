package runner

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/storage"
)

// fakeStore is an in-memory Store for exercising the service logic without a
// database. One session, identified by sessionID.
type fakeStore struct {
	sessionID  uuid.UUID
	templateID *uuid.UUID
	exercises  []models.SessionExercise
	active     bool
	completed  bool
}

func newFakeStore(templateID *uuid.UUID, setCounts ...int) *fakeStore {
	return &fakeStore{
		sessionID:  uuid.New(),
		templateID: templateID,
		exercises:  snapshot(setCounts...),
	}
}

func (f *fakeStore) StartSession(_ context.Context, date string, templateID uuid.UUID, startedAt time.Time) (uuid.UUID, error) {
	if f.active {
		return uuid.Nil, storage.ErrActiveSession
	}
	f.active = true
	return f.sessionID, nil
}

// SessionExercises mirrors the SQL contract: an unknown plan ID yields zero
// rows with no error, not a not-found error.
func (f *fakeStore) SessionExercises(_ context.Context, planID uuid.UUID) ([]models.SessionExercise, error) {
	if planID != f.sessionID {
		return nil, nil
	}
	return f.exercises, nil
}

func (f *fakeStore) SessionSet(_ context.Context, planID uuid.UUID, exerciseOrder, setNumber int) (*models.SessionSet, error) {
	if planID != f.sessionID {
		return nil, storage.ErrNotFound
	}
	for i := range f.exercises {
		if f.exercises[i].Order != exerciseOrder {
			continue
		}
		for j := range f.exercises[i].Sets {
			if f.exercises[i].Sets[j].Number == setNumber {
				return &f.exercises[i].Sets[j], nil
			}
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) findSet(setID uuid.UUID) *models.SessionSet {
	for i := range f.exercises {
		for j := range f.exercises[i].Sets {
			if f.exercises[i].Sets[j].ID == setID {
				return &f.exercises[i].Sets[j]
			}
		}
	}
	return nil
}

func (f *fakeStore) MarkSetStarted(_ context.Context, setID uuid.UUID, at time.Time) error {
	s := f.findSet(setID)
	if s == nil {
		return storage.ErrNotFound
	}
	s.StartedAt = &at
	return nil
}

func (f *fakeStore) MarkSetCompleted(_ context.Context, setID uuid.UUID, reps int, load float64, at time.Time) error {
	s := f.findSet(setID)
	if s == nil {
		return storage.ErrNotFound
	}
	s.ActualReps = &reps
	s.ActualLoad = &load
	s.Completed = true
	s.CompletedAt = &at
	return nil
}

func (f *fakeStore) ResolveSet(_ context.Context, setID uuid.UUID) (*models.SetRef, error) {
	for i := range f.exercises {
		for j := range f.exercises[i].Sets {
			if f.exercises[i].Sets[j].ID == setID {
				return &models.SetRef{
					PlanID:        f.sessionID,
					TemplateID:    f.templateID,
					ExerciseOrder: f.exercises[i].Order,
					SetNumber:     f.exercises[i].Sets[j].Number,
				}, nil
			}
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) PlanTemplate(_ context.Context, planID uuid.UUID) (*uuid.UUID, error) {
	if planID != f.sessionID {
		return nil, storage.ErrNotFound
	}
	return f.templateID, nil
}

func (f *fakeStore) MarkSessionCompleted(_ context.Context, planID uuid.UUID, at time.Time) error {
	if planID != f.sessionID {
		return storage.ErrNotFound
	}
	f.completed = true
	f.active = false
	return nil
}

// syncRecord captures one WriteTargetSet call.
type syncRecord struct {
	TemplateID    uuid.UUID
	ExerciseOrder int
	SetNumber     int
	Reps          int
	Load          float64
}

type fakeSync struct {
	calls []syncRecord
}

func (f *fakeSync) WriteTargetSet(_ context.Context, templateID uuid.UUID, exerciseOrder, setNumber, reps int, load float64) error {
	f.calls = append(f.calls, syncRecord{templateID, exerciseOrder, setNumber, reps, load})
	return nil
}

func testLogger() *slog.Logger {
	return slog.Default()
}

// TestStartConflict verifies that starting a session while one is active
// anywhere fails with the conflict sentinel, and succeeds again after the
// active session completes.
func TestStartConflict(t *testing.T) {
	templateID := uuid.New()
	store := newFakeStore(&templateID, 2)
	svc := New(store, &fakeSync{}, testLogger())
	ctx := context.Background()

	sessionID, err := svc.Start(ctx, "2026-03-02", templateID)
	if err != nil {
		t.Fatalf("first start: %v", err)
	}

	if _, err := svc.Start(ctx, "2026-03-03", templateID); !errors.Is(err, storage.ErrActiveSession) {
		t.Fatalf("second start error = %v, want ErrActiveSession", err)
	}

	if err := svc.CompleteSession(ctx, sessionID); err != nil {
		t.Fatalf("complete session: %v", err)
	}
	if _, err := svc.Start(ctx, "2026-03-03", templateID); err != nil {
		t.Fatalf("start after completion: %v", err)
	}
}

// TestProgressionUnknownSession verifies a session ID that exists nowhere
// reports not-found rather than deriving a completed view from zero rows.
func TestProgressionUnknownSession(t *testing.T) {
	templateID := uuid.New()
	store := newFakeStore(&templateID, 2)
	svc := New(store, &fakeSync{}, testLogger())

	if _, err := svc.Progression(context.Background(), uuid.New()); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

// TestProgressionEmptySession verifies a real session snapshotted from a
// template with no exercises still reports COMPLETED, not an error.
func TestProgressionEmptySession(t *testing.T) {
	templateID := uuid.New()
	store := newFakeStore(&templateID)
	svc := New(store, &fakeSync{}, testLogger())
	ctx := context.Background()

	sessionID, err := svc.Start(ctx, "2026-03-02", templateID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	prog, err := svc.Progression(ctx, sessionID)
	if err != nil {
		t.Fatalf("Progression: %v", err)
	}
	if !prog.IsCompleted || prog.Phase != models.PhaseCompleted {
		t.Errorf("progression = %+v, want completed", prog)
	}
}

// TestCompleteSetIdempotent verifies that repeating complete_set with the
// same arguments leaves the session state unchanged and touches no sibling
// set.
func TestCompleteSetIdempotent(t *testing.T) {
	templateID := uuid.New()
	store := newFakeStore(&templateID, 2)
	sync := &fakeSync{}
	svc := New(store, sync, testLogger())
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	sessionID, err := svc.Start(ctx, "2026-03-02", templateID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := svc.CompleteSet(ctx, sessionID, 1, 1, 12, 55); err != nil {
		t.Fatalf("complete set: %v", err)
	}
	first := snapshotState(store.exercises)

	if err := svc.CompleteSet(ctx, sessionID, 1, 1, 12, 55); err != nil {
		t.Fatalf("repeat complete set: %v", err)
	}
	if got := snapshotState(store.exercises); got != first {
		t.Errorf("state changed on repeat call:\nfirst: %s\nafter: %s", first, got)
	}

	// Sibling set untouched.
	sibling := store.exercises[0].Sets[1]
	if sibling.Completed || sibling.ActualReps != nil || sibling.StartedAt != nil {
		t.Errorf("sibling set mutated: %+v", sibling)
	}

	// Sync repeated with identical values both times.
	want := syncRecord{templateID, 1, 1, 12, 55}
	if len(sync.calls) != 2 || sync.calls[0] != want || sync.calls[1] != want {
		t.Errorf("sync calls = %+v, want two of %+v", sync.calls, want)
	}
}

// TestCompleteSetSyncsTemplate verifies actuals propagate to exactly the
// matching template position.
func TestCompleteSetSyncsTemplate(t *testing.T) {
	templateID := uuid.New()
	store := newFakeStore(&templateID, 1, 2)
	sync := &fakeSync{}
	svc := New(store, sync, testLogger())
	ctx := context.Background()

	sessionID, _ := svc.Start(ctx, "2026-03-02", templateID)

	if err := svc.CompleteSet(ctx, sessionID, 2, 2, 8, 72.5); err != nil {
		t.Fatalf("complete set: %v", err)
	}

	want := []syncRecord{{templateID, 2, 2, 8, 72.5}}
	if !reflect.DeepEqual(sync.calls, want) {
		t.Errorf("sync calls = %+v, want %+v", sync.calls, want)
	}
}

// TestCompleteSetWithoutTemplate verifies the sync step is skipped silently
// when the plan carries no template reference.
func TestCompleteSetWithoutTemplate(t *testing.T) {
	store := newFakeStore(nil, 1)
	sync := &fakeSync{}
	svc := New(store, sync, testLogger())
	ctx := context.Background()

	sessionID, _ := svc.Start(ctx, "2026-03-02", uuid.New())

	if err := svc.CompleteSet(ctx, sessionID, 1, 1, 10, 50); err != nil {
		t.Fatalf("complete set: %v", err)
	}
	if len(sync.calls) != 0 {
		t.Errorf("sync calls = %+v, want none", sync.calls)
	}
}

// TestCompleteSetNotFound verifies completing a nonexistent coordinate fails
// with the not-found sentinel.
func TestCompleteSetNotFound(t *testing.T) {
	templateID := uuid.New()
	store := newFakeStore(&templateID, 1)
	svc := New(store, &fakeSync{}, testLogger())
	ctx := context.Background()

	sessionID, _ := svc.Start(ctx, "2026-03-02", templateID)

	if err := svc.CompleteSet(ctx, sessionID, 3, 1, 10, 50); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// TestUpdateCompletedSet verifies the post-hoc edit resolves the set back to
// its template position and re-syncs.
func TestUpdateCompletedSet(t *testing.T) {
	templateID := uuid.New()
	store := newFakeStore(&templateID, 2)
	sync := &fakeSync{}
	svc := New(store, sync, testLogger())
	ctx := context.Background()

	sessionID, _ := svc.Start(ctx, "2026-03-02", templateID)
	if err := svc.CompleteSet(ctx, sessionID, 1, 2, 10, 50); err != nil {
		t.Fatalf("complete set: %v", err)
	}

	setID := store.exercises[0].Sets[1].ID
	if err := svc.UpdateCompletedSet(ctx, setID, 11, 52.5); err != nil {
		t.Fatalf("update completed set: %v", err)
	}

	s := store.exercises[0].Sets[1]
	if s.ActualReps == nil || *s.ActualReps != 11 || s.ActualLoad == nil || *s.ActualLoad != 52.5 {
		t.Errorf("set actuals = %+v, want 11 reps at 52.5", s)
	}
	last := sync.calls[len(sync.calls)-1]
	if want := (syncRecord{templateID, 1, 2, 11, 52.5}); last != want {
		t.Errorf("last sync = %+v, want %+v", last, want)
	}
}

// TestStartSetStampsAnchor verifies start_set stamps the start time and that
// restarting simply overwrites it.
func TestStartSetStampsAnchor(t *testing.T) {
	templateID := uuid.New()
	store := newFakeStore(&templateID, 1)
	svc := New(store, &fakeSync{}, testLogger())

	first := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }
	ctx := context.Background()

	sessionID, _ := svc.Start(ctx, "2026-03-02", templateID)
	if err := svc.StartSet(ctx, sessionID, 1, 1); err != nil {
		t.Fatalf("start set: %v", err)
	}
	if got := store.exercises[0].Sets[0].StartedAt; got == nil || !got.Equal(first) {
		t.Fatalf("started_at = %v, want %v", got, first)
	}

	second := first.Add(2 * time.Minute)
	svc.now = func() time.Time { return second }
	if err := svc.StartSet(ctx, sessionID, 1, 1); err != nil {
		t.Fatalf("restart set: %v", err)
	}
	if got := store.exercises[0].Sets[0].StartedAt; got == nil || !got.Equal(second) {
		t.Errorf("started_at after restart = %v, want %v", got, second)
	}
}

// snapshotState renders the session structure for equality comparison.
func snapshotState(exercises []models.SessionExercise) string {
	out := ""
	for _, ex := range exercises {
		for _, s := range ex.Sets {
			out += ex.Name
			out += s.ID.String()
			if s.Completed {
				out += " completed"
			}
			if s.ActualReps != nil {
				out += " reps"
			}
			if s.ActualLoad != nil {
				out += " load"
			}
			if s.StartedAt != nil {
				out += " started:" + s.StartedAt.String()
			}
			if s.CompletedAt != nil {
				out += " done:" + s.CompletedAt.String()
			}
			out += "\n"
		}
	}
	return out
}
