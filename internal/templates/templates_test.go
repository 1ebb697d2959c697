package templates

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/claude/liftplan/internal/models"
)

// recordingStore records the arguments that made it past validation.
type recordingStore struct {
	createdName  string
	renamedName  string
	setReps      int
	setLoad      float64
	targetCalled bool
	calls        int
}

func (r *recordingStore) CreateTemplate(_ context.Context, name string) (uuid.UUID, error) {
	r.createdName = name
	r.calls++
	return uuid.New(), nil
}

func (r *recordingStore) GetTemplate(_ context.Context, id uuid.UUID) (*models.Template, error) {
	return &models.Template{ID: id, Name: "Push Day"}, nil
}

func (r *recordingStore) ListTemplates(_ context.Context) ([]models.Template, error) {
	return nil, nil
}

func (r *recordingStore) RenameTemplate(_ context.Context, _ uuid.UUID, name string) error {
	r.renamedName = name
	r.calls++
	return nil
}

func (r *recordingStore) DeleteTemplate(_ context.Context, _ uuid.UUID) error { return nil }

func (r *recordingStore) AddTemplateExercise(_ context.Context, _, _ uuid.UUID) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (r *recordingStore) RemoveTemplateExercise(_ context.Context, _ uuid.UUID) error { return nil }

func (r *recordingStore) AddTemplateSet(_ context.Context, _ uuid.UUID, reps int, load float64) error {
	r.setReps, r.setLoad = reps, load
	r.calls++
	return nil
}

func (r *recordingStore) UpdateTemplateSet(_ context.Context, _ uuid.UUID, reps int, load float64) error {
	r.setReps, r.setLoad = reps, load
	r.calls++
	return nil
}

func (r *recordingStore) DeleteTemplateSet(_ context.Context, _ uuid.UUID) error { return nil }

func (r *recordingStore) WriteTargetSet(_ context.Context, _ uuid.UUID, _, _, reps int, load float64) error {
	r.targetCalled = true
	r.setReps, r.setLoad = reps, load
	return nil
}

func (r *recordingStore) ListExercises(_ context.Context) ([]models.Exercise, error) {
	return nil, nil
}

func (r *recordingStore) CreateExercise(_ context.Context, name, _ string) (uuid.UUID, error) {
	r.createdName = name
	r.calls++
	return uuid.New(), nil
}

func isValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TestCreateValidation verifies name validation on create, including that the
// stored name is trimmed.
func TestCreateValidation(t *testing.T) {
	store := &recordingStore{}
	svc := New(store)
	ctx := context.Background()

	for _, bad := range []string{"", "   ", "\t\n"} {
		if _, err := svc.Create(ctx, bad); !isValidation(err) {
			t.Errorf("Create(%q) error = %v, want validation error", bad, err)
		}
	}
	if store.calls != 0 {
		t.Fatalf("store reached %d times on invalid input", store.calls)
	}

	if _, err := svc.Create(ctx, "  Push Day  "); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if store.createdName != "Push Day" {
		t.Errorf("stored name = %q, want trimmed", store.createdName)
	}
}

// TestRenameValidation verifies rename rejects blank names.
func TestRenameValidation(t *testing.T) {
	store := &recordingStore{}
	svc := New(store)
	ctx := context.Background()

	if err := svc.Rename(ctx, uuid.New(), " "); !isValidation(err) {
		t.Errorf("error = %v, want validation error", err)
	}
	if err := svc.Rename(ctx, uuid.New(), "Pull Day"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if store.renamedName != "Pull Day" {
		t.Errorf("stored name = %q", store.renamedName)
	}
}

// TestSetValidation verifies authored target sets require at least one rep
// and a non-negative load.
func TestSetValidation(t *testing.T) {
	tests := []struct {
		name  string
		reps  int
		load  float64
		valid bool
	}{
		{"normal", 10, 50, true},
		{"bodyweight", 10, 0, true},
		{"zero reps", 0, 50, false},
		{"negative reps", -1, 50, false},
		{"negative load", 10, -5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &recordingStore{}
			svc := New(store)
			ctx := context.Background()

			addErr := svc.AddSet(ctx, uuid.New(), tt.reps, tt.load)
			updateErr := svc.UpdateSet(ctx, uuid.New(), tt.reps, tt.load)

			if tt.valid {
				if addErr != nil || updateErr != nil {
					t.Fatalf("add = %v, update = %v, want success", addErr, updateErr)
				}
				return
			}
			if !isValidation(addErr) || !isValidation(updateErr) {
				t.Errorf("add = %v, update = %v, want validation errors", addErr, updateErr)
			}
			if store.calls != 0 {
				t.Errorf("store reached on invalid set")
			}
		})
	}
}

// TestWriteTargetSetAcceptsZeroReps verifies the writeback path accepts zero
// actuals (a failed set) while still rejecting negatives.
func TestWriteTargetSetAcceptsZeroReps(t *testing.T) {
	store := &recordingStore{}
	svc := New(store)
	ctx := context.Background()

	if err := svc.WriteTargetSet(ctx, uuid.New(), 1, 1, 0, 0); err != nil {
		t.Fatalf("WriteTargetSet with zero actuals: %v", err)
	}
	if !store.targetCalled {
		t.Fatal("store never reached")
	}

	if err := svc.WriteTargetSet(ctx, uuid.New(), 1, 1, -1, 50); !isValidation(err) {
		t.Errorf("negative reps error = %v, want validation error", err)
	}
	if err := svc.WriteTargetSet(ctx, uuid.New(), 1, 1, 10, -2); !isValidation(err) {
		t.Errorf("negative load error = %v, want validation error", err)
	}
}

// TestCreateExerciseValidation verifies library exercises get the same name
// rules as templates.
func TestCreateExerciseValidation(t *testing.T) {
	store := &recordingStore{}
	svc := New(store)
	ctx := context.Background()

	if _, err := svc.CreateExercise(ctx, "", "notes"); !isValidation(err) {
		t.Errorf("error = %v, want validation error", err)
	}
	if _, err := svc.CreateExercise(ctx, " Bench Press ", ""); err != nil {
		t.Fatalf("CreateExercise: %v", err)
	}
	if store.createdName != "Bench Press" {
		t.Errorf("stored name = %q, want trimmed", store.createdName)
	}
}
