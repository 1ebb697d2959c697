package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"tailscale.com/client/local"

	"github.com/claude/liftplan/internal/models"
)

// PlannerService is the calendar surface exposed over HTTP.
type PlannerService interface {
	Plan(ctx context.Context, date string) (*models.Plan, error)
	Range(ctx context.Context, start, end string) ([]models.Plan, error)
	Week(ctx context.Context, date string) ([]models.Plan, error)
	AssignWorkout(ctx context.Context, date string, templateID uuid.UUID) error
	AssignRest(ctx context.Context, date string) error
	AssignOff(ctx context.Context, date string) error
	CurrentStreak(ctx context.Context, today time.Time) (int, error)
}

// RunnerService is the session lifecycle surface exposed over HTTP.
type RunnerService interface {
	Start(ctx context.Context, date string, templateID uuid.UUID) (uuid.UUID, error)
	Progression(ctx context.Context, sessionID uuid.UUID) (models.Progression, error)
	StartSet(ctx context.Context, sessionID uuid.UUID, exerciseOrder, setNumber int) error
	CompleteSet(ctx context.Context, sessionID uuid.UUID, exerciseOrder, setNumber, actualReps int, actualLoad float64) error
	UpdateCompletedSet(ctx context.Context, setID uuid.UUID, actualReps int, actualLoad float64) error
	CompleteSession(ctx context.Context, sessionID uuid.UUID) error
}

// TemplateService is the template surface exposed over HTTP.
type TemplateService interface {
	List(ctx context.Context) ([]models.Template, error)
	Template(ctx context.Context, id uuid.UUID) (*models.Template, error)
	Create(ctx context.Context, name string) (uuid.UUID, error)
	Rename(ctx context.Context, id uuid.UUID, name string) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddExercise(ctx context.Context, templateID, exerciseID uuid.UUID) (uuid.UUID, error)
	RemoveExercise(ctx context.Context, templateExerciseID uuid.UUID) error
	AddSet(ctx context.Context, templateExerciseID uuid.UUID, reps int, load float64) error
	UpdateSet(ctx context.Context, setID uuid.UUID, reps int, load float64) error
	DeleteSet(ctx context.Context, setID uuid.UUID) error
	Exercises(ctx context.Context) ([]models.Exercise, error)
	CreateExercise(ctx context.Context, name, notes string) (uuid.UUID, error)
}

// Maintenance covers the admin-only storage operations.
type Maintenance interface {
	ResetDay(ctx context.Context, date string) error
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	planner   PlannerService
	runner    RunnerService
	templates TemplateService
	admin     Maintenance
	log       *slog.Logger
	apiKey    string
	loc       *time.Location
	lc        *local.Client
	router    chi.Router
}

// New creates a new Server with all routes configured.
func New(planner PlannerService, runner RunnerService, templates TemplateService, admin Maintenance, apiKey string, loc *time.Location, log *slog.Logger) *Server {
	s := &Server{
		planner:   planner,
		runner:    runner,
		templates: templates,
		admin:     admin,
		log:       log,
		apiKey:    apiKey,
		loc:       loc,
		router:    chi.NewRouter(),
	}
	s.routes()
	return s
}

// SetTailscale wires the tsnet local client so requests carry the tailnet
// user identity.
func (s *Server) SetTailscale(lc *local.Client) {
	s.lc = lc
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identity)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/me", s.handleMe)

		// Calendar
		r.Get("/plans", s.handleGetRange)
		r.Get("/plans/week/{date}", s.handleGetWeek)
		r.Get("/plans/{date}", s.handleGetPlan)
		r.Put("/plans/{date}/workout", s.handleAssignWorkout)
		r.Put("/plans/{date}/rest", s.handleAssignRest)
		r.Delete("/plans/{date}", s.handleAssignOff)
		r.Get("/streak", s.handleStreak)

		// Session lifecycle
		r.Post("/sessions", s.handleStartSession)
		r.Get("/sessions/{id}/progression", s.handleProgression)
		r.Post("/sessions/{id}/sets/start", s.handleStartSet)
		r.Post("/sessions/{id}/sets/complete", s.handleCompleteSet)
		r.Post("/sessions/{id}/complete", s.handleCompleteSession)
		r.Patch("/sets/{id}", s.handleUpdateCompletedSet)

		// Templates and exercise library
		r.Get("/templates", s.handleListTemplates)
		r.Post("/templates", s.handleCreateTemplate)
		r.Get("/templates/{id}", s.handleGetTemplate)
		r.Put("/templates/{id}", s.handleRenameTemplate)
		r.Delete("/templates/{id}", s.handleDeleteTemplate)
		r.Post("/templates/{id}/exercises", s.handleAddTemplateExercise)
		r.Delete("/template-exercises/{id}", s.handleRemoveTemplateExercise)
		r.Post("/template-exercises/{id}/sets", s.handleAddTemplateSet)
		r.Patch("/template-sets/{id}", s.handleUpdateTemplateSet)
		r.Delete("/template-sets/{id}", s.handleDeleteTemplateSet)
		r.Get("/exercises", s.handleListExercises)
		r.Post("/exercises", s.handleCreateExercise)

		// Maintenance (API key required)
		r.Route("/admin", func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/reset/{date}", s.handleResetDay)
		})
	})
}
