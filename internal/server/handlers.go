package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/liftplan/internal/storage"
	"github.com/claude/liftplan/internal/templates"
	"github.com/claude/liftplan/internal/timeutil"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps the error taxonomy onto HTTP statuses: conflicts to
// 409, missing references to 404, validation to 400, the rest to 500.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var verr *templates.ValidationError
	switch {
	case errors.Is(err, storage.ErrActiveSession):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Msg)
	default:
		s.log.Error("internal error", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// dateParam validates the {date} URL parameter.
func dateParam(r *http.Request) (string, error) {
	date := chi.URLParam(r, "date")
	if _, err := timeutil.ParseDate(date); err != nil {
		return "", err
	}
	return date, nil
}

func idParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, UserInfoFromContext(r.Context()))
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}
	plan, err := s.planner.Plan(r.Context(), date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleGetRange(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if _, err := timeutil.ParseDate(start); err != nil {
		writeError(w, http.StatusBadRequest, "invalid start date")
		return
	}
	if _, err := timeutil.ParseDate(end); err != nil {
		writeError(w, http.StatusBadRequest, "invalid end date")
		return
	}
	plans, err := s.planner.Range(r.Context(), start, end)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleGetWeek(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}
	plans, err := s.planner.Week(r.Context(), date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleAssignWorkout(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}
	var req struct {
		TemplateID uuid.UUID `json:"template_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TemplateID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "template_id required")
		return
	}
	if err := s.planner.AssignWorkout(r.Context(), date, req.TemplateID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "assigned"})
}

func (s *Server) handleAssignRest(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}
	if err := s.planner.AssignRest(r.Context(), date); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "assigned"})
}

func (s *Server) handleAssignOff(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}
	if err := s.planner.AssignOff(r.Context(), date); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	today := timeutil.Today(s.loc)
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, err := timeutil.ParseDate(d)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date")
			return
		}
		today = parsed
	}
	streak, err := s.planner.CurrentStreak(r.Context(), today)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"streak": streak})
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date       string    `json:"date"`
		TemplateID uuid.UUID `json:"template_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TemplateID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "date and template_id required")
		return
	}
	if _, err := timeutil.ParseDate(req.Date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}
	sessionID, err := s.runner.Start(r.Context(), req.Date, req.TemplateID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": sessionID.String()})
}

func (s *Server) handleProgression(w http.ResponseWriter, r *http.Request) {
	sessionID, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session ID")
		return
	}
	prog, err := s.runner.Progression(r.Context(), sessionID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prog)
}

func (s *Server) handleStartSet(w http.ResponseWriter, r *http.Request) {
	sessionID, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session ID")
		return
	}
	var req struct {
		ExerciseOrder int `json:"exercise_order"`
		SetNumber     int `json:"set_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := s.runner.StartSet(r.Context(), sessionID, req.ExerciseOrder, req.SetNumber); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

func (s *Server) handleCompleteSet(w http.ResponseWriter, r *http.Request) {
	sessionID, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session ID")
		return
	}
	var req struct {
		ExerciseOrder int     `json:"exercise_order"`
		SetNumber     int     `json:"set_number"`
		ActualReps    int     `json:"actual_reps"`
		ActualLoad    float64 `json:"actual_load"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	err = s.runner.CompleteSet(r.Context(), sessionID, req.ExerciseOrder, req.SetNumber, req.ActualReps, req.ActualLoad)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

func (s *Server) handleUpdateCompletedSet(w http.ResponseWriter, r *http.Request) {
	setID, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid set ID")
		return
	}
	var req struct {
		ActualReps int     `json:"actual_reps"`
		ActualLoad float64 `json:"actual_load"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := s.runner.UpdateCompletedSet(r.Context(), setID, req.ActualReps, req.ActualLoad); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session ID")
		return
	}
	if err := s.runner.CompleteSession(r.Context(), sessionID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := s.templates.List(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template ID")
		return
	}
	t, err := s.templates.Template(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	id, err := s.templates.Create(r.Context(), req.Name)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (s *Server) handleRenameTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template ID")
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := s.templates.Rename(r.Context(), id, req.Name); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template ID")
		return
	}
	if err := s.templates.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleAddTemplateExercise(w http.ResponseWriter, r *http.Request) {
	templateID, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template ID")
		return
	}
	var req struct {
		ExerciseID uuid.UUID `json:"exercise_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ExerciseID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "exercise_id required")
		return
	}
	id, err := s.templates.AddExercise(r.Context(), templateID, req.ExerciseID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (s *Server) handleRemoveTemplateExercise(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template exercise ID")
		return
	}
	if err := s.templates.RemoveExercise(r.Context(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (s *Server) handleAddTemplateSet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template exercise ID")
		return
	}
	var req struct {
		TargetReps int     `json:"target_reps"`
		TargetLoad float64 `json:"target_load"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := s.templates.AddSet(r.Context(), id, req.TargetReps, req.TargetLoad); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

func (s *Server) handleUpdateTemplateSet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid set ID")
		return
	}
	var req struct {
		TargetReps int     `json:"target_reps"`
		TargetLoad float64 `json:"target_load"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := s.templates.UpdateSet(r.Context(), id, req.TargetReps, req.TargetLoad); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteTemplateSet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid set ID")
		return
	}
	if err := s.templates.DeleteSet(r.Context(), id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	list, err := s.templates.Exercises(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	id, err := s.templates.CreateExercise(r.Context(), req.Name, req.Notes)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (s *Server) handleResetDay(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date")
		return
	}
	if err := s.admin.ResetDay(r.Context(), date); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
