package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"clubhouse/internal/application/orchestrators"
	"clubhouse/internal/application/projections"
	domainUser "clubhouse/internal/domain/user"
)

type exerciseRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	DefaultSets int    `json:"defaultSets"`
	DefaultReps int    `json:"defaultReps"`
}

// includeArchived reports whether ?archived=true was asked for by staff.
// Athletes never see archived exercises.
func includeArchived(r *http.Request) bool {
	if r.URL.Query().Get("archived") != "true" {
		return false
	}
	return session(r).Role != domainUser.RoleAthlete
}

func (s *server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	list, err := s.Stores.Exercises.List(r.Context(), includeArchived(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleExerciseCatalog groups exercises by category with rendered descriptions.
func (s *server) handleExerciseCatalog(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QueryGetExerciseCatalog(r.Context(), projections.GetExerciseCatalogQuery{
		IncludeArchived: includeArchived(r),
		Category:        r.URL.Query().Get("category"),
	}, projections.GetExerciseCatalogDeps{ExerciseStore: s.Stores.Exercises})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleSaveExercise creates (POST) or updates (PUT /{exerciseID}) an exercise.
func (s *server) handleSaveExercise(w http.ResponseWriter, r *http.Request) {
	var req exerciseRequest
	if err := strictDecode(w, r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}
	id := chi.URLParam(r, "exerciseID")
	e, err := orchestrators.ExecuteSaveExercise(r.Context(), orchestrators.SaveExerciseInput{
		ID:          id,
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		DefaultSets: req.DefaultSets,
		DefaultReps: req.DefaultReps,
	}, orchestrators.SaveExerciseDeps{ExerciseStore: s.Stores.Exercises})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if id == "" {
		status = http.StatusCreated
	}
	writeJSON(w, status, e)
}

func (s *server) handleArchiveExercise(w http.ResponseWriter, r *http.Request) {
	s.archiveExercise(w, r, true)
}

func (s *server) handleRestoreExercise(w http.ResponseWriter, r *http.Request) {
	s.archiveExercise(w, r, false)
}

func (s *server) archiveExercise(w http.ResponseWriter, r *http.Request, archived bool) {
	id := chi.URLParam(r, "exerciseID")
	err := orchestrators.ExecuteArchiveExercise(r.Context(), orchestrators.ArchiveExerciseInput{
		ExerciseID: id,
		Archived:   archived,
	}, orchestrators.ArchiveExerciseDeps{ExerciseStore: s.Stores.Exercises})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	e, err := s.Stores.Exercises.GetByID(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// handleDeleteExercise refuses exercises still referenced by a plan.
func (s *server) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	err := orchestrators.ExecuteDeleteExercise(r.Context(), orchestrators.DeleteExerciseInput{
		ExerciseID: chi.URLParam(r, "exerciseID"),
	}, orchestrators.DeleteExerciseDeps{
		ExerciseStore: s.Stores.Exercises,
		PlanStore:     s.Stores.Plans,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
