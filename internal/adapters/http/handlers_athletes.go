package web

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	athleteStore "clubhouse/internal/adapters/storage/athlete"
	"clubhouse/internal/application/listutil"
	"clubhouse/internal/application/orchestrators"
	"clubhouse/internal/application/projections"
	domainAthlete "clubhouse/internal/domain/athlete"
)

type athleteRequest struct {
	Name      string `json:"name"`
	BirthYear int    `json:"birthYear"`
	Group     string `json:"group"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Notes     string `json:"notes"`
}

type athleteListResponse struct {
	Athletes []domainAthlete.Athlete `json:"athletes"`
	Page     listutil.PageInfo       `json:"page"`
}

var athleteList = listutil.Spec[domainAthlete.Athlete]{
	Columns: map[string]func(domainAthlete.Athlete) string{
		"name":      func(a domainAthlete.Athlete) string { return a.Name },
		"group":     func(a domainAthlete.Athlete) string { return a.Group },
		"birthYear": func(a domainAthlete.Athlete) string { return strconv.Itoa(a.BirthYear) },
	},
	Filters: []string{"group", "archived"},
}

// handleListAthletes lists athletes with search, group filter, sort and paging.
// archived=true includes archived athletes; archived=only lists just those.
func (s *server) handleListAthletes(w http.ResponseWriter, r *http.Request) {
	p := athleteList.Parse(r.URL.Query())
	archived := p.Filters["archived"]
	all, err := s.Stores.Athletes.List(r.Context(), athleteStore.ListFilter{
		Group:           p.Filters["group"],
		IncludeArchived: archived == "true" || archived == "only",
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	page, info := athleteList.Apply(all, p, func(a domainAthlete.Athlete) bool {
		if archived == "only" && a.Active {
			return false
		}
		return p.Search == "" || a.MatchesName(p.Search)
	})
	writeJSON(w, http.StatusOK, athleteListResponse{Athletes: page, Page: info})
}

func (s *server) handleGetAthlete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "athleteID")
	if !canAccess(w, r, id) {
		return
	}
	a, err := s.Stores.Athletes.GetByID(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *server) handleRegisterAthlete(w http.ResponseWriter, r *http.Request) {
	var req athleteRequest
	if err := strictDecode(w, r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}
	a, err := orchestrators.ExecuteRegisterAthlete(r.Context(), orchestrators.RegisterAthleteInput{
		Name:      req.Name,
		BirthYear: req.BirthYear,
		Group:     req.Group,
		Email:     req.Email,
		Phone:     req.Phone,
		Notes:     req.Notes,
	}, orchestrators.RegisterAthleteDeps{
		AthleteStore: s.Stores.Athletes,
		GenerateID:   generateID,
		Now:          s.Now,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *server) handleUpdateAthlete(w http.ResponseWriter, r *http.Request) {
	var req athleteRequest
	if err := strictDecode(w, r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}
	a, err := orchestrators.ExecuteUpdateAthlete(r.Context(), orchestrators.UpdateAthleteInput{
		AthleteID: chi.URLParam(r, "athleteID"),
		Name:      req.Name,
		BirthYear: req.BirthYear,
		Group:     req.Group,
		Email:     req.Email,
		Phone:     req.Phone,
		Notes:     req.Notes,
	}, orchestrators.UpdateAthleteDeps{
		AthleteStore: s.Stores.Athletes,
		Now:          s.Now,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *server) handleArchiveAthlete(w http.ResponseWriter, r *http.Request) {
	s.setArchived(w, r, orchestrators.ExecuteArchiveAthlete)
}

func (s *server) handleRestoreAthlete(w http.ResponseWriter, r *http.Request) {
	s.setArchived(w, r, orchestrators.ExecuteRestoreAthlete)
}

type archiveFunc func(ctx context.Context, in orchestrators.ArchiveAthleteInput, deps orchestrators.ArchiveAthleteDeps) error

func (s *server) setArchived(w http.ResponseWriter, r *http.Request, run archiveFunc) {
	id := chi.URLParam(r, "athleteID")
	err := run(r.Context(), orchestrators.ArchiveAthleteInput{AthleteID: id},
		orchestrators.ArchiveAthleteDeps{AthleteStore: s.Stores.Athletes, Now: s.Now})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	a, err := s.Stores.Athletes.GetByID(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// handleDeleteAthlete removes an archived athlete together with their
// attendance, plans and logs.
func (s *server) handleDeleteAthlete(w http.ResponseWriter, r *http.Request) {
	err := orchestrators.ExecuteDeleteAthlete(r.Context(),
		orchestrators.ArchiveAthleteInput{AthleteID: chi.URLParam(r, "athleteID")},
		orchestrators.DeleteAthleteDeps{
			AthleteStore: s.Stores.Athletes,
			History:      []orchestrators.AthleteHistoryStore{s.Stores.Attendance, s.Stores.Plans, s.Stores.Logs},
		})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAthleteTraining shows plan against log for one week (?week=YYYY-Www).
func (s *server) handleAthleteTraining(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "athleteID")
	if !canAccess(w, r, id) {
		return
	}
	res, err := projections.QueryGetAthleteTraining(r.Context(), projections.GetAthleteTrainingQuery{
		AthleteID: id,
		Week:      r.URL.Query().Get("week"),
		Now:       s.Now(),
	}, projections.GetAthleteTrainingDeps{
		AthleteStore: s.Stores.Athletes,
		PlanStore:    s.Stores.Plans,
		LogStore:     s.Stores.Logs,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
