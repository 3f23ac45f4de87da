package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"clubhouse/internal/application/orchestrators"
	"clubhouse/internal/application/projections"
	"clubhouse/internal/domain/week"
)

type markRequest struct {
	AthleteID string `json:"athleteId"`
	Date      string `json:"date"`
	Action    string `json:"action"`
}

type markResponse struct {
	AthleteID string `json:"athleteId"`
	Date      string `json:"date"`
	Present   bool   `json:"present"`
}

type sessionRequest struct {
	AthleteIDs []string `json:"athleteIds"`
}

// handleAttendanceWeek returns the grid for {week}, or the current week.
func (s *server) handleAttendanceWeek(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QueryGetAttendanceWeek(r.Context(), projections.GetAttendanceWeekQuery{
		Week: chi.URLParam(r, "week"),
		Now:  s.Now(),
	}, projections.GetAttendanceWeekDeps{
		AthleteStore:    s.Stores.Athletes,
		AttendanceStore: s.Stores.Attendance,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleAttendanceSummary totals attendance between ?from and ?to week keys.
// Both default to the current week.
func (s *server) handleAttendanceSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	current := week.KeyOf(s.Now())
	from, to := q.Get("from"), q.Get("to")
	if to == "" {
		to = current
	}
	if from == "" {
		from = to
	}
	res, err := projections.QueryGetAttendanceSummary(r.Context(), projections.GetAttendanceSummaryQuery{
		FromWeek: from,
		ToWeek:   to,
	}, projections.GetAttendanceSummaryDeps{
		AthleteStore:    s.Stores.Athletes,
		AttendanceStore: s.Stores.Attendance,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleMarkAttendance marks, unmarks or toggles one athlete on one date.
func (s *server) handleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	var req markRequest
	if err := strictDecode(w, r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}
	if req.Action == "" {
		req.Action = orchestrators.ActionToggle
	}
	present, err := orchestrators.ExecuteMarkAttendance(r.Context(), orchestrators.MarkAttendanceInput{
		AthleteID: req.AthleteID,
		Date:      req.Date,
		Action:    req.Action,
	}, orchestrators.MarkAttendanceDeps{
		AthleteStore:    s.Stores.Athletes,
		AttendanceStore: s.Stores.Attendance,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, markResponse{AthleteID: req.AthleteID, Date: req.Date, Present: present})
}

// handleSetSession replaces the attendee list of one date.
func (s *server) handleSetSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := strictDecode(w, r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}
	err := orchestrators.ExecuteSetSessionAttendance(r.Context(), orchestrators.SetSessionAttendanceInput{
		Date:       chi.URLParam(r, "date"),
		AthleteIDs: req.AthleteIDs,
	}, orchestrators.SetSessionAttendanceDeps{
		AthleteStore:    s.Stores.Athletes,
		AttendanceStore: s.Stores.Attendance,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
