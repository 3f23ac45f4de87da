package web

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"clubhouse/internal/application/orchestrators"
	"clubhouse/internal/application/projections"
	domainUser "clubhouse/internal/domain/user"
)

type userRequest struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	AthleteID string `json:"athleteId"`
	Password  string `json:"password"`
}

type digestRequest struct {
	Week string `json:"week"`
}

// perfWindow is how far back /api/perf looks.
const perfWindow = time.Hour

func (s *server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QueryGetDashboard(r.Context(), projections.GetDashboardQuery{Now: s.Now()},
		projections.GetDashboardDeps{
			AthleteStore:    s.Stores.Athletes,
			ExerciseStore:   s.Stores.Exercises,
			AttendanceStore: s.Stores.Attendance,
		})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.Stores.Users.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]domainUser.User, len(users))
	for i, u := range users {
		u.PasswordHash = ""
		out[i] = u
	}
	writeJSON(w, http.StatusOK, out)
}

// handleSaveUser creates or updates a user keyed by email.
func (s *server) handleSaveUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := strictDecode(w, r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}
	u, err := orchestrators.ExecuteSaveUser(r.Context(), orchestrators.SaveUserInput{
		Email:     req.Email,
		Name:      req.Name,
		Role:      req.Role,
		AthleteID: req.AthleteID,
		Password:  req.Password,
	}, orchestrators.SaveUserDeps{
		UserStore:    s.Stores.Users,
		AthleteStore: s.Stores.Athletes,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil {
		badRequest(w, "invalid email")
		return
	}
	err = orchestrators.ExecuteDeleteUser(r.Context(), orchestrators.DeleteUserInput{
		Email:      email,
		ActorEmail: session(r).Email,
	}, orchestrators.DeleteUserDeps{UserStore: s.Stores.Users})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSendDigest sends the attendance digest for a week (default: last week).
func (s *server) handleSendDigest(w http.ResponseWriter, r *http.Request) {
	var req digestRequest
	if r.ContentLength != 0 {
		if err := strictDecode(w, r, &req); err != nil {
			badRequest(w, "invalid JSON")
			return
		}
	}
	res, err := orchestrators.ExecuteSendWeeklyDigest(r.Context(), orchestrators.SendWeeklyDigestInput{Week: req.Week},
		orchestrators.SendWeeklyDigestDeps{
			Summarize: projections.AttendanceSummarizer(projections.GetAttendanceSummaryDeps{
				AthleteStore:    s.Stores.Athletes,
				AttendanceStore: s.Stores.Attendance,
			}),
			UserStore: s.Stores.Users,
			Sender:    s.Sender,
			Now:       s.Now,
		})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handlePerf reports request and file-call timings for the last hour.
func (s *server) handlePerf(w http.ResponseWriter, r *http.Request) {
	if s.Collector == nil {
		writeJSONError(w, http.StatusNotFound, "performance collection is disabled")
		return
	}
	writeJSON(w, http.StatusOK, s.Collector.Snapshot(s.Now().Add(-perfWindow), 10))
}
