package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"clubhouse/internal/application/orchestrators"
	domainPlan "clubhouse/internal/domain/plan"
	domainLog "clubhouse/internal/domain/traininglog"
	"clubhouse/internal/domain/week"
)

// dayResponse wraps one planned or logged day. Exists is false when nothing
// is stored for the date.
type dayResponse[T any] struct {
	AthleteID string `json:"athleteId"`
	Date      string `json:"date"`
	Exists    bool   `json:"exists"`
	Day       T      `json:"day"`
}

type copyWeekRequest struct {
	FromWeek string `json:"fromWeek"`
	ToWeek   string `json:"toWeek"`
}

type copyWeekResponse struct {
	FromWeek string `json:"fromWeek"`
	ToWeek   string `json:"toWeek"`
	Days     int    `json:"days"`
}

type clearResponse struct {
	Removed bool `json:"removed"`
}

func (s *server) handleGetPlanDay(w http.ResponseWriter, r *http.Request) {
	athleteID, date := chi.URLParam(r, "athleteID"), chi.URLParam(r, "date")
	if !canAccess(w, r, athleteID) {
		return
	}
	if _, err := week.ParseDate(date); err != nil {
		s.fail(w, r, err)
		return
	}
	day, ok, err := s.Stores.Plans.Day(r.Context(), athleteID, date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if day.Items == nil {
		day.Items = []domainPlan.Item{}
	}
	writeJSON(w, http.StatusOK, dayResponse[domainPlan.Day]{AthleteID: athleteID, Date: date, Exists: ok, Day: day})
}

func (s *server) handleSavePlanDay(w http.ResponseWriter, r *http.Request) {
	athleteID, date := chi.URLParam(r, "athleteID"), chi.URLParam(r, "date")
	var day domainPlan.Day
	if err := strictDecode(w, r, &day); err != nil {
		badRequest(w, "invalid JSON")
		return
	}
	stored, err := orchestrators.ExecuteSavePlanDay(r.Context(), orchestrators.SavePlanDayInput{
		AthleteID: athleteID,
		Date:      date,
		Day:       day,
	}, orchestrators.SavePlanDayDeps{
		AthleteStore:  s.Stores.Athletes,
		ExerciseStore: s.Stores.Exercises,
		PlanStore:     s.Stores.Plans,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dayResponse[domainPlan.Day]{AthleteID: athleteID, Date: date, Exists: !stored.IsEmpty(), Day: stored})
}

func (s *server) handleClearPlanDay(w http.ResponseWriter, r *http.Request) {
	removed, err := orchestrators.ExecuteClearPlanDay(r.Context(), orchestrators.ClearPlanDayInput{
		AthleteID: chi.URLParam(r, "athleteID"),
		Date:      chi.URLParam(r, "date"),
	}, orchestrators.ClearPlanDayDeps{PlanStore: s.Stores.Plans})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clearResponse{Removed: removed})
}

func (s *server) handleCopyPlanWeek(w http.ResponseWriter, r *http.Request) {
	var req copyWeekRequest
	if err := strictDecode(w, r, &req); err != nil {
		badRequest(w, "invalid JSON")
		return
	}
	n, err := orchestrators.ExecuteCopyPlanWeek(r.Context(), orchestrators.CopyPlanWeekInput{
		AthleteID: chi.URLParam(r, "athleteID"),
		FromWeek:  req.FromWeek,
		ToWeek:    req.ToWeek,
	}, orchestrators.CopyPlanWeekDeps{
		AthleteStore: s.Stores.Athletes,
		PlanStore:    s.Stores.Plans,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, copyWeekResponse{FromWeek: req.FromWeek, ToWeek: req.ToWeek, Days: n})
}

func (s *server) handleGetLogDay(w http.ResponseWriter, r *http.Request) {
	athleteID, date := chi.URLParam(r, "athleteID"), chi.URLParam(r, "date")
	if !canAccess(w, r, athleteID) {
		return
	}
	if _, err := week.ParseDate(date); err != nil {
		s.fail(w, r, err)
		return
	}
	day, ok, err := s.Stores.Logs.Day(r.Context(), athleteID, date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if day.Entries == nil {
		day.Entries = []domainLog.Entry{}
	}
	writeJSON(w, http.StatusOK, dayResponse[domainLog.Day]{AthleteID: athleteID, Date: date, Exists: ok, Day: day})
}

// handleSaveLogDay stores a log. Athletes may write their own.
func (s *server) handleSaveLogDay(w http.ResponseWriter, r *http.Request) {
	athleteID, date := chi.URLParam(r, "athleteID"), chi.URLParam(r, "date")
	if !canAccess(w, r, athleteID) {
		return
	}
	var day domainLog.Day
	if err := strictDecode(w, r, &day); err != nil {
		badRequest(w, "invalid JSON")
		return
	}
	stored, err := orchestrators.ExecuteSaveLogDay(r.Context(), orchestrators.SaveLogDayInput{
		AthleteID: athleteID,
		Date:      date,
		Day:       day,
	}, orchestrators.SaveLogDayDeps{
		AthleteStore: s.Stores.Athletes,
		LogStore:     s.Stores.Logs,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dayResponse[domainLog.Day]{AthleteID: athleteID, Date: date, Exists: !stored.IsEmpty(), Day: stored})
}

// handleStartLog seeds the day's log from its plan.
func (s *server) handleStartLog(w http.ResponseWriter, r *http.Request) {
	athleteID, date := chi.URLParam(r, "athleteID"), chi.URLParam(r, "date")
	if !canAccess(w, r, athleteID) {
		return
	}
	day, err := orchestrators.ExecuteStartLogFromPlan(r.Context(), orchestrators.StartLogFromPlanInput{
		AthleteID: athleteID,
		Date:      date,
	}, orchestrators.StartLogFromPlanDeps{
		AthleteStore: s.Stores.Athletes,
		PlanStore:    s.Stores.Plans,
		LogStore:     s.Stores.Logs,
		GenerateID:   generateID,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dayResponse[domainLog.Day]{AthleteID: athleteID, Date: date, Exists: true, Day: day})
}

func (s *server) handleClearLogDay(w http.ResponseWriter, r *http.Request) {
	athleteID := chi.URLParam(r, "athleteID")
	if !canAccess(w, r, athleteID) {
		return
	}
	removed, err := orchestrators.ExecuteClearLogDay(r.Context(), orchestrators.ClearLogDayInput{
		AthleteID: athleteID,
		Date:      chi.URLParam(r, "date"),
	}, orchestrators.ClearLogDayDeps{LogStore: s.Stores.Logs})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clearResponse{Removed: removed})
}
