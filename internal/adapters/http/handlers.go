package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"clubhouse/internal/adapters/auth"
	"clubhouse/internal/adapters/http/middleware"
	"clubhouse/internal/adapters/storage"
	"clubhouse/internal/application/orchestrators"
	"clubhouse/internal/application/projections"
	domainAthlete "clubhouse/internal/domain/athlete"
	domainExercise "clubhouse/internal/domain/exercise"
	domainUser "clubhouse/internal/domain/user"
	"clubhouse/internal/domain/week"
)

// maxBodyBytes bounds JSON request bodies. Whole-day plans are the largest.
const maxBodyBytes = 1 << 20

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeJSONError(w, http.StatusInternalServerError, "internal server error")
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write_json_failed", "error", err.Error())
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSONError(w, http.StatusBadRequest, msg)
}

// statusFor maps an error to the status it is answered with. Unknown errors
// map to 500 and must not be shown to the client.
func statusFor(err error) int {
	switch {
	case errors.Is(err, orchestrators.ErrInvalidInput),
		errors.Is(err, week.ErrInvalidKey),
		errors.Is(err, week.ErrInvalidWeek),
		errors.Is(err, week.ErrInvalidDate),
		errors.Is(err, projections.ErrRangeTooLong):
		return http.StatusBadRequest
	case errors.Is(err, orchestrators.ErrInvalidCredentials),
		errors.Is(err, storage.ErrUnauthorized),
		errors.Is(err, storage.ErrNoToken):
		return http.StatusUnauthorized
	case errors.Is(err, orchestrators.ErrNotRegistered),
		errors.Is(err, auth.ErrUnverifiedEmail):
		return http.StatusForbidden
	case errors.Is(err, domainAthlete.ErrNotFound),
		errors.Is(err, domainExercise.ErrNotFound),
		errors.Is(err, domainUser.ErrNotFound),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrConflict),
		errors.Is(err, orchestrators.ErrNoDigestRecipients):
		return http.StatusConflict
	case errors.Is(err, storage.ErrMissingFileID):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// fail answers err. A backend rejecting the session's token expires the
// session so the next request goes through sign-in again.
func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		internalError(w, err)
		return
	}
	if errors.Is(err, storage.ErrUnauthorized) {
		if id := middleware.SessionID(r); id != "" && s.Sessions.Expire(id) {
			slog.Info("auth_event", "event", "session_expired", "reason", "backend_unauthorized")
		}
		middleware.Unauthorized(w, r)
		return
	}
	writeJSONError(w, status, err.Error())
}

// session returns the caller's session. Routes behind RequireAuth always have one.
func session(r *http.Request) middleware.Session {
	sess, _ := middleware.SessionFromContext(r.Context())
	return sess
}

// canAccess answers 403 unless the caller may see athleteID.
func canAccess(w http.ResponseWriter, r *http.Request, athleteID string) bool {
	if middleware.CanAccessAthlete(r.Context(), athleteID) {
		return true
	}
	writeJSONError(w, http.StatusForbidden, "forbidden")
	return false
}

func (s *server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
