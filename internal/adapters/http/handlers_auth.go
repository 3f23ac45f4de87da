package web

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"clubhouse/internal/adapters/http/middleware"
	"clubhouse/internal/application/orchestrators"
)

const (
	stateCookieName    = "clubhouse_oauth_state"
	verifierCookieName = "clubhouse_oauth_verifier"
	flowCookieMaxAge   = 600
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type meResponse struct {
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Role      string `json:"role"`
	AthleteID string `json:"athleteId,omitempty"`
	Google    bool   `json:"google"`
}

func meFrom(sess middleware.Session) meResponse {
	return meResponse{
		Email:     sess.Email,
		Name:      sess.Name,
		Role:      sess.Role,
		AthleteID: sess.AthleteID,
		Google:    sess.Token != nil,
	}
}

// handleLoginPage sends browsers to Google when that is the only way in, and
// tells API clients which methods are enabled.
func (s *server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	methods := map[string]bool{"google": s.Provider != nil, "local": s.LocalLogin}
	if middleware.WantsJSON(r) {
		writeJSON(w, http.StatusOK, methods)
		return
	}
	if s.Provider != nil && !s.LocalLogin {
		http.Redirect(w, r, "/auth/google", http.StatusFound)
		return
	}
	if s.StaticDir != "" {
		page := filepath.Join(s.StaticDir, "login.html")
		if _, err := os.Stat(page); err == nil {
			http.ServeFile(w, r, page)
			return
		}
	}
	writeJSON(w, http.StatusOK, methods)
}

// handleLogin verifies a local email/password pair and starts a session.
func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.LocalLogin {
		writeJSONError(w, http.StatusNotFound, "password sign-in is disabled")
		return
	}
	isJSON := strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
	var req loginRequest
	if isJSON {
		if err := strictDecode(w, r, &req); err != nil {
			badRequest(w, "invalid JSON")
			return
		}
	} else {
		req.Email = r.FormValue("email")
		req.Password = r.FormValue("password")
	}

	res, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}, orchestrators.LoginDeps{UserStore: s.Stores.Users})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sess, ok := s.startSession(w, res)
	if !ok {
		return
	}
	if !isJSON {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, meFrom(sess))
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if id := middleware.SessionID(r); id != "" {
		s.Sessions.Delete(id)
	}
	middleware.ClearSessionCookie(w, s.SecureCookies)
	if middleware.WantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleGoogleStart begins the authorization-code flow. State and PKCE
// verifier ride in short-lived cookies scoped to /auth.
func (s *server) handleGoogleStart(w http.ResponseWriter, r *http.Request) {
	if s.Provider == nil {
		writeJSONError(w, http.StatusNotFound, "google sign-in is not configured")
		return
	}
	flow, err := s.Provider.Begin()
	if err != nil {
		internalError(w, err)
		return
	}
	s.setFlowCookie(w, stateCookieName, flow.State, flowCookieMaxAge)
	s.setFlowCookie(w, verifierCookieName, flow.Verifier, flowCookieMaxAge)
	http.Redirect(w, r, flow.URL, http.StatusFound)
}

// handleGoogleCallback completes sign-in. Only accounts listed in the users
// document get a session.
func (s *server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.Provider == nil {
		writeJSONError(w, http.StatusNotFound, "google sign-in is not configured")
		return
	}
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		slog.Info("auth_event", "event", "oauth_failed", "reason", e)
		http.Error(w, "sign-in was cancelled", http.StatusUnauthorized)
		return
	}
	state, err := r.Cookie(stateCookieName)
	if err != nil || state.Value == "" || subtle.ConstantTimeCompare([]byte(state.Value), []byte(q.Get("state"))) != 1 {
		http.Error(w, "sign-in state mismatch; start again", http.StatusBadRequest)
		return
	}
	verifier, err := r.Cookie(verifierCookieName)
	if err != nil {
		http.Error(w, "sign-in state mismatch; start again", http.StatusBadRequest)
		return
	}
	s.setFlowCookie(w, stateCookieName, "", -1)
	s.setFlowCookie(w, verifierCookieName, "", -1)

	res, err := orchestrators.ExecuteCompleteOAuthLogin(r.Context(), orchestrators.CompleteOAuthLoginInput{
		Code:     q.Get("code"),
		Verifier: verifier.Value,
	}, orchestrators.CompleteOAuthLoginDeps{
		Provider:  s.Provider,
		UserStore: s.Stores.Users,
	})
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			internalError(w, err)
			return
		}
		http.Error(w, err.Error(), status)
		return
	}
	if _, ok := s.startSession(w, res); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (s *server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, meFrom(session(r)))
}

func (s *server) startSession(w http.ResponseWriter, res orchestrators.LoginResult) (middleware.Session, bool) {
	sess := middleware.Session{
		Email:     res.Email,
		Name:      res.Name,
		Role:      res.Role,
		AthleteID: res.AthleteID,
		Token:     res.Token,
	}
	id, err := s.Sessions.Create(sess)
	if err != nil {
		internalError(w, err)
		return middleware.Session{}, false
	}
	middleware.SetSessionCookie(w, id, s.SecureCookies)
	return sess, true
}

func (s *server) setFlowCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/auth",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
