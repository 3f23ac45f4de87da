package middleware

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"clubhouse/internal/adapters/storage"
	domainUser "clubhouse/internal/domain/user"
)

type sessionKey struct{}

// SessionTTL bounds how long a session lives regardless of token refreshes.
const SessionTTL = 24 * time.Hour

// Session is a signed-in user. Token is nil for local logins; Expired is set
// when the Google token could not be refreshed.
type Session struct {
	Email     string
	Name      string
	Role      string
	AthleteID string
	Token     *oauth2.Token
	Expired   bool
	CreatedAt time.Time
}

// Staff reports whether the session belongs to a coach or an admin.
func (s Session) Staff() bool {
	return s.Role == domainUser.RoleAdmin || s.Role == domainUser.RoleCoach
}

// SessionStore keeps sessions in memory; a restart signs everyone out.
type SessionStore struct {
	mu   sync.RWMutex
	byID map[string]Session
	now  func() time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{byID: make(map[string]Session), now: time.Now}
}

// Create stores a new session and returns its ID.
// PRE: s.Email and s.Role are non-empty
// POST: Session is stored with CreatedAt set
func (ss *SessionStore) Create(s Session) (string, error) {
	id := rand.Text()
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s.CreatedAt = ss.now()
	ss.byID[id] = s
	return id, nil
}

// Get retrieves a session by ID.
// POST: Returns the session if present and younger than SessionTTL
func (ss *SessionStore) Get(id string) (Session, bool) {
	ss.mu.RLock()
	s, ok := ss.byID[id]
	ss.mu.RUnlock()
	if ok && ss.now().Sub(s.CreatedAt) > SessionTTL {
		ss.Delete(id)
		ok = false
	}
	if !ok {
		return Session{}, false
	}
	return s, true
}

// Delete removes a session by ID.
func (ss *SessionStore) Delete(id string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.byID, id)
}

// Update replaces the session for a given ID in-place.
// POST: Returns false when the ID is unknown
func (ss *SessionStore) Update(id string, session Session) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if _, ok := ss.byID[id]; !ok {
		return false
	}
	ss.byID[id] = session
	return true
}

// Tokens returns the OAuth tokens of live, unexpired sessions keyed by session ID.
func (ss *SessionStore) Tokens() map[string]*oauth2.Token {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	out := make(map[string]*oauth2.Token)
	for id, s := range ss.byID {
		if s.Token != nil && !s.Expired && ss.now().Sub(s.CreatedAt) <= SessionTTL {
			out[id] = s.Token
		}
	}
	return out
}

// SetToken replaces the OAuth token of a session.
func (ss *SessionStore) SetToken(id string, tok *oauth2.Token) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s, ok := ss.byID[id]
	if !ok {
		return false
	}
	s.Token = tok
	ss.byID[id] = s
	return true
}

// Expire marks a session as needing a fresh sign-in.
func (ss *SessionStore) Expire(id string) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s, ok := ss.byID[id]
	if !ok {
		return false
	}
	s.Expired = true
	ss.byID[id] = s
	return true
}

// Purge drops sessions older than SessionTTL and returns how many went.
func (ss *SessionStore) Purge() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	n := 0
	for id, s := range ss.byID {
		if ss.now().Sub(s.CreatedAt) > SessionTTL {
			delete(ss.byID, id)
			n++
		}
	}
	return n
}

const sessionCookieName = "clubhouse_session"

// SessionID returns the session cookie value of r, if any.
func SessionID(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Auth returns middleware that resolves the session cookie. A live session is
// put in the request context together with its OAuth token source, which the
// file backends read. Expired sessions are treated as signed out.
// It does NOT block unauthenticated requests; use RequireAuth or RequireRole for that.
func Auth(sessions *SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := SessionID(r); id != "" {
				if session, ok := sessions.Get(id); ok && !session.Expired {
					r = r.WithContext(ContextWithSession(r.Context(), session))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WantsJSON reports whether r should be answered with JSON rather than a redirect.
func WantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") || strings.Contains(r.Header.Get("Accept"), "application/json")
}

// Unauthorized answers 401 JSON for API calls and redirects browsers to /login.
func Unauthorized(w http.ResponseWriter, r *http.Request) {
	if WantsJSON(r) {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// RequireAuth rejects requests without a live session.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFromContext(r.Context()); !ok {
			Unauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole answers 401 without a session and 403 when its role is not
// listed.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			switch {
			case !ok:
				Unauthorized(w, r)
			case !slices.Contains(roles, sess.Role):
				writeJSONError(w, http.StatusForbidden, "forbidden")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// SessionFromContext returns the session Auth attached to ctx.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}

// ContextWithSession returns a context carrying sess and, when it holds an
// OAuth token, the token source for file backends.
func ContextWithSession(ctx context.Context, sess Session) context.Context {
	ctx = context.WithValue(ctx, sessionKey{}, sess)
	if sess.Token != nil {
		ctx = storage.WithTokenSource(ctx, oauth2.StaticTokenSource(sess.Token))
	}
	return ctx
}

// SetSessionCookie issues the session cookie for id.
func SetSessionCookie(w http.ResponseWriter, id string, secure bool) {
	http.SetCookie(w, sessionCookie(id, int(SessionTTL.Seconds()), secure))
}

// ClearSessionCookie tells the browser to drop the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, sessionCookie("", -1, secure))
}

func sessionCookie(value string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// CanAccessAthlete reports whether the session may read athleteID's plan and
// log. Athletes see only their own linked record.
func CanAccessAthlete(ctx context.Context, athleteID string) bool {
	sess, ok := SessionFromContext(ctx)
	if !ok {
		return false
	}
	return sess.Staff() || (sess.AthleteID != "" && sess.AthleteID == athleteID)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
