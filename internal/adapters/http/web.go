package web

import (
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"clubhouse/internal/adapters/auth"
	"clubhouse/internal/adapters/email"
	"clubhouse/internal/adapters/http/live"
	"clubhouse/internal/adapters/http/middleware"
	"clubhouse/internal/adapters/http/perf"
	athleteStore "clubhouse/internal/adapters/storage/athlete"
	attendanceStore "clubhouse/internal/adapters/storage/attendance"
	exerciseStore "clubhouse/internal/adapters/storage/exercise"
	planStore "clubhouse/internal/adapters/storage/plan"
	logStore "clubhouse/internal/adapters/storage/traininglog"
	userStore "clubhouse/internal/adapters/storage/user"
	"clubhouse/internal/application/orchestrators"
	domainUser "clubhouse/internal/domain/user"
)

// Stores holds all storage dependencies.
type Stores struct {
	Athletes   athleteStore.Store
	Attendance attendanceStore.Store
	Plans      planStore.Store
	Logs       logStore.Store
	Exercises  exerciseStore.Store
	Users      userStore.Store
}

// Provider is the identity provider behind /auth/google.
type Provider interface {
	orchestrators.OAuthProvider
	Begin() (auth.Flow, error)
}

// DefaultRateLimit is the per-IP request budget per second.
const DefaultRateLimit = 10

// Options configures NewMux. Only Stores is required.
type Options struct {
	StaticDir string
	Stores    *Stores
	Sessions  *middleware.SessionStore
	Collector *perf.Collector
	Limiter   *middleware.RateLimiter
	// SlowRequest is the WARN threshold for request logs.
	SlowRequest time.Duration
	// Provider enables Google sign-in when set.
	Provider Provider
	// LocalLogin enables email/password sign-in for self-hosted backends.
	LocalLogin bool
	// Hub serves /api/live when set.
	Hub    *live.Hub
	Sender email.Sender
	// CSRFKey must be 32 bytes. A random key is used when empty.
	CSRFKey        []byte
	SecureCookies  bool
	AllowedOrigins []string
	// TrustProxy keys rate limits by the forwarded client IP instead of
	// the connection's address.
	TrustProxy bool
	Now            func() time.Time
}

// server carries the handler dependencies.
type server struct {
	Options
}

// NewMux wires HTTP handlers for the app.
func NewMux(opts Options) http.Handler {
	if opts.Stores == nil {
		panic("web: Options.Stores is required")
	}
	if opts.Sessions == nil {
		opts.Sessions = middleware.NewSessionStore()
	}
	if opts.Limiter == nil {
		opts.Limiter = middleware.NewRateLimiter(DefaultRateLimit, time.Second)
	}
	if opts.Sender == nil {
		opts.Sender = email.NewNoopSender()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(opts.CSRFKey) == 0 {
		opts.CSRFKey = randomKey()
	}
	s := &server{Options: opts}

	r := chi.NewRouter()
	r.Use(chimw.RequestID, middleware.Timing(opts.Collector, opts.SlowRequest), chimw.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	s.routes(r)
	if opts.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(opts.StaticDir)))
	}

	// Outermost first: [RealIP] -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> router
	chain := []func(http.Handler) http.Handler{
		middleware.SecurityHeaders(opts.SecureCookies),
		middleware.CSRF(opts.CSRFKey, opts.SecureCookies, opts.AllowedOrigins),
		middleware.Auth(opts.Sessions),
		middleware.RateLimit(opts.Limiter),
	}
	if opts.TrustProxy {
		chain = append(chain, chimw.RealIP)
	}
	return middleware.Chain(r, chain...)
}

func (s *server) routes(r chi.Router) {
	r.Get("/healthz", s.handleHealthz)
	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)
	r.Get("/auth/google", s.handleGoogleStart)
	r.Get("/auth/callback", s.handleGoogleCallback)

	staff := middleware.RequireRole(domainUser.RoleAdmin, domainUser.RoleCoach)
	admin := middleware.RequireRole(domainUser.RoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/me", s.handleMe)
		r.With(staff).Get("/dashboard", s.handleDashboard)

		r.Route("/athletes", func(r chi.Router) {
			r.With(staff).Get("/", s.handleListAthletes)
			r.With(staff).Post("/", s.handleRegisterAthlete)
			r.Get("/{athleteID}", s.handleGetAthlete)
			r.Get("/{athleteID}/training", s.handleAthleteTraining)
			r.With(staff).Put("/{athleteID}", s.handleUpdateAthlete)
			r.With(staff).Post("/{athleteID}/archive", s.handleArchiveAthlete)
			r.With(staff).Post("/{athleteID}/restore", s.handleRestoreAthlete)
			r.With(staff).Delete("/{athleteID}", s.handleDeleteAthlete)
		})

		r.Route("/attendance", func(r chi.Router) {
			r.Use(staff)
			r.Get("/", s.handleAttendanceWeek)
			r.Get("/summary", s.handleAttendanceSummary)
			r.Post("/mark", s.handleMarkAttendance)
			r.Put("/sessions/{date}", s.handleSetSession)
			r.Get("/{week}", s.handleAttendanceWeek)
		})

		r.Route("/plans/{athleteID}", func(r chi.Router) {
			r.Get("/{date}", s.handleGetPlanDay)
			r.With(staff).Put("/{date}", s.handleSavePlanDay)
			r.With(staff).Delete("/{date}", s.handleClearPlanDay)
			r.With(staff).Post("/copy-week", s.handleCopyPlanWeek)
		})

		r.Route("/logs/{athleteID}", func(r chi.Router) {
			r.Get("/{date}", s.handleGetLogDay)
			r.Put("/{date}", s.handleSaveLogDay)
			r.Delete("/{date}", s.handleClearLogDay)
			r.Post("/{date}/start", s.handleStartLog)
		})

		r.Route("/exercises", func(r chi.Router) {
			r.Get("/", s.handleListExercises)
			r.Get("/catalog", s.handleExerciseCatalog)
			r.With(staff).Post("/", s.handleSaveExercise)
			r.With(staff).Put("/{exerciseID}", s.handleSaveExercise)
			r.With(staff).Post("/{exerciseID}/archive", s.handleArchiveExercise)
			r.With(staff).Post("/{exerciseID}/restore", s.handleRestoreExercise)
			r.With(staff).Delete("/{exerciseID}", s.handleDeleteExercise)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(admin)
			r.Get("/", s.handleListUsers)
			r.Post("/", s.handleSaveUser)
			r.Delete("/{email}", s.handleDeleteUser)
		})

		r.With(admin).Post("/digest", s.handleSendDigest)
		r.With(admin).Get("/perf", s.handlePerf)
		if s.Hub != nil {
			r.Handle("/live", s.Hub)
		}
	})
}

func randomKey() []byte {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic("web: generate CSRF key: " + err.Error())
	}
	slog.Warn("csrf_key_random", "hint", "sessions will not survive restart; set CLUBHOUSE_CSRF_KEY")
	return key
}
