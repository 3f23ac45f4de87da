package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "modernc.org/sqlite"

	"clubhouse/internal/adapters/auth"
	emailPkg "clubhouse/internal/adapters/email"
	web "clubhouse/internal/adapters/http"
	"clubhouse/internal/adapters/http/live"
	"clubhouse/internal/adapters/http/middleware"
	"clubhouse/internal/adapters/http/perf"
	"clubhouse/internal/adapters/storage"
	athleteStore "clubhouse/internal/adapters/storage/athlete"
	attendanceStore "clubhouse/internal/adapters/storage/attendance"
	"clubhouse/internal/adapters/storage/docstore"
	"clubhouse/internal/adapters/storage/drive"
	exerciseStore "clubhouse/internal/adapters/storage/exercise"
	"clubhouse/internal/adapters/storage/firestorefs"
	"clubhouse/internal/adapters/storage/pgfs"
	planStore "clubhouse/internal/adapters/storage/plan"
	"clubhouse/internal/adapters/storage/sqlitefs"
	logStore "clubhouse/internal/adapters/storage/traininglog"
	userStore "clubhouse/internal/adapters/storage/user"
	"clubhouse/internal/application/orchestrators"
	"clubhouse/internal/application/projections"
	"clubhouse/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

const workerTimeout = time.Minute

func main() {
	cfg, err := config.FromEnvironment()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	slog.SetDefault(slog.New(cfg.Logging.Handler(os.Stderr)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Performance instrumentation: file calls and requests feed one collector
	var collector *perf.Collector
	if cfg.Server.Perf {
		collector = perf.NewCollector(perf.DefaultRingSize)
	}

	backend, closeBackend, err := openBackend(ctx, cfg, collector)
	if err != nil {
		log.Fatalf("failed to open %s backend: %v", cfg.Storage.Backend, err)
	}
	defer closeBackend()
	api := storage.NewTimedFileAPI(backend, collector, cfg.SlowFileCall())

	ids := cfg.FileIDs()
	if ensurer, ok := backend.(storage.Ensurer); ok {
		if err := ensureDocuments(ctx, ensurer, ids); err != nil {
			log.Fatalf("failed to create documents: %v", err)
		}
	}

	// Every document write is pushed to open browser tabs
	hub := live.NewHub(cfg.Server.AllowedOrigins)
	defer hub.Close()
	docOpts := docstore.Options{
		CheckRevision: cfg.Storage.CheckRevision,
		MaxAttempts:   cfg.Storage.MaxAttempts,
		Notifier:      hub,
	}
	stores := &web.Stores{
		Athletes:   athleteStore.NewDocumentStore(api, ids.Athletes, docOpts),
		Attendance: attendanceStore.NewDocumentStore(api, ids.Attendance, docOpts),
		Plans:      planStore.NewDocumentStore(api, ids.Plans, docOpts),
		Logs:       logStore.NewDocumentStore(api, ids.Logs, docOpts),
		Exercises:  exerciseStore.NewDocumentStore(api, ids.Exercises, docOpts),
		Users:      userStore.NewDocumentStore(api, ids.Users, docOpts),
	}

	// Seed the first admin so a fresh self-hosted install can be signed into
	if cfg.SelfHosted() && cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPassword != "" {
		seeded, err := orchestrators.ExecuteSeedAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword,
			orchestrators.SeedAdminDeps{UserStore: stores.Users})
		if err != nil {
			log.Fatalf("failed to seed admin: %v", err)
		}
		if seeded {
			slog.Info("startup", "event", "admin_seeded", "email", cfg.Auth.AdminEmail)
		}
	}

	sender, err := newSender(cfg)
	if err != nil {
		log.Fatalf("failed to configure email: %v", err)
	}

	csrfKey, err := cfg.CSRFKeyBytes()
	if err != nil {
		log.Fatalf("invalid csrf key: %v", err)
	}

	sessions := middleware.NewSessionStore()
	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit, time.Second)
	opts := web.Options{
		StaticDir:      cfg.Server.StaticDir,
		Stores:         stores,
		Sessions:       sessions,
		Collector:      collector,
		Limiter:        limiter,
		SlowRequest:    cfg.SlowRequest(),
		LocalLogin:     cfg.LocalLoginEnabled(),
		Hub:            hub,
		Sender:         sender,
		CSRFKey:        csrfKey,
		SecureCookies:  cfg.Server.SecureCookies,
		TrustProxy:     cfg.Server.TrustProxy,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}

	// Background workers stop when stopCh closes; done channels are drained on exit
	stopCh := make(chan struct{})
	var workers []<-chan struct{}

	if cfg.GoogleEnabled() {
		provider := auth.NewGoogleProvider(auth.Config{
			ClientID:     cfg.Auth.GoogleClientID,
			ClientSecret: cfg.Auth.GoogleClientSecret,
			RedirectURL:  cfg.Auth.RedirectURL,
		})
		opts.Provider = provider
		window := cfg.RefreshWindow()
		workers = append(workers, orchestrators.StartBackgroundWorker("token_refresh",
			refreshTokensJob(sessions, provider, window), cfg.RefreshInterval(), workerTimeout, stopCh))
	}

	workers = append(workers, orchestrators.StartBackgroundWorker("session_purge", func(context.Context) error {
		if n := sessions.Purge(); n > 0 {
			slog.Debug("sessions_purged", "count", n)
		}
		if n := limiter.Sweep(); n > 0 {
			slog.Debug("rate_limit_visitors_swept", "count", n)
		}
		return nil
	}, 10*time.Minute, workerTimeout, stopCh))

	// The digest worker reads documents without a user session, so it only
	// runs where the server owns the storage.
	if interval := cfg.DigestInterval(); interval > 0 {
		if cfg.SelfHosted() {
			workers = append(workers, orchestrators.StartBackgroundWorker("weekly_digest", func(ctx context.Context) error {
				_, err := orchestrators.ExecuteSendWeeklyDigest(ctx, orchestrators.SendWeeklyDigestInput{},
					orchestrators.SendWeeklyDigestDeps{
						Summarize: projections.AttendanceSummarizer(projections.GetAttendanceSummaryDeps{
							AthleteStore:    stores.Athletes,
							AttendanceStore: stores.Attendance,
						}),
						UserStore: stores.Users,
						Sender:    sender,
					})
				if errors.Is(err, orchestrators.ErrNoDigestRecipients) {
					return nil
				}
				return err
			}, interval, workerTimeout, stopCh))
		} else {
			slog.Warn("startup", "event", "digest_worker_disabled", "reason", "drive documents need a signed-in user; send the digest from /api/digest")
		}
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           web.NewMux(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("startup", "event", "server_listening", "version", version, "addr", cfg.Server.Addr,
			"backend", cfg.Storage.Backend, "local_login", opts.LocalLogin, "google", opts.Provider != nil)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown", "event", "server_stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "event", "server_forced_close", "error", err.Error())
	}
	close(stopCh)
	for _, done := range workers {
		<-done
	}
	slog.Info("shutdown", "event", "server_stopped")
}

// openBackend connects the configured file backend. The returned func
// releases its connections.
func openBackend(ctx context.Context, cfg *config.Config, collector *perf.Collector) (storage.FileAPI, func(), error) {
	noop := func() {}
	switch cfg.Storage.Backend {
	case config.BackendDrive:
		return drive.NewStore(drive.Options{FolderID: cfg.Storage.DriveFolderID}), noop, nil

	case config.BackendSQLite:
		db, err := sql.Open("sqlite", sqlitefs.DSN(cfg.Storage.SQLitePath))
		if err != nil {
			return nil, noop, err
		}
		// WAL allows concurrent readers; writes are serialised by SQLite
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, noop, fmt.Errorf("database unreachable: %w", err)
		}
		timedDB := storage.NewTimedDB(db, collector, cfg.SlowQuery())
		if err := sqlitefs.InitDB(ctx, timedDB); err != nil {
			db.Close()
			return nil, noop, err
		}
		return sqlitefs.NewSQLiteStore(timedDB), func() { db.Close() }, nil

	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, noop, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("database unreachable: %w", err)
		}
		if err := pgfs.InitDB(ctx, pool); err != nil {
			pool.Close()
			return nil, noop, err
		}
		return pgfs.NewPGStore(pool), pool.Close, nil

	case config.BackendFirestore:
		client, err := firestore.NewClient(ctx, cfg.Storage.FirestoreProject)
		if err != nil {
			return nil, noop, err
		}
		return firestorefs.NewFirestoreStore(client, cfg.Storage.FirestoreCollection), func() { client.Close() }, nil

	case config.BackendMemory:
		return storage.NewMemoryFileAPI(), noop, nil
	}
	return nil, noop, fmt.Errorf("%w %q", config.ErrUnknownBackend, cfg.Storage.Backend)
}

// refreshTokensJob renews session tokens close to expiry. The orchestrator
// logs the outcome.
func refreshTokensJob(sessions orchestrators.TokenSessions, refresher orchestrators.TokenRefresher, window time.Duration) orchestrators.Job {
	return func(ctx context.Context) error {
		_, err := orchestrators.ExecuteRefreshTokens(ctx, orchestrators.RefreshTokensInput{Window: window},
			orchestrators.RefreshTokensDeps{Sessions: sessions, Refresher: refresher})
		return err
	}
}

// ensureDocuments creates any missing document file as empty.
func ensureDocuments(ctx context.Context, e storage.Ensurer, ids config.FilesConfig) error {
	for _, id := range []string{ids.Athletes, ids.Attendance, ids.Plans, ids.Logs, ids.Exercises, ids.Users} {
		created, err := e.Ensure(ctx, id, id+".json", nil)
		if err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
		if created {
			slog.Info("startup", "event", "document_created", "file_id", id)
		}
	}
	return nil
}

func newSender(cfg *config.Config) (emailPkg.Sender, error) {
	if cfg.Email.ResendKey == "" {
		slog.Info("startup", "event", "email_noop", "hint", "set CLUBHOUSE_RESEND_KEY for real delivery")
		return emailPkg.NewNoopSender(), nil
	}
	return emailPkg.NewResendSender(cfg.Email.ResendKey, cfg.Email.From)
}
