package web

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"clubhouse/internal/adapters/http/perf"
	"clubhouse/internal/application/orchestrators"
	"clubhouse/internal/application/projections"
	domainUser "clubhouse/internal/domain/user"
)

func TestUsers_CRUD(t *testing.T) {
	env := newTestEnv(t)
	env.seedAthlete("a1", "Ada Lovelace", "senior", true)
	env.seedUser("admin@club.test", domainUser.RoleAdmin, "correct-horse-battery")
	admin := env.login(domainUser.RoleAdmin, "")

	rec := env.do("POST", "/api/users", `{"email":"Coach@Club.test","name":"Carter","role":"coach","password":"another-long-secret"}`, admin)
	expectStatus(t, rec, http.StatusOK)
	if got := decode[domainUser.User](t, rec); got.Email != "coach@club.test" || got.PasswordHash != "" {
		t.Errorf("unexpected saved user: %+v", got)
	}

	tests := []struct {
		name string
		body string
	}{
		{"bad role", `{"email":"x@club.test","role":"owner"}`},
		{"short password", `{"email":"x@club.test","role":"coach","password":"short"}`},
		{"unknown athlete", `{"email":"x@club.test","role":"athlete","athleteId":"zz"}`},
		{"no at sign", `{"email":"nobody","role":"coach"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, env.do("POST", "/api/users", tt.body, admin), http.StatusBadRequest)
		})
	}

	expectStatus(t, env.do("POST", "/api/users", `{"email":"ada@club.test","role":"athlete","athleteId":"a1"}`, admin), http.StatusOK)

	rec = env.do("GET", "/api/users", "", admin)
	expectStatus(t, rec, http.StatusOK)
	users := decode[[]domainUser.User](t, rec)
	if len(users) != 3 {
		t.Fatalf("listed %d users, want 3", len(users))
	}
	for _, u := range users {
		if u.PasswordHash != "" {
			t.Errorf("password hash of %s leaked", u.Email)
		}
	}

	rec = env.do("DELETE", "/api/users/coach%40club.test", "", admin)
	expectStatus(t, rec, http.StatusNoContent)
	rec = env.do("DELETE", "/api/users/coach%40club.test", "", admin)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestUsers_CannotDeleteSelfOrLastAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("admin@club.test", domainUser.RoleAdmin, "")
	env.seedUser("other@club.test", domainUser.RoleCoach, "")
	admin := env.login(domainUser.RoleAdmin, "")

	rec := env.do("DELETE", "/api/users/admin@club.test", "", admin)
	expectStatus(t, rec, http.StatusBadRequest)

	// Demoting the only admin would leave none.
	rec = env.do("POST", "/api/users", `{"email":"admin@club.test","role":"coach"}`, admin)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestDigest(t *testing.T) {
	env := newTestEnv(t)
	env.seedAthlete("a1", "Ada Lovelace", "senior", true)
	admin := env.login(domainUser.RoleAdmin, "")

	rec := env.do("POST", "/api/digest", "", admin)
	expectStatus(t, rec, http.StatusConflict)

	env.seedUser("admin@club.test", domainUser.RoleAdmin, "")
	env.seedUser("coach@club.test", domainUser.RoleCoach, "")
	env.seedUser("ada@club.test", domainUser.RoleAthlete, "")
	if err := env.stores.Attendance.Mark(t.Context(), "2026-10-06", "a1"); err != nil {
		t.Fatal(err)
	}

	// No body reports on the previous week.
	rec = env.do("POST", "/api/digest", "", admin)
	expectStatus(t, rec, http.StatusOK)
	res := decode[orchestrators.SendWeeklyDigestResult](t, rec)
	if res.Week != "2026-W41" || len(res.Recipients) != 2 {
		t.Fatalf("unexpected digest: %+v", res)
	}
	sent := env.sender.Sent()
	if len(sent) != 2 {
		t.Fatalf("sent %d emails, want one per coach or admin", len(sent))
	}
	for _, m := range sent {
		if len(m.To) != 1 || m.To[0] == "ada@club.test" {
			t.Errorf("unexpected recipients %v", m.To)
		}
		if !strings.Contains(m.HTML, "Ada Lovelace") {
			t.Errorf("digest body misses the athlete: %s", m.HTML)
		}
	}

	rec = env.do("POST", "/api/digest", `{"week":"2026-W53"}`, admin)
	expectStatus(t, rec, http.StatusOK)
	rec = env.do("POST", "/api/digest", `{"week":"2025-W53"}`, admin)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	env.seedAthlete("a1", "Ada Lovelace", "senior", true)
	env.seedAthlete("a2", "Grace Hopper", "junior", true)
	env.seedAthlete("a3", "Alan Turing", "senior", false)
	coach := env.login(domainUser.RoleCoach, "")
	expectStatus(t, env.do("PUT", "/api/attendance/sessions/2026-10-12", `{"athleteIds":["a1","a2"]}`, coach), http.StatusNoContent)
	expectStatus(t, env.do("POST", "/api/attendance/mark", `{"athleteId":"a1","date":"2026-10-14","action":"mark"}`, coach), http.StatusOK)

	rec := env.do("GET", "/api/dashboard", "", coach)
	expectStatus(t, rec, http.StatusOK)
	got := decode[projections.DashboardResult](t, rec)
	if got.Week != "2026-W42" || got.ActiveAthletes != 2 || got.ArchivedAthletes != 1 {
		t.Errorf("unexpected athlete counts: %+v", got)
	}
	if got.Groups["senior"] != 1 || got.Groups["junior"] != 1 {
		t.Errorf("groups = %v", got.Groups)
	}
	if got.SessionsThisWeek != 2 || got.AttendanceMarks != 3 || got.AttendeesThisWeek != 2 {
		t.Errorf("unexpected attendance counts: %+v", got)
	}
}

func TestPerf(t *testing.T) {
	env := newTestEnv(t)
	admin := env.login(domainUser.RoleAdmin, "")
	rec := env.do("GET", "/api/perf", "", admin)
	expectStatus(t, rec, http.StatusNotFound)

	collector := perf.NewCollector(100)
	env.mount(env.stores, func(o *Options) {
		o.Collector = collector
		o.Now = time.Now
	})
	expectStatus(t, env.do("GET", "/api/me", "", admin), http.StatusOK)

	rec = env.do("GET", "/api/perf", "", admin)
	expectStatus(t, rec, http.StatusOK)
	if snap := decode[perf.Snapshot](t, rec); snap.TotalRequests < 1 {
		t.Errorf("timed requests = %d, want at least one", snap.TotalRequests)
	}
}
