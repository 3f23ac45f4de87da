package orchestrators

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	emailAdapter "clubhouse/internal/adapters/email"
	"clubhouse/internal/application/projections"
	"clubhouse/internal/domain/user"
	"clubhouse/internal/domain/week"
)

// ErrNoDigestRecipients is returned when no coach or admin has an address.
var ErrNoDigestRecipients = errors.New("no coaches or admins to send the digest to")

// UserLister lists the users document.
type UserLister interface {
	List(ctx context.Context) ([]user.User, error)
}

// SendWeeklyDigestInput carries the week to report on. Empty means the
// previous week relative to Now.
type SendWeeklyDigestInput struct {
	Week string
}

// SendWeeklyDigestDeps holds dependencies for SendWeeklyDigest.
type SendWeeklyDigestDeps struct {
	// Summarize returns the attendance summary for a week range.
	Summarize func(ctx context.Context, fromWeek, toWeek string) (projections.AttendanceSummaryResult, error)
	UserStore UserLister
	Sender    emailAdapter.Sender
	Now       func() time.Time
}

// SendWeeklyDigestResult reports what was sent.
type SendWeeklyDigestResult struct {
	Week       string   `json:"week"`
	Recipients []string `json:"recipients"`
	MessageIDs []string `json:"messageIds"`
}

var digestTemplate = template.Must(template.New("digest").Funcs(template.FuncMap{
	"percent": func(r float64) string { return fmt.Sprintf("%.0f%%", r*100) },
}).Parse(`<h2>Attendance {{.Label}}</h2>
{{if eq .Summary.Sessions 0}}<p>No sessions were recorded this week.</p>
{{else}}<p>{{.Summary.Sessions}} session(s) held.</p>
<table>
<tr><th>Athlete</th><th>Sessions</th><th>Rate</th></tr>
{{range .Summary.Athletes}}<tr><td>{{.Name}}</td><td>{{.Attended}}</td><td>{{percent .Rate}}</td></tr>
{{end}}</table>
{{end}}`))

// ExecuteSendWeeklyDigest emails the attendance summary of one week to every
// coach and admin, one message per recipient.
// PRE: Week, when set, is a valid week key
// POST: One email queued per coach/admin
func ExecuteSendWeeklyDigest(ctx context.Context, input SendWeeklyDigestInput, deps SendWeeklyDigestDeps) (SendWeeklyDigestResult, error) {
	key := input.Week
	if key == "" {
		prev, err := week.Shift(week.KeyOf(nowOr(deps.Now)), -1)
		if err != nil {
			return SendWeeklyDigestResult{}, err
		}
		key = prev
	}
	label, err := week.Label(key)
	if err != nil {
		return SendWeeklyDigestResult{}, invalid(err)
	}

	users, err := deps.UserStore.List(ctx)
	if err != nil {
		return SendWeeklyDigestResult{}, err
	}
	var recipients []string
	for _, u := range users {
		if u.CanCoach() && u.Email != "" {
			recipients = append(recipients, u.Email)
		}
	}
	if len(recipients) == 0 {
		return SendWeeklyDigestResult{}, ErrNoDigestRecipients
	}

	summary, err := deps.Summarize(ctx, key, key)
	if err != nil {
		return SendWeeklyDigestResult{}, err
	}
	var body bytes.Buffer
	if err := digestTemplate.Execute(&body, struct {
		Label   string
		Summary projections.AttendanceSummaryResult
	}{label, summary}); err != nil {
		return SendWeeklyDigestResult{}, fmt.Errorf("render digest: %w", err)
	}

	subject := "Weekly attendance " + key
	reqs := make([]emailAdapter.SendRequest, 0, len(recipients))
	for _, to := range recipients {
		reqs = append(reqs, emailAdapter.SendRequest{To: []string{to}, Subject: subject, HTML: body.String()})
	}
	sent, err := deps.Sender.SendBatch(ctx, reqs)
	if err != nil {
		return SendWeeklyDigestResult{}, fmt.Errorf("send digest: %w", err)
	}

	res := SendWeeklyDigestResult{Week: key, Recipients: recipients}
	for _, s := range sent {
		res.MessageIDs = append(res.MessageIDs, s.MessageID)
	}
	slog.Info("digest_event", "event", "weekly_digest_sent", "week", key, "recipients", len(recipients), "sessions", summary.Sessions)
	return res, nil
}
