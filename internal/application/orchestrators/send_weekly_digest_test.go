package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	emailAdapter "clubhouse/internal/adapters/email"
	"clubhouse/internal/application/projections"
	"clubhouse/internal/domain/user"
)

func digestDeps(t *testing.T, s *testStores, sender emailAdapter.Sender) SendWeeklyDigestDeps {
	t.Helper()
	return SendWeeklyDigestDeps{
		Summarize: func(ctx context.Context, from, to string) (projections.AttendanceSummaryResult, error) {
			return projections.QueryGetAttendanceSummary(ctx, projections.GetAttendanceSummaryQuery{FromWeek: from, ToWeek: to},
				projections.GetAttendanceSummaryDeps{AthleteStore: s.athletes, AttendanceStore: s.attendance})
		},
		UserStore: s.users,
		Sender:    sender,
		Now:       testNow,
	}
}

func TestExecuteSendWeeklyDigest(t *testing.T) {
	s := newTestStores(t)
	ctx := context.Background()
	for _, in := range []SaveUserInput{
		{Email: "admin@club.test", Role: user.RoleAdmin},
		{Email: "coach@club.test", Role: user.RoleCoach},
		{Email: "kid@club.test", Role: user.RoleAthlete},
	} {
		_, err := ExecuteSaveUser(ctx, in, SaveUserDeps{UserStore: s.users})
		require.NoError(t, err)
	}
	a := registerTestAthlete(t, s, "Ada")
	require.NoError(t, s.attendance.Mark(ctx, "2026-10-06", a.ID))

	sender := emailAdapter.NewNoopSender()
	res, err := ExecuteSendWeeklyDigest(ctx, SendWeeklyDigestInput{}, digestDeps(t, s, sender))
	require.NoError(t, err)

	// testNow is in 2026-W42, so the default is the week before.
	assert.Equal(t, "2026-W41", res.Week)
	assert.ElementsMatch(t, []string{"admin@club.test", "coach@club.test"}, res.Recipients)
	assert.Len(t, res.MessageIDs, 2)

	sent := sender.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "Weekly attendance 2026-W41", sent[0].Subject)
	assert.True(t, strings.Contains(sent[0].HTML, "<td>Ada</td>"), sent[0].HTML)
	assert.Contains(t, sent[0].HTML, "100%")
}

type failingSender struct{ emailAdapter.NoopSender }

func (*failingSender) SendBatch(context.Context, []emailAdapter.SendRequest) ([]emailAdapter.SendResult, error) {
	return nil, errors.New("provider down")
}

func TestExecuteSendWeeklyDigest_Failures(t *testing.T) {
	s := newTestStores(t)
	ctx := context.Background()

	_, err := ExecuteSendWeeklyDigest(ctx, SendWeeklyDigestInput{Week: "2026-W41"}, digestDeps(t, s, emailAdapter.NewNoopSender()))
	assert.ErrorIs(t, err, ErrNoDigestRecipients)

	_, err = ExecuteSendWeeklyDigest(ctx, SendWeeklyDigestInput{Week: "week 41"}, digestDeps(t, s, emailAdapter.NewNoopSender()))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ExecuteSaveUser(ctx, SaveUserInput{Email: "coach@club.test", Role: user.RoleCoach}, SaveUserDeps{UserStore: s.users})
	require.NoError(t, err)
	_, err = ExecuteSendWeeklyDigest(ctx, SendWeeklyDigestInput{Week: "2026-W41"}, digestDeps(t, s, &failingSender{}))
	assert.ErrorContains(t, err, "provider down")
}
