package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
)

// TokenSessions is the session store as seen by the token refresher.
type TokenSessions interface {
	Tokens() map[string]*oauth2.Token
	SetToken(id string, tok *oauth2.Token) bool
	Expire(id string) bool
}

// TokenRefresher exchanges a refresh token for a fresh access token.
type TokenRefresher interface {
	Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error)
}

// RefreshTokensInput carries the refresh policy.
type RefreshTokensInput struct {
	// Window selects tokens expiring within this duration.
	Window time.Duration
}

// RefreshTokensDeps holds dependencies for RefreshTokens.
type RefreshTokensDeps struct {
	Sessions  TokenSessions
	Refresher TokenRefresher
	Now       func() time.Time
}

// RefreshTokensResult reports what one round did.
type RefreshTokensResult struct {
	Refreshed int
	Expired   int
}

// ExecuteRefreshTokens refreshes session tokens that are about to expire.
// A session whose refresh fails is marked expired, so its next request is
// sent back to sign in.
// POST: Every selected session has either a fresh token or Expired=true
func ExecuteRefreshTokens(ctx context.Context, input RefreshTokensInput, deps RefreshTokensDeps) (RefreshTokensResult, error) {
	var res RefreshTokensResult
	cutoff := nowOr(deps.Now).Add(input.Window)

	for id, tok := range deps.Sessions.Tokens() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if tok.Expiry.IsZero() || tok.Expiry.After(cutoff) {
			continue
		}
		fresh, err := deps.Refresher.Refresh(ctx, tok)
		if err != nil {
			deps.Sessions.Expire(id)
			res.Expired++
			slog.Warn("auth_event", "event", "token_refresh_failed", "error", err.Error())
			continue
		}
		if deps.Sessions.SetToken(id, fresh) {
			res.Refreshed++
		}
	}

	if res.Refreshed > 0 || res.Expired > 0 {
		slog.Info("auth_event", "event", "tokens_refreshed", "refreshed", res.Refreshed, "expired", res.Expired)
	}
	return res, nil
}
