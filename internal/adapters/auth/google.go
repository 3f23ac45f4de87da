// Package auth signs users in with Google and keeps their Drive tokens fresh.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"clubhouse/internal/adapters/storage/drive"
)

// ErrUnverifiedEmail is returned when Google reports the address as unverified.
var ErrUnverifiedEmail = errors.New("google account email is not verified")

// Config holds the OAuth client registration.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Endpoint overrides google.Endpoint. Used by tests.
	Endpoint oauth2.Endpoint
	// UserinfoEndpoint overrides the base URL of the userinfo API. Used by tests.
	UserinfoEndpoint string
	// HTTPClient is used for token and userinfo calls. Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Identity is what Google tells us about the signed-in user.
type Identity struct {
	Email string
	Name  string
}

// GoogleProvider runs the authorization-code flow against Google.
type GoogleProvider struct {
	config           *oauth2.Config
	userinfoEndpoint string
	httpClient       *http.Client
}

// NewGoogleProvider builds a provider requesting Drive file access and the
// user's email.
func NewGoogleProvider(cfg Config) *GoogleProvider {
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = google.Endpoint
	}
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes: []string{
				drive.Scope,
				googleoauth.UserinfoEmailScope,
				googleoauth.UserinfoProfileScope,
			},
		},
		userinfoEndpoint: cfg.UserinfoEndpoint,
		httpClient:       cfg.HTTPClient,
	}
}

// Flow is one pending authorization: State and Verifier must come back with
// the callback.
type Flow struct {
	State    string
	Verifier string
	URL      string
}

// Begin starts an authorization with a fresh state and PKCE verifier.
// Offline access is requested so the token can be refreshed.
func (p *GoogleProvider) Begin() (Flow, error) {
	state, err := randomState()
	if err != nil {
		return Flow{}, err
	}
	verifier := oauth2.GenerateVerifier()
	url := p.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
	return Flow{State: state, Verifier: verifier, URL: url}, nil
}

// Exchange trades the callback code for a token.
func (p *GoogleProvider) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	tok, err := p.config.Exchange(p.clientContext(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return tok, nil
}

// Identify asks the userinfo API who owns tok.
func (p *GoogleProvider) Identify(ctx context.Context, tok *oauth2.Token) (Identity, error) {
	opts := []option.ClientOption{option.WithTokenSource(oauth2.StaticTokenSource(tok))}
	if p.httpClient != nil {
		opts = []option.ClientOption{option.WithHTTPClient(&http.Client{
			Transport: &oauth2.Transport{Source: oauth2.StaticTokenSource(tok), Base: p.httpClient.Transport},
		})}
	}
	if p.userinfoEndpoint != "" {
		opts = append(opts, option.WithEndpoint(p.userinfoEndpoint))
	}
	svc, err := googleoauth.NewService(ctx, opts...)
	if err != nil {
		return Identity{}, fmt.Errorf("userinfo client: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return Identity{}, fmt.Errorf("userinfo: %w", err)
	}
	if info.VerifiedEmail != nil && !*info.VerifiedEmail {
		return Identity{}, ErrUnverifiedEmail
	}
	return Identity{Email: strings.ToLower(info.Email), Name: info.Name}, nil
}

// Refresh returns a fresh token for tok, using its refresh token.
func (p *GoogleProvider) Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	if tok.RefreshToken == "" {
		return nil, errors.New("token has no refresh token")
	}
	// Clearing the access token forces the source to hit the token endpoint.
	stale := &oauth2.Token{RefreshToken: tok.RefreshToken}
	fresh, err := p.config.TokenSource(p.clientContext(ctx), stale).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = tok.RefreshToken
	}
	return fresh, nil
}

func (p *GoogleProvider) clientContext(ctx context.Context) context.Context {
	if p.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

func randomState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
