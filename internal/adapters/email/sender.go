// Package email delivers outgoing mail such as the weekly attendance digest.
package email

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"
)

var (
	ErrNoRecipients = errors.New("email has no recipients")
	ErrNoSubject    = errors.New("email has no subject")
)

// SendRequest is one outgoing message.
type SendRequest struct {
	To      []string
	From    string // empty uses the sender's default address
	Subject string
	HTML    string
	Text    string // optional plain-text alternative
	ReplyTo string
}

// Validate checks the message before it reaches a provider, so a batch is
// rejected as a whole rather than half sent.
func (r SendRequest) Validate() error {
	if len(r.To) == 0 {
		return ErrNoRecipients
	}
	for _, to := range r.To {
		if _, err := mail.ParseAddress(to); err != nil {
			return fmt.Errorf("recipient %q: %w", to, err)
		}
	}
	if r.Subject == "" {
		return ErrNoSubject
	}
	return nil
}

// SendResult identifies an accepted message.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers mail through a provider. SendBatch returns results in
// request order.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
	SendBatch(ctx context.Context, reqs []SendRequest) ([]SendResult, error)
}

func validateAll(reqs []SendRequest) error {
	for i, r := range reqs {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
	}
	return nil
}
