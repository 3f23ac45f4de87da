package email

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

// batchSize is the Resend limit on emails per batch call.
const batchSize = 100

// ResendSender delivers mail through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
	now    func() time.Time
}

// ResendOption configures a ResendSender.
type ResendOption func(*ResendSender) error

// WithBaseURL points the client at another API root, e.g. a test server.
func WithBaseURL(raw string) ResendOption {
	return func(s *ResendSender) error {
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("resend base url: %w", err)
		}
		s.client.BaseURL = u
		return nil
	}
}

// WithHTTPClient replaces the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) ResendOption {
	return func(s *ResendSender) error {
		base := s.client.BaseURL
		s.client = resend.NewCustomClient(hc, s.client.ApiKey)
		s.client.BaseURL = base
		return nil
	}
}

// NewResendSender returns a sender using apiKey. from is the address used
// when a request leaves From empty.
func NewResendSender(apiKey, from string, opts ...ResendOption) (*ResendSender, error) {
	s := &ResendSender{client: resend.NewClient(apiKey), from: from, now: time.Now}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *ResendSender) params(req SendRequest) *resend.SendEmailRequest {
	return &resend.SendEmailRequest{
		From:    cmp.Or(req.From, s.from),
		To:      req.To,
		Subject: req.Subject,
		Html:    req.HTML,
		Text:    req.Text,
		ReplyTo: req.ReplyTo,
	}
}

// Send delivers one message and returns Resend's message ID.
func (s *ResendSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if err := req.Validate(); err != nil {
		return SendResult{}, err
	}
	sent, err := s.client.Emails.SendWithContext(ctx, s.params(req))
	if err != nil {
		slog.Error("email_send_failed", "provider", "resend", "to", req.To, "error", err)
		return SendResult{}, fmt.Errorf("resend: %w", err)
	}
	slog.Info("email_sent", "provider", "resend", "message_id", sent.Id, "to", req.To)
	return SendResult{MessageID: sent.Id, SentAt: s.now()}, nil
}

// SendBatch delivers reqs through the batch endpoint, batchSize per call.
// Nothing is sent when any request is invalid. On a provider failure the
// results of the batches already accepted are returned with the error.
func (s *ResendSender) SendBatch(ctx context.Context, reqs []SendRequest) ([]SendResult, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	if err := validateAll(reqs); err != nil {
		return nil, err
	}
	results := make([]SendResult, 0, len(reqs))
	for chunk := range slices.Chunk(reqs, batchSize) {
		params := make([]*resend.SendEmailRequest, len(chunk))
		for i, req := range chunk {
			params[i] = s.params(req)
		}
		resp, err := s.client.Batch.SendWithContext(ctx, params)
		if err != nil {
			slog.Error("email_batch_failed", "provider", "resend", "size", len(chunk), "accepted", len(results), "error", err)
			return results, fmt.Errorf("resend batch: %w", err)
		}
		at := s.now()
		for _, item := range resp.Data {
			results = append(results, SendResult{MessageID: item.Id, SentAt: at})
		}
	}
	slog.Info("email_batch_sent", "provider", "resend", "count", len(results))
	return results, nil
}
