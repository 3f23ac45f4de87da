package email

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// NoopSender stands in for a provider when no API key is configured. It
// validates and logs each message and keeps it for inspection.
type NoopSender struct {
	mu   sync.Mutex
	sent []SendRequest
	seq  int
}

func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

// Send records req without delivering it.
func (s *NoopSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	if err := req.Validate(); err != nil {
		return SendResult{}, err
	}
	slog.Info("email_not_sent", "to", req.To, "subject", req.Subject)
	return s.record(req), nil
}

// SendBatch records every request, or none if one is invalid.
func (s *NoopSender) SendBatch(_ context.Context, reqs []SendRequest) ([]SendResult, error) {
	if err := validateAll(reqs); err != nil {
		return nil, err
	}
	results := make([]SendResult, len(reqs))
	for i, req := range reqs {
		results[i] = s.record(req)
	}
	slog.Info("email_batch_not_sent", "count", len(reqs))
	return results, nil
}

// Sent returns a copy of every request seen so far.
func (s *NoopSender) Sent() []SendRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SendRequest, len(s.sent))
	copy(out, s.sent)
	return out
}

func (s *NoopSender) record(req SendRequest) SendResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, req)
	s.seq++
	return SendResult{MessageID: fmt.Sprintf("noop-%d", s.seq), SentAt: time.Now()}
}
