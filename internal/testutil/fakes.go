package testutil

import (
	"context"
	"sync"
)

// SentMail captures one message handed to a RecordingSender.
type SentMail struct {
	To      string
	Subject string
	Body    string
}

// RecordingSender is a mailer.Sender that records messages instead of
// delivering them. Set Err to make every Send fail.
type RecordingSender struct {
	mu   sync.Mutex
	Err  error
	sent []SentMail
}

// Send records the message, or returns Err when set.
func (s *RecordingSender) Send(to, subject, body string) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, SentMail{To: to, Subject: subject, Body: body})
	return nil
}

// Sent returns a copy of the recorded messages.
func (s *RecordingSender) Sent() []SentMail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SentMail, len(s.sent))
	copy(out, s.sent)
	return out
}

// StaticTextGenerator is an insights.TextGenerator returning a fixed response.
// Set Err to make every call fail instead.
type StaticTextGenerator struct {
	Response string
	Err      error
	Prompts  []string
}

// GenerateText returns the configured response and records the prompt.
func (g *StaticTextGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	g.Prompts = append(g.Prompts, prompt)
	if g.Err != nil {
		return "", g.Err
	}
	return g.Response, nil
}
