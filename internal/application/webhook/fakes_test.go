package webhook

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/webhook-service/internal/contracts"
)

var errBoom = errors.New("boom")

func testLogger() zerolog.Logger {
	// discard logger output in unit tests
	return zerolog.Nop()
}

// ---- Fake Sender ----

type fakeSender struct {
	mu sync.Mutex

	calls int
	last  contracts.EmailMessage

	// Optional: scripted failure
	err error
}

func (s *fakeSender) Name() string { return "fake" }

func (s *fakeSender) Send(ctx context.Context, msg contracts.EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	s.last = msg
	return s.err
}

func (s *fakeSender) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *fakeSender) Last() contracts.EmailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

type permanentErr struct{}

func (permanentErr) Error() string   { return "rejected" }
func (permanentErr) Permanent() bool { return true }

type temporaryErr struct{}

func (temporaryErr) Error() string   { return "try later" }
func (temporaryErr) Temporary() bool { return true }
