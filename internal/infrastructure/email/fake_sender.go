package email

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/webhook-service/internal/contracts"
)

// FakeSender is a development/testing sender. It only logs.
//
// failMode:
// - "none" (default): always succeed
// - "transient": return a Temporary() error
// - "permanent": return a Permanent() error
type FakeSender struct {
	failMode string
	lg       zerolog.Logger
}

func NewFakeSender(failMode string, lg zerolog.Logger) *FakeSender {
	return &FakeSender{
		failMode: failMode,
		lg:       lg.With().Str("component", "fake_sender").Logger(),
	}
}

func (s *FakeSender) Name() string { return "fake" }

func (s *FakeSender) Send(ctx context.Context, msg contracts.EmailMessage) error {
	s.lg.Info().
		Str("from", msg.From).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("FAKE send email")

	switch s.failMode {
	case "transient":
		return TemporaryError{msg: fmt.Sprintf("fake transient failure (%s)", msg.To)}
	case "permanent":
		return PermanentError{msg: fmt.Sprintf("fake permanent failure (%s)", msg.To)}
	default:
		return nil
	}
}
