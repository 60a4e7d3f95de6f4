package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/webhook-service/internal/contracts"
	"github.com/baechuer/real-time-ressys/services/webhook-service/internal/metrics"
	appCtx "github.com/baechuer/real-time-ressys/services/webhook-service/internal/pkg/context"
)

const (
	dispatchSubject = "SES Test Email"
	dispatchHTML    = "<h1>SES Test Email</h1><p>This email was sent from Rust!</p>"

	producerName = "webhook-service"
)

// Notifier is the success-path strategy run after a request validates.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, p Payload) (Response, error)
}

// Sender delivers one email. Implementations live in infrastructure/email.
type Sender interface {
	Send(ctx context.Context, msg contracts.EmailMessage) error
	Name() string
}

// StubNotifier answers every valid request with "Not implemented". It runs
// after Decode, so malformed requests still get the 405 and 400 responses.
type StubNotifier struct{}

func (StubNotifier) Name() string { return "stub" }

func (StubNotifier) Notify(ctx context.Context, p Payload) (Response, error) {
	return textResponse(http.StatusOK, "Not implemented"), nil
}

// EchoNotifier reflects the parsed email back to the caller.
type EchoNotifier struct{}

func (EchoNotifier) Name() string { return "echo" }

func (EchoNotifier) Notify(ctx context.Context, p Payload) (Response, error) {
	return htmlResponse(http.StatusOK, "Webhook got email: "+p.Email), nil
}

// DispatchNotifier sends a fixed HTML email to the parsed address.
// One call means one Send: nothing is deduplicated or retried.
type DispatchNotifier struct {
	sender Sender
	from   string
	lg     zerolog.Logger
}

func NewDispatchNotifier(sender Sender, from string, lg zerolog.Logger) *DispatchNotifier {
	return &DispatchNotifier{
		sender: sender,
		from:   from,
		lg:     lg.With().Str("component", "dispatch_notifier").Str("sender", sender.Name()).Logger(),
	}
}

func (n *DispatchNotifier) Name() string { return "dispatch" }

func (n *DispatchNotifier) Notify(ctx context.Context, p Payload) (Response, error) {
	msg := contracts.EmailMessage{
		From:      n.from,
		To:        p.Email,
		Subject:   dispatchSubject,
		HTML:      dispatchHTML,
		RequestID: appCtx.GetRequestID(ctx),
		Producer:  producerName,
	}

	start := time.Now()
	if err := n.sender.Send(ctx, msg); err != nil {
		kind := errorKind(err)
		metrics.RecordEmailFailed(n.sender.Name(), kind, time.Since(start))
		n.lg.Error().Err(err).Str("to", p.Email).Str("error_type", kind).Msg("email send failed")
		return Response{}, fmt.Errorf("send email: %w", err)
	}
	metrics.RecordEmailSent(n.sender.Name(), time.Since(start))
	n.lg.Info().Str("to", p.Email).Dur("took", time.Since(start)).Msg("email sent")

	return htmlResponse(http.StatusOK, "Successfully handled webhook!"), nil
}

type permanentMarker interface{ Permanent() bool }
type temporaryMarker interface{ Temporary() bool }

// errorKind labels a send error for logs and metrics only.
func errorKind(err error) string {
	var pm permanentMarker
	if errors.As(err, &pm) && pm.Permanent() {
		return "permanent"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	var tm temporaryMarker
	if errors.As(err, &tm) && tm.Temporary() {
		return "temporary"
	}
	return "unknown"
}
