package webhook

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/webhook-service/internal/metrics"
	appCtx "github.com/baechuer/real-time-ressys/services/webhook-service/internal/pkg/context"
)

// FailurePolicy decides what happens when the notifier fails.
type FailurePolicy int

const (
	// PropagateFailures returns the error to the caller, which surfaces it
	// as an invocation error.
	PropagateFailures FailurePolicy = iota
	// RespondOnFailure turns the error into a generic 502 reply.
	RespondOnFailure
)

const sendFailedBody = "Failed to send email"

type Handler struct {
	notifier Notifier
	policy   FailurePolicy
	lg       zerolog.Logger
}

func NewHandler(notifier Notifier, policy FailurePolicy, lg zerolog.Logger) *Handler {
	return &Handler{
		notifier: notifier,
		policy:   policy,
		lg:       lg.With().Str("component", "webhook_handler").Str("notifier", notifier.Name()).Logger(),
	}
}

// Handle produces exactly one response per request. Client input errors
// always come back as a response with a nil error; only notifier failures
// under PropagateFailures return a non-nil error.
func (h *Handler) Handle(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	if req.RequestID != "" && appCtx.GetRequestID(ctx) == "" {
		ctx = appCtx.WithRequestID(ctx, req.RequestID)
	}
	lg := h.lg.With().Str("request_id", appCtx.GetRequestID(ctx)).Logger()

	payload, err := Decode(req.Method, req.Body)
	if err != nil {
		var ve *ValidationError
		if !errors.As(err, &ve) {
			// Decode only returns *ValidationError.
			return Response{}, err
		}
		metrics.RecordRequest(h.notifier.Name(), ve.Reason.String(), time.Since(start))
		lg.Info().Str("method", req.Method).Str("reason", ve.Reason.String()).Msg("webhook rejected")
		return ve.Response(), nil
	}

	resp, err := h.notifier.Notify(ctx, payload)
	if err != nil {
		metrics.RecordRequest(h.notifier.Name(), "notify_failed", time.Since(start))
		if h.policy == RespondOnFailure {
			lg.Error().Err(err).Msg("webhook notify failed, answering 502")
			return textResponse(http.StatusBadGateway, sendFailedBody), nil
		}
		lg.Error().Err(err).Msg("webhook notify failed")
		return Response{}, err
	}

	metrics.RecordRequest(h.notifier.Name(), "ok", time.Since(start))
	lg.Info().Int("status", resp.StatusCode).Dur("took", time.Since(start)).Msg("webhook handled")
	return resp, nil
}
