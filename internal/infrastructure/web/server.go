package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/webhook-service/internal/application/webhook"
	"github.com/baechuer/real-time-ressys/services/webhook-service/internal/infrastructure/web/middleware"
	"github.com/baechuer/real-time-ressys/services/webhook-service/internal/metrics"
	appCtx "github.com/baechuer/real-time-ressys/services/webhook-service/internal/pkg/context"
)

// invalidBody is never valid JSON; oversized or unreadable bodies take the
// malformed-JSON path in the handler.
var invalidBody = []byte{0xff}

type Server struct {
	addr    string
	maxBody int64
	h       *webhook.Handler
	lg      zerolog.Logger
	srv     *http.Server
}

type Config struct {
	Addr         string // ":8080"
	MaxBodyBytes int

	// RateLimit wraps the webhook routes when set.
	RateLimit func(http.Handler) http.Handler
}

// NewServer serves the webhook handler over plain HTTP for local runs and
// container deployments. The Lambda runtime does not use it.
func NewServer(cfg Config, h *webhook.Handler, lg zerolog.Logger) *Server {
	s := &Server{
		addr:    cfg.Addr,
		maxBody: int64(cfg.MaxBodyBytes),
		h:       h,
		lg:      lg.With().Str("component", "webhook_web").Logger(),
	}
	if s.maxBody <= 0 {
		s.maxBody = 1 << 20
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.HTTPLogger(s.lg))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.MetricsHandler())

	// No method routing: non-POST requests must reach the handler for its 405.
	r.Group(func(r chi.Router) {
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit)
		}
		r.HandleFunc("/", s.handleWebhook)
		r.HandleFunc("/webhook", s.handleWebhook)
	})

	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.Stop(context.Background())
	}()

	s.lg.Info().Str("addr", s.addr).Msg("webhook web server listening")
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Stop(ctx context.Context) error {
	s.lg.Info().Msg("webhook web server shutting down")
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		s.lg.Warn().Err(err).Str("request_id", appCtx.GetRequestID(r.Context())).Msg("request body rejected")
		body = invalidBody
	}

	resp, err := s.h.Handle(r.Context(), webhook.Request{
		Method:    r.Method,
		Body:      body,
		RequestID: appCtx.GetRequestID(r.Context()),
	})
	if err != nil {
		// Mirrors the generic error a serverless platform returns for a
		// failed invocation; the cause is only in the logs.
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeResponse(w, resp)
}

func writeResponse(w http.ResponseWriter, resp webhook.Response) {
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	} else {
		// keep net/http from sniffing one
		w.Header()["Content-Type"] = nil
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.WriteString(w, resp.Body)
}
