package bootstrap

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/webhook-service/internal/application/webhook"
	"github.com/baechuer/real-time-ressys/services/webhook-service/internal/config"
	infraemail "github.com/baechuer/real-time-ressys/services/webhook-service/internal/infrastructure/email"
	infralambda "github.com/baechuer/real-time-ressys/services/webhook-service/internal/infrastructure/lambda"
	"github.com/baechuer/real-time-ressys/services/webhook-service/internal/infrastructure/ratelimit"
	web "github.com/baechuer/real-time-ressys/services/webhook-service/internal/infrastructure/web"
)

// runtime is what the App drives: the Lambda loop or the local web server.
type runtime interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type App struct {
	rt  runtime
	cfg *config.Config
}

func NewApp() (*App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return newAppFromConfig(context.Background(), cfg, log.Logger)
}

func newAppFromConfig(ctx context.Context, cfg *config.Config, lg zerolog.Logger) (*App, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	// Notifier (+ sender for dispatch)
	notifier, senderCleanup, err := buildNotifier(ctx, cfg, lg)
	if err != nil {
		return nil, nil, err
	}
	if senderCleanup != nil {
		cleanups = append(cleanups, senderCleanup)
	}

	policy := webhook.PropagateFailures
	if cfg.FailurePolicy == config.PolicyRespond {
		policy = webhook.RespondOnFailure
	}
	handler := webhook.NewHandler(notifier, policy, lg)

	lg.Info().
		Str("env", cfg.Env).
		Str("runtime", cfg.Runtime).
		Str("notifier", notifier.Name()).
		Str("failure_policy", cfg.FailurePolicy).
		Msg("webhook handler configured")

	var rt runtime
	switch cfg.Runtime {
	case config.RuntimeHTTP:
		webCfg := web.Config{
			Addr:         cfg.HTTPAddr,
			MaxBodyBytes: cfg.HTTPMaxBodyBytes,
		}
		if cfg.RLEnabled {
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			cleanups = append(cleanups, func() { _ = rdb.Close() })

			rl := ratelimit.NewRateLimiter(rdb, ratelimit.Config{
				Limit:  cfg.RLIPLimit,
				Window: cfg.RLIPWindow,
			}, lg)
			webCfg.RateLimit = rl.Middleware

			lg.Info().
				Str("addr", cfg.RedisAddr).
				Int("ip_limit", cfg.RLIPLimit).
				Dur("ip_window", cfg.RLIPWindow).
				Msg("rate limiting configured (redis)")
		} else {
			lg.Info().Msg("rate limiting disabled (redis)")
		}
		rt = web.NewServer(webCfg, handler, lg)
	default:
		rt = infralambda.NewRuntime(infralambda.NewAdapter(handler, lg), lg)
	}

	app := &App{rt: rt, cfg: cfg}
	finalCleanup := func() {
		lg.Info().Msg("Performing final resource cleanup...")

		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownWait)
		defer cancel()

		_ = app.Stop(stopCtx)
		cleanup()
	}
	return app, finalCleanup, nil
}

func buildNotifier(ctx context.Context, cfg *config.Config, lg zerolog.Logger) (webhook.Notifier, func(), error) {
	switch cfg.Notifier {
	case config.NotifierStub:
		return webhook.StubNotifier{}, nil, nil
	case config.NotifierEcho:
		return webhook.EchoNotifier{}, nil, nil
	}

	var (
		sender  webhook.Sender
		cleanup func()
	)
	switch cfg.EmailSender {
	case config.SenderSMTP:
		sender = infraemail.NewSMTPSender(infraemail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			Timeout:  cfg.SMTPTimeout,
			Insecure: cfg.SMTPInsecure,
		}, lg)
	case config.SenderRabbitMQ:
		rs, c, err := infraemail.DialRabbitSender(infraemail.RabbitConfig{
			URL:        cfg.RabbitURL,
			Exchange:   cfg.RabbitExchange,
			RoutingKey: cfg.RabbitRoutingKey,
		}, lg)
		if err != nil {
			return nil, nil, err
		}
		sender, cleanup = rs, c
	case config.SenderFake:
		sender = infraemail.NewFakeSender(cfg.FakeFailMode, lg)
	case config.SenderSES:
		ses, err := infraemail.NewSESSender(ctx, infraemail.SESConfig{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			Endpoint:        cfg.SESEndpoint,
		}, lg)
		if err != nil {
			return nil, nil, err
		}
		sender = ses
	default:
		return nil, nil, fmt.Errorf("unsupported email sender: %s", cfg.EmailSender)
	}

	return webhook.NewDispatchNotifier(sender, cfg.FromEmail, lg), cleanup, nil
}

func (a *App) Start(ctx context.Context) error {
	log.Info().Str("runtime", a.cfg.Runtime).Msg("Starting Webhook Service...")
	return a.rt.Start(ctx) // block
}

func (a *App) Stop(ctx context.Context) error {
	log.Info().Msg("Shutting down Webhook Service gracefully...")
	if a.rt != nil {
		return a.rt.Stop(ctx)
	}
	return nil
}
