package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	RuntimeLambda = "lambda"
	RuntimeHTTP   = "http"

	NotifierStub     = "stub"
	NotifierEcho     = "echo"
	NotifierDispatch = "dispatch"

	PolicyPropagate = "propagate"
	PolicyRespond   = "respond"

	SenderSES      = "ses"
	SenderSMTP     = "smtp"
	SenderRabbitMQ = "rabbitmq"
	SenderFake     = "fake"
)

type Config struct {
	Env string

	Runtime       string
	Notifier      string
	FailurePolicy string
	ShutdownWait  time.Duration

	// Email
	FromEmail   string
	EmailSender string

	// AWS SES
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	SESEndpoint        string

	// SMTP
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPTimeout  time.Duration
	SMTPInsecure bool

	// RabbitMQ
	RabbitURL        string
	RabbitExchange   string
	RabbitRoutingKey string

	FakeFailMode string

	// Local HTTP runtime
	HTTPAddr         string
	HTTPMaxBodyBytes int

	// Redis (http rate limit)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RLEnabled  bool
	RLIPLimit  int
	RLIPWindow time.Duration
}

// Load reads the process configuration once at startup. A .env file is
// honoured when present. Missing required settings are reported as errors.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Env = getEnvFirst([]string{"APP_ENV", "ENV"}, "dev")

	cfg.Runtime = strings.ToLower(getEnv("WEBHOOK_RUNTIME", RuntimeLambda))
	cfg.Notifier = strings.ToLower(getEnv("WEBHOOK_NOTIFIER", NotifierDispatch))
	cfg.FailurePolicy = strings.ToLower(getEnv("SEND_FAILURE_POLICY", PolicyPropagate))
	cfg.ShutdownWait = getDuration("SHUTDOWN_WAIT", 10*time.Second)

	switch cfg.Runtime {
	case RuntimeLambda, RuntimeHTTP:
	default:
		return nil, fmt.Errorf("unsupported WEBHOOK_RUNTIME: %q", cfg.Runtime)
	}
	switch cfg.Notifier {
	case NotifierStub, NotifierEcho, NotifierDispatch:
	default:
		return nil, fmt.Errorf("unsupported WEBHOOK_NOTIFIER: %q", cfg.Notifier)
	}
	switch cfg.FailurePolicy {
	case PolicyPropagate, PolicyRespond:
	default:
		return nil, fmt.Errorf("unsupported SEND_FAILURE_POLICY: %q", cfg.FailurePolicy)
	}

	cfg.FromEmail = strings.TrimSpace(os.Getenv("FROM_EMAIL"))
	cfg.EmailSender = strings.ToLower(getEnv("EMAIL_SENDER", SenderSES))

	cfg.AWSRegion = getEnv("AWS_REGION", "")
	cfg.AWSAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AWSSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.SESEndpoint = strings.TrimRight(getEnv("SES_ENDPOINT", ""), "/")

	cfg.SMTPHost = getEnv("SMTP_HOST", "")
	cfg.SMTPPort = getInt("SMTP_PORT", 587)
	cfg.SMTPUsername = getEnv("SMTP_USERNAME", "")
	cfg.SMTPPassword = getEnv("SMTP_PASSWORD", "")
	cfg.SMTPTimeout = getDuration("SMTP_TIMEOUT", 10*time.Second)
	cfg.SMTPInsecure = getBool("SMTP_INSECURE", false)

	cfg.RabbitURL = getEnv("RABBIT_URL", "")
	cfg.RabbitExchange = getEnv("RABBIT_EXCHANGE", "city.events")
	cfg.RabbitRoutingKey = getEnv("RABBIT_ROUTING_KEY", "email.webhook")

	cfg.FakeFailMode = strings.ToLower(getEnv("FAKE_FAIL_MODE", "none"))

	// The sender is only needed when the dispatch notifier is active.
	if cfg.Notifier == NotifierDispatch {
		if cfg.FromEmail == "" {
			return nil, fmt.Errorf("missing required env var: FROM_EMAIL")
		}
		switch cfg.EmailSender {
		case SenderSES, SenderFake:
		case SenderSMTP:
			if cfg.SMTPHost == "" {
				return nil, fmt.Errorf("smtp sender selected but missing SMTP_HOST")
			}
		case SenderRabbitMQ:
			if cfg.RabbitURL == "" {
				return nil, fmt.Errorf("rabbitmq sender selected but missing RABBIT_URL")
			}
		default:
			return nil, fmt.Errorf("unsupported EMAIL_SENDER: %q", cfg.EmailSender)
		}
	}

	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	cfg.HTTPMaxBodyBytes = getInt("HTTP_MAX_BODY_BYTES", 1<<20)

	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.RedisDB = getInt("REDIS_DB", 0)

	cfg.RLEnabled = getBool("RL_ENABLED", false)
	cfg.RLIPLimit = getInt("RL_IP_LIMIT", 30)
	cfg.RLIPWindow = getDuration("RL_IP_WINDOW", 1*time.Minute)

	if strings.Contains(cfg.RedisAddr, " ") {
		return nil, fmt.Errorf("bad REDIS_ADDR (contains spaces): %q", cfg.RedisAddr)
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvFirst(keys []string, def string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return def
}

func getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n := def
	_, _ = fmt.Sscanf(v, "%d", &n)
	if n < 0 {
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getBool(key string, def bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}
