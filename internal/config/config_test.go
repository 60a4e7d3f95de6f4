package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"APP_ENV", "ENV", "WEBHOOK_RUNTIME", "WEBHOOK_NOTIFIER", "SEND_FAILURE_POLICY",
	"SHUTDOWN_WAIT", "FROM_EMAIL", "EMAIL_SENDER", "AWS_REGION", "AWS_ACCESS_KEY_ID",
	"AWS_SECRET_ACCESS_KEY", "SES_ENDPOINT", "SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME",
	"SMTP_PASSWORD", "SMTP_TIMEOUT", "SMTP_INSECURE", "RABBIT_URL", "RABBIT_EXCHANGE",
	"RABBIT_ROUTING_KEY", "FAKE_FAIL_MODE", "HTTP_ADDR", "HTTP_MAX_BODY_BYTES",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "RL_ENABLED", "RL_IP_LIMIT", "RL_IP_WINDOW",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_DispatchRequiresFromEmail(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "FROM_EMAIL")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("FROM_EMAIL", "noreply@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, RuntimeLambda, cfg.Runtime)
	assert.Equal(t, NotifierDispatch, cfg.Notifier)
	assert.Equal(t, PolicyPropagate, cfg.FailurePolicy)
	assert.Equal(t, SenderSES, cfg.EmailSender)
	assert.Equal(t, "noreply@example.com", cfg.FromEmail)
	assert.Equal(t, 10*time.Second, cfg.ShutdownWait)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 1<<20, cfg.HTTPMaxBodyBytes)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, "city.events", cfg.RabbitExchange)
	assert.Equal(t, "email.webhook", cfg.RabbitRoutingKey)
	assert.False(t, cfg.RLEnabled)
	assert.Equal(t, 30, cfg.RLIPLimit)
	assert.Equal(t, time.Minute, cfg.RLIPWindow)
}

func TestLoad_EchoDoesNotNeedFromEmail(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEBHOOK_NOTIFIER", "echo")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, NotifierEcho, cfg.Notifier)
	assert.Empty(t, cfg.FromEmail)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "bad runtime",
			env:     map[string]string{"WEBHOOK_RUNTIME": "k8s", "FROM_EMAIL": "a@b.com"},
			wantErr: "WEBHOOK_RUNTIME",
		},
		{
			name:    "bad notifier",
			env:     map[string]string{"WEBHOOK_NOTIFIER": "carrier-pigeon"},
			wantErr: "WEBHOOK_NOTIFIER",
		},
		{
			name:    "bad policy",
			env:     map[string]string{"SEND_FAILURE_POLICY": "ignore", "FROM_EMAIL": "a@b.com"},
			wantErr: "SEND_FAILURE_POLICY",
		},
		{
			name:    "smtp without host",
			env:     map[string]string{"EMAIL_SENDER": "smtp", "FROM_EMAIL": "a@b.com"},
			wantErr: "SMTP_HOST",
		},
		{
			name:    "rabbitmq without url",
			env:     map[string]string{"EMAIL_SENDER": "rabbitmq", "FROM_EMAIL": "a@b.com"},
			wantErr: "RABBIT_URL",
		},
		{
			name:    "unknown sender",
			env:     map[string]string{"EMAIL_SENDER": "fax", "FROM_EMAIL": "a@b.com"},
			wantErr: "EMAIL_SENDER",
		},
		{
			name:    "redis addr with spaces",
			env:     map[string]string{"REDIS_ADDR": "localhost:6379 OTHER=1", "FROM_EMAIL": "a@b.com"},
			wantErr: "REDIS_ADDR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEBHOOK_RUNTIME", "HTTP")
	t.Setenv("SEND_FAILURE_POLICY", "respond")
	t.Setenv("FROM_EMAIL", "noreply@example.com")
	t.Setenv("EMAIL_SENDER", "smtp")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("SMTP_INSECURE", "yes")
	t.Setenv("RL_ENABLED", "true")
	t.Setenv("RL_IP_WINDOW", "30s")
	t.Setenv("SES_ENDPOINT", "http://localhost:4566/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, RuntimeHTTP, cfg.Runtime)
	assert.Equal(t, PolicyRespond, cfg.FailurePolicy)
	assert.Equal(t, "smtp.example.com", cfg.SMTPHost)
	assert.Equal(t, 2525, cfg.SMTPPort)
	assert.True(t, cfg.SMTPInsecure)
	assert.True(t, cfg.RLEnabled)
	assert.Equal(t, 30*time.Second, cfg.RLIPWindow)
	assert.Equal(t, "http://localhost:4566", cfg.SESEndpoint)
}

func TestGetHelpers_FallBackOnGarbage(t *testing.T) {
	t.Setenv("X_INT", "abc")
	t.Setenv("X_DUR", "soon")
	t.Setenv("X_BOOL", "maybe")

	assert.Equal(t, 7, getInt("X_INT", 7))
	assert.Equal(t, time.Second, getDuration("X_DUR", time.Second))
	assert.True(t, getBool("X_BOOL", true))
}
