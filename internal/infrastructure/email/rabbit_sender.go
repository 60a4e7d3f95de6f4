package email

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/webhook-service/internal/contracts"
)

const messageTypeWebhookEmail = "email.webhook"

// channelPublisher is the subset of *amqp.Channel the sender uses.
type channelPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitConfig struct {
	URL        string
	Exchange   string // topic exchange, e.g. "city.events"
	RoutingKey string // e.g. "email.webhook"
}

// RabbitSender hands the email to a downstream email service by publishing
// it on a topic exchange. A successful publish counts as a successful send.
type RabbitSender struct {
	mu sync.Mutex // amqp channels are not safe for concurrent publish
	ch channelPublisher

	exchange   string
	routingKey string
	lg         zerolog.Logger
}

// DialRabbitSender connects, declares the exchange and returns the sender
// with a cleanup func closing channel and connection.
func DialRabbitSender(cfg RabbitConfig, lg zerolog.Logger) (*RabbitSender, func(), error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("exchange declare (%s): %w", cfg.Exchange, err)
	}

	cleanup := func() {
		_ = ch.Close()
		_ = conn.Close()
	}
	return newRabbitSender(ch, cfg.Exchange, cfg.RoutingKey, lg), cleanup, nil
}

func newRabbitSender(ch channelPublisher, exchange, routingKey string, lg zerolog.Logger) *RabbitSender {
	return &RabbitSender{
		ch:         ch,
		exchange:   exchange,
		routingKey: routingKey,
		lg:         lg.With().Str("component", "rabbit_sender").Logger(),
	}
}

func (s *RabbitSender) Name() string { return "rabbitmq" }

func (s *RabbitSender) Send(ctx context.Context, msg contracts.EmailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return permanent("encode email message", err)
	}

	headers := make(amqp.Table)
	if msg.RequestID != "" {
		headers["X-Request-ID"] = msg.RequestID
		headers["X-Trace-ID"] = msg.RequestID
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         messageTypeWebhookEmail,
		Headers:      headers,
		Body:         body,
	}

	s.mu.Lock()
	err = s.ch.PublishWithContext(ctx, s.exchange, s.routingKey, false, false, pub)
	s.mu.Unlock()
	if err != nil {
		return temporary("rabbitmq publish failed", err)
	}

	s.lg.Info().
		Str("to", msg.To).
		Str("exchange", s.exchange).
		Str("routing_key", s.routingKey).
		Str("message_id", pub.MessageId).
		Msg("email handed off")
	return nil
}
