package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/webhook-service/internal/contracts"
)

const charsetUTF8 = "UTF-8"

// sesAPI is the subset of *sesv2.Client the sender uses.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type SESConfig struct {
	Region          string // empty -> SDK default chain
	AccessKeyID     string // empty -> SDK default chain
	SecretAccessKey string
	Endpoint        string // e.g. localstack "http://localhost:4566"
}

// SESSender sends through the AWS SES v2 SendEmail API.
type SESSender struct {
	client sesAPI
	lg     zerolog.Logger
}

// NewSESSender loads the AWS config once. The returned sender is meant to be
// built at startup and shared by all invocations.
func NewSESSender(ctx context.Context, cfg SESConfig, lg zerolog.Logger) (*SESSender, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := sesv2.NewFromConfig(awsCfg, func(o *sesv2.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	s := newSESSender(client, lg)
	s.lg.Info().Str("region", awsCfg.Region).Str("endpoint", cfg.Endpoint).Msg("ses sender ready")
	return s, nil
}

func newSESSender(client sesAPI, lg zerolog.Logger) *SESSender {
	return &SESSender{
		client: client,
		lg:     lg.With().Str("component", "ses_sender").Logger(),
	}
}

func (s *SESSender) Name() string { return "ses" }

func (s *SESSender) Send(ctx context.Context, msg contracts.EmailMessage) error {
	out, err := s.client.SendEmail(ctx, buildSendEmailInput(msg))
	if err != nil {
		return classifySESError(err)
	}

	s.lg.Debug().Str("to", msg.To).Str("message_id", aws.ToString(out.MessageId)).Msg("ses send ok")
	return nil
}

func buildSendEmailInput(msg contracts.EmailMessage) *sesv2.SendEmailInput {
	return &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(msg.Subject),
					Charset: aws.String(charsetUTF8),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(msg.HTML),
						Charset: aws.String(charsetUTF8),
					},
				},
			},
		},
	}
}

func classifySESError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "MessageRejected",
			"MailFromDomainNotVerifiedException",
			"AccountSuspendedException",
			"SendingPausedException",
			"BadRequestException",
			"NotFoundException":
			return permanent("ses send rejected ("+apiErr.ErrorCode()+")", err)
		}
		return temporary("ses send failed ("+apiErr.ErrorCode()+")", err)
	}
	return temporary("ses send failed", err)
}
