package email

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/real-time-ressys/services/webhook-service/internal/contracts"
)

type fakeSES struct {
	mu    sync.Mutex
	calls int
	last  *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func testMessage() contracts.EmailMessage {
	return contracts.EmailMessage{
		From:    "noreply@example.com",
		To:      "a@b.com",
		Subject: "SES Test Email",
		HTML:    "<h1>SES Test Email</h1><p>This email was sent from Rust!</p>",
	}
}

func TestSESSender_Send_BuildsInput(t *testing.T) {
	api := &fakeSES{}
	s := newSESSender(api, zerolog.Nop())

	require.NoError(t, s.Send(context.Background(), testMessage()))
	require.Equal(t, 1, api.calls)

	in := api.last
	assert.Equal(t, "noreply@example.com", aws.ToString(in.FromEmailAddress))
	assert.Equal(t, []string{"a@b.com"}, in.Destination.ToAddresses)
	assert.Empty(t, in.Destination.CcAddresses)
	require.NotNil(t, in.Content.Simple)
	assert.Equal(t, "SES Test Email", aws.ToString(in.Content.Simple.Subject.Data))
	assert.Equal(t, "UTF-8", aws.ToString(in.Content.Simple.Subject.Charset))
	assert.Equal(t, "<h1>SES Test Email</h1><p>This email was sent from Rust!</p>", aws.ToString(in.Content.Simple.Body.Html.Data))
	assert.Nil(t, in.Content.Simple.Body.Text)
}

func TestSESSender_Send_Errors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		permanent bool
	}{
		{"message rejected", &types.MessageRejected{Message: aws.String("bad address")}, true},
		{"sending paused", &types.SendingPausedException{Message: aws.String("paused")}, true},
		{"throttled", &types.TooManyRequestsException{Message: aws.String("slow down")}, false},
		{"generic api error", &smithy.GenericAPIError{Code: "InternalFailure", Message: "oops"}, false},
		{"network", errors.New("dial tcp: i/o timeout"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSESSender(&fakeSES{err: tt.err}, zerolog.Nop())

			err := s.Send(context.Background(), testMessage())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.err), "cause must stay reachable")

			var pe PermanentError
			var te TemporaryError
			if tt.permanent {
				assert.True(t, errors.As(err, &pe))
			} else {
				assert.True(t, errors.As(err, &te))
			}
		})
	}
}

func TestSESSender_Name(t *testing.T) {
	assert.Equal(t, "ses", newSESSender(&fakeSES{}, zerolog.Nop()).Name())
}
