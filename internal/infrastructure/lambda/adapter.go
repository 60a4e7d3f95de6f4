package lambda

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/webhook-service/internal/application/webhook"
	appCtx "github.com/baechuer/real-time-ressys/services/webhook-service/internal/pkg/context"
)

// invalidBody is never valid JSON, so an undecodable base64 body takes the
// malformed-JSON path in the handler.
var invalidBody = []byte{0xff}

// Adapter translates Lambda HTTP events to webhook requests and back. It
// accepts Function URL and API Gateway HTTP API events (payload 2.0), API
// Gateway REST API events (payload 1.0) and ALB target group events, and
// answers each in its own response shape.
type Adapter struct {
	h  *webhook.Handler
	lg zerolog.Logger
}

func NewAdapter(h *webhook.Handler, lg zerolog.Logger) *Adapter {
	return &Adapter{
		h:  h,
		lg: lg.With().Str("component", "lambda_adapter").Logger(),
	}
}

type eventKind int

const (
	kindFunctionURL eventKind = iota
	kindRESTAPI
	kindALB
)

// eventShape holds just enough of an incoming event to tell the sources apart.
type eventShape struct {
	HTTPMethod     string `json:"httpMethod"`
	RequestContext struct {
		ELB json.RawMessage `json:"elb"`
	} `json:"requestContext"`
}

func detect(raw json.RawMessage) (eventKind, error) {
	var shape eventShape
	if err := json.Unmarshal(raw, &shape); err != nil {
		return 0, fmt.Errorf("decode lambda event: %w", err)
	}
	switch {
	case len(shape.RequestContext.ELB) > 0:
		return kindALB, nil
	case shape.HTTPMethod != "":
		return kindRESTAPI, nil
	default:
		return kindFunctionURL, nil
	}
}

// Handle is the function registered with the Lambda runtime. A returned
// error is reported by the runtime as an invocation failure.
func (a *Adapter) Handle(ctx context.Context, raw json.RawMessage) (any, error) {
	kind, err := detect(raw)
	if err != nil {
		return nil, err
	}

	switch kind {
	case kindALB:
		var ev events.ALBTargetGroupRequest
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode alb event: %w", err)
		}
		resp, err := a.HandleALB(ctx, ev)
		if err != nil {
			return nil, err
		}
		return resp, nil
	case kindRESTAPI:
		var ev events.APIGatewayProxyRequest
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode api gateway event: %w", err)
		}
		resp, err := a.HandleAPIGateway(ctx, ev)
		if err != nil {
			return nil, err
		}
		return resp, nil
	default:
		var ev events.LambdaFunctionURLRequest
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("decode function url event: %w", err)
		}
		resp, err := a.HandleFunctionURL(ctx, ev)
		if err != nil {
			return nil, err
		}
		return resp, nil
	}
}

func (a *Adapter) HandleFunctionURL(ctx context.Context, ev events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	resp, err := a.serve(ctx, ev.RequestContext.HTTP.Method, ev.Body, ev.IsBase64Encoded, ev.RequestContext.RequestID)
	if err != nil {
		return events.LambdaFunctionURLResponse{}, err
	}
	return events.LambdaFunctionURLResponse{
		StatusCode: resp.StatusCode,
		Headers:    singleHeaders(resp),
		Body:       resp.Body,
	}, nil
}

func (a *Adapter) HandleAPIGateway(ctx context.Context, ev events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	resp, err := a.serve(ctx, ev.HTTPMethod, ev.Body, ev.IsBase64Encoded, ev.RequestContext.RequestID)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    singleHeaders(resp),
		Body:       resp.Body,
	}, nil
}

// HandleALB answers with multi-value headers when the target group has them
// enabled; the load balancer rejects the other form in that mode.
func (a *Adapter) HandleALB(ctx context.Context, ev events.ALBTargetGroupRequest) (events.ALBTargetGroupResponse, error) {
	requestID := ev.Headers["x-amzn-trace-id"]
	if v := ev.MultiValueHeaders["x-amzn-trace-id"]; len(v) > 0 {
		requestID = v[0]
	}

	resp, err := a.serve(ctx, ev.HTTPMethod, ev.Body, ev.IsBase64Encoded, requestID)
	if err != nil {
		return events.ALBTargetGroupResponse{}, err
	}

	out := events.ALBTargetGroupResponse{
		StatusCode:        resp.StatusCode,
		StatusDescription: fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		Body:              resp.Body,
	}
	if ev.MultiValueHeaders != nil {
		out.MultiValueHeaders = map[string][]string{}
		if resp.ContentType != "" {
			out.MultiValueHeaders["content-type"] = []string{resp.ContentType}
		}
	} else {
		out.Headers = singleHeaders(resp)
	}
	return out, nil
}

func (a *Adapter) serve(ctx context.Context, method, body string, isBase64 bool, requestID string) (webhook.Response, error) {
	req := webhook.Request{
		Method:    method,
		Body:      []byte(body),
		RequestID: requestID,
	}
	if isBase64 {
		b, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			a.lg.Warn().Err(err).Str("request_id", requestID).Msg("undecodable base64 body")
			b = invalidBody
		}
		req.Body = b
	}
	if requestID != "" {
		ctx = appCtx.WithRequestID(ctx, requestID)
	}
	return a.h.Handle(ctx, req)
}

func singleHeaders(resp webhook.Response) map[string]string {
	if resp.ContentType == "" {
		return nil
	}
	return map[string]string{"content-type": resp.ContentType}
}

// ErrNoRuntimeAPI is returned by Start outside a Lambda execution environment.
var ErrNoRuntimeAPI = errors.New("AWS_LAMBDA_RUNTIME_API is not set; not running inside lambda")

// Runtime runs the adapter under the Lambda runtime loop.
type Runtime struct {
	adapter *Adapter
	lg      zerolog.Logger
}

func NewRuntime(adapter *Adapter, lg zerolog.Logger) *Runtime {
	return &Runtime{adapter: adapter, lg: lg.With().Str("component", "lambda_runtime").Logger()}
}

// Start blocks for the life of the process; the runtime API owns the loop.
// The library exits the process through the standard log package if it
// loses the runtime API, so deferred cleanup does not run in that case.
func (r *Runtime) Start(ctx context.Context) error {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") == "" {
		return ErrNoRuntimeAPI
	}
	r.lg.Info().Msg("starting lambda runtime loop")
	awslambda.StartWithOptions(r.adapter.Handle, awslambda.WithContext(ctx))
	return nil
}

// Stop is a no-op: the platform freezes or kills the process.
func (r *Runtime) Stop(ctx context.Context) error {
	return nil
}
