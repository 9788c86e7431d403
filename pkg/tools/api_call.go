package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/genagent/agentflow/pkg/models"
	"github.com/genagent/agentflow/pkg/variables"
)

const defaultTimeout = 30 * time.Second

type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

// APICall performs the HTTP request described by an API tool node.
type APICall struct {
	client          *http.Client
	logger          *slog.Logger
	retry           RetryConfig
	maxResponseSize int64
}

type APICallOption func(*APICall)

func WithHTTPClient(client *http.Client) APICallOption {
	return func(a *APICall) {
		a.client = client
	}
}

func WithRetry(retry RetryConfig) APICallOption {
	return func(a *APICall) {
		if retry.Attempts < 1 {
			retry.Attempts = 1
		}

		a.retry = retry
	}
}

// WithMaxResponseSize overrides DefaultMaxResponseSize.
func WithMaxResponseSize(limit int64) APICallOption {
	return func(a *APICall) {
		if limit > 0 {
			a.maxResponseSize = limit
		}
	}
}

func NewAPICall(logger *slog.Logger, opts ...APICallOption) *APICall {
	a := &APICall{
		client: &http.Client{Timeout: defaultTimeout},
		logger: logger.With("module", "api_call_tool"),
		retry:  RetryConfig{Attempts: 1},

		maxResponseSize: DefaultMaxResponseSize,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

func (a *APICall) Execute(ctx context.Context, req Request) (*Result, error) {
	var config models.APIToolData

	err := json.Unmarshal(req.Config, &config)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if strings.TrimSpace(config.Endpoint) == "" {
		return nil, fmt.Errorf("%w: endpoint is required", ErrInvalidConfig)
	}

	values := StringValues(req.Inputs)

	var (
		lastErr error
		resp    *http.Response
	)

	for attempt := 1; attempt <= a.retry.Attempts; attempt++ {
		if attempt > 1 {
			a.logger.InfoContext(ctx, "Retrying API tool call", "attempt", attempt, "attempts", a.retry.Attempts)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(a.retry.Delay):
			}
		}

		httpReq, err := buildRequest(ctx, &config, values)
		if err != nil {
			return nil, err
		}

		resp, err = a.client.Do(httpReq)
		if err != nil {
			lastErr = fmt.Errorf("http request failed: %w", err)
			resp = nil

			continue
		}

		if resp.StatusCode >= 500 && attempt < a.retry.Attempts {
			err = resp.Body.Close()
			if err != nil {
				a.logger.ErrorContext(ctx, "failed to close response body", "error", err)
			}

			lastErr = fmt.Errorf("%w: status %d", ErrHTTPServerError, resp.StatusCode)
			resp = nil

			continue
		}

		break
	}

	if resp == nil {
		return nil, fmt.Errorf("all retry attempts failed, last error: %w", lastErr)
	}

	return a.processResponse(ctx, resp)
}

func buildRequest(ctx context.Context, config *models.APIToolData, values map[string]string) (*http.Request, error) {
	method := strings.ToUpper(strings.TrimSpace(config.Method))
	if method == "" {
		method = http.MethodGet
	}

	target, err := url.Parse(variables.Substitute(config.Endpoint, values))
	if err != nil {
		return nil, fmt.Errorf("%w: endpoint: %w", ErrInvalidConfig, err)
	}

	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("%w: endpoint must be an absolute URL", ErrInvalidConfig)
	}

	if len(config.Parameters) > 0 {
		query := target.Query()
		for key, value := range variables.SubstituteMap(config.Parameters, values) {
			query.Set(key, value)
		}

		target.RawQuery = query.Encode()
	}

	var body io.Reader

	payload := strings.TrimSpace(variables.Substitute(config.RequestBody, values))
	if payload != "" && method != http.MethodGet && method != http.MethodHead {
		body = strings.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}

	for key, value := range variables.SubstituteMap(config.Headers, values) {
		httpReq.Header.Set(key, value)
	}

	if body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	return httpReq, nil
}

func (a *APICall) processResponse(ctx context.Context, resp *http.Response) (*Result, error) {
	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := readBody(resp.Body, a.maxResponseSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var data any

	err = json.Unmarshal(bodyBytes, &data)
	if err != nil {
		data = string(bodyBytes)

		a.logger.DebugContext(ctx, "Response is not JSON, returning as string", "error", err)
	}

	headers := make(map[string]string, len(resp.Header))
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}

	a.logger.InfoContext(ctx, "API tool call completed", "status", resp.StatusCode, "body_length", len(bodyBytes))

	return &Result{
		Status:  resp.StatusCode,
		Data:    data,
		Headers: headers,
	}, nil
}
