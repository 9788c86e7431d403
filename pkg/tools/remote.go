package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Remote forwards test calls to an external tool runner at
// POST {baseURL}/tools/{kind}/test. The runner enforces its own execution
// limits.
type Remote struct {
	baseURL string
	client  *http.Client
}

func NewRemote(baseURL string, client *http.Client) *Remote {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	return &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (r *Remote) Execute(ctx context.Context, req Request) (*Result, error) {
	if r.baseURL == "" {
		return nil, fmt.Errorf("%w: no runner for %s", ErrExecutorNotConfigured, req.Kind)
	}

	payload, err := json.Marshal(map[string]any{
		"node_config": req.Config,
		"inputs":      req.Inputs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.baseURL+"/tools/"+string(req.Kind)+"/test", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create runner request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("runner request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := readBody(resp.Body, DefaultMaxResponseSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read runner response: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: runner returned %d: %s", ErrHTTPServerError, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result Result

	err = json.Unmarshal(body, &result)
	if err != nil {
		return &Result{Status: resp.StatusCode, Data: string(body)}, nil
	}

	if result.Status == 0 {
		result.Status = resp.StatusCode
	}

	return &result, nil
}
