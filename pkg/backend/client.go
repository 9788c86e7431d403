package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/genagent/agentflow/pkg/document"
	"github.com/genagent/agentflow/pkg/models"
	"github.com/genagent/agentflow/pkg/persistence"
	"github.com/genagent/agentflow/pkg/services"
	"github.com/genagent/agentflow/pkg/tools"
)

const (
	defaultTimeout   = 30 * time.Second
	maxResponseBytes = 8 << 20
)

// problem is the RFC 7807 body the API answers errors with.
type problem struct {
	Type   string   `json:"type"`
	Title  string   `json:"title"`
	Status int      `json:"status"`
	Detail string   `json:"detail"`
	Errors []string `json:"errors"`
}

// Client talks to the agentflow REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.http = client
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) ListWorkflows(ctx context.Context, req services.ListWorkflowsRequest) (*services.ListWorkflowsResponse, error) {
	query := url.Values{}

	if req.Limit > 0 {
		query.Set("limit", strconv.Itoa(req.Limit))
	}

	if req.Offset > 0 {
		query.Set("offset", strconv.Itoa(req.Offset))
	}

	if req.SortBy != "" {
		query.Set("sort_by", req.SortBy)
	}

	if req.SortOrder != "" {
		query.Set("sort_order", req.SortOrder)
	}

	path := "/workflows"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var out services.ListWorkflowsResponse

	err := c.do(ctx, "ListWorkflows", http.MethodGet, path, nil, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) GetWorkflow(ctx context.Context, id string) (*document.Document, error) {
	var out document.Document

	err := c.do(ctx, "GetWorkflow", http.MethodGet, "/workflows/"+url.PathEscape(id), nil, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) CreateWorkflow(ctx context.Context, doc *document.Document) (*document.Document, error) {
	var out document.Document

	err := c.do(ctx, "CreateWorkflow", http.MethodPost, "/workflows", doc, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) UpdateWorkflow(ctx context.Context, id string, doc *document.Document) (*document.Document, error) {
	var out document.Document

	err := c.do(ctx, "UpdateWorkflow", http.MethodPut, "/workflows/"+url.PathEscape(id), doc, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) DeleteWorkflow(ctx context.Context, id string) error {
	return c.do(ctx, "DeleteWorkflow", http.MethodDelete, "/workflows/"+url.PathEscape(id), nil, nil)
}

func (c *Client) TestNode(ctx context.Context, kind string, config json.RawMessage, inputs map[string]any) (*tools.Result, error) {
	body := map[string]any{
		"node_config": config,
		"inputs":      inputs,
	}

	var out tools.Result

	err := c.do(ctx, "TestNode", http.MethodPost, "/tools/"+url.PathEscape(kind)+"/test", body, &out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) GenerateCodeTemplate(ctx context.Context, inputSchema models.NodeSchema) (string, error) {
	var out struct {
		Template string `json:"template"`
	}

	err := c.do(ctx, "GenerateCodeTemplate", http.MethodPost, "/tools/code-template",
		map[string]any{"input_schema": inputSchema}, &out)
	if err != nil {
		return "", err
	}

	return out.Template, nil
}

// do sends in as JSON and decodes a 2xx answer into out. Every failure comes
// back as a *TransportError.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("failed to encode request: %w", err)}
		}

		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Accept", "application/json")

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(op, resp.StatusCode, payload)
	}

	if out == nil || len(payload) == 0 {
		return nil
	}

	err = json.Unmarshal(payload, out)
	if err != nil {
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return nil
}

func responseError(op string, status int, payload []byte) *TransportError {
	transportErr := &TransportError{Op: op, StatusCode: status}

	var p problem
	if json.Unmarshal(payload, &p) == nil && (p.Detail != "" || p.Title != "") {
		transportErr.Detail = p.Detail
		if transportErr.Detail == "" {
			transportErr.Detail = p.Title
		}

		transportErr.Errors = p.Errors
	} else {
		transportErr.Detail = strings.TrimSpace(string(payload))
	}

	switch {
	case status == http.StatusNotFound:
		transportErr.Err = persistence.ErrWorkflowNotFound
	case status >= http.StatusInternalServerError:
		transportErr.Err = ErrServerError
	default:
		transportErr.Err = ErrRejected
	}

	return transportErr
}
