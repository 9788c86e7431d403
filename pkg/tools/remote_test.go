package tools_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/genagent/agentflow/pkg/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemote_Execute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tools/python/test", r.URL.Path)

		var payload map[string]any

		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, map[string]any{"code": "def main(params): pass"}, payload["node_config"])
		assert.Equal(t, map[string]any{"query": "hi"}, payload["inputs"])

		_, _ = w.Write([]byte(`{"status":200,"data":{"result":"hi"}}`))
	}))
	defer server.Close()

	result, err := tools.NewRemote(server.URL+"/", nil).Execute(context.Background(), tools.Request{
		Kind:   tools.KindPython,
		Config: json.RawMessage(`{"code":"def main(params): pass"}`),
		Inputs: map[string]any{"query": "hi"},
	})
	require.NoError(t, err)

	assert.Equal(t, 200, result.Status)
	assert.Equal(t, map[string]any{"result": "hi"}, result.Data)
}

func TestRemote_Execute_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "timed out after 5s", http.StatusGatewayTimeout)
	}))
	defer server.Close()

	_, err := tools.NewRemote(server.URL, nil).Execute(context.Background(), tools.Request{Kind: tools.KindPython})
	require.ErrorIs(t, err, tools.ErrHTTPServerError)
	assert.Contains(t, err.Error(), "timed out after 5s")
}

func TestRemote_Execute_NotConfigured(t *testing.T) {
	_, err := tools.NewRemote("", nil).Execute(context.Background(), tools.Request{Kind: tools.KindSlack})
	require.ErrorIs(t, err, tools.ErrExecutorNotConfigured)
}

func TestRemote_Execute_ResponseTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", int(tools.DefaultMaxResponseSize)+1)))
	}))
	defer server.Close()

	_, err := tools.NewRemote(server.URL, nil).Execute(context.Background(), tools.Request{Kind: tools.KindPython})
	require.ErrorIs(t, err, tools.ErrResponseTooLarge)
}
