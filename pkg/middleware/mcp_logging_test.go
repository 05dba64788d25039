package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func serveMCP(t *testing.T, logger *zap.Logger, reqBody, respBody string) *httptest.ResponseRecorder {
	t.Helper()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(respBody))
	})

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(reqBody))
	req = req.WithContext(WithRequestID(req.Context(), "req-1"))
	rec := httptest.NewRecorder()
	MCPRequestLogger(logger)(handler).ServeHTTP(rec, req)
	return rec
}

func TestMCPRequestLogger(t *testing.T) {
	callCities := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"cities_of","arguments":{"country_id":7}}}`

	t.Run("logs successful tool call", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)

		rec := serveMCP(t, zap.New(core), callCities,
			`{"jsonrpc":"2.0","id":1,"result":{"content":[{"type":"text","text":"[]"}]}}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, 2, logs.Len())

		request := logs.All()[0]
		assert.Equal(t, "MCP request", request.Message)
		assert.Equal(t, "tools/call", request.ContextMap()["method"])
		assert.Equal(t, "cities_of", request.ContextMap()["tool"])
		assert.Equal(t, "req-1", request.ContextMap()["request_id"])

		response := logs.All()[1]
		assert.Equal(t, "MCP response success", response.Message)
		assert.Equal(t, "cities_of", response.ContextMap()["tool"])
		assert.NotNil(t, response.ContextMap()["duration"])
	})

	t.Run("logs JSON-RPC error", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)

		serveMCP(t, zap.New(core), callCities,
			`{"jsonrpc":"2.0","id":1,"error":{"code":-32603,"message":"database unavailable"}}`)

		require.Equal(t, 2, logs.Len())
		response := logs.All()[1]
		assert.Equal(t, "MCP response error", response.Message)
		assert.Equal(t, int64(-32603), response.ContextMap()["error_code"])
		assert.Equal(t, "database unavailable", response.ContextMap()["error_message"])
	})

	t.Run("logs tool error result", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)

		serveMCP(t, zap.New(core), callCities,
			`{"jsonrpc":"2.0","id":1,"result":{"isError":true,"content":[{"type":"text","text":"{\"error\":true}"}]}}`)

		require.Equal(t, 2, logs.Len())
		assert.Equal(t, "MCP tool error result", logs.All()[1].Message)
	})

	t.Run("unparseable response logs request only", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)

		serveMCP(t, zap.New(core), callCities, "event: message\n")

		messages := make([]string, 0, logs.Len())
		for _, e := range logs.All() {
			messages = append(messages, e.Message)
		}
		assert.Contains(t, messages, "MCP request")
		assert.NotContains(t, messages, "MCP response success")
	})

	t.Run("nil logger passes through", func(t *testing.T) {
		rec := serveMCP(t, nil, callCities, `{"ok":true}`)
		assert.Equal(t, `{"ok":true}`, rec.Body.String())
	})

	t.Run("body is readable downstream", func(t *testing.T) {
		var body bytes.Buffer
		downstream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = body.ReadFrom(r.Body)
		})

		req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(callCities))
		MCPRequestLogger(zap.NewNop())(downstream).ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, callCities, body.String())
	})
}

func TestSanitizeArguments(t *testing.T) {
	t.Run("redacts sensitive keywords", func(t *testing.T) {
		result := sanitizeArguments(map[string]any{
			"password":     "secret",
			"api_key":      "abc123",
			"access_token": "xyz789",
			"Credential":   "cred123",
			"country_id":   float64(7),
		})

		assert.Equal(t, "[REDACTED]", result["password"])
		assert.Equal(t, "[REDACTED]", result["api_key"])
		assert.Equal(t, "[REDACTED]", result["access_token"])
		assert.Equal(t, "[REDACTED]", result["Credential"])
		assert.Equal(t, float64(7), result["country_id"])
	})

	t.Run("truncates long strings", func(t *testing.T) {
		result := sanitizeArguments(map[string]any{
			"kind":  strings.Repeat("x", 250),
			"short": "abc",
		})

		truncated := result["kind"].(string)
		assert.Len(t, truncated, maxLoggedArgument+3)
		assert.True(t, strings.HasSuffix(truncated, "..."))
		assert.Equal(t, "abc", result["short"])
	})

	t.Run("nil and empty", func(t *testing.T) {
		assert.Nil(t, sanitizeArguments(nil))
		assert.Empty(t, sanitizeArguments(map[string]any{}))
	})
}
