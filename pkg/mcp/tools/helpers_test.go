package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"
)

func TestTrimString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"whitespace only", "   ", ""},
		{"leading whitespace", "  test", "test"},
		{"trailing whitespace", "test  ", "test"},
		{"both sides whitespace", "  test  ", "test"},
		{"tabs", "\ttest\t", "test"},
		{"newlines", "\ntest\n", "test"},
		{"mixed whitespace", " \t\ntest\n\t ", "test"},
		{"no whitespace", "test", "test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := trimString(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func requestWith(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func TestRequireID(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		want    int64
		wantErr bool
	}{
		{"positive integer", map[string]any{"id": float64(12)}, 12, false},
		{"missing", map[string]any{}, 0, true},
		{"string", map[string]any{"id": "12"}, 0, true},
		{"zero", map[string]any{"id": float64(0)}, 0, true},
		{"negative", map[string]any{"id": float64(-3)}, 0, true},
		{"fractional", map[string]any{"id": 1.5}, 0, true},
		{"no arguments", nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, errResult := requireID(requestWith(tt.args), "id")
			if tt.wantErr {
				require.NotNil(t, errResult)
				assert.True(t, errResult.IsError)
				return
			}
			require.Nil(t, errResult)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestJSONResult(t *testing.T) {
	result, err := jsonResult(map[string]int{"count": 3})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.JSONEq(t, `{"count":3}`, text.Text)
	assert.False(t, result.IsError)

	_, err = jsonResult(make(chan int))
	assert.Error(t, err)
}
