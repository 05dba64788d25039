package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/ekaya-inc/orderdesk/pkg/integrity"
)

func TestParseID(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name       string
		pathValue  string
		wantOK     bool
		wantID     int64
		wantStatus int
	}{
		{name: "valid id", pathValue: "42", wantOK: true, wantID: 42},
		{name: "not a number", pathValue: "abc", wantStatus: http.StatusBadRequest},
		{name: "zero", pathValue: "0", wantStatus: http.StatusBadRequest},
		{name: "negative", pathValue: "-3", wantStatus: http.StatusBadRequest},
		{name: "empty", pathValue: "", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.SetPathValue("id", tt.pathValue)
			rec := httptest.NewRecorder()

			id, ok := ParseID(rec, req, logger)

			if ok != tt.wantOK {
				t.Errorf("ParseID() ok = %v, want %v", ok, tt.wantOK)
			}
			if id != tt.wantID {
				t.Errorf("ParseID() id = %d, want %d", id, tt.wantID)
			}
			if !tt.wantOK {
				if rec.Code != tt.wantStatus {
					t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
				}
				var body map[string]string
				if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
					t.Fatalf("failed to decode error body: %v", err)
				}
				if body["error"] != "invalid_id" {
					t.Errorf("error = %q, want invalid_id", body["error"])
				}
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		pathValue string
		want      integrity.Kind
		wantOK    bool
	}{
		{"country", integrity.KindCountry, true},
		{"countries", integrity.KindCountry, true},
		{"Order_Items", integrity.KindOrderItem, true},
		{"widgets", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.pathValue, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.SetPathValue("kind", tt.pathValue)
			rec := httptest.NewRecorder()

			kind, ok := ParseKind(rec, req, zap.NewNop())

			if ok != tt.wantOK || kind != tt.want {
				t.Errorf("ParseKind(%q) = %q, %v; want %q, %v", tt.pathValue, kind, ok, tt.want, tt.wantOK)
			}
			if !ok && rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}
