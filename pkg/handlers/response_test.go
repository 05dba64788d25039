package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/ekaya-inc/orderdesk/pkg/apperrors"
)

func TestErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()

	if err := ErrorResponse(w, http.StatusBadRequest, "bad_request", "invalid input"); err != nil {
		t.Fatalf("ErrorResponse returned error: %v", err)
	}

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status code = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if body["error"] != "bad_request" || body["message"] != "invalid input" {
		t.Errorf("body = %v", body)
	}
	if _, ok := body["field"]; ok {
		t.Error("field should be omitted when empty")
	}
}

func TestWriteJSON_StatusHandling(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusCreated} {
		w := httptest.NewRecorder()
		if err := WriteJSON(w, status, map[string]int{"count": 5}); err != nil {
			t.Fatalf("WriteJSON returned error: %v", err)
		}
		if w.Code != status {
			t.Errorf("status code = %d, want %d", w.Code, status)
		}
	}
}

func TestWriteJSON_UnencodableData(t *testing.T) {
	w := httptest.NewRecorder()

	if err := WriteJSON(w, http.StatusOK, make(chan int)); err == nil {
		t.Error("expected error for unencodable data, got nil")
	}
}

func TestClassify_WrappedErrors(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{fmt.Errorf("create city: %w", apperrors.NewValidationError("name", "is required")), http.StatusBadRequest, "validation_error"},
		{fmt.Errorf("get: %w", apperrors.ErrNotFound), http.StatusNotFound, "not_found"},
		{fmt.Errorf("delete: %w", apperrors.ErrConflict), http.StatusConflict, "conflict"},
		{fmt.Errorf("connect: %w", apperrors.ErrUnavailable), http.StatusServiceUnavailable, "unavailable"},
	}

	for _, tt := range tests {
		status, body := classify(tt.err)
		if status != tt.wantStatus || body.Error != tt.wantCode {
			t.Errorf("classify(%v) = %d %q, want %d %q", tt.err, status, body.Error, tt.wantStatus, tt.wantCode)
		}
	}
}

func TestDecodeBody_RejectsOversizedBody(t *testing.T) {
	payload := `{"name":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/countries", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	var dst map[string]string
	if decodeBody(rec, req, &dst, zap.NewNop()) {
		t.Fatal("expected oversized body to be rejected")
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
