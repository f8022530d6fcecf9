package httputil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "crewops/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("bad request includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid input"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "bad_request" {
			t.Fatalf("expected error code bad_request, got %q", body["error"])
		}
		if body["error_description"] != "invalid input" {
			t.Fatalf("expected error_description to be returned for bad request")
		}
	})

	t.Run("workflow codes map to HTTP statuses", func(t *testing.T) {
		cases := []struct {
			code dErrors.Code
			want int
		}{
			{dErrors.CodeInvalidTransition, http.StatusConflict},
			{dErrors.CodeUnauthorizedActor, http.StatusForbidden},
			{dErrors.CodeMissingSimulation, http.StatusConflict},
			{dErrors.CodeUnavailable, http.StatusBadGateway},
		}
		for _, tc := range cases {
			w := httptest.NewRecorder()
			WriteError(w, dErrors.New(tc.code, "reason"))
			if w.Code != tc.want {
				t.Fatalf("code %s: expected status %d, got %d", tc.code, tc.want, w.Code)
			}
		}
	})
}

func TestDecodeAndPrepare(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("decodes valid body", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", jsonBody(`{"name":"ok"}`))

		req, ok := DecodeAndPrepare[payload](w, r, nil, r.Context(), "")
		if !ok {
			t.Fatalf("expected decode to succeed, response: %s", w.Body.String())
		}
		if req.Name != "ok" {
			t.Fatalf("expected name ok, got %q", req.Name)
		}
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", jsonBody(`{"name":"ok","extra":1}`))

		_, ok := DecodeAndPrepare[payload](w, r, nil, r.Context(), "")
		if ok {
			t.Fatal("expected decode to fail on unknown field")
		}
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", jsonBody(`{"name":`))

		_, ok := DecodeAndPrepare[payload](w, r, nil, r.Context(), "")
		if ok {
			t.Fatal("expected decode to fail on malformed JSON")
		}
	})
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}
