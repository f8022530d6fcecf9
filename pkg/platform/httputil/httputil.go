// Package httputil centralizes JSON encoding and domain error translation
// for HTTP handlers, so every endpoint returns the same error envelope.
package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "crewops/pkg/domain-errors"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// errorResponse is the JSON error envelope. Descriptions are omitted for
// internal errors so implementation detail never leaks to clients.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the standard envelope.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	WriteJSON(w, dErrors.ToHTTPStatus(code), errorResponse{
		Error:            string(code),
		ErrorDescription: dErrors.MessageOf(err),
	})
}

// Validator is implemented by request types that check their own fields
// after decoding.
type Validator interface {
	Validate() error
}

// DecodeAndPrepare decodes the request body into T, runs validation when T
// implements Validator, and writes the error response itself on failure.
// The boolean result tells the handler whether to continue.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (T, bool) {
	var req T
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "failed to decode request body",
				"request_id", requestID,
				"error", err,
			)
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return req, false
	}
	if validator, ok := any(req).(Validator); ok {
		if err := validator.Validate(); err != nil {
			WriteError(w, err)
			return req, false
		}
	}
	return req, true
}
