package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"crewops/pkg/requestcontext"
)

const requestIDHeader = "X-Request-Id"

// RequestID attaches a correlation id to every request, reusing the
// caller's X-Request-Id header when present. It also pins the request
// time so decision components see one consistent clock per call.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = requestcontext.WithTime(ctx, requestcontext.Now(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
