package core

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"crowdhook/internal/types"
)

// HelloMessage is served on GET /.
const HelloMessage = "Hello, World!"

// defaultRequestTimeout bounds every request, including the outbound Slack
// post. Keep it below the Lambda function timeout.
const defaultRequestTimeout = 29 * time.Second

// maxRequestIDLength caps caller-supplied X-Request-Id values.
const maxRequestIDLength = 128

var defaultRedactedHeaders = []string{
	"Authorization",
	"Cookie",
}

// MountRoutes registers the middleware chain, the built-in routes and every
// RouteRegistrar.
//
// Middleware order:
//  1. Recoverer      - outermost, catches panics from everything below.
//  2. ContextTimeout - request deadline.
//  3. RequestID      - correlation ID for logs and the Slack call.
//  4. RequestLogger  - one structured line per request, tokens redacted.
//
// Request decompression is route-scoped: registrars apply DecompressMiddleware
// after their own authentication.
func (s *Server) MountRoutes() {
	s.router.Use(s.Recoverer)
	s.router.Use(ContextTimeoutMiddleware(defaultRequestTimeout))
	s.router.Use(RequestIDMiddleware)
	s.router.Use(RequestLogger(s.Logger, defaultRedactedHeaders))

	s.router.Get("/", HandleRoot)
	s.router.Get("/health", s.HandleHealth)

	for _, registrar := range s.Registrars {
		registrar(s.router)
	}
}

// HandleRoot answers GET / as a liveness check.
func HandleRoot(w http.ResponseWriter, _ *http.Request) {
	Text(w, http.StatusOK, HelloMessage)
}

// ContextTimeoutMiddleware sets a deadline on the request context.
func ContextTimeoutMiddleware(duration time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), duration)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDMiddleware propagates X-Request-Id or generates a UUID, stores it
// in the context and echoes it on the response.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}

		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r.WithContext(types.WithRequestID(r.Context(), requestID)))
	})
}
