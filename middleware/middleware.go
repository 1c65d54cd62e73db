// Package middleware provides composable HTTP handler decorators.
//
// A Pipe has the same shape as the middleware accepted by chi.Router.Use,
// so pipes can be mounted on a chi router directly or chained manually:
//
//	h := middleware.Chain(mux,
//		middleware.Recover(logger),
//		middleware.RequestID(),
//		middleware.Log(logger),
//	)
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HeaderRequestID is the response header that carries the request ID.
const HeaderRequestID = "X-Request-ID"

// Pipe decorates an http.Handler.
type Pipe func(http.Handler) http.Handler

// Chain wraps h with the given pipes. The first pipe becomes the outermost
// layer and sees the request first. Nil pipes are skipped.
func Chain(h http.Handler, pipes ...Pipe) http.Handler {
	for i := len(pipes) - 1; i >= 0; i-- {
		if pipes[i] != nil {
			h = pipes[i](h)
		}
	}
	return h
}

// Recover turns a panic in a downstream handler into a 500 response and logs
// it together with the stack trace.
func Recover(logger *slog.Logger) Pipe {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error(
						"Panic caught by middleware",
						slog.Any("error", rec),
						slog.String("url", r.URL.String()),
						slog.String("stack", string(debug.Stack())),
					)
					w.WriteHeader(http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

type ctxKey struct{}

// SetRequestID returns a copy of ctx carrying the request ID.
func SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// GetRequestID returns the request ID stored in ctx, or an empty string.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// RequestID assigns a random 32-character hex ID to every request. The ID
// is stored in the request context and echoed in the X-Request-ID header.
func RequestID() Pipe {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.ReplaceAll(uuid.NewString(), "-", "")
			w.Header().Set(HeaderRequestID, id)
			next.ServeHTTP(w, r.WithContext(SetRequestID(r.Context(), id)))
		})
	}
}

// recorder captures the status code written by a handler.
type recorder struct {
	http.ResponseWriter
	status int
}

func (r *recorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *recorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Log writes a debug record for every handled request.
func Log(logger *slog.Logger) Pipe {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &recorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			logger.LogAttrs(r.Context(), slog.LevelDebug, "HTTP request handled",
				slog.String("id", GetRequestID(r.Context())),
				slog.String("method", r.Method),
				slog.String("url", r.URL.String()),
				slog.String("remote", r.RemoteAddr),
				slog.String("agent", r.UserAgent()),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}
