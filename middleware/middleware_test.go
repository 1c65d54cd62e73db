package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/deep-rent/components/component"
	"github.com/deep-rent/components/internal/config"
	"github.com/deep-rent/components/internal/server"
	"github.com/deep-rent/components/log"
	mw "github.com/deep-rent/components/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexID = regexp.MustCompile(`^[0-9a-f]{32}$`)

// brokenCounter fails loudly on every visit.
type brokenCounter struct{}

func (brokenCounter) Increment(context.Context, string) (int64, error) {
	panic("counter offline")
}

func (brokenCounter) Count(context.Context, string) (int64, error) {
	return 0, errors.New("counter offline")
}

func debugLogger(buf *bytes.Buffer) *slog.Logger {
	return log.New(log.WithLevel(slog.LevelDebug), log.WithWriter(buf))
}

// site composes the sample application and returns its router once every
// page has been mounted. Records of the request pipes end up in the buffer.
func site(t *testing.T) (chi.Router, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cfg := &config.Config{
		Server: config.Server{
			Addr:              "127.0.0.1:0",
			ReadHeaderTimeout: time.Second,
			ShutdownTimeout:   time.Second,
		},
	}

	c := component.New(component.WithLogger(log.Discard()))
	server.Register(c, cfg, debugLogger(&buf)).Compose()
	t.Cleanup(func() { assert.NoError(t, c.Close()) })

	_ = component.MustGet[*server.Server](c)
	return component.MustGet[chi.Router](c), &buf
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_RequestID(t *testing.T) {
	r, buf := site(t)

	first := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	second := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)

	id1 := first.Header().Get(mw.HeaderRequestID)
	id2 := second.Header().Get(mw.HeaderRequestID)
	assert.Regexp(t, hexID, id1)
	assert.Regexp(t, hexID, id2)
	assert.NotEqual(t, id1, id2)

	out := buf.String()
	assert.Contains(t, out, "id="+id1)
	assert.Contains(t, out, "id="+id2)
	assert.Equal(t, 2, strings.Count(out, `msg="HTTP request handled"`))
}

func TestRouter_RequestIDInContext(t *testing.T) {
	r, _ := site(t)
	r.Get("/whoami", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(mw.GetRequestID(req.Context())))
	})

	rr := serve(r, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, rr.Header().Get(mw.HeaderRequestID), rr.Body.String())
}

func TestRouter_LogVisitsPage(t *testing.T) {
	r, buf := site(t)
	serve(r, httptest.NewRequest(http.MethodGet, "/about", nil))
	buf.Reset()

	req := httptest.NewRequest(http.MethodGet, "/visits?page=/about", nil)
	req.RemoteAddr = "10.0.0.7:40000"
	req.Header.Set("User-Agent", "curl/8.5.0")
	rr := serve(r, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body server.Visits
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, server.Visits{Page: "/about", Visits: 0}, body)

	out := buf.String()
	assert.Contains(t, out, `level=DEBUG msg="HTTP request handled"`)
	assert.Contains(t, out, "method=GET")
	assert.Contains(t, out, `url="/visits?page=/about"`)
	assert.Contains(t, out, "remote=10.0.0.7:40000")
	assert.Contains(t, out, "agent=curl/8.5.0")
	assert.Contains(t, out, "status=200")
	assert.Contains(t, out, "duration=")
}

func TestRouter_LogNotFound(t *testing.T) {
	r, buf := site(t)

	rr := serve(r, httptest.NewRequest(http.MethodPost, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, buf.String(), "method=POST")
	assert.Contains(t, buf.String(), "status=404")
}

func TestRouter_RecoverPage(t *testing.T) {
	var buf bytes.Buffer
	logger := debugLogger(&buf)

	c := component.New(component.WithLogger(log.Discard()))
	component.Supply(c, logger)
	c.Register(server.NewRouter).
		Register(server.NewHomePage).
		Register(func() brokenCounter { return brokenCounter{} }, component.As[server.VisitCounter]()).
		Compose()
	defer c.Close()

	_ = component.MustGet[*server.HomePage](c)
	r := component.MustGet[chi.Router](c)

	rr := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Regexp(t, hexID, rr.Header().Get(mw.HeaderRequestID))

	out := buf.String()
	assert.Contains(t, out, `level=ERROR msg="Panic caught by middleware"`)
	assert.Contains(t, out, `error="counter offline"`)
	assert.Contains(t, out, "url=/")
	assert.Contains(t, out, "stack=")
	assert.NotContains(t, out, "HTTP request handled")
}

func TestRouter_RecoverAbort(t *testing.T) {
	r, buf := site(t)
	r.Get("/abort", func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	})

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		serve(r, httptest.NewRequest(http.MethodGet, "/abort", nil))
	})
	assert.NotContains(t, buf.String(), "Panic caught by middleware")
}

func TestChain(t *testing.T) {
	tag := func(name string) mw.Pipe {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Add("X-Layer", name)
				next.ServeHTTP(w, r)
			})
		}
	}
	final := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name  string
		pipes []mw.Pipe
		want  []string
	}{
		{"none", nil, nil},
		{"outermost first", []mw.Pipe{tag("outer"), tag("inner")}, []string{"outer", "inner"}},
		{"skips nil", []mw.Pipe{nil, tag("only"), nil}, []string{"only"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(mw.Chain(final, tt.pipes...), httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusNoContent, rr.Code)
			assert.Equal(t, tt.want, rr.Header().Values("X-Layer"))
		})
	}
}

func TestGetRequestID_Missing(t *testing.T) {
	assert.Empty(t, mw.GetRequestID(context.Background()))
	assert.Equal(t, "abc", mw.GetRequestID(mw.SetRequestID(context.Background(), "abc")))
}
