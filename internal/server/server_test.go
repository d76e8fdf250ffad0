package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"swaraj/internal/handlers"
	"swaraj/internal/transcription"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubModel struct{ loaded bool }

func (s stubModel) Loaded() bool    { return s.loaded }
func (s stubModel) Segmented() bool { return false }
func (s stubModel) Transcribe(context.Context, string, transcription.Options) (*transcription.Result, error) {
	return &transcription.Result{Text: "नमस्ते"}, nil
}

func newTestServer(loaded bool) *echo.Echo {
	m := stubModel{loaded: loaded}
	return New(
		handlers.NewHealthHandler(m, transcription.BackendConformer),
		handlers.NewTranscribeHandler(m, handlers.TranscribeOptions{Language: "hi"}, nil),
		nil,
	)
}

func TestHealthRoute(t *testing.T) {
	e := newTestServer(true)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","model_loaded":true}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	e := newTestServer(true)

	req := httptest.NewRequest(http.MethodOptions, "/transcribe", nil)
	req.Header.Set(echo.HeaderOrigin, "chrome-extension://abc")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestCORSAllowsAnyMethod(t *testing.T) {
	e := newTestServer(true)

	req := httptest.NewRequest(http.MethodOptions, "/transcribe", nil)
	req.Header.Set(echo.HeaderOrigin, "https://example.org")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPut)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowMethods))
}

func TestTranscribeUnloadedIs503(t *testing.T) {
	e := newTestServer(false)

	req := httptest.NewRequest(http.MethodPost, "/transcribe", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRunStopsOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	e := newTestServer(true)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, e, addr, time.Second, nil) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
