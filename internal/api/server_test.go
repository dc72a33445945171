package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tinkeringguild/logquest-go/internal/index"
	"github.com/tinkeringguild/logquest-go/internal/timers"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(ServerOptions{
		Addr:         ":0",
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		IdleTimeout:  time.Second,
		Index:        index.New(),
		Timers:       timers.New(context.Background()),
		Version:      "test",
		StartTime:    time.Now(),
		Log:          zerolog.Nop(),
	})
}

func TestServerRoutesRespond(t *testing.T) {
	srv := testServer(t)
	ts := httptest.NewServer(srv.http.Handler)
	defer ts.Close()

	for _, path := range []string{"/healthz", "/triggers", "/timers", "/metrics"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		resp.Body.Close()
	}
}
