package irceline_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/breatheroute/irceline/internal/airquality/irceline"
)

var testNow = time.Date(2024, 6, 15, 16, 55, 0, 0, time.UTC)

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func testConfig(baseURL string) irceline.ClientConfig {
	return irceline.ClientConfig{
		BaseURL:    baseURL,
		HTTPClient: http.DefaultClient,
		Logger:     zerolog.Nop(),
		Now:        func() time.Time { return testNow },
	}
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}
