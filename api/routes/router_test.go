package routes

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gasindo/gastrack-backend/pkg/config"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "test"}}
}

func newTestRouter(dbErr error) http.Handler {
	return NewRouter(testConfig(), nil, stubPinger{err: dbErr}, nil, nil, nil, nil, nil, nil)
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 but got %d", w.Code)
	}
	if got := w.Header().Get("X-GasTrack-Env"); got != "test" {
		t.Fatalf("unexpected env header %q", got)
	}
}

func TestHealthReadyReportsDatabaseFailure(t *testing.T) {
	router := newTestRouter(fmt.Errorf("connection refused"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 but got %d", w.Code)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	router := newTestRouter(nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 but got %d", w.Code)
	}
}

func TestAPIRoutesRequireActor(t *testing.T) {
	router := newTestRouter(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without actor header but got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "actor") {
		t.Fatalf("expected actor error, got %s", w.Body.String())
	}
}

func TestPublicTrackingSkipsActor(t *testing.T) {
	router := newTestRouter(nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/public/track/ABCDEF1234", nil))

	// nil service answers 500, not 403: the route is reachable without an actor
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 from nil service but got %d", w.Code)
	}
}
