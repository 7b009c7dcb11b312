package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flowscape/flowscape/backend/internal/domain/blocker"
	"github.com/flowscape/flowscape/backend/internal/domain/blocklist"
	"github.com/flowscape/flowscape/backend/internal/domain/lifecycle"
	"github.com/flowscape/flowscape/backend/internal/domain/state"
	"github.com/flowscape/flowscape/backend/internal/engine/enginetest"
	"github.com/flowscape/flowscape/backend/internal/infrastructure/monitoring"
	"github.com/flowscape/flowscape/backend/internal/shared/types"
)

// promauto uses the global registry, so the test binary shares one collector.
var testMetrics = monitoring.NewMetrics()

type nopEmitter struct{}

func (nopEmitter) Emit(types.UIEvent) {}

func newTestRouter(t *testing.T) (*gin.Engine, *lifecycle.Controller) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	set := blocklist.NewRuleSet()
	set.Add("ads.example.com")
	controller := lifecycle.New(
		enginetest.NewEngine(),
		blocker.New(set, logger),
		state.NewCapturer(logger),
		state.NewRestorer(logger),
		nopEmitter{},
		lifecycle.Config{},
		logger,
	)
	t.Cleanup(func() { _ = controller.Close() })

	handlers := NewHandlers(controller, testMetrics, "test")
	router := gin.New()
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/views", handlers.ListViews)
	router.GET("/blocker", handlers.BlockerStatus)
	router.POST("/blocker/toggle", handlers.ToggleBlocker)
	router.GET("/metrics/json", handlers.MetricsJSON)
	return router, controller
}

func get(t *testing.T, router *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	w, body := get(t, router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(1), body["blocklist_rules"])
}

func TestRoot(t *testing.T) {
	router, _ := newTestRouter(t)

	w, body := get(t, router, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "flowscape-backend", body["service"])
	assert.Equal(t, "test", body["version"])
}

func TestListViews(t *testing.T) {
	router, controller := newTestRouter(t)
	require.NoError(t, controller.CreateView(t.Context(), "w1", "p1", "https://example.com", nil))

	w, body := get(t, router, "/views")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["count"])
}

func TestBlockerToggleRoundTrip(t *testing.T) {
	router, _ := newTestRouter(t)

	_, body := get(t, router, "/blocker")
	assert.Equal(t, true, body["enabled"])

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/blocker/toggle", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var toggled map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &toggled))
	assert.Equal(t, false, toggled["enabled"])

	_, body = get(t, router, "/blocker")
	assert.Equal(t, false, body["enabled"])
}

func TestMetricsJSON(t *testing.T) {
	router, _ := newTestRouter(t)

	w, body := get(t, router, "/metrics/json")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, body, "backend")
	assert.Contains(t, body, "timestamp")
}
