package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Attune/internal/crisis"
	"Attune/internal/models"
	"Attune/pkg/cache"
	"Attune/pkg/config"
	"Attune/pkg/notification"
	"Attune/pkg/sse"
	"Attune/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopNotifier struct{}

func (nopNotifier) Notify(_ context.Context, _, _ string, _ notification.Payload) error { return nil }

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.GlobalConfig = &config.Config{APIPrefix: "/api"}

	db, err := util.InitDatabase("", ":memory:")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, models.AutoMigrate(db))
	require.NoError(t, models.SeedNationalResources(db))

	store := cache.NewGoCache(cache.LocalConfig{
		DefaultExpiration: time.Minute,
		CleanupInterval:   time.Minute,
	})
	t.Cleanup(func() { store.Close() })

	history, err := crisis.NewHistoryTracker(db)
	require.NoError(t, err)
	matcher := crisis.NewResourceMatcher(crisis.GormCatalog{DB: db}, nil)
	gateway := crisis.NewAnalysisGateway(nil, time.Second)
	coord := crisis.NewCoordinator(db, gateway, history, matcher, nopNotifier{})

	engine := gin.New()
	NewHandlers(db, coord, sse.NewHub(time.Second), store).Register(engine)
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestEvaluateEndpoint(t *testing.T) {
	engine := newTestServer(t)

	t.Run("missing user header", func(t *testing.T) {
		w := doJSON(t, engine, "POST", "/api/safety/evaluate", "", map[string]any{"text": "hello"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing text", func(t *testing.T) {
		w := doJSON(t, engine, "POST", "/api/safety/evaluate", "1", map[string]any{"context": "general"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("clean message", func(t *testing.T) {
		w := doJSON(t, engine, "POST", "/api/safety/evaluate", "1", map[string]any{
			"text": "dinner was nice and we laughed a lot",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Data crisis.EvaluateResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, models.SeverityNone, body.Data.Assessment.Severity)
		assert.Empty(t, body.Data.AlertID)
		assert.NotEmpty(t, body.Data.Resources)
	})

	t.Run("critical message returns alert", func(t *testing.T) {
		w := doJSON(t, engine, "POST", "/api/safety/evaluate", "2", map[string]any{
			"text": "I want to kill myself",
			"geo":  "US",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Data crisis.EvaluateResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, models.SeverityCritical, body.Data.Assessment.Severity)
		assert.NotEmpty(t, body.Data.AlertID)
	})

	t.Run("duplicate submission rejected", func(t *testing.T) {
		payload := map[string]any{"text": "same message twice"}
		first := doJSON(t, engine, "POST", "/api/safety/evaluate", "3", payload)
		require.Equal(t, http.StatusOK, first.Code)
		second := doJSON(t, engine, "POST", "/api/safety/evaluate", "3", payload)
		assert.Equal(t, http.StatusConflict, second.Code)
	})
}

func TestAlertEndpoints(t *testing.T) {
	engine := newTestServer(t)

	w := doJSON(t, engine, "POST", "/api/safety/evaluate", "5", map[string]any{
		"text": "I want to kill myself",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var created struct {
		Data crisis.EvaluateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	alertID := created.Data.AlertID
	require.NotEmpty(t, alertID)

	t.Run("list active alerts", func(t *testing.T) {
		w := doJSON(t, engine, "GET", "/api/safety/alerts", "5", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), alertID)
	})

	t.Run("invalid alert id", func(t *testing.T) {
		w := doJSON(t, engine, "POST", "/api/safety/alerts/not-a-uuid/resolve", "5", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("resolve then transfer conflicts", func(t *testing.T) {
		w := doJSON(t, engine, "POST", "/api/safety/alerts/"+alertID+"/resolve", "5",
			map[string]any{"note": "handled"})
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, engine, "POST", "/api/safety/alerts/"+alertID+"/transfer", "5", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("unknown alert 404", func(t *testing.T) {
		w := doJSON(t, engine, "POST", "/api/safety/alerts/"+models.NewAlertID()+"/resolve", "5", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSafetyPlanEndpoints(t *testing.T) {
	engine := newTestServer(t)

	t.Run("first read creates a starter plan", func(t *testing.T) {
		w := doJSON(t, engine, "GET", "/api/safety/plan", "6", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "988")
	})

	t.Run("update persists", func(t *testing.T) {
		w := doJSON(t, engine, "PUT", "/api/safety/plan", "6", map[string]any{
			"warningSigns": []string{"sleeping badly", "withdrawing"},
		})
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, engine, "GET", "/api/safety/plan", "6", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "withdrawing")
		assert.Contains(t, w.Body.String(), "needs_review")
	})
}

func TestResourcesEndpoint(t *testing.T) {
	engine := newTestServer(t)

	w := doJSON(t, engine, "GET", "/api/safety/resources?type=domestic_violence&geo=US", "7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "us-ndvh")
}

func TestHealthEndpoint(t *testing.T) {
	engine := newTestServer(t)
	w := doJSON(t, engine, "GET", "/api/system/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}
