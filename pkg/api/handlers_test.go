package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinRadar/pkg/model"
	"CoinRadar/pkg/notifier"
	"CoinRadar/pkg/repository"
)

func newTestRouter(repo *repository.Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)

	channels := notifier.NewRouter(repo, notifier.NewInAppTransport())
	handlers := NewHandlers(repo, repo, repo, repo, repo, channels, nil)

	router := gin.New()
	v1 := router.Group("/api/v1")
	{
		v1.POST("/rules", handlers.CreateRule)
		v1.GET("/rules", handlers.ListRules)
		v1.PUT("/rules/:id", handlers.UpdateRule)
		v1.DELETE("/rules/:id", handlers.DeleteRule)
		v1.POST("/screeners", handlers.SaveScreener)
		v1.PUT("/baselines/:signature", handlers.SetBaselineEnabled)
		v1.GET("/alerts/history", handlers.GetAlertHistory)
		v1.POST("/alerts/:id/status", handlers.UpdateAlertStatus)
		v1.GET("/channels/status", handlers.ChannelStatus)
		v1.POST("/scan/spikes", handlers.TriggerSpikeScan)
	}
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestCreateRuleEndpoint(t *testing.T) {
	repo := repository.NewRepository()
	router := newTestRouter(repo)

	resp := doJSON(t, router, "POST", "/api/v1/rules", map[string]interface{}{
		"user_id":    "user-1",
		"symbol":     "btc",
		"timeframes": []string{"1h"},
		"thresholds": []float64{2, 3},
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var result struct {
		Data model.AlertRule `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	assert.Equal(t, "BTC", result.Data.Symbol)
	assert.True(t, result.Data.Enabled)
	assert.Equal(t, model.DefaultRuleCooldownSec, result.Data.CooldownSeconds)
}

func TestCreateRuleValidationMapsTo400(t *testing.T) {
	router := newTestRouter(repository.NewRepository())

	// 阈值包含非正数，领域校验失败
	resp := doJSON(t, router, "POST", "/api/v1/rules", map[string]interface{}{
		"user_id":    "user-1",
		"symbol":     "BTC",
		"timeframes": []string{"1h"},
		"thresholds": []float64{-1},
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUpdateRuleNotFoundMapsTo404(t *testing.T) {
	router := newTestRouter(repository.NewRepository())

	resp := doJSON(t, router, "PUT", "/api/v1/rules/missing", map[string]interface{}{
		"enabled": false,
	})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDeleteRuleIdempotentEndpoint(t *testing.T) {
	router := newTestRouter(repository.NewRepository())

	resp := doJSON(t, router, "DELETE", "/api/v1/rules/missing", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestSaveScreenerReturnsSignature(t *testing.T) {
	router := newTestRouter(repository.NewRepository())

	filters := model.FilterSet{MinMarketCap: 1e9, MinVolume24h: 1e7}
	resp := doJSON(t, router, "POST", "/api/v1/screeners", map[string]interface{}{
		"user_id": "user-1",
		"name":    "大市值筛选",
		"filters": filters,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var result struct {
		FilterSignature string `json:"filter_signature"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	assert.Equal(t, filters.Signature(), result.FilterSignature)
}

func TestSetBaselineEnabledEndpoint(t *testing.T) {
	repo := repository.NewRepository()
	router := newTestRouter(repo)

	_, _, err := repo.GetOrCreateBaseline("user-1", "sig")
	require.NoError(t, err)

	enabled := false
	resp := doJSON(t, router, "PUT", "/api/v1/baselines/sig", map[string]interface{}{
		"user_id": "user-1",
		"enabled": &enabled,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	baseline, _, err := repo.GetOrCreateBaseline("user-1", "sig")
	require.NoError(t, err)
	assert.False(t, baseline.Enabled)
}

func TestAlertHistoryRequiresUserID(t *testing.T) {
	router := newTestRouter(repository.NewRepository())

	resp := doJSON(t, router, "GET", "/api/v1/alerts/history", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUpdateAlertStatusEndpoint(t *testing.T) {
	repo := repository.NewRepository()
	router := newTestRouter(repo)

	event := &model.AlertEvent{
		UserID: "user-1",
		Type:   model.AlertTypeSpike,
		Symbol: "BTC",
		Status: model.StatusDelivered,
	}
	require.NoError(t, repo.AppendEvent(event))

	resp := doJSON(t, router, "POST", "/api/v1/alerts/"+event.ID+"/status", map[string]interface{}{
		"status": "dismissed",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	events, err := repo.ListEventsByUser("user-1", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.StatusDismissed, events[0].Status)
}

func TestUpdateAlertStatusRejectsTriggered(t *testing.T) {
	router := newTestRouter(repository.NewRepository())

	// triggered 只能由评估器设置
	resp := doJSON(t, router, "POST", "/api/v1/alerts/evt-1/status", map[string]interface{}{
		"status": "triggered",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestChannelStatusEndpoint(t *testing.T) {
	router := newTestRouter(repository.NewRepository())

	resp := doJSON(t, router, "GET", "/api/v1/channels/status?user_id=user-1", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var result struct {
		Data map[string]bool `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	assert.True(t, result.Data["inApp"])
}

func TestTriggerScanWithoutScheduler(t *testing.T) {
	router := newTestRouter(repository.NewRepository())

	resp := doJSON(t, router, "POST", "/api/v1/scan/spikes", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}
