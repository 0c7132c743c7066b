package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ecoschool/ecoschool-api/internal/models"
	"github.com/ecoschool/ecoschool-api/internal/service"
	"github.com/ecoschool/ecoschool-api/pkg/response"
)

func newDashboardTestHandler(entries []models.Entry) *DashboardHandler {
	aggregates := service.NewAggregationService(
		&ledgerRepoMock{entries: entries},
		service.NewCarbonService(service.CarbonServiceConfig{}),
		nil,
		zap.NewNop(),
		service.AggregationServiceConfig{},
	)
	return NewDashboardHandler(aggregates)
}

func TestDashboardHandlerComposes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newDashboardTestHandler([]models.Entry{
		{Student: "Ana", ClassName: "7A", Category: "Paper (sheets)", CO2: 1.0},
		{Student: "Ben", ClassName: "7B", Category: "Transport (km)", CO2: 2.1},
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/dashboard", nil)
	c.Request = req

	handler.Dashboard(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	payload, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.InDelta(t, 3.1, payload["total_co2"].(float64), 1e-9)
	assert.Equal(t, "Seedling", payload["badge"])
	assert.Equal(t, false, envelope.Meta["cache_hit"])
}

func TestDashboardHandlerUnknownWindowFallsBack(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newDashboardTestHandler(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/dashboard?window=yesterday", nil)
	c.Request = req

	handler.Dashboard(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	payload := envelope.Data.(map[string]interface{})
	assert.Equal(t, "all", payload["window"])
}

func TestDashboardHandlerClassLeaderboardVerifiedOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newDashboardTestHandler([]models.Entry{
		{ClassName: "7A", CO2: 10.0, Verified: true},
		{ClassName: "7B", CO2: 5.0, Verified: true},
		{ClassName: "7C", CO2: 0.1, Verified: false},
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/leaderboard/classes", nil)
	c.Request = req

	handler.ClassLeaderboard(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	rows, ok := envelope.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, rows, 2)
	first := rows[0].(map[string]interface{})
	assert.Equal(t, "7B", first["class_name"])
	assert.EqualValues(t, 1, first["rank"])
}

func TestDashboardHandlerStudentLeaderboard(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newDashboardTestHandler([]models.Entry{
		{Student: "Ana", ClassName: "7A", CO2: 1.0, Points: 2, Verified: true},
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/leaderboard/students", nil)
	c.Request = req

	handler.StudentLeaderboard(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	rows := envelope.Data.([]interface{})
	require.Len(t, rows, 1)
	row := rows[0].(map[string]interface{})
	assert.Equal(t, "Ana", row["student"])
	assert.Equal(t, "Seedling", row["badge"])
}
