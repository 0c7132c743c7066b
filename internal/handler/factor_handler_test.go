package handler

import (
	"bytes"
	"context"
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

type factorRepoMock struct {
	factors map[string]float64
}

func (m *factorRepoMock) List(context.Context) ([]models.CategoryFactor, error) {
	out := make([]models.CategoryFactor, 0, len(m.factors))
	for category, factor := range m.factors {
		out = append(out, models.CategoryFactor{Category: category, Factor: factor})
	}
	return out, nil
}

func (m *factorRepoMock) Snapshot(context.Context) (models.FactorTable, error) {
	table := make(models.FactorTable, len(m.factors))
	for category, factor := range m.factors {
		table[category] = factor
	}
	return table, nil
}

func (m *factorRepoMock) Upsert(_ context.Context, category string, factor float64) error {
	if m.factors == nil {
		m.factors = map[string]float64{}
	}
	m.factors[category] = factor
	return nil
}

func (m *factorRepoMock) SeedDefaults(_ context.Context, defaults []models.CategoryFactor) error {
	for _, d := range defaults {
		if _, exists := m.factors[d.Category]; !exists {
			m.factors[d.Category] = d.Factor
		}
	}
	return nil
}

func TestFactorHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &factorRepoMock{factors: map[string]float64{"Paper (sheets)": 0.005}}
	handler := NewFactorHandler(service.NewFactorService(repo, zap.NewNop()))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/factors", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	rows := envelope.Data.([]interface{})
	assert.Len(t, rows, 1)
}

func TestFactorHandlerSet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &factorRepoMock{factors: map[string]float64{}}
	handler := NewFactorHandler(service.NewFactorService(repo, zap.NewNop()))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/factors/Plastic%20(kg)", bytes.NewReader([]byte(`{"factor":7.5}`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "category", Value: "Plastic (kg)"}}

	handler.Set(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 7.5, repo.factors["Plastic (kg)"], 1e-9)
}

func TestFactorHandlerSetRejectsNegative(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &factorRepoMock{factors: map[string]float64{}}
	handler := NewFactorHandler(service.NewFactorService(repo, zap.NewNop()))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/factors/Plastic%20(kg)", bytes.NewReader([]byte(`{"factor":-1}`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "category", Value: "Plastic (kg)"}}

	handler.Set(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, repo.factors)
}
