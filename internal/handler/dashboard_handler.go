package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ecoschool/ecoschool-api/internal/dto"
	"github.com/ecoschool/ecoschool-api/internal/service"
	"github.com/ecoschool/ecoschool-api/pkg/response"
)

// DashboardHandler exposes aggregate views over the ledger.
type DashboardHandler struct {
	aggregates *service.AggregationService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(aggregates *service.AggregationService) *DashboardHandler {
	return &DashboardHandler{aggregates: aggregates}
}

func cacheMeta(hit bool) map[string]interface{} {
	return map[string]interface{}{"cache_hit": hit}
}

// Dashboard godoc
// @Summary School dashboard
// @Description Windowed totals, breakdowns, badge and equivalence figures
// @Tags Dashboard
// @Produce json
// @Param window query string false "Time window (all, last_7_days, last_30_days, last_365_days)"
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	window := dto.ParseWindow(c.Query("window"))
	result, hit, err := h.aggregates.Dashboard(c.Request.Context(), window)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, cacheMeta(hit))
}

// ClassLeaderboard godoc
// @Summary Class leaderboard
// @Description Classes ranked over verified entries
// @Tags Leaderboards
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /leaderboard/classes [get]
func (h *DashboardHandler) ClassLeaderboard(c *gin.Context) {
	board, hit, err := h.aggregates.ClassLeaderboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board, cacheMeta(hit))
}

// StudentLeaderboard godoc
// @Summary Student leaderboard
// @Description Students ranked over verified entries
// @Tags Leaderboards
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /leaderboard/students [get]
func (h *DashboardHandler) StudentLeaderboard(c *gin.Context) {
	board, hit, err := h.aggregates.StudentLeaderboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board, cacheMeta(hit))
}

// WeeklyChallenge godoc
// @Summary Weekly class challenge
// @Description Class board over verified entries since Monday
// @Tags Leaderboards
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /challenge/weekly [get]
func (h *DashboardHandler) WeeklyChallenge(c *gin.Context) {
	result, err := h.aggregates.WeeklyChallenge(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
