package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ecoschool/ecoschool-api/internal/service"
	appErrors "github.com/ecoschool/ecoschool-api/pkg/errors"
	"github.com/ecoschool/ecoschool-api/pkg/response"
)

// FactorHandler exposes the conversion-factor table.
type FactorHandler struct {
	factors *service.FactorService
}

// NewFactorHandler constructs handler.
func NewFactorHandler(factors *service.FactorService) *FactorHandler {
	return &FactorHandler{factors: factors}
}

type setFactorRequest struct {
	Factor json.Number `json:"factor"`
}

// List godoc
// @Summary List conversion factors
// @Tags Factors
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /factors [get]
func (h *FactorHandler) List(c *gin.Context) {
	factors, err := h.factors.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, factors, nil)
}

// Set godoc
// @Summary Set a conversion factor
// @Description Create or update the kg-CO2-per-unit factor for a category
// @Tags Factors
// @Accept json
// @Produce json
// @Param category path string true "Category name"
// @Param payload body setFactorRequest true "Factor payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /factors/{category} [put]
func (h *FactorHandler) Set(c *gin.Context) {
	var req setFactorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid factor payload"))
		return
	}
	updated, err := h.factors.Set(c.Request.Context(), c.Param("category"), req.Factor.String())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, updated, nil)
}
