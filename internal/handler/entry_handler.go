package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ecoschool/ecoschool-api/internal/models"
	"github.com/ecoschool/ecoschool-api/internal/service"
	appErrors "github.com/ecoschool/ecoschool-api/pkg/errors"
	"github.com/ecoschool/ecoschool-api/pkg/response"
)

// EntryHandler exposes the activity ledger endpoints.
type EntryHandler struct {
	entries *service.EntryService
}

// NewEntryHandler constructs handler.
func NewEntryHandler(entries *service.EntryService) *EntryHandler {
	return &EntryHandler{entries: entries}
}

// Submit godoc
// @Summary Log an activity
// @Description Append one activity to the ledger with its CO2 estimate
// @Tags Entries
// @Accept json
// @Produce json
// @Param payload body service.SubmitEntryRequest true "Entry payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /entries [post]
func (h *EntryHandler) Submit(c *gin.Context) {
	var req service.SubmitEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid entry payload"))
		return
	}
	entry, err := h.entries.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// List godoc
// @Summary List ledger entries
// @Description Ledger feed, newest first
// @Tags Entries
// @Produce json
// @Param verified query string false "Filter by verification state (all, true, false)"
// @Success 200 {object} response.Envelope
// @Router /entries [get]
func (h *EntryHandler) List(c *gin.Context) {
	filter := models.EntryFilter{Verified: models.ParseVerifiedFilter(c.Query("verified"))}
	entries, err := h.entries.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, map[string]interface{}{"count": len(entries)})
}
