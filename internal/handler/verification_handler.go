package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ecoschool/ecoschool-api/internal/service"
	appErrors "github.com/ecoschool/ecoschool-api/pkg/errors"
	"github.com/ecoschool/ecoschool-api/pkg/response"
)

// VerificationHandler exposes the admin verification workflow.
type VerificationHandler struct {
	verification *service.VerificationService
}

// NewVerificationHandler constructs handler.
func NewVerificationHandler(verification *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{verification: verification}
}

// Verify godoc
// @Summary Verify one entry
// @Tags Verification
// @Produce json
// @Param id path int true "Entry ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /entries/{id}/verify [post]
func (h *VerificationHandler) Verify(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "id must be an integer"))
		return
	}
	if err := h.verification.Verify(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"id": id, "verified": true}, nil)
}

// VerifyAll godoc
// @Summary Verify every pending entry
// @Tags Verification
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /entries/verify-all [post]
func (h *VerificationHandler) VerifyAll(c *gin.Context) {
	flipped, err := h.verification.VerifyAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"verified": flipped}, nil)
}
