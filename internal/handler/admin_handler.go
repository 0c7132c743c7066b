package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ecoschool/ecoschool-api/internal/models"
	"github.com/ecoschool/ecoschool-api/internal/service"
	appErrors "github.com/ecoschool/ecoschool-api/pkg/errors"
	"github.com/ecoschool/ecoschool-api/pkg/response"
)

// AdminHandler wires HTTP endpoints to the admin session and the
// destructive-wipe handshake.
type AdminHandler struct {
	auth    *service.AuthService
	entries *service.EntryService
}

// NewAdminHandler creates a new handler.
func NewAdminHandler(auth *service.AuthService, entries *service.EntryService) *AdminHandler {
	return &AdminHandler{auth: auth, entries: entries}
}

type confirmClearRequest struct {
	ConfirmToken string `json:"confirm_token"`
}

// Login godoc
// @Summary Open an admin session
// @Description Exchange the shared admin password for a session token
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/login [post]
func (h *AdminHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	res, err := h.auth.Login(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// ProposeClear godoc
// @Summary Propose clearing the ledger
// @Description First step of the two-step wipe; returns a one-shot token
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/clear [post]
func (h *AdminHandler) ProposeClear(c *gin.Context) {
	proposal, err := h.entries.ProposeClear(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// ConfirmClear godoc
// @Summary Confirm clearing the ledger
// @Description Second step of the wipe; consumes the confirmation token
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body confirmClearRequest true "Confirmation payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/clear/confirm [post]
func (h *AdminHandler) ConfirmClear(c *gin.Context) {
	var req confirmClearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid confirmation payload"))
		return
	}
	if err := h.entries.ConfirmClear(c.Request.Context(), req.ConfirmToken); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
