package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/trustweb/internal/identity"
	"github.com/jmerrifield20/trustweb/internal/reputation/model"
)

// GetConfig handles GET /admin.
func (h *ReputationHandler) GetConfig(c *gin.Context) {
	cfg, err := h.svc.Config(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "config")
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// SetAdmin handles PUT /admin/owner.
func (h *ReputationHandler) SetAdmin(c *gin.Context) {
	var req model.SetAdminRequest
	if !bindJSON(c, &req) {
		return
	}
	cfg, err := h.svc.SetAdmin(c.Request.Context(), identity.PrincipalFromCtx(c), req.Admin)
	if err != nil {
		h.respondError(c, err, "admin transfer")
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// SetThreshold handles PUT /admin/threshold.
func (h *ReputationHandler) SetThreshold(c *gin.Context) {
	var req model.SetThresholdRequest
	if !bindJSON(c, &req) {
		return
	}
	cfg, err := h.svc.SetVerificationThreshold(c.Request.Context(), identity.PrincipalFromCtx(c), *req.Threshold)
	if err != nil {
		h.respondError(c, err, "threshold update")
		return
	}
	c.JSON(http.StatusOK, cfg)
}
