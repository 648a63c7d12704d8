package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/trustweb/internal/identity"
	"github.com/jmerrifield20/trustweb/internal/reputation/model"
)

// RegisterIdentity handles POST /identities. The caller registers itself.
func (h *ReputationHandler) RegisterIdentity(c *gin.Context) {
	rec, err := h.svc.RegisterIdentity(c.Request.Context(), identity.PrincipalFromCtx(c))
	if err != nil {
		h.respondError(c, err, "registration")
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// GetIdentity handles GET /identities/:principal.
func (h *ReputationHandler) GetIdentity(c *gin.Context) {
	rec, err := h.svc.GetIdentity(c.Request.Context(), model.Principal(c.Param("principal")))
	if err != nil {
		h.respondError(c, err, "identity")
		return
	}
	c.JSON(http.StatusOK, rec)
}
