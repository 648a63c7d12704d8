package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/trustweb/internal/identity"
	"github.com/jmerrifield20/trustweb/internal/reputation/model"
)

// Endorse handles POST /domains/:domain/endorsements.
func (h *ReputationHandler) Endorse(c *gin.Context) {
	var req model.EndorseRequest
	if !bindJSON(c, &req) {
		return
	}
	caller := identity.PrincipalFromCtx(c)

	rep, err := h.svc.EndorseForDomain(c.Request.Context(), caller, req.Identity, c.Param("domain"), model.ScoreFromJSON(req.Score))
	if err != nil {
		h.respondError(c, err, "endorsement")
		return
	}
	c.JSON(http.StatusOK, rep)
}

// GetDomainReputation handles GET /domains/:domain/reputation/:principal.
func (h *ReputationHandler) GetDomainReputation(c *gin.Context) {
	rep, err := h.svc.GetDomainReputation(c.Request.Context(), model.Principal(c.Param("principal")), c.Param("domain"))
	if err != nil {
		h.respondError(c, err, "domain reputation")
		return
	}
	c.JSON(http.StatusOK, rep)
}
