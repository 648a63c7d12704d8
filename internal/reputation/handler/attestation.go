package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/trustweb/internal/identity"
	"github.com/jmerrifield20/trustweb/internal/reputation/model"
)

// Attest handles POST /attestations.
func (h *ReputationHandler) Attest(c *gin.Context) {
	var req model.AttestRequest
	if !bindJSON(c, &req) {
		return
	}
	caller := identity.PrincipalFromCtx(c)

	a, err := h.svc.AttestToIdentity(c.Request.Context(), caller, req.Attestee, model.ScoreFromJSON(req.Score), req.Context)
	if err != nil {
		h.respondError(c, err, "attestation")
		return
	}
	c.JSON(http.StatusCreated, a)
}

// UpdateAttestation handles PUT /attestations/:attestee.
func (h *ReputationHandler) UpdateAttestation(c *gin.Context) {
	var req model.UpdateAttestationRequest
	if !bindJSON(c, &req) {
		return
	}
	caller := identity.PrincipalFromCtx(c)
	attestee := model.Principal(c.Param("attestee"))

	a, err := h.svc.UpdateAttestation(c.Request.Context(), caller, attestee, model.ScoreFromJSON(req.Score), req.Context)
	if err != nil {
		h.respondError(c, err, "attestation update")
		return
	}
	c.JSON(http.StatusOK, a)
}

// GetAttestation handles GET /attestations/:attester/:attestee.
func (h *ReputationHandler) GetAttestation(c *gin.Context) {
	a, err := h.svc.GetAttestation(c.Request.Context(),
		model.Principal(c.Param("attester")),
		model.Principal(c.Param("attestee")),
	)
	if err != nil {
		h.respondError(c, err, "attestation")
		return
	}
	c.JSON(http.StatusOK, a)
}
