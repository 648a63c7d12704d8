package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/trustweb/internal/identity"
	"github.com/jmerrifield20/trustweb/internal/reputation/model"
	"github.com/jmerrifield20/trustweb/internal/reputation/repository"
	"github.com/jmerrifield20/trustweb/internal/reputation/service"
	"go.uber.org/zap"
)

// ReputationHandler handles HTTP requests for the admin controller, the
// identity registry, the attestation ledger and the domain reputation ledger.
type ReputationHandler struct {
	svc    *service.LedgerService
	tokens *identity.TokenIssuer // nil = caller taken from X-Principal
	logger *zap.Logger
}

// NewReputationHandler creates a new ReputationHandler.
// tokens may be nil to trust the X-Principal header instead of Bearer tokens.
func NewReputationHandler(svc *service.LedgerService, tokens *identity.TokenIssuer, logger *zap.Logger) *ReputationHandler {
	return &ReputationHandler{svc: svc, tokens: tokens, logger: logger}
}

// requirePrincipal resolves the caller for mutating routes.
func (h *ReputationHandler) requirePrincipal() gin.HandlerFunc {
	if h.tokens == nil {
		return identity.HeaderPrincipal()
	}
	return identity.RequirePrincipal(h.tokens)
}

// Register mounts every reputation route on the given router group.
func (h *ReputationHandler) Register(rg *gin.RouterGroup) {
	auth := h.requirePrincipal()

	admin := rg.Group("/admin")
	{
		admin.GET("", h.GetConfig)
		admin.PUT("/owner", auth, h.SetAdmin)
		admin.PUT("/threshold", auth, h.SetThreshold)
	}

	ids := rg.Group("/identities")
	{
		ids.POST("", auth, h.RegisterIdentity)
		ids.GET("/:principal", h.GetIdentity)
	}

	att := rg.Group("/attestations")
	{
		att.POST("", auth, h.Attest)
		att.PUT("/:attestee", auth, h.UpdateAttestation)
		att.GET("/:attester/:attestee", h.GetAttestation)
	}

	dom := rg.Group("/domains/:domain")
	{
		dom.POST("/endorsements", auth, h.Endorse)
		dom.GET("/reputation/:principal", h.GetDomainReputation)
	}
}

// respondError maps service errors onto HTTP statuses. Rejections carry
// their stable tag in "code"; anything unrecognised is logged and hidden.
func (h *ReputationHandler) respondError(c *gin.Context, err error, what string) {
	code := model.Code(err)
	var status int
	switch {
	case errors.Is(err, model.ErrNotAuthorized):
		status = http.StatusForbidden
	case errors.Is(err, model.ErrAlreadyRegistered), errors.Is(err, model.ErrAttestationExists):
		status = http.StatusConflict
	case errors.Is(err, model.ErrNotRegistered), errors.Is(err, model.ErrAttestationNotFound):
		status = http.StatusNotFound
	case code != "":
		status = http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": what + " not found", "code": "NotFound"})
		return
	case errors.Is(err, service.ErrNotInitialized):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "code": "NotInitialized"})
		return
	default:
		h.logger.Error("reputation request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process " + what})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

// bindJSON decodes the request body, writing a 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "InvalidArgument"})
		return false
	}
	return true
}
