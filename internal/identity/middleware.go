package identity

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/trustweb/internal/reputation/model"
)

// PrincipalHeader carries the caller when token auth is disabled.
const PrincipalHeader = "X-Principal"

const ctxPrincipal = "trustweb_principal"

// RequirePrincipal returns a Gin middleware that enforces a valid Bearer
// principal token and injects its subject into the context.
func RequirePrincipal(tokens *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Bearer token required",
			})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := tokens.Verify(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid token: " + err.Error(),
			})
			return
		}

		c.Set(ctxPrincipal, claims.Principal())
		c.Next()
	}
}

// HeaderPrincipal returns a Gin middleware that takes the caller verbatim
// from the X-Principal header. Use it only in development.
func HeaderPrincipal() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := strings.TrimSpace(c.GetHeader(PrincipalHeader))
		if p == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": PrincipalHeader + " header required",
			})
			return
		}
		c.Set(ctxPrincipal, model.Principal(p))
		c.Next()
	}
}

// PrincipalFromCtx returns the caller injected by RequirePrincipal or
// HeaderPrincipal, or "" if neither ran.
func PrincipalFromCtx(c *gin.Context) model.Principal {
	v, _ := c.Get(ctxPrincipal)
	p, _ := v.(model.Principal)
	return p
}
