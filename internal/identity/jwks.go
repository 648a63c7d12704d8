package identity

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/binary"
	"net/http"

	"github.com/gin-gonic/gin"
)

const signingKeyID = "trustweb-signing-key-1"

// JWKSet is a JSON Web Key Set (RFC 7517).
type JWKSet struct {
	Keys []JWK `json:"keys"`
}

// JWK is a JSON Web Key for an RSA public key.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKSProvider publishes the token verification key so that other services
// can check principal tokens without sharing the private key.
type JWKSProvider struct {
	tokens *TokenIssuer
}

// NewJWKSProvider creates a JWKSProvider.
func NewJWKSProvider(tokens *TokenIssuer) *JWKSProvider {
	return &JWKSProvider{tokens: tokens}
}

// RegisterWellKnown attaches GET /.well-known/jwks.json to the engine.
func (p *JWKSProvider) RegisterWellKnown(engine *gin.Engine) {
	engine.GET("/.well-known/jwks.json", p.jwksHandler)
}

func (p *JWKSProvider) jwksHandler(c *gin.Context) {
	jwk := rsaPublicKeyToJWK(p.tokens.PublicKey(), signingKeyID)
	c.JSON(http.StatusOK, JWKSet{Keys: []JWK{jwk}})
}

// rsaPublicKeyToJWK encodes an RSA public key as a JWK (RFC 7518 §6.3).
func rsaPublicKeyToJWK(pub *rsa.PublicKey, kid string) JWK {
	n := base64.RawURLEncoding.EncodeToString(pub.N.Bytes())

	// Big-endian exponent with leading zero bytes stripped.
	eBuf := make([]byte, 8)
	binary.BigEndian.PutUint64(eBuf, uint64(pub.E))
	i := 0
	for i < len(eBuf)-1 && eBuf[i] == 0 {
		i++
	}
	e := base64.RawURLEncoding.EncodeToString(eBuf[i:])

	return JWK{Kty: "RSA", Use: "sig", Kid: kid, Alg: "RS256", N: n, E: e}
}
