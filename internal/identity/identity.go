// Package identity authenticates the principal behind each ledger call.
//
// It provides:
//   - KeyManager       creates/loads the RSA signing key on disk
//   - TokenIssuer      issues and verifies RS256 principal tokens
//   - JWKSProvider     serves the verification key as a JWK set
//   - RequirePrincipal Gin middleware resolving the caller from a Bearer token
//   - HeaderPrincipal  Gin middleware trusting X-Principal (development only)
package identity
