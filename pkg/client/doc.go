// Package client is the Go SDK for the trustweb reputation ledger HTTP API.
//
// # Connecting
//
// In production every mutating call carries an RS256 principal token issued
// by the server operator (see 'repctl token'):
//
//	c, err := client.New("https://reputation.example.com",
//	    client.WithBearerToken(token),
//	)
//
// A development server started with identity.auth_enabled=false trusts the
// X-Principal header instead:
//
//	c := client.MustNew("http://localhost:8080", client.WithPrincipal("alice"))
//
// # Building the web of trust
//
//	if _, err := c.RegisterIdentity(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := c.Attest(ctx, "bob", 8, "shipped the release with me"); err != nil {
//	    log.Fatal(err)
//	}
//	rep, err := c.Endorse(ctx, "bob", "golang", 9)
//
// # Errors
//
// Rejections are returned as *APIError. Code holds the stable tag the server
// assigned (for example "AttestationExists"):
//
//	var apiErr *client.APIError
//	if errors.As(err, &apiErr) && apiErr.Code == client.CodeAttestationExists {
//	    // already attested; update instead
//	}
//
// errors.Is(err, client.ErrNotFound) matches any 404.
package client
