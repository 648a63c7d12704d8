// cmd/seed populates a development reputationd with a small web of trust.
//
// The server must run with identity.auth_enabled=false so callers can be
// named with the X-Principal header. Running twice is safe: identities and
// attestations that already exist are skipped, and endorsements are only
// sent alongside a newly created attestation.
//
// Usage:
//
//	go run ./cmd/seed
//	REPUTATION_URL=http://localhost:8080 go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jmerrifield20/trustweb/pkg/client"
)

const defaultServer = "http://localhost:8080"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	server := os.Getenv("REPUTATION_URL")
	if server == "" {
		server = defaultServer
	}

	ctx := context.Background()
	anon, err := client.New(server)
	if err != nil {
		return err
	}
	cfg, err := anon.Config(ctx)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	fmt.Printf("connected to %s (admin %s, threshold %d)\n", server, cfg.Admin, cfg.VerificationThreshold)

	if err := seedIdentities(ctx, server); err != nil {
		return fmt.Errorf("seed identities: %w", err)
	}
	if err := seedAttestations(ctx, server); err != nil {
		return fmt.Errorf("seed attestations: %w", err)
	}

	fmt.Println("\nseed complete")
	return nil
}

// ── Identities ───────────────────────────────────────────────────────────────

var principals = []string{"alice", "bob", "carol", "dave", "erin", "frank"}

func seedIdentities(ctx context.Context, server string) error {
	for _, p := range principals {
		c, err := client.New(server, client.WithPrincipal(p))
		if err != nil {
			return err
		}
		rec, err := c.RegisterIdentity(ctx)
		if hasCode(err, client.CodeAlreadyRegistered) {
			fmt.Printf("  skip  identity %-8s (already registered)\n", p)
			continue
		}
		if err != nil {
			return fmt.Errorf("register %s: %w", p, err)
		}
		fmt.Printf("  identity %-8s id=%d\n", p, rec.ID)
	}
	return nil
}

// ── Attestations + endorsements ──────────────────────────────────────────────

type seedAttestation struct {
	Attester string
	Attestee string
	Score    uint64
	Context  string
	Domain   string // endorsed alongside the attestation when set
}

var attestations = []seedAttestation{
	{"alice", "bob", 9, "shipped the storage layer together", "golang"},
	{"carol", "bob", 8, "reviewed his consensus design", "distributed"},
	{"dave", "bob", 7, "pair-programmed on the CLI", "golang"},
	{"bob", "alice", 10, "mentor for three years", "security"},
	{"carol", "alice", 6, "conference co-speaker", ""},
	{"erin", "carol", 5, "", "design"},
	{"frank", "carol", 7, "worked on the audit chain", "security"},
	{"alice", "erin", 4, "short contract", ""},
}

func seedAttestations(ctx context.Context, server string) error {
	for _, s := range attestations {
		c, err := client.New(server, client.WithPrincipal(s.Attester))
		if err != nil {
			return err
		}
		if _, err := c.Attest(ctx, s.Attestee, s.Score, s.Context); err != nil {
			if hasCode(err, client.CodeAttestationExists) {
				fmt.Printf("  skip  %s → %s (already attested)\n", s.Attester, s.Attestee)
				continue
			}
			return fmt.Errorf("attest %s → %s: %w", s.Attester, s.Attestee, err)
		}
		fmt.Printf("  attest %-6s → %-6s score=%d\n", s.Attester, s.Attestee, s.Score)

		if s.Domain == "" {
			continue
		}
		rep, err := c.Endorse(ctx, s.Attestee, s.Domain, s.Score)
		if err != nil {
			return fmt.Errorf("endorse %s in %s: %w", s.Attestee, s.Domain, err)
		}
		fmt.Printf("  endorse %-6s in %-12s total=%d\n", s.Attestee, s.Domain, rep.Score)
	}
	return nil
}

func hasCode(err error, code string) bool {
	var apiErr *client.APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
