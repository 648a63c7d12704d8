// Package repository persists the reputation ledger's state: the AdminConfig
// singleton and the identity, attestation and domain-reputation maps.
//
// Every access happens inside a transaction. View transactions observe a
// consistent snapshot; Update transactions are serialised and apply all of
// their writes or none of them.
package repository

import (
	"context"
	"errors"

	"github.com/jmerrifield20/trustweb/internal/reputation/model"
)

// ErrNotFound is returned when a keyed lookup finds no record.
var ErrNotFound = errors.New("record not found")

// ErrReadOnly is returned by write methods invoked inside a View transaction.
var ErrReadOnly = errors.New("write in read-only transaction")

// Store is implemented by MemoryStore, PostgresStore and SQLiteStore.
type Store interface {
	// View runs fn against a consistent read-only snapshot.
	View(ctx context.Context, fn func(Tx) error) error

	// Update runs fn in an exclusive read-write transaction. If fn returns an
	// error nothing it wrote becomes visible.
	Update(ctx context.Context, fn func(Tx) error) error
}

// Tx is the key-value surface of a single transaction. Getters return
// ErrNotFound for absent keys and always hand back a private copy.
type Tx interface {
	Config(ctx context.Context) (*model.AdminConfig, error)
	PutConfig(ctx context.Context, cfg *model.AdminConfig) error

	Identity(ctx context.Context, p model.Principal) (*model.Identity, error)
	PutIdentity(ctx context.Context, id *model.Identity) error

	Attestation(ctx context.Context, attester, attestee model.Principal) (*model.Attestation, error)
	PutAttestation(ctx context.Context, a *model.Attestation) error

	DomainReputation(ctx context.Context, identity model.Principal, domain string) (*model.DomainReputation, error)
	PutDomainReputation(ctx context.Context, r *model.DomainReputation) error
}

type attestationKey struct {
	attester model.Principal
	attestee model.Principal
}

type domainKey struct {
	identity model.Principal
	domain   string
}
