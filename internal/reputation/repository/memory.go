package repository

import (
	"context"
	"sync"

	"github.com/jmerrifield20/trustweb/internal/reputation/model"
)

// MemoryStore is an in-memory, thread-safe Store. It is useful for tests and
// for single-process deployments that do not need durability.
//
// Update holds the write lock for the whole transaction and stages writes in
// an overlay that is merged only when fn succeeds.
type MemoryStore struct {
	mu           sync.RWMutex
	config       *model.AdminConfig
	identities   map[model.Principal]model.Identity
	attestations map[attestationKey]model.Attestation
	domains      map[domainKey]model.DomainReputation
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		identities:   make(map[model.Principal]model.Identity),
		attestations: make(map[attestationKey]model.Attestation),
		domains:      make(map[domainKey]model.DomainReputation),
	}
}

// View implements Store.
func (s *MemoryStore) View(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memoryTx{store: s})
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{
		store:        s,
		writable:     true,
		identities:   make(map[model.Principal]model.Identity),
		attestations: make(map[attestationKey]model.Attestation),
		domains:      make(map[domainKey]model.DomainReputation),
	}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// memoryTx reads through its overlay to the committed maps.
type memoryTx struct {
	store    *MemoryStore
	writable bool

	config       *model.AdminConfig
	identities   map[model.Principal]model.Identity
	attestations map[attestationKey]model.Attestation
	domains      map[domainKey]model.DomainReputation
}

func (tx *memoryTx) commit() {
	s := tx.store
	if tx.config != nil {
		cfg := *tx.config
		s.config = &cfg
	}
	for k, v := range tx.identities {
		s.identities[k] = v
	}
	for k, v := range tx.attestations {
		s.attestations[k] = v
	}
	for k, v := range tx.domains {
		s.domains[k] = v
	}
}

func (tx *memoryTx) Config(_ context.Context) (*model.AdminConfig, error) {
	if tx.config != nil {
		cfg := *tx.config
		return &cfg, nil
	}
	if tx.store.config == nil {
		return nil, ErrNotFound
	}
	cfg := *tx.store.config
	return &cfg, nil
}

func (tx *memoryTx) PutConfig(_ context.Context, cfg *model.AdminConfig) error {
	if !tx.writable {
		return ErrReadOnly
	}
	c := *cfg
	tx.config = &c
	return nil
}

func (tx *memoryTx) Identity(_ context.Context, p model.Principal) (*model.Identity, error) {
	if v, ok := tx.identities[p]; ok {
		return &v, nil
	}
	v, ok := tx.store.identities[p]
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}

func (tx *memoryTx) PutIdentity(_ context.Context, id *model.Identity) error {
	if !tx.writable {
		return ErrReadOnly
	}
	tx.identities[id.Principal] = *id
	return nil
}

func (tx *memoryTx) Attestation(_ context.Context, attester, attestee model.Principal) (*model.Attestation, error) {
	k := attestationKey{attester: attester, attestee: attestee}
	if v, ok := tx.attestations[k]; ok {
		return &v, nil
	}
	v, ok := tx.store.attestations[k]
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}

func (tx *memoryTx) PutAttestation(_ context.Context, a *model.Attestation) error {
	if !tx.writable {
		return ErrReadOnly
	}
	tx.attestations[attestationKey{attester: a.Attester, attestee: a.Attestee}] = *a
	return nil
}

func (tx *memoryTx) DomainReputation(_ context.Context, identity model.Principal, domain string) (*model.DomainReputation, error) {
	k := domainKey{identity: identity, domain: domain}
	if v, ok := tx.domains[k]; ok {
		return &v, nil
	}
	v, ok := tx.store.domains[k]
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}

func (tx *memoryTx) PutDomainReputation(_ context.Context, r *model.DomainReputation) error {
	if !tx.writable {
		return ErrReadOnly
	}
	tx.domains[domainKey{identity: r.Identity, domain: r.Domain}] = *r
	return nil
}
