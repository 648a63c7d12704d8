package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmerrifield20/trustweb/internal/reputation/model"
	"go.uber.org/zap"
)

// writeLockKey is a stable PostgreSQL advisory lock key used to serialise
// Update transactions across every process sharing the database.
const writeLockKey = int64(1_159_876_544)

// PostgresStore persists ledger state to PostgreSQL. The schema lives in
// migrations/postgres and is applied by cmd/migrate.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore creates a PostgresStore backed by the given connection pool.
func NewPostgresStore(pool *pgxpool.Pool, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, logger: logger}
}

// View implements Store using a read-only REPEATABLE READ transaction so that
// every read in fn sees the same snapshot.
func (s *PostgresStore) View(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Update implements Store. Writers take a transaction-scoped advisory lock,
// which is released automatically on commit or rollback.
func (s *PostgresStore) Update(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", writeLockKey); err != nil {
		return fmt.Errorf("acquire advisory lock: %w", err)
	}

	if err := fn(&pgTx{tx: tx, writable: true}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.Error("commit ledger state", zap.Error(err))
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type pgTx struct {
	tx       pgx.Tx
	writable bool
}

func noRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (t *pgTx) Config(ctx context.Context) (*model.AdminConfig, error) {
	cfg := &model.AdminConfig{}
	var admin string
	err := t.tx.QueryRow(ctx,
		`SELECT admin, verification_threshold, next_identity_id, height FROM reputation_config WHERE id = 1`,
	).Scan(&admin, &cfg.VerificationThreshold, &cfg.NextIdentityID, &cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("get config: %w", noRows(err))
	}
	cfg.Admin = model.Principal(admin)
	return cfg, nil
}

func (t *pgTx) PutConfig(ctx context.Context, cfg *model.AdminConfig) error {
	if !t.writable {
		return ErrReadOnly
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO reputation_config (id, admin, verification_threshold, next_identity_id, height)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			admin = EXCLUDED.admin,
			verification_threshold = EXCLUDED.verification_threshold,
			next_identity_id = EXCLUDED.next_identity_id,
			height = EXCLUDED.height`,
		string(cfg.Admin), cfg.VerificationThreshold, cfg.NextIdentityID, cfg.Height,
	)
	if err != nil {
		return fmt.Errorf("put config: %w", err)
	}
	return nil
}

func (t *pgTx) Identity(ctx context.Context, p model.Principal) (*model.Identity, error) {
	id := &model.Identity{Principal: p}
	err := t.tx.QueryRow(ctx, `
		SELECT id, registration_height, verification_score, attestation_count, verified
		FROM identities WHERE principal = $1`, string(p),
	).Scan(&id.ID, &id.RegistrationHeight, &id.VerificationScore, &id.AttestationCount, &id.Verified)
	if err != nil {
		return nil, fmt.Errorf("get identity %q: %w", p, noRows(err))
	}
	return id, nil
}

func (t *pgTx) PutIdentity(ctx context.Context, id *model.Identity) error {
	if !t.writable {
		return ErrReadOnly
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO identities (principal, id, registration_height, verification_score, attestation_count, verified)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (principal) DO UPDATE SET
			verification_score = EXCLUDED.verification_score,
			attestation_count = EXCLUDED.attestation_count,
			verified = EXCLUDED.verified`,
		string(id.Principal), id.ID, id.RegistrationHeight,
		id.VerificationScore, id.AttestationCount, id.Verified,
	)
	if err != nil {
		return fmt.Errorf("put identity %q: %w", id.Principal, err)
	}
	return nil
}

func (t *pgTx) Attestation(ctx context.Context, attester, attestee model.Principal) (*model.Attestation, error) {
	a := &model.Attestation{Attester: attester, Attestee: attestee}
	err := t.tx.QueryRow(ctx, `
		SELECT score, timestamp, context, valid
		FROM attestations WHERE attester = $1 AND attestee = $2`,
		string(attester), string(attestee),
	).Scan(&a.Score, &a.Timestamp, &a.Context, &a.Valid)
	if err != nil {
		return nil, fmt.Errorf("get attestation: %w", noRows(err))
	}
	return a, nil
}

func (t *pgTx) PutAttestation(ctx context.Context, a *model.Attestation) error {
	if !t.writable {
		return ErrReadOnly
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO attestations (attester, attestee, score, timestamp, context, valid)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (attester, attestee) DO UPDATE SET
			score = EXCLUDED.score,
			timestamp = EXCLUDED.timestamp,
			context = EXCLUDED.context,
			valid = EXCLUDED.valid`,
		string(a.Attester), string(a.Attestee), a.Score, a.Timestamp, a.Context, a.Valid,
	)
	if err != nil {
		return fmt.Errorf("put attestation: %w", err)
	}
	return nil
}

func (t *pgTx) DomainReputation(ctx context.Context, identity model.Principal, domain string) (*model.DomainReputation, error) {
	r := &model.DomainReputation{Identity: identity, Domain: domain}
	err := t.tx.QueryRow(ctx, `
		SELECT score, last_updated, endorsement_count
		FROM domain_reputations WHERE identity = $1 AND domain = $2`,
		string(identity), domain,
	).Scan(&r.Score, &r.LastUpdated, &r.EndorsementCount)
	if err != nil {
		return nil, fmt.Errorf("get domain reputation: %w", noRows(err))
	}
	return r, nil
}

func (t *pgTx) PutDomainReputation(ctx context.Context, r *model.DomainReputation) error {
	if !t.writable {
		return ErrReadOnly
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO domain_reputations (identity, domain, score, last_updated, endorsement_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (identity, domain) DO UPDATE SET
			score = EXCLUDED.score,
			last_updated = EXCLUDED.last_updated,
			endorsement_count = EXCLUDED.endorsement_count`,
		string(r.Identity), r.Domain, r.Score, r.LastUpdated, r.EndorsementCount,
	)
	if err != nil {
		return fmt.Errorf("put domain reputation: %w", err)
	}
	return nil
}
