package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jmerrifield20/trustweb/internal/reputation/model"
	"github.com/jmerrifield20/trustweb/migrations"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// SQLiteStore persists ledger state in an embedded SQLite database. It suits
// single-node deployments that want durability without a Postgres server.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex
	logger  *zap.Logger
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// embedded schema. The special path ":memory:" yields a private in-memory DB.
func OpenSQLite(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	memory := path == ":memory:"
	dsn := path
	if !memory {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if memory {
		// Every connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(migrations.SQLiteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	if err := ensureColumn(db, "reputation_config", "height", "INTEGER NOT NULL DEFAULT 0"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

// ensureColumn adds a column to databases created before it existed.
func ensureColumn(db *sql.DB, table, column, decl string) error {
	rows, err := db.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", table, err)
	}
	found := false
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("inspect %s: %w", table, err)
		}
		if name == column {
			found = true
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspect %s: %w", table, err)
	}
	if found {
		return nil
	}
	if _, err := db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl)); err != nil {
		return fmt.Errorf("add %s.%s: %w", table, column, err)
	}
	return nil
}

// DB exposes the handle so the audit chain can share the database file.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// View implements Store.
func (s *SQLiteStore) View(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(&sqliteTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// Update implements Store. Writers are serialised in-process; SQLite itself
// allows a single writer per database file.
func (s *SQLiteStore) Update(ctx context.Context, fn func(Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(&sqliteTx{tx: tx, writable: true}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("commit ledger state", zap.Error(err))
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type sqliteTx struct {
	tx       *sql.Tx
	writable bool
}

func sqlNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (t *sqliteTx) Config(ctx context.Context) (*model.AdminConfig, error) {
	cfg := &model.AdminConfig{}
	var admin string
	err := t.tx.QueryRowContext(ctx,
		`SELECT admin, verification_threshold, next_identity_id, height FROM reputation_config WHERE id = 1`,
	).Scan(&admin, &cfg.VerificationThreshold, &cfg.NextIdentityID, &cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("get config: %w", sqlNoRows(err))
	}
	cfg.Admin = model.Principal(admin)
	return cfg, nil
}

func (t *sqliteTx) PutConfig(ctx context.Context, cfg *model.AdminConfig) error {
	if !t.writable {
		return ErrReadOnly
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO reputation_config (id, admin, verification_threshold, next_identity_id, height)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			admin = excluded.admin,
			verification_threshold = excluded.verification_threshold,
			next_identity_id = excluded.next_identity_id,
			height = excluded.height`,
		string(cfg.Admin), cfg.VerificationThreshold, cfg.NextIdentityID, cfg.Height,
	)
	if err != nil {
		return fmt.Errorf("put config: %w", err)
	}
	return nil
}

func (t *sqliteTx) Identity(ctx context.Context, p model.Principal) (*model.Identity, error) {
	id := &model.Identity{Principal: p}
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, registration_height, verification_score, attestation_count, verified
		FROM identities WHERE principal = ?`, string(p),
	).Scan(&id.ID, &id.RegistrationHeight, &id.VerificationScore, &id.AttestationCount, &id.Verified)
	if err != nil {
		return nil, fmt.Errorf("get identity %q: %w", p, sqlNoRows(err))
	}
	return id, nil
}

func (t *sqliteTx) PutIdentity(ctx context.Context, id *model.Identity) error {
	if !t.writable {
		return ErrReadOnly
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO identities (principal, id, registration_height, verification_score, attestation_count, verified)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (principal) DO UPDATE SET
			verification_score = excluded.verification_score,
			attestation_count = excluded.attestation_count,
			verified = excluded.verified`,
		string(id.Principal), id.ID, id.RegistrationHeight,
		id.VerificationScore, id.AttestationCount, id.Verified,
	)
	if err != nil {
		return fmt.Errorf("put identity %q: %w", id.Principal, err)
	}
	return nil
}

func (t *sqliteTx) Attestation(ctx context.Context, attester, attestee model.Principal) (*model.Attestation, error) {
	a := &model.Attestation{Attester: attester, Attestee: attestee}
	err := t.tx.QueryRowContext(ctx, `
		SELECT score, timestamp, context, valid
		FROM attestations WHERE attester = ? AND attestee = ?`,
		string(attester), string(attestee),
	).Scan(&a.Score, &a.Timestamp, &a.Context, &a.Valid)
	if err != nil {
		return nil, fmt.Errorf("get attestation: %w", sqlNoRows(err))
	}
	return a, nil
}

func (t *sqliteTx) PutAttestation(ctx context.Context, a *model.Attestation) error {
	if !t.writable {
		return ErrReadOnly
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO attestations (attester, attestee, score, timestamp, context, valid)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (attester, attestee) DO UPDATE SET
			score = excluded.score,
			timestamp = excluded.timestamp,
			context = excluded.context,
			valid = excluded.valid`,
		string(a.Attester), string(a.Attestee), a.Score, a.Timestamp, a.Context, a.Valid,
	)
	if err != nil {
		return fmt.Errorf("put attestation: %w", err)
	}
	return nil
}

func (t *sqliteTx) DomainReputation(ctx context.Context, identity model.Principal, domain string) (*model.DomainReputation, error) {
	r := &model.DomainReputation{Identity: identity, Domain: domain}
	err := t.tx.QueryRowContext(ctx, `
		SELECT score, last_updated, endorsement_count
		FROM domain_reputations WHERE identity = ? AND domain = ?`,
		string(identity), domain,
	).Scan(&r.Score, &r.LastUpdated, &r.EndorsementCount)
	if err != nil {
		return nil, fmt.Errorf("get domain reputation: %w", sqlNoRows(err))
	}
	return r, nil
}

func (t *sqliteTx) PutDomainReputation(ctx context.Context, r *model.DomainReputation) error {
	if !t.writable {
		return ErrReadOnly
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO domain_reputations (identity, domain, score, last_updated, endorsement_count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (identity, domain) DO UPDATE SET
			score = excluded.score,
			last_updated = excluded.last_updated,
			endorsement_count = excluded.endorsement_count`,
		string(r.Identity), r.Domain, r.Score, r.LastUpdated, r.EndorsementCount,
	)
	if err != nil {
		return fmt.Errorf("put domain reputation: %w", err)
	}
	return nil
}
