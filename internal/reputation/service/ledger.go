package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jmerrifield20/trustweb/internal/reputation/model"
	"github.com/jmerrifield20/trustweb/internal/reputation/repository"
	"github.com/jmerrifield20/trustweb/internal/trustledger"
	"go.uber.org/zap"
)

// ErrNotInitialized is returned when the genesis configuration is missing.
var ErrNotInitialized = errors.New("ledger not initialized: run genesis first")

// MetricsRecorder receives the outcome of every mutating call.
// result is "ok", a rejection tag from model.Code, or "error".
type MetricsRecorder interface {
	RecordTransition(op, result string)
	RecordVerified()
}

// LedgerService owns the state transitions of the reputation ledger: admin
// control, identity registration, attestations and domain reputation.
//
// Mutating calls are applied one at a time; each runs inside a single store
// Update so a rejected call leaves no trace. Read-only lookups bypass the
// writer lock and read a consistent snapshot.
type LedgerService struct {
	mu      sync.Mutex // single writer
	store   repository.Store
	heights HeightSource       // nil = stored counter
	audit   trustledger.Ledger // nil = no audit chain
	metrics MetricsRecorder    // nil = no metrics
	logger  *zap.Logger
}

// NewLedgerService creates a LedgerService. audit may be nil. When heights is
// nil the height is a counter kept with the AdminConfig and advanced by every
// applied transition, so the first transition after genesis runs at height 1.
func NewLedgerService(store repository.Store, heights HeightSource, audit trustledger.Ledger, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		store:   store,
		heights: heights,
		audit:   audit,
		logger:  logger,
	}
}

// SetMetricsRecorder configures the transition metrics sink.
func (s *LedgerService) SetMetricsRecorder(m MetricsRecorder) {
	s.metrics = m
}

// Genesis writes the initial AdminConfig unless one already exists, and
// returns the configuration in effect. It is safe to call on every start.
func (s *LedgerService) Genesis(ctx context.Context, genesis model.AdminConfig) (*model.AdminConfig, error) {
	if err := model.ValidatePrincipal("deployer", genesis.Admin); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var cfg *model.AdminConfig
	err := s.store.Update(ctx, func(tx repository.Tx) error {
		existing, err := tx.Config(ctx)
		if err == nil {
			cfg = existing
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		cfg = &genesis
		return tx.PutConfig(ctx, cfg)
	})
	if err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}
	return cfg, nil
}

// transition describes a committed change for the audit chain.
type transition struct {
	action  trustledger.Action
	subject model.Principal
	payload any
}

type mutation func(ctx context.Context, tx repository.Tx, height uint64) (*transition, error)

// mutate runs fn as one atomic transition stamped with the current height.
func (s *LedgerService) mutate(ctx context.Context, op string, caller model.Principal, fn mutation) error {
	if err := model.ValidatePrincipal("caller", caller); err != nil {
		s.record(op, err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var t *transition
	err := s.store.Update(ctx, func(tx repository.Tx) error {
		cfg, err := config(ctx, tx)
		if err != nil {
			return err
		}
		height, err := s.nextHeight(ctx, cfg.Height)
		if err != nil {
			return err
		}
		if t, err = fn(ctx, tx, height); err != nil {
			return err
		}

		// fn may have rewritten the config; stamp the height on the latest copy.
		if cfg, err = tx.Config(ctx); err != nil {
			return err
		}
		cfg.Height = height
		return tx.PutConfig(ctx, cfg)
	})
	s.record(op, err)
	if err != nil {
		if code := model.Code(err); code != "" {
			s.logger.Debug("transition rejected",
				zap.String("op", op),
				zap.String("caller", caller.String()),
				zap.String("code", code),
			)
		} else {
			s.logger.Error("transition failed",
				zap.String("op", op),
				zap.String("caller", caller.String()),
				zap.Error(err),
			)
		}
		return err
	}

	s.appendAudit(ctx, caller, t)
	return nil
}

// appendAudit records a committed transition. Failure is non-fatal because
// the state change is already durable.
func (s *LedgerService) appendAudit(ctx context.Context, caller model.Principal, t *transition) {
	if s.audit == nil || t == nil {
		return
	}
	if _, err := s.audit.Append(ctx, t.subject.String(), t.action, caller.String(), t.payload); err != nil {
		s.logger.Error("audit append failed (non-fatal)",
			zap.String("action", string(t.action)),
			zap.String("subject", t.subject.String()),
			zap.Error(err),
		)
	}
}

func (s *LedgerService) record(op string, err error) {
	if s.metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		if result = model.Code(err); result == "" {
			result = "error"
		}
	}
	s.metrics.RecordTransition(op, result)
}

// config loads the AdminConfig inside tx.
func config(ctx context.Context, tx repository.Tx) (*model.AdminConfig, error) {
	cfg, err := tx.Config(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotInitialized
	}
	return cfg, err
}

// registered loads p's identity, mapping absence to ErrNotRegistered.
func registered(ctx context.Context, tx repository.Tx, p model.Principal) (*model.Identity, error) {
	id, err := tx.Identity(ctx, p)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", model.ErrNotRegistered, p)
	}
	return id, err
}

// view runs a read-only lookup.
func (s *LedgerService) view(ctx context.Context, fn func(tx repository.Tx) error) error {
	return s.store.View(ctx, fn)
}
