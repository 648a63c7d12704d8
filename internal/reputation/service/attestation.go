package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jmerrifield20/trustweb/internal/reputation/model"
	"github.com/jmerrifield20/trustweb/internal/reputation/repository"
	"github.com/jmerrifield20/trustweb/internal/trustledger"
	"go.uber.org/zap"
)

// ErrScoreInvariant means an identity's stored verification score no longer
// covers the attestation being rewritten. It signals corrupted state and is
// never the caller's fault.
var ErrScoreInvariant = errors.New("verification score invariant violated")

// addScore returns acc+delta, refusing to wrap.
func addScore(acc, delta uint64) (uint64, error) {
	if acc > math.MaxUint64-delta {
		return 0, fmt.Errorf("%w: %d + %d overflows", ErrScoreInvariant, acc, delta)
	}
	return acc + delta, nil
}

// rescore moves acc from containing oldScore to containing newScore.
// The subtraction is checked: acc must already include oldScore.
func rescore(acc, oldScore, newScore uint64) (uint64, error) {
	if newScore >= oldScore {
		return addScore(acc, newScore-oldScore)
	}
	drop := oldScore - newScore
	if drop > acc {
		return 0, fmt.Errorf("%w: %d - %d underflows", ErrScoreInvariant, acc, drop)
	}
	return acc - drop, nil
}

// AttestToIdentity records caller's scored attestation of attestee and folds
// the score into attestee's identity. The attestee becomes verified once its
// attestation count reaches the threshold in force at call time.
//
// Rejections, first match wins: SelfAttestation, NotRegistered (caller, then
// attestee), AttestationExists, InvalidScore.
func (s *LedgerService) AttestToIdentity(ctx context.Context, caller, attestee model.Principal, score uint64, rationale string) (*model.Attestation, error) {
	var (
		out           *model.Attestation
		newlyVerified bool
	)
	err := s.mutate(ctx, "attest", caller, func(ctx context.Context, tx repository.Tx, height uint64) (*transition, error) {
		if caller == attestee {
			return nil, model.ErrSelfAttestation
		}
		if _, err := registered(ctx, tx, caller); err != nil {
			return nil, err
		}
		target, err := registered(ctx, tx, attestee)
		if err != nil {
			return nil, err
		}

		_, err = tx.Attestation(ctx, caller, attestee)
		switch {
		case err == nil:
			return nil, fmt.Errorf("%w: %s -> %s", model.ErrAttestationExists, caller, attestee)
		case !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}

		if !model.ValidScore(score) {
			return nil, model.ErrInvalidScore
		}
		if err := model.ValidateContext(rationale); err != nil {
			return nil, err
		}

		cfg, err := config(ctx, tx)
		if err != nil {
			return nil, err
		}

		a := &model.Attestation{
			Attester:  caller,
			Attestee:  attestee,
			Score:     score,
			Timestamp: height,
			Context:   rationale,
			Valid:     true,
		}

		if target.VerificationScore, err = addScore(target.VerificationScore, score); err != nil {
			return nil, err
		}
		target.AttestationCount++
		newlyVerified = !target.Verified && target.AttestationCount >= cfg.VerificationThreshold
		target.Verified = target.Verified || target.AttestationCount >= cfg.VerificationThreshold

		if err := tx.PutAttestation(ctx, a); err != nil {
			return nil, err
		}
		if err := tx.PutIdentity(ctx, target); err != nil {
			return nil, err
		}

		out = a
		return &transition{
			action:  trustledger.ActionAttest,
			subject: attestee,
			payload: a,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if newlyVerified {
		s.logger.Info("identity verified", zap.String("principal", attestee.String()))
		if s.metrics != nil {
			s.metrics.RecordVerified()
		}
	}
	return out, nil
}

// UpdateAttestation rewrites caller's existing attestation of attestee and
// shifts attestee's verification score by the difference. Attestation count
// and verified status are left alone. It returns the rewritten attestation.
func (s *LedgerService) UpdateAttestation(ctx context.Context, caller, attestee model.Principal, score uint64, rationale string) (*model.Attestation, error) {
	var out *model.Attestation
	err := s.mutate(ctx, "update_attestation", caller, func(ctx context.Context, tx repository.Tx, height uint64) (*transition, error) {
		a, err := tx.Attestation(ctx, caller, attestee)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s -> %s", model.ErrAttestationNotFound, caller, attestee)
		}
		if err != nil {
			return nil, err
		}
		if !model.ValidScore(score) {
			return nil, model.ErrInvalidScore
		}
		if err := model.ValidateContext(rationale); err != nil {
			return nil, err
		}

		target, err := tx.Identity(ctx, attestee)
		if err != nil {
			return nil, fmt.Errorf("load attestee: %w", err)
		}
		if target.VerificationScore, err = rescore(target.VerificationScore, a.Score, score); err != nil {
			return nil, err
		}

		a.Score = score
		a.Context = rationale
		a.Timestamp = height

		if err := tx.PutAttestation(ctx, a); err != nil {
			return nil, err
		}
		if err := tx.PutIdentity(ctx, target); err != nil {
			return nil, err
		}
		out = a
		return &transition{
			action:  trustledger.ActionUpdateAttestation,
			subject: attestee,
			payload: a,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetAttestation returns the attestation keyed (attester, attestee) or
// repository.ErrNotFound.
func (s *LedgerService) GetAttestation(ctx context.Context, attester, attestee model.Principal) (*model.Attestation, error) {
	var a *model.Attestation
	err := s.view(ctx, func(tx repository.Tx) error {
		var err error
		a, err = tx.Attestation(ctx, attester, attestee)
		return err
	})
	return a, err
}
