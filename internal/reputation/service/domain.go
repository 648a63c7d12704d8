package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmerrifield20/trustweb/internal/reputation/model"
	"github.com/jmerrifield20/trustweb/internal/reputation/repository"
	"github.com/jmerrifield20/trustweb/internal/trustledger"
)

// EndorseForDomain adds score to identity's reputation in domain. Only a
// caller that already attested to identity may endorse it; repeated
// endorsements by the same caller accumulate. It returns the updated record.
func (s *LedgerService) EndorseForDomain(ctx context.Context, caller, identity model.Principal, domain string, score uint64) (*model.DomainReputation, error) {
	var out *model.DomainReputation
	err := s.mutate(ctx, "endorse", caller, func(ctx context.Context, tx repository.Tx, height uint64) (*transition, error) {
		_, err := tx.Attestation(ctx, caller, identity)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s -> %s", model.ErrAttestationNotFound, caller, identity)
		}
		if err != nil {
			return nil, err
		}
		if !model.ValidScore(score) {
			return nil, model.ErrInvalidScore
		}
		if err := model.ValidateDomain(domain); err != nil {
			return nil, err
		}

		rep, err := tx.DomainReputation(ctx, identity, domain)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			rep = &model.DomainReputation{Identity: identity, Domain: domain}
		case err != nil:
			return nil, err
		}

		if rep.Score, err = addScore(rep.Score, score); err != nil {
			return nil, err
		}
		rep.EndorsementCount++
		rep.LastUpdated = height

		if err := tx.PutDomainReputation(ctx, rep); err != nil {
			return nil, err
		}
		out = rep
		return &transition{
			action:  trustledger.ActionEndorse,
			subject: identity,
			payload: rep,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetDomainReputation returns identity's reputation in domain or
// repository.ErrNotFound.
func (s *LedgerService) GetDomainReputation(ctx context.Context, identity model.Principal, domain string) (*model.DomainReputation, error) {
	var rep *model.DomainReputation
	err := s.view(ctx, func(tx repository.Tx) error {
		var err error
		rep, err = tx.DomainReputation(ctx, identity, domain)
		return err
	})
	return rep, err
}
