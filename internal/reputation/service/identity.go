package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmerrifield20/trustweb/internal/reputation/model"
	"github.com/jmerrifield20/trustweb/internal/reputation/repository"
	"github.com/jmerrifield20/trustweb/internal/trustledger"
)

// RegisterIdentity creates the caller's identity record and returns it.
// Ids are allocated sequentially from 1 and never reused.
func (s *LedgerService) RegisterIdentity(ctx context.Context, caller model.Principal) (*model.Identity, error) {
	var out *model.Identity
	err := s.mutate(ctx, "register_identity", caller, func(ctx context.Context, tx repository.Tx, height uint64) (*transition, error) {
		_, err := tx.Identity(ctx, caller)
		switch {
		case err == nil:
			return nil, fmt.Errorf("%w: %s", model.ErrAlreadyRegistered, caller)
		case !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}

		cfg, err := config(ctx, tx)
		if err != nil {
			return nil, err
		}

		rec := &model.Identity{
			Principal:          caller,
			ID:                 cfg.NextIdentityID,
			RegistrationHeight: height,
		}
		cfg.NextIdentityID++
		if err := tx.PutIdentity(ctx, rec); err != nil {
			return nil, err
		}
		if err := tx.PutConfig(ctx, cfg); err != nil {
			return nil, err
		}

		out = rec
		return &transition{
			action:  trustledger.ActionRegister,
			subject: caller,
			payload: rec,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetIdentity returns p's identity or repository.ErrNotFound.
func (s *LedgerService) GetIdentity(ctx context.Context, p model.Principal) (*model.Identity, error) {
	var rec *model.Identity
	err := s.view(ctx, func(tx repository.Tx) error {
		var err error
		rec, err = tx.Identity(ctx, p)
		return err
	})
	return rec, err
}
