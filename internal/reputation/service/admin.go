package service

import (
	"context"
	"fmt"

	"github.com/jmerrifield20/trustweb/internal/reputation/model"
	"github.com/jmerrifield20/trustweb/internal/reputation/repository"
	"github.com/jmerrifield20/trustweb/internal/trustledger"
)

// Config returns the current AdminConfig.
func (s *LedgerService) Config(ctx context.Context) (*model.AdminConfig, error) {
	var cfg *model.AdminConfig
	err := s.view(ctx, func(tx repository.Tx) error {
		var err error
		cfg, err = config(ctx, tx)
		return err
	})
	return cfg, err
}

// authorize loads the config and checks that caller is the admin.
func authorize(ctx context.Context, tx repository.Tx, caller model.Principal) (*model.AdminConfig, error) {
	cfg, err := config(ctx, tx)
	if err != nil {
		return nil, err
	}
	if cfg.Admin != caller {
		return nil, fmt.Errorf("%w: %s", model.ErrNotAuthorized, caller)
	}
	return cfg, nil
}

// SetAdmin transfers the admin role to newAdmin and returns the new config.
// Only the current admin may call it.
func (s *LedgerService) SetAdmin(ctx context.Context, caller, newAdmin model.Principal) (*model.AdminConfig, error) {
	var out *model.AdminConfig
	err := s.mutate(ctx, "set_admin", caller, func(ctx context.Context, tx repository.Tx, height uint64) (*transition, error) {
		cfg, err := authorize(ctx, tx, caller)
		if err != nil {
			return nil, err
		}
		if err := model.ValidatePrincipal("admin", newAdmin); err != nil {
			return nil, err
		}
		cfg.Admin = newAdmin
		cfg.Height = height
		if err := tx.PutConfig(ctx, cfg); err != nil {
			return nil, err
		}
		out = cfg
		return &transition{
			action:  trustledger.ActionSetAdmin,
			subject: newAdmin,
			payload: cfg,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetVerificationThreshold replaces the threshold used by future
// attestations and returns the new config. Already-verified identities are
// unaffected.
func (s *LedgerService) SetVerificationThreshold(ctx context.Context, caller model.Principal, threshold uint64) (*model.AdminConfig, error) {
	var out *model.AdminConfig
	err := s.mutate(ctx, "set_threshold", caller, func(ctx context.Context, tx repository.Tx, height uint64) (*transition, error) {
		cfg, err := authorize(ctx, tx, caller)
		if err != nil {
			return nil, err
		}
		cfg.VerificationThreshold = threshold
		cfg.Height = height
		if err := tx.PutConfig(ctx, cfg); err != nil {
			return nil, err
		}
		out = cfg
		return &transition{
			action:  trustledger.ActionSetThreshold,
			subject: caller,
			payload: cfg,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
