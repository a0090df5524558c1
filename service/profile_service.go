package service

import (
	"context"
	"fmt"

	"magdych/models"
)

// profileService implements the ProfileService interface
type profileService struct {
	store Store
}

// NewProfileService creates a new profile service
func NewProfileService(store Store) ProfileService {
	return &profileService{store: store}
}

// SetTier switches which resource kind subsequent usage requests debit
func (s *profileService) SetTier(ctx context.Context, accountID int64, tier models.ModelTier) (*models.Account, error) {
	if tier != models.TierStandard && tier != models.TierPremium {
		return nil, &InvalidInputError{Field: "tier", Reason: fmt.Sprintf("unknown tier %q", tier)}
	}

	tx := s.store.Begin(ctx)
	defer tx.Rollback()

	acct, ok := tx.Account(accountID)
	if !ok {
		return nil, ErrNotRegistered
	}
	if acct.Blacklisted {
		return nil, ErrBlacklisted
	}

	acct.Tier = tier
	tx.Put(acct)
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to record tier change: %w", err)
	}
	return acct.Clone(), nil
}

// SetPrompt stores the account's system-prompt override. The ledger
// never interprets the text; the LLM client reads it. An empty string
// clears the override.
func (s *profileService) SetPrompt(ctx context.Context, accountID int64, prompt string) error {
	tx := s.store.Begin(ctx)
	defer tx.Rollback()

	acct, ok := tx.Account(accountID)
	if !ok {
		return ErrNotRegistered
	}
	if acct.Blacklisted {
		return ErrBlacklisted
	}

	acct.CustomPrompt = prompt
	tx.Put(acct)
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to record prompt change: %w", err)
	}
	return nil
}
