package service

import (
	"context"
	"fmt"

	"magdych/config"
	"magdych/events"
	"magdych/models"
)

// favorService implements the FavorService interface
type favorService struct {
	store     Store
	cfg       *config.Config
	publisher EventPublisher
}

// NewFavorService creates a new favor service
func NewFavorService(store Store, cfg *config.Config, publisher EventPublisher) FavorService {
	return &favorService{
		store:     store,
		cfg:       cfg,
		publisher: publisher,
	}
}

// RequestFavor moves the account from NONE to PENDING. The request is
// surfaced to the administrator through the favor-requested event.
func (s *favorService) RequestFavor(ctx context.Context, accountID int64) error {
	tx := s.store.Begin(ctx)
	defer tx.Rollback()

	acct, ok := tx.Account(accountID)
	if !ok {
		return ErrNotRegistered
	}
	if acct.Blacklisted {
		return ErrBlacklisted
	}
	if accountID == s.cfg.AdminID {
		return ErrAdminAccount
	}
	if acct.Balances[models.ResourceStandard] > s.cfg.FavorCeiling {
		return ErrFavorNotNeeded
	}
	if acct.FavorPending {
		return ErrDuplicateFavorRequest
	}

	acct.FavorPending = true
	tx.Put(acct)
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to record favor request: %w", err)
	}

	s.publisher.Emit(ctx, events.FavorRequestedEvent{
		AccountID: accountID,
		Name:      acct.DisplayName,
		Handle:    acct.Handle,
		Balance:   acct.Balances[models.ResourceStandard],
	})
	return nil
}

// ResolveFavor moves the account from PENDING back to NONE, applying
// the credit at most once. A second resolution of the same request
// (duplicate button press) hits the pending check and changes nothing.
func (s *favorService) ResolveFavor(ctx context.Context, accountID int64, approve bool) (*models.Account, error) {
	tx := s.store.Begin(ctx)
	defer tx.Rollback()

	acct, ok := tx.Account(accountID)
	if !ok {
		return nil, ErrNotRegistered
	}
	if !acct.FavorPending {
		return nil, ErrNoActiveFavorRequest
	}

	if approve {
		acct.FavorsGranted++
		acct.Balances[models.ResourceStandard] += s.cfg.FavorAmount
	}
	acct.FavorPending = false

	tx.Put(acct)
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to record favor resolution: %w", err)
	}

	amount := int64(0)
	if approve {
		amount = s.cfg.FavorAmount
	}
	s.publisher.Emit(ctx, events.FavorResolvedEvent{
		AccountID: accountID,
		Approved:  approve,
		Amount:    amount,
	})
	return acct.Clone(), nil
}
