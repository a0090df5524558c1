package service

import (
	"context"
	"fmt"

	"magdych/events"
	"magdych/models"
)

// adminService implements the AdminService interface. Authorization of
// the caller as the administrator happens at the transport boundary;
// these operations assume it already passed.
type adminService struct {
	store     Store
	publisher EventPublisher
}

// NewAdminService creates a new admin service
func NewAdminService(store Store, publisher EventPublisher) AdminService {
	return &adminService{
		store:     store,
		publisher: publisher,
	}
}

// Refill adds amount to a balance bucket, creating the bucket when the
// account never had one. Negative amounts are corrections.
func (s *adminService) Refill(ctx context.Context, accountID int64, kind models.ResourceKind, amount int64) (*models.Account, error) {
	if err := validateKind(kind); err != nil {
		return nil, err
	}

	tx := s.store.Begin(ctx)
	defer tx.Rollback()

	acct, ok := tx.Account(accountID)
	if !ok {
		return nil, ErrNotRegistered
	}

	acct.Balances[kind] += amount
	tx.Put(acct)
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to record refill: %w", err)
	}

	s.publisher.Emit(ctx, events.BalanceAdjustedEvent{
		AccountID:  accountID,
		Kind:       kind,
		Amount:     amount,
		NewBalance: acct.Balances[kind],
	})
	return acct.Clone(), nil
}

// Blacklist marks the account as blacklisted. Repeating the call is a
// no-op, not an error.
func (s *adminService) Blacklist(ctx context.Context, accountID int64) error {
	tx := s.store.Begin(ctx)
	defer tx.Rollback()

	acct, ok := tx.Account(accountID)
	if !ok {
		return ErrNotRegistered
	}
	if acct.Blacklisted {
		return nil
	}

	acct.Blacklisted = true
	tx.Put(acct)
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to record blacklist: %w", err)
	}

	s.publisher.Emit(ctx, events.AccountBlacklistedEvent{AccountID: accountID})
	return nil
}
