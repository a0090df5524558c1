package service

import (
	"context"
	"fmt"
	"time"

	"magdych/config"
	"magdych/events"
	"magdych/models"
)

// meteringService implements the MeteringService interface
type meteringService struct {
	store     Store
	cfg       *config.Config
	publisher EventPublisher
}

// NewMeteringService creates a new metering service
func NewMeteringService(store Store, cfg *config.Config, publisher EventPublisher) MeteringService {
	return &meteringService{
		store:     store,
		cfg:       cfg,
		publisher: publisher,
	}
}

// ChargeUsage applies one usage transaction: lifetime counters on the
// account and the global aggregate move together in a single
// transaction, and nothing is acknowledged before the ledger file
// reflects it.
func (s *meteringService) ChargeUsage(ctx context.Context, accountID int64, kind models.ResourceKind, amount int64, exempt bool) (*models.UsageReport, error) {
	if err := validateKind(kind); err != nil {
		return nil, err
	}
	if amount < 0 {
		return nil, &InvalidInputError{Field: "amount", Reason: "must not be negative"}
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

	acct.Usage[kind] += amount
	acct.Requests++
	acct.TouchActivity(time.Now())

	// The debit is not clamped at zero. The upstream call was already
	// paid for by the time the charge lands, so the balance is allowed
	// to go negative; the caller's pre-check keeps an exhausted account
	// from issuing the next request.
	if !exempt {
		acct.Balances[kind] -= amount
	}

	agg := tx.Aggregate()
	agg.Usage[kind] += amount
	agg.Requests++

	tx.Put(acct)
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to record usage charge: %w", err)
	}

	s.publisher.Emit(ctx, events.UsageChargedEvent{
		AccountID:  accountID,
		Kind:       kind,
		Amount:     amount,
		NewBalance: acct.Balances[kind],
		Exempt:     exempt,
	})

	return &models.UsageReport{
		AccountID:    accountID,
		Kind:         kind,
		Charged:      amount,
		Balance:      acct.Balances[kind],
		LifetimeUsed: acct.Usage[kind],
		Requests:     acct.Requests,
		Cost:         s.cfg.Cost(kind, amount),
	}, nil
}
