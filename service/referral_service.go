package service

import (
	"context"
	"fmt"

	"magdych/config"
	"magdych/events"
	"magdych/models"
)

// referralService implements the ReferralService interface
type referralService struct {
	store     Store
	cfg       *config.Config
	publisher EventPublisher
}

// NewReferralService creates a new referral service
func NewReferralService(store Store, cfg *config.Config, publisher EventPublisher) ReferralService {
	return &referralService{
		store:     store,
		cfg:       cfg,
		publisher: publisher,
	}
}

// RegisterAccount creates an account on first contact. The existence
// check, the two bonus credits and the referral edge are staged in one
// transaction, so a concurrent registration of the same id or a
// concurrent read of the referrer's balance never observes a partial
// grant. The referral edge on the new account is the single source of
// truth for "bonus already granted": since registration of an existing
// id returns before any bonus logic runs, the bonus cannot be granted
// twice for the same (referrer, referred) pair.
func (s *referralService) RegisterAccount(ctx context.Context, id int64, name, handle string, referrerID *int64) (*models.Account, error) {
	tx := s.store.Begin(ctx)
	defer tx.Rollback()

	if existing, ok := tx.Account(id); ok {
		return existing, nil
	}

	acct := models.NewAccount(id, name, handle, s.cfg.StartingBalance)

	var bonus *events.ReferralBonusEvent
	if referrerID != nil && *referrerID != id {
		// Missing or blacklisted referrer: registration proceeds,
		// just without the bonus and without the edge.
		if referrer, ok := tx.Account(*referrerID); ok && !referrer.Blacklisted {
			referrer.Balances[models.ResourceStandard] += s.cfg.ReferralBonus
			acct.Balances[models.ResourceStandard] += s.cfg.ReferralBonus

			edge := *referrerID
			acct.ReferrerID = &edge

			tx.Put(referrer)
			bonus = &events.ReferralBonusEvent{
				ReferrerID: *referrerID,
				ReferredID: id,
				Amount:     s.cfg.ReferralBonus,
			}
		}
	}

	tx.Put(acct)
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to register account %d: %w", id, err)
	}

	s.publisher.Emit(ctx, events.AccountCreatedEvent{
		AccountID:       id,
		Name:            name,
		Handle:          handle,
		StartingBalance: acct.Balances[models.ResourceStandard],
		ReferrerID:      acct.ReferrerID,
	})
	if bonus != nil {
		s.publisher.Emit(ctx, *bonus)
	}

	// Commit applied the staged pointer into live store state; hand
	// the caller its own copy.
	return acct.Clone(), nil
}
