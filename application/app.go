// Package application is the in-process call surface offered to the
// chat transport. It translates inbound transport events into service
// calls and returns plain data snapshots; it never formats text and
// never talks to any chat or LLM API itself.
package application

import (
	"context"

	"magdych/config"
	"magdych/events"
	"magdych/models"
	"magdych/service"
)

const pendingKindBroadcast = "broadcast"

// App bundles the ledger services behind the handlers the transport
// calls
type App struct {
	cfg *config.Config

	store    service.Store
	metering service.MeteringService
	referral service.ReferralService
	favor    service.FavorService
	audience service.AudienceService
	admin    service.AdminService
	profile  service.ProfileService
	pending  service.PendingActionService
}

// New wires the ledger services over a shared store and event bus
func New(cfg *config.Config, store service.Store, bus *events.Bus) *App {
	return &App{
		cfg:      cfg,
		store:    store,
		metering: service.NewMeteringService(store, cfg, bus),
		referral: service.NewReferralService(store, cfg, bus),
		favor:    service.NewFavorService(store, cfg, bus),
		audience: service.NewAudienceService(store, cfg),
		admin:    service.NewAdminService(store, bus),
		profile:  service.NewProfileService(store),
		pending:  service.NewPendingActionService(cfg.PendingActionTTL),
	}
}

// AuthorizeUsage gates an inbound usage request before the transport
// issues the upstream LLM call. It returns the resource kind the
// account's tier debits and whether the account is exempt from debits.
// A non-positive balance rejects the request here; once the upstream
// call has been paid for, the subsequent charge is unconditional.
func (a *App) AuthorizeUsage(ctx context.Context, accountID int64) (models.ResourceKind, bool, error) {
	acct, ok := a.store.Get(accountID)
	if !ok {
		return "", false, service.ErrNotRegistered
	}
	if acct.Blacklisted {
		return "", false, service.ErrBlacklisted
	}

	kind := acct.ActiveResource()
	if accountID == a.cfg.AdminID {
		return kind, true, nil
	}
	if !acct.HasPositiveBalance(kind) {
		return kind, false, service.ErrInsufficientBalance
	}
	return kind, false, nil
}

// RecordUsage charges the account for a completed upstream call
func (a *App) RecordUsage(ctx context.Context, accountID int64, kind models.ResourceKind, amount int64, exempt bool) (*models.UsageReport, error) {
	return a.metering.ChargeUsage(ctx, accountID, kind, amount, exempt)
}

// Account returns a snapshot of a single account, for balance and
// profile display
func (a *App) Account(ctx context.Context, accountID int64) (*models.Account, error) {
	acct, ok := a.store.Get(accountID)
	if !ok {
		return nil, service.ErrNotRegistered
	}
	return acct, nil
}

// Register creates the account on first contact, applying the referral
// bonus when the referrer argument is valid
func (a *App) Register(ctx context.Context, accountID int64, name, handle string, referrerID *int64) (*models.Account, error) {
	return a.referral.RegisterAccount(ctx, accountID, name, handle, referrerID)
}

// RequestFavor files a manual top-up request for admin decision
func (a *App) RequestFavor(ctx context.Context, accountID int64) error {
	return a.favor.RequestFavor(ctx, accountID)
}

// ResolveFavor applies the admin's approve/deny decision
func (a *App) ResolveFavor(ctx context.Context, accountID int64, approve bool) (*models.Account, error) {
	return a.favor.ResolveFavor(ctx, accountID, approve)
}

// Refill adds to a balance bucket of any account
func (a *App) Refill(ctx context.Context, accountID int64, kind models.ResourceKind, amount int64) (*models.Account, error) {
	return a.admin.Refill(ctx, accountID, kind, amount)
}

// Blacklist marks an account as blacklisted
func (a *App) Blacklist(ctx context.Context, accountID int64) error {
	return a.admin.Blacklist(ctx, accountID)
}

// SetTier switches the account between the standard and premium model
// tiers
func (a *App) SetTier(ctx context.Context, accountID int64, tier models.ModelTier) (*models.Account, error) {
	return a.profile.SetTier(ctx, accountID, tier)
}

// SetPrompt stores the account's system-prompt override
func (a *App) SetPrompt(ctx context.Context, accountID int64, prompt string) error {
	return a.profile.SetPrompt(ctx, accountID, prompt)
}

// Leaderboard ranks accounts by a metric
func (a *App) Leaderboard(ctx context.Context, metric models.Metric, n int) ([]*models.LeaderboardEntry, error) {
	return a.audience.TopN(ctx, metric, n)
}

// RecentlyActive lists accounts active within the window, newest first
func (a *App) RecentlyActive(ctx context.Context, days int) ([]*models.Account, error) {
	return a.audience.RecentlyActive(ctx, days)
}

// ComposeBroadcast validates the filter expression and stages the
// broadcast for confirmation, returning the action id the transport
// embeds in its confirm/cancel buttons
func (a *App) ComposeBroadcast(ctx context.Context, adminID int64, filterExpr string) (string, error) {
	if _, err := models.ParseAudienceFilter(filterExpr); err != nil {
		return "", err
	}
	action := a.pending.Stage(adminID, pendingKindBroadcast, filterExpr)
	return action.ID, nil
}

// ConfirmBroadcast consumes the staged broadcast and resolves its
// recipient list. The transport performs the actual sends.
func (a *App) ConfirmBroadcast(ctx context.Context, adminID int64, actionID string) ([]int64, error) {
	action, err := a.pending.Take(adminID, actionID)
	if err != nil {
		return nil, err
	}
	return a.audience.ResolveAudience(ctx, action.Payload)
}

// CancelBroadcast discards a staged broadcast
func (a *App) CancelBroadcast(ctx context.Context, adminID int64, actionID string) error {
	return a.pending.Cancel(adminID, actionID)
}
