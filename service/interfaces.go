package service

import (
	"context"

	"magdych/events"
	"magdych/models"
)

// Store defines the interface for ledger state access. The store is the
// sole owner of account and aggregate state; all mutations go through a
// transaction and are durable before Commit returns.
type Store interface {
	// Begin opens a transaction, serializing against all other
	// mutations until Commit or Rollback
	Begin(ctx context.Context) Tx

	// Get returns a copy of a single account
	Get(id int64) (*models.Account, bool)

	// SnapshotAccounts returns copies of all accounts ordered by id.
	// Snapshots may be slightly stale but no record is ever torn.
	SnapshotAccounts() []*models.Account

	// Aggregate returns a copy of the global aggregate
	Aggregate() *models.GlobalAggregate
}

// Tx is a single serialized unit of work against the store
type Tx interface {
	// Account returns a copy of the account as seen by the transaction
	Account(id int64) (*models.Account, bool)

	// Put stages an account write, applied on Commit
	Put(acct *models.Account)

	// Aggregate returns the transaction's working copy of the global
	// aggregate; mutations to it are applied on Commit
	Aggregate() *models.GlobalAggregate

	// Commit applies staged writes and persists them before returning
	Commit() error

	// Rollback discards staged writes; safe after Commit
	Rollback()
}

// EventPublisher publishes ledger events to interested subscribers
type EventPublisher interface {
	Emit(ctx context.Context, event events.Event)
}

// MeteringService applies usage transactions against the ledger
type MeteringService interface {
	// ChargeUsage debits amount of kind from the account, updates the
	// lifetime counters on the account and the global aggregate, and
	// stamps the activity timestamp. The debit is unconditional: the
	// caller gates on a positive balance before issuing the upstream
	// call, and a request already paid for upstream is charged even if
	// it overdraws the balance.
	ChargeUsage(ctx context.Context, accountID int64, kind models.ResourceKind, amount int64, exempt bool) (*models.UsageReport, error)
}

// ReferralService handles registration and referral bonuses
type ReferralService interface {
	// RegisterAccount creates the account on first contact and grants
	// the one-time referral bonus to both sides when the referrer
	// reference is valid. Registering an existing id is a no-op that
	// returns the existing account.
	RegisterAccount(ctx context.Context, id int64, name, handle string, referrerID *int64) (*models.Account, error)
}

// FavorService runs the manual top-up approval workflow
type FavorService interface {
	// RequestFavor marks the account as awaiting an admin decision
	RequestFavor(ctx context.Context, accountID int64) error

	// ResolveFavor applies the admin decision exactly once and clears
	// the pending flag
	ResolveFavor(ctx context.Context, accountID int64, approve bool) (*models.Account, error)
}

// AudienceService answers read-only aggregate queries over the ledger
type AudienceService interface {
	// TopN ranks non-admin accounts by a metric, descending, ties in
	// id order, accounts with a non-positive metric value excluded
	TopN(ctx context.Context, metric models.Metric, n int) ([]*models.LeaderboardEntry, error)

	// RecentlyActive returns accounts active within the given number
	// of days, newest first
	RecentlyActive(ctx context.Context, days int) ([]*models.Account, error)

	// ResolveAudience maps a broadcast filter expression to the list
	// of recipient ids
	ResolveAudience(ctx context.Context, expr string) ([]int64, error)
}

// AdminService exposes privileged ledger mutations
type AdminService interface {
	// Refill adds amount to a balance bucket, creating it when absent.
	// Negative amounts are allowed for corrections.
	Refill(ctx context.Context, accountID int64, kind models.ResourceKind, amount int64) (*models.Account, error)

	// Blacklist idempotently marks the account as blacklisted
	Blacklist(ctx context.Context, accountID int64) error
}

// ProfileService mutates the per-account settings consumed by the
// excluded LLM collaborator
type ProfileService interface {
	// SetTier selects which resource kind subsequent usage requests
	// debit
	SetTier(ctx context.Context, accountID int64, tier models.ModelTier) (*models.Account, error)

	// SetPrompt stores an opaque system-prompt override; empty clears
	SetPrompt(ctx context.Context, accountID int64, prompt string) error
}

// PendingActionService tracks short-lived staged admin actions, such as
// a composed broadcast awaiting confirmation
type PendingActionService interface {
	// Stage records an action and returns it with a fresh id
	Stage(adminID int64, kind, payload string) *PendingAction

	// Take removes and returns a staged action; expired or unknown
	// ids yield typed errors
	Take(adminID int64, actionID string) (*PendingAction, error)

	// Cancel discards a staged action
	Cancel(adminID int64, actionID string) error
}
