package service

import (
	"errors"
	"fmt"

	"magdych/models"
)

var (
	// ErrNotRegistered means the operation targeted an id with no
	// account record; the transport prompts registration.
	ErrNotRegistered = errors.New("account is not registered")

	// ErrBlacklisted short-circuits mutations for blacklisted accounts
	ErrBlacklisted = errors.New("account is blacklisted")

	// ErrInsufficientBalance gates usage authorization: the upstream
	// call must not be issued against a non-positive balance.
	ErrInsufficientBalance = errors.New("balance is not positive")

	// ErrDuplicateFavorRequest rejects a favor request while an
	// earlier one is still unresolved
	ErrDuplicateFavorRequest = errors.New("a favor request is already pending")

	// ErrNoActiveFavorRequest makes favor resolution idempotent under
	// duplicate button presses
	ErrNoActiveFavorRequest = errors.New("no favor request is pending")

	// ErrFavorNotNeeded rejects favor requests from accounts whose
	// balance is above the configured ceiling
	ErrFavorNotNeeded = errors.New("balance is above the favor ceiling")

	// ErrAdminAccount rejects workflow operations that make no sense
	// for the administrator identity
	ErrAdminAccount = errors.New("operation not applicable to the admin account")

	// ErrUnknownAction means the pending action id does not exist for
	// this admin
	ErrUnknownAction = errors.New("unknown pending action")

	// ErrActionExpired means the pending action outlived its TTL
	ErrActionExpired = errors.New("pending action has expired")
)

// InvalidInputError reports malformed operation arguments with enough
// detail for the transport to show a corrective message
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// validateKind rejects resource kinds outside the closed enum
func validateKind(kind models.ResourceKind) error {
	switch kind {
	case models.ResourceStandard, models.ResourcePremium, models.ResourceImage:
		return nil
	}
	return &InvalidInputError{Field: "resource kind", Reason: fmt.Sprintf("unknown kind %q", kind)}
}

// validateMetric rejects leaderboard metrics outside the closed enum
func validateMetric(metric models.Metric) error {
	switch metric {
	case models.MetricRequests,
		models.MetricUsageStandard, models.MetricUsagePremium, models.MetricUsageImage,
		models.MetricBalanceStandard, models.MetricBalancePremium, models.MetricBalanceImage,
		models.MetricReferrals, models.MetricCost:
		return nil
	}
	return &InvalidInputError{Field: "metric", Reason: fmt.Sprintf("unknown metric %q", metric)}
}
