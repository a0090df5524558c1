package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"magdych/config"
	"magdych/models"

	"github.com/shopspring/decimal"
)

// audienceService implements the AudienceService interface. It only
// ever reads cloned snapshots and never mutates ledger state.
type audienceService struct {
	store Store
	cfg   *config.Config
}

// NewAudienceService creates a new audience service
func NewAudienceService(store Store, cfg *config.Config) AudienceService {
	return &audienceService{
		store: store,
		cfg:   cfg,
	}
}

// TopN ranks non-admin accounts by the metric, descending. Only
// positive metric values qualify; ties keep id order because the
// snapshot is id-ordered and the sort is stable.
func (s *audienceService) TopN(ctx context.Context, metric models.Metric, n int) ([]*models.LeaderboardEntry, error) {
	if n <= 0 {
		return nil, &InvalidInputError{Field: "n", Reason: "must be positive"}
	}
	if err := validateMetric(metric); err != nil {
		return nil, err
	}

	accounts := s.store.SnapshotAccounts()

	var referrals map[int64]int64
	if metric == models.MetricReferrals {
		referrals = make(map[int64]int64)
		for _, acct := range accounts {
			if acct.ReferrerID != nil {
				referrals[*acct.ReferrerID]++
			}
		}
	}

	entries := make([]*models.LeaderboardEntry, 0, len(accounts))
	for _, acct := range accounts {
		if acct.ID == s.cfg.AdminID {
			continue
		}

		entry := &models.LeaderboardEntry{
			AccountID: acct.ID,
			Name:      acct.DisplayName,
			Handle:    acct.Handle,
		}

		if metric == models.MetricCost {
			entry.Cost = s.accountCost(acct)
			if !entry.Cost.IsPositive() {
				continue
			}
		} else {
			value := s.metricValue(acct, metric, referrals)
			if value <= 0 {
				continue
			}
			entry.Value = value
		}

		entries = append(entries, entry)
	}

	if metric == models.MetricCost {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Cost.GreaterThan(entries[j].Cost)
		})
	} else {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Value > entries[j].Value
		})
	}

	if len(entries) > n {
		entries = entries[:n]
	}
	for i, entry := range entries {
		entry.Rank = i + 1
	}
	return entries, nil
}

// metricValue extracts the integer metric value from an account. The
// metric has already passed validateMetric.
func (s *audienceService) metricValue(acct *models.Account, metric models.Metric, referrals map[int64]int64) int64 {
	switch metric {
	case models.MetricRequests:
		return acct.Requests
	case models.MetricUsageStandard:
		return acct.Usage[models.ResourceStandard]
	case models.MetricUsagePremium:
		return acct.Usage[models.ResourcePremium]
	case models.MetricUsageImage:
		return acct.Usage[models.ResourceImage]
	case models.MetricBalanceStandard:
		return acct.Balances[models.ResourceStandard]
	case models.MetricBalancePremium:
		return acct.Balances[models.ResourcePremium]
	case models.MetricBalanceImage:
		return acct.Balances[models.ResourceImage]
	case models.MetricReferrals:
		return referrals[acct.ID]
	}
	return 0
}

// accountCost is the account's lifetime spend in USD across all kinds
func (s *audienceService) accountCost(acct *models.Account) decimal.Decimal {
	total := decimal.Zero
	for _, kind := range models.ResourceKinds {
		if used := acct.Usage[kind]; used > 0 {
			total = total.Add(s.cfg.Cost(kind, used))
		}
	}
	return total
}

// RecentlyActive returns accounts whose last accepted usage falls
// within the window, newest first. Records with a timestamp that does
// not parse are skipped; a hand-edited data file must not break the
// query.
func (s *audienceService) RecentlyActive(ctx context.Context, days int) ([]*models.Account, error) {
	if days < 0 {
		return nil, &InvalidInputError{Field: "days", Reason: "must not be negative"}
	}

	cutoff := time.Now().AddDate(0, 0, -days)

	type activeAccount struct {
		acct *models.Account
		at   time.Time
	}

	var active []activeAccount
	for _, acct := range s.store.SnapshotAccounts() {
		at, err := acct.LastActivityTime()
		if err != nil {
			continue
		}
		if at.Before(cutoff) {
			continue
		}
		active = append(active, activeAccount{acct: acct, at: at})
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].at.After(active[j].at)
	})

	out := make([]*models.Account, len(active))
	for i, a := range active {
		out[i] = a.acct
	}
	return out, nil
}

// ResolveAudience maps a filter expression to the recipient id list.
// The expression is parsed once here; nothing downstream sees the raw
// string again.
func (s *audienceService) ResolveAudience(ctx context.Context, expr string) ([]int64, error) {
	filter, err := models.ParseAudienceFilter(expr)
	if err != nil {
		return nil, err
	}

	switch filter.Kind {
	case models.FilterAll:
		return s.collect(func(acct *models.Account) bool { return true }), nil

	case models.FilterMinRequests:
		return s.collect(func(acct *models.Account) bool {
			return acct.Requests >= filter.Threshold
		}), nil

	case models.FilterMinBalance:
		return s.collect(func(acct *models.Account) bool {
			return acct.Balances[models.ResourceStandard] >= filter.Threshold
		}), nil

	case models.FilterAccount:
		if _, ok := s.store.Get(filter.AccountID); !ok {
			return nil, ErrNotRegistered
		}
		return []int64{filter.AccountID}, nil

	case models.FilterGroup:
		// Group chat ids are opaque to the ledger; the transport
		// addresses the chat directly.
		return []int64{filter.GroupID}, nil

	case models.FilterHandle:
		for _, acct := range s.store.SnapshotAccounts() {
			if strings.EqualFold(acct.Handle, filter.Handle) {
				return []int64{acct.ID}, nil
			}
		}
		return nil, ErrNotRegistered
	}

	return nil, &models.InvalidFilterError{Expression: expr, Reason: "unknown filter"}
}

// collect gathers ids of broadcastable accounts matching the predicate.
// Blacklisted accounts never receive broadcasts.
func (s *audienceService) collect(match func(*models.Account) bool) []int64 {
	var ids []int64
	for _, acct := range s.store.SnapshotAccounts() {
		if acct.Blacklisted {
			continue
		}
		if match(acct) {
			ids = append(ids, acct.ID)
		}
	}
	return ids
}
