package models

import (
	"github.com/shopspring/decimal"
)

// UsageReport is the snapshot returned to the transport after a charge.
// The transport formats it into user-facing text; the core never builds
// presentation strings.
type UsageReport struct {
	AccountID int64
	Kind      ResourceKind
	Charged   int64

	Balance      int64 // remaining balance for Kind after the charge
	LifetimeUsed int64 // lifetime usage for Kind after the charge
	Requests     int64 // lifetime request count after the charge

	// Cost is the USD price of this charge, Σ amount × unit price.
	Cost decimal.Decimal
}

// Metric names a numeric ranking dimension for leaderboards
type Metric string

const (
	MetricRequests        Metric = "requests"
	MetricUsageStandard   Metric = "usage_standard"
	MetricUsagePremium    Metric = "usage_premium"
	MetricUsageImage      Metric = "usage_image"
	MetricBalanceStandard Metric = "balance_standard"
	MetricBalancePremium  Metric = "balance_premium"
	MetricBalanceImage    Metric = "balance_image"
	MetricReferrals       Metric = "referrals"
	MetricCost            Metric = "cost"
)

// LeaderboardEntry represents one account's row in a topN ranking
type LeaderboardEntry struct {
	Rank      int
	AccountID int64
	Name      string
	Handle    string

	// Value is the integer metric value; Cost carries the value for
	// MetricCost instead, since spend is fractional USD.
	Value int64
	Cost  decimal.Decimal
}
