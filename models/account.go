package models

import (
	"time"
)

// ResourceKind identifies one of the metered resources
type ResourceKind string

const (
	ResourceStandard ResourceKind = "standard"
	ResourcePremium  ResourceKind = "premium"
	ResourceImage    ResourceKind = "image"
)

// ResourceKinds lists all metered resources in a stable order
var ResourceKinds = []ResourceKind{ResourceStandard, ResourcePremium, ResourceImage}

// DateLayout is the timestamp layout used in the data file
const DateLayout = "02.01.2006 15:04:05"

// NeverActive is the last-activity sentinel for accounts that
// have not issued a single request yet
const NeverActive = "01.01.1990 00:00:00"

// ModelTier selects which resource kind usage requests debit
type ModelTier string

const (
	TierStandard ModelTier = "standard"
	TierPremium  ModelTier = "premium"
)

// Account represents one registered end-user of the bot
type Account struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"name"`
	Handle      string `json:"username"`

	// Balances holds the remaining quantity per resource kind. A missing
	// key means the bucket was never provisioned, which is distinct
	// from a zero balance.
	Balances map[ResourceKind]int64 `json:"balances"`

	// Usage holds lifetime consumed quantities per resource kind.
	Usage    map[ResourceKind]int64 `json:"usage"`
	Requests int64                  `json:"requests"`

	// LastActivity is the timestamp of the most recent accepted usage
	// transaction, formatted with DateLayout.
	LastActivity string `json:"lastdate"`

	ReferrerID    *int64 `json:"referrer,omitempty"`
	FavorsGranted int64  `json:"favors_granted"`
	FavorPending  bool   `json:"favor_pending"`
	Blacklisted   bool   `json:"blacklisted"`

	CustomPrompt string    `json:"prompt,omitempty"`
	Tier         ModelTier `json:"tier"`
}

// NewAccount creates an account with the provisioned starting balance
func NewAccount(id int64, name, handle string, startingBalance int64) *Account {
	return &Account{
		ID:          id,
		DisplayName: name,
		Handle:      handle,
		Balances: map[ResourceKind]int64{
			ResourceStandard: startingBalance,
		},
		Usage:        make(map[ResourceKind]int64),
		LastActivity: NeverActive,
		Tier:         TierStandard,
	}
}

// Balance returns the remaining quantity for a kind. The second return
// reports whether the bucket was ever provisioned.
func (a *Account) Balance(kind ResourceKind) (int64, bool) {
	v, ok := a.Balances[kind]
	return v, ok
}

// HasPositiveBalance checks whether the account can still issue
// requests against a kind
func (a *Account) HasPositiveBalance(kind ResourceKind) bool {
	return a.Balances[kind] > 0
}

// ActiveResource maps the selected model tier to the resource kind
// that usage requests debit
func (a *Account) ActiveResource() ResourceKind {
	if a.Tier == TierPremium {
		return ResourcePremium
	}
	return ResourceStandard
}

// LastActivityTime parses the last-activity timestamp. Accounts carry
// the timestamp as a formatted string in the data file, so a record
// written by hand may fail to parse; callers must treat that as
// "no usable timestamp", not as a fatal error.
func (a *Account) LastActivityTime() (time.Time, error) {
	return time.Parse(DateLayout, a.LastActivity)
}

// TouchActivity stamps the last-activity timestamp
func (a *Account) TouchActivity(now time.Time) {
	a.LastActivity = now.Format(DateLayout)
}

// Clone returns a deep copy of the account
func (a *Account) Clone() *Account {
	c := *a
	c.Balances = make(map[ResourceKind]int64, len(a.Balances))
	for k, v := range a.Balances {
		c.Balances[k] = v
	}
	c.Usage = make(map[ResourceKind]int64, len(a.Usage))
	for k, v := range a.Usage {
		c.Usage[k] = v
	}
	if a.ReferrerID != nil {
		id := *a.ReferrerID
		c.ReferrerID = &id
	}
	return &c
}
