package models

import (
	"fmt"
	"strconv"
	"strings"
)

// FilterKind discriminates the audience filter variants
type FilterKind string

const (
	FilterAll         FilterKind = "all"
	FilterMinRequests FilterKind = "min_requests"
	FilterMinBalance  FilterKind = "min_balance"
	FilterAccount     FilterKind = "account"
	FilterGroup       FilterKind = "group"
	FilterHandle      FilterKind = "handle"
)

// AudienceFilter selects a subset of accounts as broadcast recipients.
// It is parsed once at the boundary; downstream code switches on Kind
// and never re-interprets the raw string.
type AudienceFilter struct {
	Kind      FilterKind
	Threshold int64  // FilterMinRequests / FilterMinBalance
	AccountID int64  // FilterAccount
	GroupID   int64  // FilterGroup, negative platform chat id
	Handle    string // FilterHandle, without the leading @
}

// InvalidFilterError reports an audience filter expression that does not
// match the filter vocabulary. It is distinct from an empty match so the
// caller can show a corrective message instead of broadcasting to nobody.
type InvalidFilterError struct {
	Expression string
	Reason     string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid audience filter %q: %s", e.Expression, e.Reason)
}

// ParseAudienceFilter parses a broadcast filter expression.
//
// Vocabulary:
//
//	all             every registered account
//	requests>=N     accounts with at least N lifetime requests
//	balance>=N      accounts with a standard balance of at least N
//	12345           a single account id
//	-100123456      a single group chat id
//	@handle         a single account matched by handle
func ParseAudienceFilter(expr string) (AudienceFilter, error) {
	s := strings.TrimSpace(expr)
	if s == "" {
		return AudienceFilter{}, &InvalidFilterError{Expression: expr, Reason: "empty expression"}
	}

	if strings.EqualFold(s, "all") {
		return AudienceFilter{Kind: FilterAll}, nil
	}

	if rest, ok := strings.CutPrefix(s, "requests>="); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(rest), 10, 64)
		if err != nil || n < 0 {
			return AudienceFilter{}, &InvalidFilterError{Expression: expr, Reason: "threshold must be a non-negative integer"}
		}
		return AudienceFilter{Kind: FilterMinRequests, Threshold: n}, nil
	}

	if rest, ok := strings.CutPrefix(s, "balance>="); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(rest), 10, 64)
		if err != nil || n < 0 {
			return AudienceFilter{}, &InvalidFilterError{Expression: expr, Reason: "threshold must be a non-negative integer"}
		}
		return AudienceFilter{Kind: FilterMinBalance, Threshold: n}, nil
	}

	if handle, ok := strings.CutPrefix(s, "@"); ok {
		if handle == "" {
			return AudienceFilter{}, &InvalidFilterError{Expression: expr, Reason: "empty handle"}
		}
		return AudienceFilter{Kind: FilterHandle, Handle: handle}, nil
	}

	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		if id < 0 {
			return AudienceFilter{Kind: FilterGroup, GroupID: id}, nil
		}
		if id == 0 {
			return AudienceFilter{}, &InvalidFilterError{Expression: expr, Reason: "zero is not a valid id"}
		}
		return AudienceFilter{Kind: FilterAccount, AccountID: id}, nil
	}

	return AudienceFilter{}, &InvalidFilterError{Expression: expr, Reason: "unknown filter"}
}
