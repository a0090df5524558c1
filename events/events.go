package events

import (
	"context"
	"sync"

	"magdych/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeAccountCreated     EventType = "account_created"
	EventTypeUsageCharged       EventType = "usage_charged"
	EventTypeReferralBonus      EventType = "referral_bonus"
	EventTypeFavorRequested     EventType = "favor_requested"
	EventTypeFavorResolved      EventType = "favor_resolved"
	EventTypeBalanceAdjusted    EventType = "balance_adjusted"
	EventTypeAccountBlacklisted EventType = "account_blacklisted"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// AccountCreatedEvent represents a new account registration
type AccountCreatedEvent struct {
	AccountID       int64
	Name            string
	Handle          string
	StartingBalance int64
	ReferrerID      *int64
}

func (e AccountCreatedEvent) Type() EventType {
	return EventTypeAccountCreated
}

// UsageChargedEvent represents an accepted usage transaction
type UsageChargedEvent struct {
	AccountID  int64
	Kind       models.ResourceKind
	Amount     int64
	NewBalance int64
	Exempt     bool
}

func (e UsageChargedEvent) Type() EventType {
	return EventTypeUsageCharged
}

// ReferralBonusEvent represents a one-time referral bonus grant
type ReferralBonusEvent struct {
	ReferrerID int64
	ReferredID int64
	Amount     int64
}

func (e ReferralBonusEvent) Type() EventType {
	return EventTypeReferralBonus
}

// FavorRequestedEvent surfaces a pending favor request for the
// administrator's decision
type FavorRequestedEvent struct {
	AccountID int64
	Name      string
	Handle    string
	Balance   int64
}

func (e FavorRequestedEvent) Type() EventType {
	return EventTypeFavorRequested
}

// FavorResolvedEvent represents the administrator's decision on a
// pending favor request
type FavorResolvedEvent struct {
	AccountID int64
	Approved  bool
	Amount    int64
}

func (e FavorResolvedEvent) Type() EventType {
	return EventTypeFavorResolved
}

// BalanceAdjustedEvent represents a manual admin refill or correction
type BalanceAdjustedEvent struct {
	AccountID  int64
	Kind       models.ResourceKind
	Amount     int64
	NewBalance int64
}

func (e BalanceAdjustedEvent) Type() EventType {
	return EventTypeBalanceAdjusted
}

// AccountBlacklistedEvent represents an account being blacklisted
type AccountBlacklistedEvent struct {
	AccountID int64
}

func (e AccountBlacklistedEvent) Type() EventType {
	return EventTypeAccountBlacklisted
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers. Handlers run
// asynchronously so that a slow subscriber never blocks the ledger.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}
