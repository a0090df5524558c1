package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// PendingAction is a staged admin action awaiting confirmation, such as
// a composed broadcast. Actions are keyed by (admin id, action id) and
// expire after a TTL; they are never persisted.
type PendingAction struct {
	ID        string
	AdminID   int64
	Kind      string
	Payload   string
	ExpiresAt time.Time
}

// pendingActionService implements the PendingActionService interface
type pendingActionService struct {
	mu      sync.Mutex
	actions map[string]*PendingAction
	ttl     time.Duration
}

// NewPendingActionService creates a new pending action service
func NewPendingActionService(ttl time.Duration) PendingActionService {
	return &pendingActionService{
		actions: make(map[string]*PendingAction),
		ttl:     ttl,
	}
}

// Stage records an action under a fresh id
func (s *pendingActionService) Stage(adminID int64, kind, payload string) *PendingAction {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()

	action := &PendingAction{
		ID:        uuid.NewString(),
		AdminID:   adminID,
		Kind:      kind,
		Payload:   payload,
		ExpiresAt: time.Now().Add(s.ttl),
	}
	s.actions[action.ID] = action

	log.WithFields(log.Fields{
		"adminID":  adminID,
		"kind":     kind,
		"actionID": action.ID,
	}).Debug("Staged pending admin action")
	return action
}

// Take removes and returns a staged action. An id staged by a different
// admin is treated as unknown, so one admin cannot confirm another's
// action, and a duplicate confirmation finds nothing to take.
func (s *pendingActionService) Take(adminID int64, actionID string) (*PendingAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	action, ok := s.actions[actionID]
	if !ok || action.AdminID != adminID {
		return nil, ErrUnknownAction
	}
	delete(s.actions, actionID)

	if time.Now().After(action.ExpiresAt) {
		return nil, ErrActionExpired
	}
	return action, nil
}

// Cancel discards a staged action
func (s *pendingActionService) Cancel(adminID int64, actionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	action, ok := s.actions[actionID]
	if !ok || action.AdminID != adminID {
		return ErrUnknownAction
	}
	delete(s.actions, actionID)
	return nil
}

// pruneLocked drops expired actions. Callers must hold s.mu.
func (s *pendingActionService) pruneLocked() {
	now := time.Now()
	for id, action := range s.actions {
		if now.After(action.ExpiresAt) {
			delete(s.actions, id)
		}
	}
}
