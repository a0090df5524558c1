package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"magdych/models"
	"magdych/service"

	log "github.com/sirupsen/logrus"
)

// fileImage is the on-disk layout of the ledger: one record per account
// keyed by id, plus the global aggregate.
type fileImage struct {
	Global   *models.GlobalAggregate   `json:"global"`
	Accounts map[int64]*models.Account `json:"users"`
}

// FileStore is the sole owner of ledger state: a mutex-guarded in-memory
// table persisted to a JSON file. Every mutation goes through a
// transaction and is flushed to disk before it is acknowledged.
type FileStore struct {
	mu sync.Mutex

	path       string
	backupPath string

	accounts  map[int64]*models.Account
	aggregate *models.GlobalAggregate

	adminID          int64
	adminSeedBalance int64
}

// New creates a file store bound to the given data and backup paths.
// The admin identity is seeded into a fresh ledger on first Load.
func New(path, backupPath string, adminID, adminSeedBalance int64) *FileStore {
	return &FileStore{
		path:             path,
		backupPath:       backupPath,
		accounts:         make(map[int64]*models.Account),
		aggregate:        models.NewGlobalAggregate(),
		adminID:          adminID,
		adminSeedBalance: adminSeedBalance,
	}
}

// Load reads the durable image into memory. Called once at start-up.
// A missing file is not an error: the store initializes itself with a
// zeroed aggregate and the privileged admin account, and writes the
// initial image immediately.
func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		log.WithField("path", s.path).Info("no ledger file found, initializing fresh ledger")
		admin := models.NewAccount(s.adminID, "admin", "admin", s.adminSeedBalance)
		s.accounts[admin.ID] = admin
		s.aggregate = models.NewGlobalAggregate()
		return s.persistLocked()
	}
	if err != nil {
		return fmt.Errorf("failed to read ledger file %s: %w", s.path, err)
	}

	var image fileImage
	if err := json.Unmarshal(raw, &image); err != nil {
		return fmt.Errorf("failed to decode ledger file %s: %w", s.path, err)
	}

	s.accounts = image.Accounts
	if s.accounts == nil {
		s.accounts = make(map[int64]*models.Account)
	}
	s.aggregate = image.Global
	if s.aggregate == nil {
		s.aggregate = models.NewGlobalAggregate()
	}
	for id, acct := range s.accounts {
		acct.ID = id
		if acct.Balances == nil {
			acct.Balances = make(map[models.ResourceKind]int64)
		}
		if acct.Usage == nil {
			acct.Usage = make(map[models.ResourceKind]int64)
		}
	}

	log.WithFields(log.Fields{
		"path":     s.path,
		"accounts": len(s.accounts),
	}).Info("ledger loaded")
	return nil
}

// Get returns a copy of a single account
func (s *FileStore) Get(id int64) (*models.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[id]
	if !ok {
		return nil, false
	}
	return acct.Clone(), true
}

// SnapshotAccounts returns copies of all accounts, ordered by id
// ascending. Queries operate on the snapshot, so they may see slightly
// stale data but never a half-updated record.
func (s *FileStore) SnapshotAccounts() []*models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Account, 0, len(s.accounts))
	for _, acct := range s.accounts {
		out = append(out, acct.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Aggregate returns a copy of the global aggregate
func (s *FileStore) Aggregate() *models.GlobalAggregate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aggregate.Clone()
}

// Persist flushes the current in-memory state to the durable file.
// Transactions persist on commit already; this exists for the periodic
// safety-net flush.
func (s *FileStore) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

// SnapshotBackup writes the full current state to the backup path,
// using the same atomic write discipline as the live file. Invoked on
// graceful shutdown.
func (s *FileStore) SnapshotBackup() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeImage(s.backupPath); err != nil {
		return fmt.Errorf("failed to write backup snapshot: %w", err)
	}
	log.WithField("path", s.backupPath).Info("backup snapshot written")
	return nil
}

// persistLocked writes the durable image. Callers must hold s.mu.
func (s *FileStore) persistLocked() error {
	if err := s.writeImage(s.path); err != nil {
		return fmt.Errorf("failed to persist ledger: %w", err)
	}
	return nil
}

// writeImage marshals the current state and writes it atomically:
// an external observer sees either the previous image or the new one,
// never a partial write.
func (s *FileStore) writeImage(path string) error {
	image := fileImage{
		Global:   s.aggregate,
		Accounts: s.accounts,
	}
	raw, err := json.MarshalIndent(&image, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// Begin opens a transaction. The store mutex is held until Commit or
// Rollback, so all ledger mutations are fully serialized; cross-account
// updates staged in one transaction are applied together.
func (s *FileStore) Begin(ctx context.Context) service.Tx {
	s.mu.Lock()
	return &tx{store: s, staged: make(map[int64]*models.Account)}
}

// tx implements service.Tx: staged writes against the locked store
type tx struct {
	store  *FileStore
	staged map[int64]*models.Account
	agg    *models.GlobalAggregate
	done   bool
}

// Account returns a copy of the account as seen by this transaction.
// Mutations only take effect when the copy is staged back via Put.
func (t *tx) Account(id int64) (*models.Account, bool) {
	if acct, ok := t.staged[id]; ok {
		return acct.Clone(), true
	}
	acct, ok := t.store.accounts[id]
	if !ok {
		return nil, false
	}
	return acct.Clone(), true
}

// Put stages an account write
func (t *tx) Put(acct *models.Account) {
	t.staged[acct.ID] = acct
}

// Aggregate returns the transaction's working copy of the global
// aggregate; changes to it are applied on commit.
func (t *tx) Aggregate() *models.GlobalAggregate {
	if t.agg == nil {
		t.agg = t.store.aggregate.Clone()
	}
	return t.agg
}

// Commit applies the staged writes and persists the new image before
// returning. If the durable write fails, the staged writes are rolled
// back in memory and the error is returned: a mutation that could not
// be recorded is never acknowledged.
func (t *tx) Commit() error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	t.done = true
	defer t.store.mu.Unlock()

	prevAccounts := make(map[int64]*models.Account, len(t.staged))
	for id := range t.staged {
		prevAccounts[id] = t.store.accounts[id] // nil for inserts
	}
	prevAgg := t.store.aggregate

	for id, acct := range t.staged {
		t.store.accounts[id] = acct
	}
	if t.agg != nil {
		t.store.aggregate = t.agg
	}

	if err := t.store.persistLocked(); err != nil {
		for id, prev := range prevAccounts {
			if prev == nil {
				delete(t.store.accounts, id)
			} else {
				t.store.accounts[id] = prev
			}
		}
		t.store.aggregate = prevAgg
		return err
	}
	return nil
}

// Rollback discards the staged writes. Safe to call after Commit, so it
// can be deferred unconditionally.
func (t *tx) Rollback() {
	if t.done {
		return
	}
	t.done = true
	t.store.mu.Unlock()
}
