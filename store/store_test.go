package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"magdych/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAdminID     = int64(999)
	testAdminSeed   = int64(100000000)
	testUserBalance = int64(30000)
)

func newTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	s := New(filepath.Join(dir, "data.json"), filepath.Join(dir, "data-backup.json"), testAdminID, testAdminSeed)
	require.NoError(t, s.Load())
	return s, dir
}

func putAccount(t *testing.T, s *FileStore, acct *models.Account) {
	t.Helper()
	tx := s.Begin(context.Background())
	tx.Put(acct)
	require.NoError(t, tx.Commit())
}

func TestFileStore_Load_InitializesFreshLedger(t *testing.T) {
	s, dir := newTestStore(t)

	admin, ok := s.Get(testAdminID)
	require.True(t, ok)
	assert.Equal(t, testAdminSeed, admin.Balances[models.ResourceStandard])

	agg := s.Aggregate()
	assert.Zero(t, agg.Requests)

	// The initial image is written immediately
	_, err := os.Stat(filepath.Join(dir, "data.json"))
	assert.NoError(t, err)
}

func TestFileStore_Load_RoundTrip(t *testing.T) {
	s, dir := newTestStore(t)

	referrer := int64(7)
	acct := models.NewAccount(1, "Alice", "alice", testUserBalance)
	acct.ReferrerID = &referrer
	acct.Usage[models.ResourceStandard] = 120
	acct.Requests = 3
	putAccount(t, s, acct)

	tx := s.Begin(context.Background())
	agg := tx.Aggregate()
	agg.Requests = 3
	agg.Usage[models.ResourceStandard] = 120
	require.NoError(t, tx.Commit())

	// A second store over the same file sees the identical state
	reloaded := New(filepath.Join(dir, "data.json"), filepath.Join(dir, "data-backup.json"), testAdminID, testAdminSeed)
	require.NoError(t, reloaded.Load())

	got, ok := reloaded.Get(1)
	require.True(t, ok)
	assert.Equal(t, acct.DisplayName, got.DisplayName)
	assert.Equal(t, acct.Handle, got.Handle)
	assert.Equal(t, testUserBalance, got.Balances[models.ResourceStandard])
	assert.Equal(t, int64(120), got.Usage[models.ResourceStandard])
	assert.Equal(t, int64(3), got.Requests)
	require.NotNil(t, got.ReferrerID)
	assert.Equal(t, int64(7), *got.ReferrerID)

	gotAgg := reloaded.Aggregate()
	assert.Equal(t, int64(3), gotAgg.Requests)
	assert.Equal(t, int64(120), gotAgg.Usage[models.ResourceStandard])
}

func TestFileStore_CommitIsDurableBeforeReturn(t *testing.T) {
	s, dir := newTestStore(t)

	putAccount(t, s, models.NewAccount(1, "Alice", "alice", testUserBalance))

	// Simulate the process dying right after the commit returned: a
	// brand new store reading the file must already see the write.
	killed := New(filepath.Join(dir, "data.json"), filepath.Join(dir, "data-backup.json"), testAdminID, testAdminSeed)
	require.NoError(t, killed.Load())
	_, ok := killed.Get(1)
	assert.True(t, ok)
}

func TestFileStore_Rollback_DiscardsStagedWrites(t *testing.T) {
	s, _ := newTestStore(t)

	tx := s.Begin(context.Background())
	tx.Put(models.NewAccount(1, "Alice", "alice", testUserBalance))
	agg := tx.Aggregate()
	agg.Requests = 99
	tx.Rollback()

	_, ok := s.Get(1)
	assert.False(t, ok)
	assert.Zero(t, s.Aggregate().Requests)
}

func TestFileStore_TxAccount_ReturnsCopies(t *testing.T) {
	s, _ := newTestStore(t)
	putAccount(t, s, models.NewAccount(1, "Alice", "alice", testUserBalance))

	tx := s.Begin(context.Background())
	acct, ok := tx.Account(1)
	require.True(t, ok)
	acct.Balances[models.ResourceStandard] = 1 // never staged back
	tx.Rollback()

	got, _ := s.Get(1)
	assert.Equal(t, testUserBalance, got.Balances[models.ResourceStandard])
}

func TestFileStore_SnapshotAccounts_OrderedByID(t *testing.T) {
	s, _ := newTestStore(t)

	for _, id := range []int64{5, 2, 9, 1} {
		putAccount(t, s, models.NewAccount(id, "u", "u", testUserBalance))
	}

	snapshot := s.SnapshotAccounts()
	require.Len(t, snapshot, 5) // four users plus the admin seed
	for i := 1; i < len(snapshot); i++ {
		assert.Less(t, snapshot[i-1].ID, snapshot[i].ID)
	}
}

func TestFileStore_SnapshotBackup(t *testing.T) {
	s, dir := newTestStore(t)
	putAccount(t, s, models.NewAccount(1, "Alice", "alice", testUserBalance))

	require.NoError(t, s.SnapshotBackup())

	// The backup is a complete, loadable image of its own
	backup := New(filepath.Join(dir, "data-backup.json"), filepath.Join(dir, "unused.json"), testAdminID, testAdminSeed)
	require.NoError(t, backup.Load())
	_, ok := backup.Get(1)
	assert.True(t, ok)
}

func TestFileStore_ConcurrentCommits_AreSerialized(t *testing.T) {
	s, _ := newTestStore(t)
	putAccount(t, s, models.NewAccount(1, "Alice", "alice", 0))

	const workers = 8
	const perWorker = 25

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				tx := s.Begin(context.Background())
				acct, _ := tx.Account(1)
				acct.Usage[models.ResourceStandard] += 10
				acct.Requests++
				agg := tx.Aggregate()
				agg.Usage[models.ResourceStandard] += 10
				agg.Requests++
				tx.Put(acct)
				if err := tx.Commit(); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	got, _ := s.Get(1)
	assert.Equal(t, int64(workers*perWorker*10), got.Usage[models.ResourceStandard])
	assert.Equal(t, int64(workers*perWorker), got.Requests)

	agg := s.Aggregate()
	assert.Equal(t, int64(workers*perWorker*10), agg.Usage[models.ResourceStandard])
	assert.Equal(t, int64(workers*perWorker), agg.Requests)
}

func TestFileStore_Load_RejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o644))

	s := New(path, filepath.Join(dir, "data-backup.json"), testAdminID, testAdminSeed)
	assert.Error(t, s.Load())
}
