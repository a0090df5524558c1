package application

import (
	"context"
	"path/filepath"
	"testing"

	"magdych/config"
	"magdych/events"
	"magdych/models"
	"magdych/service"
	"magdych/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*App, *config.Config) {
	t.Helper()

	cfg := config.TestConfig()
	dir := t.TempDir()
	cfg.DataFile = filepath.Join(dir, "data.json")
	cfg.BackupFile = filepath.Join(dir, "data-backup.json")

	st := store.New(cfg.DataFile, cfg.BackupFile, cfg.AdminID, cfg.AdminSeedBalance)
	require.NoError(t, st.Load())
	return New(cfg, st, events.NewBus()), cfg
}

func TestApp_UsageFlow(t *testing.T) {
	ctx := context.Background()
	app, cfg := newTestApp(t)

	_, err := app.Register(ctx, 1, "Alice", "alice", nil)
	require.NoError(t, err)

	kind, exempt, err := app.AuthorizeUsage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.ResourceStandard, kind)
	assert.False(t, exempt)

	report, err := app.RecordUsage(ctx, 1, kind, 120, exempt)
	require.NoError(t, err)
	assert.Equal(t, cfg.StartingBalance-120, report.Balance)
	assert.True(t, report.Cost.IsPositive())
}

func TestApp_AuthorizeUsage_Rejections(t *testing.T) {
	ctx := context.Background()
	app, cfg := newTestApp(t)

	_, _, err := app.AuthorizeUsage(ctx, 404)
	assert.ErrorIs(t, err, service.ErrNotRegistered)

	_, err = app.Register(ctx, 1, "Alice", "alice", nil)
	require.NoError(t, err)

	// Drain the balance to exactly zero: no further requests allowed
	_, err = app.RecordUsage(ctx, 1, models.ResourceStandard, cfg.StartingBalance, false)
	require.NoError(t, err)
	_, _, err = app.AuthorizeUsage(ctx, 1)
	assert.ErrorIs(t, err, service.ErrInsufficientBalance)

	require.NoError(t, app.Blacklist(ctx, 1))
	_, _, err = app.AuthorizeUsage(ctx, 1)
	assert.ErrorIs(t, err, service.ErrBlacklisted)
}

func TestApp_AuthorizeUsage_AdminExempt(t *testing.T) {
	ctx := context.Background()
	app, cfg := newTestApp(t)

	kind, exempt, err := app.AuthorizeUsage(ctx, cfg.AdminID)
	require.NoError(t, err)
	assert.Equal(t, models.ResourceStandard, kind)
	assert.True(t, exempt)
}

func TestApp_AuthorizeUsage_PremiumTier(t *testing.T) {
	ctx := context.Background()
	app, _ := newTestApp(t)

	_, err := app.Register(ctx, 1, "Alice", "alice", nil)
	require.NoError(t, err)

	// Provision premium credits and switch the account's tier
	_, err = app.Refill(ctx, 1, models.ResourcePremium, 1000)
	require.NoError(t, err)
	_, err = app.SetTier(ctx, 1, models.TierPremium)
	require.NoError(t, err)

	kind, exempt, err := app.AuthorizeUsage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.ResourcePremium, kind)
	assert.False(t, exempt)

	// Premium charges debit the premium bucket only
	report, err := app.RecordUsage(ctx, 1, kind, 400, exempt)
	require.NoError(t, err)
	assert.Equal(t, int64(600), report.Balance)
}

func TestApp_SetTier_Invalid(t *testing.T) {
	ctx := context.Background()
	app, _ := newTestApp(t)

	_, err := app.Register(ctx, 1, "Alice", "alice", nil)
	require.NoError(t, err)

	var invalid *service.InvalidInputError
	_, err = app.SetTier(ctx, 1, "turbo")
	assert.ErrorAs(t, err, &invalid)
}

func TestApp_SetPrompt(t *testing.T) {
	ctx := context.Background()
	app, _ := newTestApp(t)

	_, err := app.Register(ctx, 1, "Alice", "alice", nil)
	require.NoError(t, err)

	require.NoError(t, app.SetPrompt(ctx, 1, "answer like a pirate"))

	acct, err := app.Account(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "answer like a pirate", acct.CustomPrompt)

	// Empty prompt clears the override
	require.NoError(t, app.SetPrompt(ctx, 1, ""))
	acct, err = app.Account(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, acct.CustomPrompt)
}

func TestApp_BroadcastFlow(t *testing.T) {
	ctx := context.Background()
	app, cfg := newTestApp(t)

	_, err := app.Register(ctx, 1, "Alice", "alice", nil)
	require.NoError(t, err)

	actionID, err := app.ComposeBroadcast(ctx, cfg.AdminID, "all")
	require.NoError(t, err)
	require.NotEmpty(t, actionID)

	ids, err := app.ConfirmBroadcast(ctx, cfg.AdminID, actionID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, cfg.AdminID}, ids)

	// The action is consumed; confirming again fails
	_, err = app.ConfirmBroadcast(ctx, cfg.AdminID, actionID)
	assert.ErrorIs(t, err, service.ErrUnknownAction)
}

func TestApp_ComposeBroadcast_RejectsInvalidFilter(t *testing.T) {
	ctx := context.Background()
	app, cfg := newTestApp(t)

	_, err := app.ComposeBroadcast(ctx, cfg.AdminID, "everyone")
	var invalid *models.InvalidFilterError
	assert.ErrorAs(t, err, &invalid)
}

func TestApp_CancelBroadcast(t *testing.T) {
	ctx := context.Background()
	app, cfg := newTestApp(t)

	actionID, err := app.ComposeBroadcast(ctx, cfg.AdminID, "all")
	require.NoError(t, err)

	require.NoError(t, app.CancelBroadcast(ctx, cfg.AdminID, actionID))

	_, err = app.ConfirmBroadcast(ctx, cfg.AdminID, actionID)
	assert.ErrorIs(t, err, service.ErrUnknownAction)
}
