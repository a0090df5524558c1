package cmd

import (
	"context"
	"fmt"
	"time"

	"magdych/application"
	"magdych/config"
	"magdych/events"
	"magdych/models"
	"magdych/store"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting ledger service...")

	// Load configuration
	cfg := config.Get()

	// Load the durable ledger
	st := store.New(cfg.DataFile, cfg.BackupFile, cfg.AdminID, cfg.AdminSeedBalance)
	if err := st.Load(); err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	// Initialize event bus and operator-facing subscriptions
	bus := events.NewBus()
	subscribeOperatorLog(bus)

	// Initialize the application surface the transport calls
	app := application.New(cfg, st, bus)
	logSpendSummary(ctx, app)

	// Periodic safety-net flush; every mutation already persists on
	// commit, this only narrows the window after an unclean kill.
	flushTicker := time.NewTicker(cfg.SaveInterval)
	defer flushTicker.Stop()

	log.WithField("environment", cfg.Environment).Info("Ledger service is running")
	for {
		select {
		case <-flushTicker.C:
			if err := st.Persist(); err != nil {
				log.WithError(err).Error("Periodic ledger flush failed")
			}
		case <-ctx.Done():
			log.Info("Shutting down ledger service...")
			if err := st.Persist(); err != nil {
				log.WithError(err).Error("Final ledger flush failed")
			}
			if err := st.SnapshotBackup(); err != nil {
				log.WithError(err).Error("Backup snapshot failed")
			}
			log.Info("Shutdown completed")
			return nil
		}
	}
}

// subscribeOperatorLog surfaces ledger events in the service log. The
// chat transport registers its own subscribers next to these to notify
// the administrator.
func subscribeOperatorLog(bus *events.Bus) {
	bus.Subscribe(events.EventTypeFavorRequested, func(ctx context.Context, event events.Event) {
		e := event.(events.FavorRequestedEvent)
		log.WithFields(log.Fields{
			"accountID": e.AccountID,
			"handle":    e.Handle,
			"balance":   e.Balance,
		}).Info("Favor requested, awaiting admin decision")
	})
	bus.Subscribe(events.EventTypeAccountCreated, func(ctx context.Context, event events.Event) {
		e := event.(events.AccountCreatedEvent)
		log.WithFields(log.Fields{
			"accountID": e.AccountID,
			"handle":    e.Handle,
			"balance":   e.StartingBalance,
		}).Info("Account registered")
	})
	bus.Subscribe(events.EventTypeAccountBlacklisted, func(ctx context.Context, event events.Event) {
		e := event.(events.AccountBlacklistedEvent)
		log.WithField("accountID", e.AccountID).Warn("Account blacklisted")
	})
}

// logSpendSummary logs the top spenders at start-up for operator
// visibility
func logSpendSummary(ctx context.Context, app *application.App) {
	entries, err := app.Leaderboard(ctx, models.MetricCost, 5)
	if err != nil {
		log.WithError(err).Warn("Failed to compute spend summary")
		return
	}
	for _, entry := range entries {
		log.WithFields(log.Fields{
			"rank":      entry.Rank,
			"accountID": entry.AccountID,
			"handle":    entry.Handle,
			"costUSD":   entry.Cost.StringFixed(4),
		}).Info("Top spender")
	}
}
