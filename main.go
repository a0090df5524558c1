package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"magdych/cmd"
	"magdych/config"
	"magdych/events"
	"magdych/models"
	"magdych/service"
	"magdych/store"
)

func main() {
	// Check for balance adjustment subcommand
	if len(os.Args) > 1 && os.Args[1] == "update-balance" {
		if err := handleBalanceAdjustment(); err != nil {
			log.Fatal("Balance adjustment error:", err)
		}
		return
	}

	// Check for backup subcommand
	if len(os.Args) > 1 && os.Args[1] == "backup" {
		if err := handleBackup(); err != nil {
			log.Fatal("Backup error:", err)
		}
		return
	}

	// Normal service operation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	// Run the application
	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error:", err)
	}
}

// handleBalanceAdjustment applies a manual refill from the command
// line: update-balance <account-id> <kind> <amount>
func handleBalanceAdjustment() error {
	if len(os.Args) < 5 {
		return fmt.Errorf("usage: magdych update-balance <account-id> <kind> <amount>")
	}

	accountID, err := strconv.ParseInt(os.Args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid account id %q: %w", os.Args[2], err)
	}
	kind := models.ResourceKind(os.Args[3])
	amount, err := strconv.ParseInt(os.Args[4], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", os.Args[4], err)
	}

	cfg := config.Get()
	st := store.New(cfg.DataFile, cfg.BackupFile, cfg.AdminID, cfg.AdminSeedBalance)
	if err := st.Load(); err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	admin := service.NewAdminService(st, events.NewBus())
	acct, err := admin.Refill(context.Background(), accountID, kind, amount)
	if err != nil {
		return err
	}

	fmt.Printf("account %d (%s): %s balance is now %d\n", acct.ID, acct.Handle, kind, acct.Balances[kind])
	return nil
}

// handleBackup writes a point-in-time backup snapshot of the ledger
func handleBackup() error {
	cfg := config.Get()
	st := store.New(cfg.DataFile, cfg.BackupFile, cfg.AdminID, cfg.AdminSeedBalance)
	if err := st.Load(); err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}
	if err := st.SnapshotBackup(); err != nil {
		return err
	}
	fmt.Printf("backup written to %s\n", cfg.BackupFile)
	return nil
}
