package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"magdych/models"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	// Administrator identity. Exempt from debits, receives favor
	// requests, allowed to run privileged operations.
	AdminID int64

	// Ledger files
	DataFile   string
	BackupFile string

	// Account provisioning
	StartingBalance  int64 // standard balance for new accounts
	AdminSeedBalance int64 // standard balance seeded for the admin account

	// Referral and favor amounts
	ReferralBonus int64
	FavorAmount   int64
	FavorCeiling  int64 // accounts above this standard balance cannot ask

	// Prices in USD, matching the upstream API price list
	Price1K        decimal.Decimal // per 1k standard-tier tokens
	PremiumPrice1K decimal.Decimal // per 1k premium-tier tokens
	ImagePrice     decimal.Decimal // per generated image

	// SaveInterval is the period of the safety-net ledger flush
	SaveInterval time.Duration

	// PendingActionTTL bounds how long a staged admin action
	// (broadcast compose) stays confirmable
	PendingActionTTL time.Duration

	// Environment is "development", "production" or "test"
	Environment string
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables. A .env file in
// the working directory is applied first when present.
func load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		DataFile:   "data.json",
		BackupFile: "data-backup.json",

		StartingBalance:  30000,
		AdminSeedBalance: 100000000,
		ReferralBonus:    20000,
		FavorAmount:      30000,
		FavorCeiling:     10000,

		Price1K:        decimal.NewFromFloat(0.0006),
		PremiumPrice1K: decimal.NewFromFloat(0.015),
		ImagePrice:     decimal.NewFromFloat(0.08),

		SaveInterval:     10 * time.Second,
		PendingActionTTL: 5 * time.Minute,

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if adminID := os.Getenv("ADMIN_ID"); adminID != "" {
		parsed, err := strconv.ParseInt(adminID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_ID %q: %w", adminID, err)
		}
		config.AdminID = parsed
	}

	if dataFile := os.Getenv("DATAFILE"); dataFile != "" {
		config.DataFile = dataFile
	}
	if backupFile := os.Getenv("BACKUPFILE"); backupFile != "" {
		config.BackupFile = backupFile
	}

	// Override default amounts if environment variables are set
	if balance := os.Getenv("NEW_USER_BALANCE"); balance != "" {
		if parsed, err := strconv.ParseInt(balance, 10, 64); err == nil {
			config.StartingBalance = parsed
		}
	}
	if bonus := os.Getenv("REFERRAL_BONUS"); bonus != "" {
		if parsed, err := strconv.ParseInt(bonus, 10, 64); err == nil {
			config.ReferralBonus = parsed
		}
	}
	if amount := os.Getenv("FAVOR_AMOUNT"); amount != "" {
		if parsed, err := strconv.ParseInt(amount, 10, 64); err == nil {
			config.FavorAmount = parsed
		}
	}
	if ceiling := os.Getenv("FAVOR_MIN_LIMIT"); ceiling != "" {
		if parsed, err := strconv.ParseInt(ceiling, 10, 64); err == nil {
			config.FavorCeiling = parsed
		}
	}

	if interval := os.Getenv("DATA_SAVE_INTERVAL"); interval != "" {
		if seconds, err := strconv.Atoi(interval); err == nil && seconds > 0 {
			config.SaveInterval = time.Duration(seconds) * time.Second
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.AdminID == 0 {
			return nil, fmt.Errorf("ADMIN_ID is required")
		}
	}

	return config, nil
}

// TestConfig returns a fixed configuration for tests, bypassing the
// environment entirely
func TestConfig() *Config {
	return &Config{
		AdminID:          999,
		DataFile:         "data.json",
		BackupFile:       "data-backup.json",
		StartingBalance:  30000,
		AdminSeedBalance: 100000000,
		ReferralBonus:    20000,
		FavorAmount:      30000,
		FavorCeiling:     10000,
		Price1K:          decimal.NewFromFloat(0.0006),
		PremiumPrice1K:   decimal.NewFromFloat(0.015),
		ImagePrice:       decimal.NewFromFloat(0.08),
		SaveInterval:     10 * time.Second,
		PendingActionTTL: 5 * time.Minute,
		Environment:      "test",
	}
}

// UnitPrice returns the USD price of a single unit of a resource kind:
// one token for the token tiers, one generation for images.
func (c *Config) UnitPrice(kind models.ResourceKind) decimal.Decimal {
	thousand := decimal.NewFromInt(1000)
	switch kind {
	case models.ResourcePremium:
		return c.PremiumPrice1K.Div(thousand)
	case models.ResourceImage:
		return c.ImagePrice
	default:
		return c.Price1K.Div(thousand)
	}
}

// Cost returns the USD cost of consuming amount units of a kind
func (c *Config) Cost(kind models.ResourceKind, amount int64) decimal.Decimal {
	return c.UnitPrice(kind).Mul(decimal.NewFromInt(amount))
}
