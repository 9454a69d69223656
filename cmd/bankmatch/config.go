package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/bankmatch/internal/logger"
	"github.com/nkiryanov/bankmatch/internal/service/fio"
	"github.com/nkiryanov/bankmatch/internal/service/qrpay"
	"github.com/nkiryanov/bankmatch/internal/service/ratelimit"
	"github.com/nkiryanov/bankmatch/internal/service/reconcile"
	"github.com/nkiryanov/bankmatch/internal/service/watcher"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the service will be run
	ListenAddr string

	// Record store to connect to
	// Empty or memory:// keeps records in process, also postgres://, sqlite://<path> and dynamodb://<table> are supported
	DatabaseDSN string

	// Secret key to sign API tokens
	SecretKey string

	// Environment
	Environment string

	// Fio bank API
	FioAddr  string
	FioToken string

	// Receiving account and QR payload defaults
	AccountIBAN    string
	RecipientName  string
	PaymentMessage string

	// Quota granted by every matched payment
	QuotaGrant int

	// Minimal interval between calls to the bank
	RateWindow time.Duration

	// How far back the bank statement is read
	Lookback time.Duration

	// YAML file with donation campaigns to watch, watcher is off if empty
	CampaignsFile string
	WatchInterval time.Duration

	// Telegram notifications are off if token is empty
	TelegramToken  string
	TelegramChatID int64
}

func NewConfig() *Config {
	return &Config{
		LogLevel:       defaultLoggingLevel,
		ListenAddr:     defaultListenAddr,
		Environment:    defaultEnvironment,
		FioAddr:        fio.DefaultAddr,
		PaymentMessage: qrpay.DefaultMessage,
		QuotaGrant:     reconcile.DefaultQuotaGrant,
		RateWindow:     ratelimit.DefaultWindow,
		Lookback:       reconcile.DefaultLookback,
		WatchInterval:  watcher.DefaultProduceInterval,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setInt := func(o *int) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			v, err := strconv.Atoi(value)
			if err != nil {
				return err
			}
			*o = v
			return nil
		}
	}
	setInt64 := func(o *int64) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			v, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			*o = v
			return nil
		}
	}
	setDuration := func(o *time.Duration) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			v, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			*o = v
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":       setString(&c.ListenAddr),
		"DATABASE_URI":      setString(&c.DatabaseDSN),
		"SECRET_KEY":        setString(&c.SecretKey),
		"LOG_LEVEL":         setString(&c.LogLevel),
		"ENVIRONMENT":       setString(&c.Environment),
		"FIO_ADDRESS":       setString(&c.FioAddr),
		"FIO_TOKEN":         setString(&c.FioToken),
		"ACCOUNT_IBAN":      setString(&c.AccountIBAN),
		"RECIPIENT_NAME":    setString(&c.RecipientName),
		"PAYMENT_MESSAGE":   setString(&c.PaymentMessage),
		"QUOTA_GRANT":       setInt(&c.QuotaGrant),
		"RATE_LIMIT_WINDOW": setDuration(&c.RateWindow),
		"LOOKBACK":          setDuration(&c.Lookback),
		"CAMPAIGNS_FILE":    setString(&c.CampaignsFile),
		"WATCH_INTERVAL":    setDuration(&c.WatchInterval),
		"TELEGRAM_TOKEN":    setString(&c.TelegramToken),
		"TELEGRAM_CHAT_ID":  setInt64(&c.TelegramChatID),
	}

	var errs []error
	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
		}
	}

	return errors.Join(errs...)
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("bankmatch", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Record store connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.StringVar(&c.FioAddr, "fio-address", c.FioAddr, "Fio API address")
	fs.StringVar(&c.FioToken, "fio-token", c.FioToken, "Fio API token")
	fs.StringVar(&c.AccountIBAN, "iban", c.AccountIBAN, "Receiving account IBAN")
	fs.StringVar(&c.RecipientName, "recipient", c.RecipientName, "Recipient name in QR payments")
	fs.StringVar(&c.PaymentMessage, "message", c.PaymentMessage, "Default message in QR payments")
	fs.IntVar(&c.QuotaGrant, "quota-grant", c.QuotaGrant, "Quota granted by every payment")
	fs.DurationVar(&c.RateWindow, "rate-window", c.RateWindow, "Minimal interval between calls to the bank")
	fs.DurationVar(&c.Lookback, "lookback", c.Lookback, "How far back bank statement is read")
	fs.StringVar(&c.CampaignsFile, "campaigns", c.CampaignsFile, "YAML file with donation campaigns")
	fs.DurationVar(&c.WatchInterval, "watch-interval", c.WatchInterval, "Interval between campaign checks")
	fs.StringVar(&c.TelegramToken, "telegram-token", c.TelegramToken, "Telegram bot token")
	fs.Int64Var(&c.TelegramChatID, "telegram-chat", c.TelegramChatID, "Telegram chat to notify")

	return fs.Parse(args)
}
