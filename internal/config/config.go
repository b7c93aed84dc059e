package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Oracle   OracleConfig
	PubNub   PubNubConfig
	Ledger   LedgerConfig
	Store    StoreConfig
	Currency CurrencyConfig
	LogLevel string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port            string
	AllowedHosts    []string
	ShutdownTimeout time.Duration
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// RedisConfig holds the sale lock settings. An empty URL selects the
// in-process locker.
type RedisConfig struct {
	URL     string
	LockTTL time.Duration
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int // seconds
}

// OracleConfig holds randomness oracle settings
type OracleConfig struct {
	BaseURL          string
	APIKey           string
	MockAPI          bool
	MockSeed         string
	MockFulfillDelay time.Duration
}

// PubNubConfig holds lifecycle event publishing keys. Without a publish key
// events only go to the log.
type PubNubConfig struct {
	PublishKey   string
	SubscribeKey string
	SecretKey    string
}

// LedgerConfig holds ledger settings
type LedgerConfig struct {
	EnableFaucet bool
}

// StoreConfig selects the record store
type StoreConfig struct {
	Backend string
}

// CurrencyConfig describes how ticket prices are rendered
type CurrencyConfig struct {
	Code     string
	Decimals int32
}

// Load loads configuration from environment variables and config files.
// Nested keys map to env vars with underscores, e.g. MONGODB_URI.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks settings that have no safe default
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT secret is not configured (set JWT_SECRET)")
	}
	switch c.Store.Backend {
	case StoreMongo, StoreMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if !c.Oracle.MockAPI && c.Oracle.BaseURL == "" {
		return errors.New("oracle base URL is required unless the mock oracle is enabled")
	}
	return nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("Server.Port", "4000")
	v.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	v.SetDefault("Server.ShutdownTimeout", 5*time.Second)
	v.SetDefault("MongoDB.URI", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("MongoDB.Database", "raffle")
	v.SetDefault("Redis.URL", "")
	v.SetDefault("Redis.LockTTL", 10*time.Second)
	v.SetDefault("JWT.Secret", "")
	v.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	v.SetDefault("Oracle.BaseURL", "")
	v.SetDefault("Oracle.APIKey", "")
	v.SetDefault("Oracle.MockAPI", true)
	v.SetDefault("Oracle.MockSeed", "raffle")
	v.SetDefault("Oracle.MockFulfillDelay", 0)
	v.SetDefault("PubNub.PublishKey", "")
	v.SetDefault("PubNub.SubscribeKey", "")
	v.SetDefault("PubNub.SecretKey", "")
	v.SetDefault("Ledger.EnableFaucet", false)
	v.SetDefault("Store.Backend", StoreMongo)
	v.SetDefault("Currency.Code", "USD")
	v.SetDefault("Currency.Decimals", 2)
	v.SetDefault("LogLevel", "info")
}
