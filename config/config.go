// Package config loads service settings. Sources are applied in order, later
// ones overriding earlier ones: built-in defaults, an optional TOML file, an
// optional .env file, and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type Config struct {
	ServerPort        string        `toml:"server_port"`
	StoreDriver       string        `toml:"store_driver"`
	MongoURI          string        `toml:"mongo_uri"`
	MongoDBName       string        `toml:"mongo_db_name"`
	MongoTransactions bool          `toml:"mongo_transactions"`
	JWTSecret         string        `toml:"jwt_secret"`
	BcryptCost        int           `toml:"bcrypt_cost"`
	LogFile           string        `toml:"log_file"`
	LogLevel          string        `toml:"log_level"`
	BreakerTimeout    time.Duration `toml:"breaker_timeout"`
	CORSOrigin        string        `toml:"cors_origin"`
}

// Default returns the settings used when no source overrides them.
func Default() Config {
	return Config{
		ServerPort:     "8080",
		StoreDriver:    DriverMongo,
		MongoURI:       "mongodb://localhost:27017",
		MongoDBName:    "task_manager",
		BcryptCost:     bcrypt.DefaultCost,
		LogLevel:       "info",
		BreakerTimeout: 5 * time.Second,
		CORSOrigin:     "*",
	}
}

// Load builds the configuration. path names a TOML file; when empty,
// CONFIG_FILE is consulted. A missing .env file is not an error, a missing
// TOML file that was asked for is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.ServerPort, "SERVER_PORT")
	setString(&cfg.StoreDriver, "STORE_DRIVER")
	setString(&cfg.MongoURI, "MONGO_URI")
	setString(&cfg.MongoDBName, "MONGO_DB_NAME")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.LogFile, "LOG_FILE")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.CORSOrigin, "CORS_ORIGIN")

	if v := os.Getenv("MONGO_TRANSACTIONS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("MONGO_TRANSACTIONS: %w", err)
		}
		cfg.MongoTransactions = b
	}
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BCRYPT_COST: %w", err)
		}
		cfg.BcryptCost = n
	}
	if v := os.Getenv("BREAKER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BREAKER_TIMEOUT: %w", err)
		}
		cfg.BreakerTimeout = d
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if c.ServerPort == "" {
		return errors.New("SERVER_PORT is empty")
	}
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" || c.MongoDBName == "" {
			return errors.New("MONGO_URI and MONGO_DB_NAME are required for the mongo driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost %d out of range [%d, %d]", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.BreakerTimeout <= 0 {
		return errors.New("breaker timeout must be positive")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.ServerPort
}
