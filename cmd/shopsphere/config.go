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

	"github.com/Nirob-Barman/ShopSphere/internal/logger"
)

const (
	defaultListenAddr      = "localhost:8000"
	defaultLoggingLevel    = logger.LevelInfo
	defaultEnvironment     = logger.EnvProduction
	defaultTokenIssuer     = "shopsphere"
	defaultTokenAudience   = "shopsphere-api"
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
	defaultResetTokenTTL   = 1 * time.Hour
	defaultMinPasswordLen  = 6
	defaultResetBaseURL    = "http://localhost:8000"
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret key to sign access tokens (symmetric)
	SecretKey string

	// Values for the 'iss' and 'aud' claims
	TokenIssuer   string
	TokenAudience string

	// Token lifetimes
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ResetTokenTTL   time.Duration

	// Password floor enforced on reset
	MinPasswordLen int

	// Base URL used to build password reset links
	ResetBaseURL string

	// Environment
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:        defaultLoggingLevel,
		ListenAddr:      defaultListenAddr,
		Environment:     defaultEnvironment,
		TokenIssuer:     defaultTokenIssuer,
		TokenAudience:   defaultTokenAudience,
		AccessTokenTTL:  defaultAccessTokenTTL,
		RefreshTokenTTL: defaultRefreshTokenTTL,
		ResetTokenTTL:   defaultResetTokenTTL,
		MinPasswordLen:  defaultMinPasswordLen,
		ResetBaseURL:    defaultResetBaseURL,
	}
}

// Load variables from '.env' file (should be located at working directory)
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
	setDuration := func(o *time.Duration) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			*o = d
			return nil
		}
	}
	setInt := func(o *int) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			n, err := strconv.Atoi(value)
			if err != nil {
				return err
			}
			*o = n
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":         setString(&c.ListenAddr),
		"DATABASE_URI":        setString(&c.DatabaseDSN),
		"SECRET_KEY":          setString(&c.SecretKey),
		"LOG_LEVEL":           setString(&c.LogLevel),
		"ENVIRONMENT":         setString(&c.Environment),
		"TOKEN_ISSUER":        setString(&c.TokenIssuer),
		"TOKEN_AUDIENCE":      setString(&c.TokenAudience),
		"ACCESS_TOKEN_TTL":    setDuration(&c.AccessTokenTTL),
		"REFRESH_TOKEN_TTL":   setDuration(&c.RefreshTokenTTL),
		"RESET_TOKEN_TTL":     setDuration(&c.ResetTokenTTL),
		"MIN_PASSWORD_LENGTH": setInt(&c.MinPasswordLen),
		"RESET_BASE_URL":      setString(&c.ResetBaseURL),
	}

	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			return fmt.Errorf("error while parsing env %q: %w", key, err)
		}
	}

	return nil
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("shopsphere", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.StringVar(&c.TokenIssuer, "token-issuer", c.TokenIssuer, "JWT issuer claim")
	fs.StringVar(&c.TokenAudience, "token-audience", c.TokenAudience, "JWT audience claim")
	fs.DurationVar(&c.AccessTokenTTL, "access-ttl", c.AccessTokenTTL, "Access token lifetime")
	fs.DurationVar(&c.RefreshTokenTTL, "refresh-ttl", c.RefreshTokenTTL, "Refresh token lifetime")
	fs.DurationVar(&c.ResetTokenTTL, "reset-ttl", c.ResetTokenTTL, "Password reset token lifetime")
	fs.IntVar(&c.MinPasswordLen, "min-password-length", c.MinPasswordLen, "Minimum password length on reset")
	fs.StringVar(&c.ResetBaseURL, "reset-base-url", c.ResetBaseURL, "Base URL for password reset links")

	return fs.Parse(args)
}
