package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application
type Config struct {
	AppMode     string
	Port        string
	Database    DatabaseConfig
	JWT         JWTConfig
	Cookie      CookieConfig
	Circulation CirculationConfig
}

// CookieConfig holds cookie attributes for auth tokens
type CookieConfig struct {
	Domain   string
	Secure   bool
	SameSite string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
}

// CirculationConfig holds the lending policy knobs
type CirculationConfig struct {
	LoanPeriodDays            int
	MaxRenewals               int
	DailyFineRate             decimal.Decimal
	RenewalBlockedWhenOverdue bool
	DueSoonWindowDays         int
	SweepCronSpec             string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Get APP_MODE (default to "dev") - trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	circulation, err := loadCirculationConfig()
	if err != nil {
		return nil, err
	}

	config := &Config{
		AppMode:     appMode,
		Port:        getEnv("PORT", "3000"),
		Database:    loadDatabaseConfig(appMode),
		JWT:         loadJWTConfig(appMode),
		Cookie:      loadCookieConfig(appMode),
		Circulation: circulation,
	}

	// Set global config
	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "openshelf"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	accessMins, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "15"))
	refreshDays, _ := strconv.Atoi(getEnv("REFRESH_TOKEN_DAYS", "7"))

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", "default_secret"),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", "default_refresh_secret"),
		AccessTokenMins:  accessMins,
		RefreshTokenDays: refreshDays,
	}
}

// loadCookieConfig loads cookie attributes based on mode
func loadCookieConfig(mode string) CookieConfig {
	secureDefault := "false"
	if mode == "prod" {
		secureDefault = "true"
	}
	secure, _ := strconv.ParseBool(getEnv("COOKIE_SECURE", secureDefault))

	return CookieConfig{
		Domain:   getEnv("COOKIE_DOMAIN", ""),
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "Lax"),
	}
}

// loadCirculationConfig loads the lending policy from environment
func loadCirculationConfig() (CirculationConfig, error) {
	loanDays, _ := strconv.Atoi(getEnv("LOAN_PERIOD_DAYS", "30"))
	maxRenewals, _ := strconv.Atoi(getEnv("MAX_RENEWALS", "2"))
	dueSoonDays, _ := strconv.Atoi(getEnv("DUE_SOON_WINDOW_DAYS", "3"))
	blockOverdue, _ := strconv.ParseBool(getEnv("RENEWAL_BLOCKED_WHEN_OVERDUE", "true"))

	rateStr := getEnv("DAILY_FINE_RATE", "0.50")
	rate, err := decimal.NewFromString(rateStr)
	if err != nil {
		return CirculationConfig{}, fmt.Errorf("invalid DAILY_FINE_RATE: '%s'", rateStr)
	}
	if rate.IsNegative() {
		return CirculationConfig{}, fmt.Errorf("DAILY_FINE_RATE must not be negative")
	}

	if loanDays < 1 {
		return CirculationConfig{}, fmt.Errorf("LOAN_PERIOD_DAYS must be at least 1")
	}

	return CirculationConfig{
		LoanPeriodDays:            loanDays,
		MaxRenewals:               maxRenewals,
		DailyFineRate:             rate.Round(2),
		RenewalBlockedWhenOverdue: blockOverdue,
		DueSoonWindowDays:         dueSoonDays,
		SweepCronSpec:             getEnv("OVERDUE_SWEEP_CRON", "0 2 * * *"),
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// LoanPeriod returns the loan period as a duration
func (c *CirculationConfig) LoanPeriod() time.Duration {
	return time.Duration(c.LoanPeriodDays) * 24 * time.Hour
}

// DueSoonWindow returns the reminder window as a duration
func (c *CirculationConfig) DueSoonWindow() time.Duration {
	return time.Duration(c.DueSoonWindowDays) * 24 * time.Hour
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://openshelf.example.org"
	}
	return origins
}
