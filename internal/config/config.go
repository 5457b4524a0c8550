package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port         int           `validate:"gt=0,lte=65535"`
	ReadTimeout  time.Duration `validate:"gt=0"`
	WriteTimeout time.Duration `validate:"gt=0"`

	// Logging configuration
	LogFormat string `validate:"oneof=json pretty"`
	LogLevel  string `validate:"oneof=debug info warn error"`

	// Database configuration
	DBDriver       string `validate:"oneof=postgres sqlite"`
	PostgresDBURL  string `validate:"required_if=DBDriver postgres"`
	SQLitePath     string `validate:"required_if=DBDriver sqlite"`
	MigrateOnStart bool

	// Auth configuration
	JWTSecret        string        `validate:"required"`
	JWTAccessExpires time.Duration `validate:"gt=0"`

	// Ledger configuration
	ClinicTimezone      string
	InvoiceNumberPrefix string `validate:"required,max=10"`

	// EnvFile is the .env file that was loaded, empty when none was found
	EnvFile string
}

// LoadConfig reads the configuration from the environment. The .env file at
// the project root (three levels above the executable, as in bin/<os>/server)
// is loaded first, falling back to one in the working directory. Variables
// already set are never overridden.
func LoadConfig() (*Config, error) {
	envFile := loadDotEnv(dotEnvCandidates()...)

	cfg, err := fromViper(newViper())
	if err != nil {
		return nil, err
	}
	cfg.EnvFile = envFile
	return cfg, nil
}

// dotEnvCandidates lists the .env files LoadConfig tries, in order
func dotEnvCandidates() []string {
	var paths []string
	if execPath, err := os.Executable(); err == nil {
		projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(execPath)))
		paths = append(paths, filepath.Join(projectRoot, ".env"))
	}
	return append(paths, ".env")
}

// loadDotEnv loads the first of paths that can be read and returns it
func loadDotEnv(paths ...string) string {
	for _, path := range paths {
		if err := godotenv.Load(path); err == nil {
			return path
		}
	}
	return ""
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("PORT", 8080)
	v.SetDefault("READ_TIMEOUT", "15s")
	v.SetDefault("WRITE_TIMEOUT", "15s")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("POSTGRES_DB_URL", "")
	v.SetDefault("SQLITE_PATH", "data/billing.db")
	v.SetDefault("MIGRATE_ON_START", true)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ACCESS_EXPIRATION", "24h")
	v.SetDefault("CLINIC_TIMEZONE", "UTC")
	v.SetDefault("INVOICE_NUMBER_PREFIX", "INV")
	return v
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:         v.GetInt("PORT"),
		ReadTimeout:  v.GetDuration("READ_TIMEOUT"),
		WriteTimeout: v.GetDuration("WRITE_TIMEOUT"),

		LogFormat: strings.ToLower(v.GetString("LOG_FORMAT")),
		LogLevel:  strings.ToLower(v.GetString("LOG_LEVEL")),

		DBDriver:       strings.ToLower(v.GetString("DB_DRIVER")),
		PostgresDBURL:  v.GetString("POSTGRES_DB_URL"),
		SQLitePath:     v.GetString("SQLITE_PATH"),
		MigrateOnStart: v.GetBool("MIGRATE_ON_START"),

		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTAccessExpires: v.GetDuration("JWT_ACCESS_EXPIRATION"),

		ClinicTimezone:      v.GetString("CLINIC_TIMEZONE"),
		InvoiceNumberPrefix: v.GetString("INVOICE_NUMBER_PREFIX"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for missing or malformed values
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid configuration: CLINIC_TIMEZONE: %w", err)
	}
	return nil
}

// Location returns the clinic time zone. It decides which calendar day
// "today" is when invoices are checked for being overdue.
func (c *Config) Location() (*time.Location, error) {
	if c.ClinicTimezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.ClinicTimezone)
}
