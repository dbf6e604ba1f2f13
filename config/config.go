package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// ErrMissingCredentials is returned when the database user or password is not
// present in the environment.
var ErrMissingCredentials = errors.New("database credentials not set")

// Config represents the complete tradeview configuration
type Config struct {
	Database  DatabaseConfig  `json:"database" yaml:"database"`
	Ingest    IngestConfig    `json:"ingest" yaml:"ingest"`
	Session   SessionConfig   `json:"session" yaml:"session"`
	Dashboard DashboardConfig `json:"dashboard" yaml:"dashboard"`
	Sweep     SweepConfig     `json:"sweep" yaml:"sweep"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
}

// DatabaseConfig selects the relational store. Credentials are never read
// from the file; see LoadCredentials.
type DatabaseConfig struct {
	Driver  string `json:"driver" yaml:"driver" validate:"oneof=postgres sqlite"`
	Host    string `json:"host,omitempty" yaml:"host,omitempty" validate:"required_if=Driver postgres"`
	Port    int    `json:"port,omitempty" yaml:"port,omitempty" validate:"gte=0,lte=65535"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty" validate:"required_if=Driver postgres"`
	SSLMode string `json:"sslmode,omitempty" yaml:"sslmode,omitempty"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty" validate:"required_if=Driver sqlite"`
}

// IngestConfig contains export discovery and normalization parameters
type IngestConfig struct {
	Directory             string   `json:"directory" yaml:"directory" validate:"required"`
	FilePrefix            string   `json:"file_prefix" yaml:"file_prefix" validate:"required"`
	LookbackDays          int      `json:"lookback_days" yaml:"lookback_days" validate:"gte=0"`
	Symbol                string   `json:"symbol" yaml:"symbol" validate:"required,max=10"`
	Strategy              string   `json:"strategy" yaml:"strategy" validate:"max=50"`
	MarginPerContract     float64  `json:"margin_per_contract" yaml:"margin_per_contract" validate:"gte=0"`
	CommissionPerContract float64  `json:"commission_per_contract" yaml:"commission_per_contract" validate:"gte=0"`
	ExitTypes             []string `json:"exit_types" yaml:"exit_types"`
	Mode                  string   `json:"mode" yaml:"mode" validate:"oneof=per_record batch"`
	BatchSize             int      `json:"batch_size" yaml:"batch_size" validate:"gte=1"`
}

// SessionConfig places trades relative to the exchange's regular session.
type SessionConfig struct {
	ExchangeTimezone string `json:"exchange_timezone" yaml:"exchange_timezone" validate:"required"`
	SourceTimezone   string `json:"source_timezone" yaml:"source_timezone" validate:"required"`
	Open             string `json:"open" yaml:"open" validate:"required"`
	Close            string `json:"close" yaml:"close" validate:"required"`
}

// DashboardConfig contains HTTP dashboard parameters
type DashboardConfig struct {
	Addr                string  `json:"addr" yaml:"addr" validate:"required"`
	StartingBalance     float64 `json:"starting_balance" yaml:"starting_balance" validate:"gt=0"`
	PerformancePageSize int     `json:"performance_page_size" yaml:"performance_page_size" validate:"gte=1"`
	TradePageSize       int     `json:"trade_page_size" yaml:"trade_page_size" validate:"gte=1"`
}

// SweepConfig points the cleanup sweeper at the watched folder tree.
type SweepConfig struct {
	Root     string `json:"root" yaml:"root"`
	TrashDir string `json:"trash_dir,omitempty" yaml:"trash_dir,omitempty"`
}

// LoggingConfig contains zerolog settings
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" validate:"oneof=trace debug info warn error"`
	Format string `json:"format" yaml:"format" validate:"oneof=console json"`
}

// Credentials are supplied by the environment (optionally through a .env file).
type Credentials struct {
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// LoadFromFile loads configuration from a YAML or JSON file. Fields absent
// from the file keep their Default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration as YAML for .yaml/.yml paths, JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			field := strings.TrimPrefix(fe.Namespace(), "Config.")
			if fe.Param() != "" {
				return fmt.Errorf("%s failed %s=%s", field, fe.Tag(), fe.Param())
			}
			return fmt.Errorf("%s failed %s", field, fe.Tag())
		}
		return err
	}

	if _, err := time.LoadLocation(c.Session.ExchangeTimezone); err != nil {
		return fmt.Errorf("session.exchange_timezone: %w", err)
	}
	if _, err := time.LoadLocation(c.Session.SourceTimezone); err != nil {
		return fmt.Errorf("session.source_timezone: %w", err)
	}
	open, err := ParseClock(c.Session.Open)
	if err != nil {
		return fmt.Errorf("session.open: %w", err)
	}
	closing, err := ParseClock(c.Session.Close)
	if err != nil {
		return fmt.Errorf("session.close: %w", err)
	}
	if closing <= open {
		return fmt.Errorf("session.close must be after session.open")
	}
	return nil
}

// ParseClock parses "HH:MM" into minutes after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("want HH:MM, got %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:  "postgres",
			Host:    "localhost",
			Port:    5432,
			Name:    "trading_db",
			SSLMode: "disable",
		},
		Ingest: IngestConfig{
			Directory:             ".",
			FilePrefix:            "LuxAlgo®_-_Backtesting_System™_(S&O)_List_of_Trades_",
			LookbackDays:          7,
			Symbol:                "CL",
			Strategy:              "1M Neocloud Micro",
			MarginPerContract:     100.00,
			CommissionPerContract: 0.87,
			ExitTypes:             []string{"Exit Short", "Exit Long"},
			Mode:                  "per_record",
			BatchSize:             100,
		},
		Session: SessionConfig{
			ExchangeTimezone: "America/Chicago",
			SourceTimezone:   "America/Chicago",
			Open:             "08:30",
			Close:            "15:00",
		},
		Dashboard: DashboardConfig{
			Addr:                ":8050",
			StartingBalance:     20000,
			PerformancePageSize: 20,
			TradePageSize:       10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// NeedsCredentials reports whether the driver authenticates with a user and
// password.
func (d DatabaseConfig) NeedsCredentials() bool {
	return d.Driver == "postgres"
}

// DSN builds the driver connection string. For sqlite it is the file path.
func (d DatabaseConfig) DSN(creds Credentials) string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	return d.postgresURL(creds).String()
}

// RedactedDSN is DSN with the password masked, for logs.
func (d DatabaseConfig) RedactedDSN(creds Credentials) string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	return d.postgresURL(creds).Redacted()
}

func (d DatabaseConfig) postgresURL(creds Credentials) *url.URL {
	host := d.Host
	if d.Port != 0 {
		host = host + ":" + strconv.Itoa(d.Port)
	}
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(creds.User, creds.Password),
		Host:   host,
		Path:   "/" + d.Name,
	}
	if d.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {d.SSLMode}}.Encode()
	}
	return u
}

// LoadCredentials reads POSTGRES_USER and POSTGRES_PASSWORD from the
// environment after loading envFiles (".env" when none are given). A missing
// .env file is not an error; missing variables are.
func LoadCredentials(envFiles ...string) (Credentials, error) {
	_ = godotenv.Load(envFiles...)

	var creds Credentials
	if err := envconfig.Process("", &creds); err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrMissingCredentials, err)
	}
	if creds.User == "" {
		return Credentials{}, fmt.Errorf("%w: POSTGRES_USER is empty", ErrMissingCredentials)
	}
	if creds.Password == "" {
		return Credentials{}, fmt.Errorf("%w: POSTGRES_PASSWORD is empty", ErrMissingCredentials)
	}
	return creds, nil
}
