package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/practicedesk/billing/internal/types"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment    DeploymentConfig   `validate:"required"`
	Server        ServerConfig       `validate:"required"`
	Logging       LoggingConfig      `validate:"required"`
	Postgres      PostgresConfig     `validate:"required"`
	Cache         CacheConfig        `mapstructure:"cache"`
	Notifications NotificationConfig `mapstructure:"notifications" validate:"required"`
	Signals       SignalConfig       `mapstructure:"signals" validate:"required"`
	Alerts        AlertConfig        `mapstructure:"alerts"`
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host                   string
	Port                   int
	User                   string
	Password               string
	DBName                 string        `mapstructure:"dbname"`
	SSLMode                string        `mapstructure:"sslmode"`
	MaxOpenConns           int           `mapstructure:"max_open_conns"`
	MaxIdleConns           int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int           `mapstructure:"conn_max_lifetime_minutes"`
	ConnectTimeout         time.Duration `mapstructure:"connect_timeout"`
}

type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// NotificationConfig drives the payment notification dispatcher
type NotificationConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Interval between two recurring recompute passes
	Interval time.Duration `mapstructure:"interval" validate:"required"`
	// Timezone used to decide what "today" is, e.g. America/Sao_Paulo
	Timezone string `mapstructure:"timezone"`
	// MarkerStore selects where the per-day dedup keys live: postgres or memory
	MarkerStore string `mapstructure:"marker_store" validate:"omitempty,oneof=postgres memory"`
}

// SignalConfig configures the change signal bus
type SignalConfig struct {
	Topic  string           `mapstructure:"topic" validate:"required"`
	PubSub types.PubSubType `mapstructure:"pubsub"`
}

// AlertConfig configures where raised payment alerts go besides the log
type AlertConfig struct {
	Publish bool   `mapstructure:"publish"`
	Topic   string `mapstructure:"topic"`
}

func NewConfig() (*Configuration, error) {
	// a missing .env is fine, real deployments use the environment directly
	_ = godotenv.Load()

	v := viper.New()

	// Modify config paths to ensure config.yaml is found
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/practicedesk")

	// Set up environment variables support
	v.SetEnvPrefix("PRACTICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", types.LogLevelInfo)
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime_minutes", 30)
	v.SetDefault("postgres.connect_timeout", 30*time.Second)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("notifications.enabled", true)
	v.SetDefault("notifications.interval", 30*time.Minute)
	v.SetDefault("notifications.timezone", "UTC")
	v.SetDefault("notifications.marker_store", "postgres")
	v.SetDefault("signals.topic", "installment_signals")
	v.SetDefault("signals.pubsub", types.MemoryPubSub)
	v.SetDefault("alerts.topic", "payment_alerts")
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or other non-web applications
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Cache:      CacheConfig{Enabled: true},
		Notifications: NotificationConfig{
			Enabled:     true,
			Interval:    30 * time.Minute,
			Timezone:    "UTC",
			MarkerStore: "memory",
		},
		Signals: SignalConfig{Topic: "installment_signals", PubSub: types.MemoryPubSub},
		Alerts:  AlertConfig{Topic: "payment_alerts"},
	}
}

// Location returns the zone "today" is evaluated in, UTC when unset or unknown
func (c NotificationConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
