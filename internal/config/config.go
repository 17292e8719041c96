package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the counseling record service.
type Config struct {
	AppName            string
	AppEnv             string
	AppPort            string
	DatabaseURL        string
	RedisURL           string
	NATSAddress        string
	EventChannelBase   string
	JWTSecret          string
	BootstrapAdminKey  string
	BootstrapUnlockKey string
	TrendCacheTTL      time.Duration
	UnlockDeniedWindow time.Duration
	SeedStudentID      string
	SeedStudentName    string
	SeedStudentClass   string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("FCS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "FCS Record API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("event.channel_base", "fcs")
	// Bootstrap keys only apply while no SystemConfig record exists in the store.
	v.SetDefault("bootstrap.admin_key", "admin")
	v.SetDefault("bootstrap.unlock_key", "unlock")
	v.SetDefault("trend.cache_ttl", "5m")
	v.SetDefault("unlock.denied_window", "2s")
	v.SetDefault("seed.student_id", "SYS-001")
	v.SetDefault("seed.student_name", "System Probe")
	v.SetDefault("seed.student_class", "SYSTEM")

	ttlString := v.GetString("trend.cache_ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid trend cache ttl: %w", err)
	}

	deniedString := v.GetString("unlock.denied_window")
	if deniedString == "" {
		deniedString = "2s"
	}

	deniedWindow, err := time.ParseDuration(deniedString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid unlock denied window: %w", err)
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		DatabaseURL:        v.GetString("database.url"),
		RedisURL:           v.GetString("redis.url"),
		NATSAddress:        v.GetString("nats.address"),
		EventChannelBase:   v.GetString("event.channel_base"),
		JWTSecret:          v.GetString("jwt.secret"),
		BootstrapAdminKey:  v.GetString("bootstrap.admin_key"),
		BootstrapUnlockKey: v.GetString("bootstrap.unlock_key"),
		TrendCacheTTL:      ttl,
		UnlockDeniedWindow: deniedWindow,
		SeedStudentID:      v.GetString("seed.student_id"),
		SeedStudentName:    v.GetString("seed.student_name"),
		SeedStudentClass:   v.GetString("seed.student_class"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.BootstrapAdminKey == "" || cfg.BootstrapUnlockKey == "" {
		return Config{}, fmt.Errorf("bootstrap keys must not be empty")
	}

	return cfg, nil
}
