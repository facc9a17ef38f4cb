// Package config loads service configuration from YAML and EWM_* env vars.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Server        ServerConfig        `mapstructure:"server"`
	Log           LogConfig           `mapstructure:"log"`
	DB            DBConfig            `mapstructure:"db"`
	Stats         StatsConfig         `mapstructure:"stats"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Events        EventsConfig        `mapstructure:"events"`
	Participation ParticipationConfig `mapstructure:"participation"`
}

// AppConfig names the deployment and the app reported to the hit service.
type AppConfig struct {
	Env  string `mapstructure:"env"`
	Name string `mapstructure:"name"`
}

// ServerConfig holds the HTTP listener address and timeouts.
type ServerConfig struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

// DBConfig controls the PostgreSQL pool and its startup retries.
type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	ConnectAttempts int           `mapstructure:"connect_attempts"`
	ConnectBackoff  time.Duration `mapstructure:"connect_backoff"`
}

// StatsConfig points at the hit-counting service.
type StatsConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// Skew extends the end of every stats window to tolerate clock drift
	// between this service and the hit-counting service.
	Skew time.Duration `mapstructure:"skew"`
}

// RedisConfig enables and locates the stats query cache.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// EventsConfig holds how far ahead an event date must be for owner and admin edits.
type EventsConfig struct {
	OwnerLeadTime time.Duration `mapstructure:"owner_lead_time"`
	AdminLeadTime time.Duration `mapstructure:"admin_lead_time"`
}

// ParticipationConfig tunes the participation request workflow.
type ParticipationConfig struct {
	// ReleaseSeatOnCancel decrements the confirmed counter when a confirmed
	// request is canceled.
	ReleaseSeatOnCancel bool `mapstructure:"release_seat_on_cancel"`
}

// Load reads the YAML file at path, unless envOnly is set, and applies
// defaults and EWM_-prefixed environment overrides.
func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("EWM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	setDefaults(v)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.name", "ewm-main-service")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.dsn", "host=localhost port=5432 user=postgres password=postgres dbname=ewm sslmode=disable")
	v.SetDefault("db.max_conns", 20)
	v.SetDefault("db.min_conns", 2)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.connect_attempts", 5)
	v.SetDefault("db.connect_backoff", "2s")
	v.SetDefault("stats.base_url", "http://localhost:9090")
	v.SetDefault("stats.timeout", "2s")
	v.SetDefault("stats.skew", "1m")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "10s")
	v.SetDefault("events.owner_lead_time", "2h")
	v.SetDefault("events.admin_lead_time", "1h")
	v.SetDefault("participation.release_seat_on_cancel", true)
}
