package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	DataAPI   DataAPIConfig   `mapstructure:"data_api"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Recent    RecentConfig    `mapstructure:"recent"`
	DB        DBConfig        `mapstructure:"db"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Export    ExportConfig    `mapstructure:"export"`
	Refresh   RefreshConfig   `mapstructure:"refresh"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DataAPIConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	LeaderboardPeriod string        `mapstructure:"leaderboard_period"`
}

type CacheConfig struct {
	// Backend is one of memory, redis, none.
	Backend       string        `mapstructure:"backend"`
	TTL           time.Duration `mapstructure:"ttl"`
	MaxCost       int64         `mapstructure:"max_cost"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
}

type RecentConfig struct {
	// Backend is one of memory, postgres.
	Backend  string `mapstructure:"backend"`
	// Capacity may lower the list size; values above 5 are clamped to 5.
	Capacity int    `mapstructure:"capacity"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type AnalyticsConfig struct {
	AllocationCap int `mapstructure:"allocation_cap"`
	WinnersN      int `mapstructure:"winners_n"`
	VolumeWindow  int `mapstructure:"volume_window"`
	TimelineLimit int `mapstructure:"timeline_limit"`
}

type ExportConfig struct {
	PDFEnabled  bool `mapstructure:"pdf_enabled"`
	XLSXEnabled bool `mapstructure:"xlsx_enabled"`
}

type RefreshConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Spec    string `mapstructure:"spec"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PMD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("data_api.base_url", "https://data-api.polymarket.com")
	v.SetDefault("data_api.timeout", "20s")
	v.SetDefault("data_api.leaderboard_period", "all")
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", "30s")
	v.SetDefault("cache.max_cost", 64<<20)
	v.SetDefault("cache.redis_addr", "127.0.0.1:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("recent.backend", "memory")
	v.SetDefault("recent.capacity", 5)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 5)
	v.SetDefault("db.max_idle_conns", 2)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("analytics.allocation_cap", 10)
	v.SetDefault("analytics.winners_n", 5)
	v.SetDefault("analytics.volume_window", 7)
	v.SetDefault("analytics.timeline_limit", 200)
	v.SetDefault("export.pdf_enabled", true)
	v.SetDefault("export.xlsx_enabled", true)

	// Auto-refresh stays off unless asked for; every refresh re-pages all four endpoints.
	v.SetDefault("refresh.enabled", false)
	v.SetDefault("refresh.spec", "@every 5m")

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
