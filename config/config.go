package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Security SecurityConfig `mapstructure:"security"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	Debug    bool   `mapstructure:"debug"`
	AdminKey string `mapstructure:"admin_key"`
}

// CatalogConfig locates the reward files the editor works on.
type CatalogConfig struct {
	MarkupPath       string        `mapstructure:"markup_path"`    // one_day_reward XML
	FlatTextPath     string        `mapstructure:"flat_text_path"` // onedayreward_begin/end text
	ExportDir        string        `mapstructure:"export_dir"`
	LoadOnStart      bool          `mapstructure:"load_on_start"`
	AutosaveInterval time.Duration `mapstructure:"autosave_interval"` // 0 disables DB autosave
	ExportCron       string        `mapstructure:"export_cron"`       // empty disables scheduled export
	ExportCacheTTL   time.Duration `mapstructure:"export_cache_ttl"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // sqlite | mysql
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

// EditorAccount is one login allowed to edit the catalog.
type EditorAccount struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"` // bcrypt
}

type SecurityConfig struct {
	JWTSecret      string          `mapstructure:"jwt_secret"`
	JWTTTLH        time.Duration   `mapstructure:"jwt_ttl_h"`
	RateLimitRPS   float64         `mapstructure:"rate_limit_rps"`
	RateLimitBurst int             `mapstructure:"rate_limit_burst"`
	Editors        []EditorAccount `mapstructure:"editors"`
	// AdminIPs restricts /api/admin; empty allows all addresses.
	AdminIPs []string `mapstructure:"admin_ips"`
}

// LogConfig enables a rotating JSON log file next to console output.
type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// New returns a viper instance with every default set and environment
// overrides enabled (REWARDS_SERVER_PORT etc.).
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("rewards")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("catalog.markup_path", "./data/OneDayReward.xml")
	v.SetDefault("catalog.flat_text_path", "./data/onedayreward.txt")
	v.SetDefault("catalog.export_dir", "./data/export")
	v.SetDefault("catalog.load_on_start", true)
	v.SetDefault("catalog.autosave_interval", "5m")
	v.SetDefault("catalog.export_cron", "")
	v.SetDefault("catalog.export_cache_ttl", "10m")
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/rewards.db")
	v.SetDefault("database.mysql_max_open", 20)
	v.SetDefault("database.mysql_max_idle", 5)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("security.jwt_ttl_h", "12h")
	v.SetDefault("security.rate_limit_rps", 50)
	v.SetDefault("security.rate_limit_burst", 100)
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
	return v
}

// Load reads config from the given YAML file path.
func Load(path string) (*Config, error) {
	v := New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return Decode(v)
}

// Decode unmarshals an already-populated viper instance.
func Decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
