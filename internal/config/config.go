package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"cardapio/internal/models"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendSupabase = "supabase"
	BackendFile     = "file"
	BackendMemory   = "memory"

	BusRedis  = "redis"
	BusMemory = "memory"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Backup     BackupConfig     `yaml:"backup"`
	Menu       MenuConfig       `yaml:"menu"`
	Supabase   SupabaseConfig   `yaml:"supabase"`
	Redis      RedisConfig      `yaml:"redis"`
	Notify     NotifyConfig     `yaml:"notify"`
	Auth       AuthConfig       `yaml:"auth"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Tracing    TracingConfig    `yaml:"tracing"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path     string         `yaml:"path"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type BackupConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Interval      time.Duration `yaml:"interval"`
	RetentionDays int           `yaml:"retention_days"`
	StoragePath   string        `yaml:"storage_path"`
}

type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	DBName         string `yaml:"dbname"`
	SSLMode        string `yaml:"sslmode"`
	MaxConnections int    `yaml:"max_connections"`
}

// ConnString returns DSN when set, otherwise builds one from the parts.
func (p PostgresConfig) ConnString() string {
	if p.DSN != "" {
		return p.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode, p.MaxConnections)
}

// MenuConfig tunes the menu cache and the remote backend guard.
type MenuConfig struct {
	Backend          string        `yaml:"backend"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	BreakerThreshold int           `yaml:"breaker_threshold"`
	BreakerTimeout   time.Duration `yaml:"breaker_timeout"`
	RetryAttempts    int           `yaml:"retry_attempts"`
	ReadRetryDelay   time.Duration `yaml:"read_retry_delay"`
	WriteRetryDelay  time.Duration `yaml:"write_retry_delay"`
	SnapshotPath     string        `yaml:"snapshot_path"`
	DefaultsPath     string        `yaml:"defaults_path"`
}

type SupabaseConfig struct {
	URL   string `yaml:"url"`
	Key   string `yaml:"key"`
	Table string `yaml:"table"`
}

type RedisConfig struct {
	Address  string `yaml:"address" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
	PoolSize int    `yaml:"pool_size" env:"REDIS_POOL_SIZE"`
}

type NotifyConfig struct {
	Bus        string   `yaml:"bus"`
	Peers      []string `yaml:"peers"`
	PeerToken  string   `yaml:"peer_token"`
	InstanceID string   `yaml:"instance_id"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	Issuer    string        `yaml:"issuer"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	// AdminEmail and AdminPasswordHash (bcrypt) guard POST /api/auth/login.
	AdminEmail        string `yaml:"admin_email"`
	AdminPasswordHash string `yaml:"admin_password_hash"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	switch c.Menu.Backend {
	case BackendSQLite, BackendFile, BackendMemory:
	case BackendPostgres:
		if c.Database.Postgres.DSN == "" && c.Database.Postgres.Host == "" {
			return errors.New("postgres backend requires database.postgres.dsn or host")
		}
	case BackendSupabase:
		if c.Supabase.URL == "" || c.Supabase.Key == "" {
			return errors.New("supabase backend requires supabase.url and supabase.key")
		}
	default:
		return fmt.Errorf("unknown menu backend %q", c.Menu.Backend)
	}

	switch c.Notify.Bus {
	case BusRedis, BusMemory:
	default:
		return fmt.Errorf("unknown notify bus %q", c.Notify.Bus)
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("auth jwt_secret is required")
	}

	return nil
}

// ValidateItems checks a default dataset for usable, unique ids.
func ValidateItems(items []models.MenuItem) error {
	itemIDs := make(map[int64]bool)
	for _, item := range items {
		if item.ID <= 0 {
			return fmt.Errorf("item '%s' has invalid ID %d", item.Name, item.ID)
		}
		if itemIDs[item.ID] {
			return fmt.Errorf("duplicate item ID found: %d", item.ID)
		}
		if strings.TrimSpace(item.Name) == "" {
			return fmt.Errorf("item %d has empty name", item.ID)
		}
		itemIDs[item.ID] = true
	}
	return nil
}

// LoadItems reads a default menu dataset from a YAML file.
func LoadItems(path string) ([]models.MenuItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Items []models.MenuItem `yaml:"items"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse items %s: %w", path, err)
	}
	if err := ValidateItems(doc.Items); err != nil {
		return nil, err
	}
	return doc.Items, nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "cardapio"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	m := &c.Menu
	if m.Backend == "" {
		m.Backend = BackendSQLite
	}
	if m.CacheTTL == 0 {
		m.CacheTTL = 30 * time.Second
	}
	if m.ReadTimeout == 0 {
		m.ReadTimeout = 5 * time.Second
	}
	if m.WriteTimeout == 0 {
		m.WriteTimeout = 8 * time.Second
	}
	if m.BreakerThreshold == 0 {
		m.BreakerThreshold = 3
	}
	if m.BreakerTimeout == 0 {
		m.BreakerTimeout = 30 * time.Second
	}
	if m.RetryAttempts == 0 {
		m.RetryAttempts = 2
	}
	if m.ReadRetryDelay == 0 {
		m.ReadRetryDelay = 500 * time.Millisecond
	}
	if m.WriteRetryDelay == 0 {
		m.WriteRetryDelay = time.Second
	}
	if m.SnapshotPath == "" {
		m.SnapshotPath = "data/cardapio.json"
	}

	if c.Supabase.Table == "" {
		c.Supabase.Table = "cardapio"
	}
	if c.Database.Postgres.Port == 0 {
		c.Database.Postgres.Port = 5432
	}
	if c.Database.Postgres.SSLMode == "" {
		c.Database.Postgres.SSLMode = "disable"
	}
	if c.Database.Postgres.MaxConnections == 0 {
		c.Database.Postgres.MaxConnections = 10
	}

	if c.Notify.Bus == "" {
		c.Notify.Bus = BusMemory
	}
	if c.Notify.InstanceID == "" {
		c.Notify.InstanceID = uuid.NewString()
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = c.App.Name
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.RateLimit.RPS == 0 {
		c.RateLimit.RPS = 20
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 40
	}
	if c.Tracing.SampleRatio == 0 {
		c.Tracing.SampleRatio = 1
	}
	if c.Backup.Interval == 0 {
		c.Backup.Interval = 24 * time.Hour
	}
	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "backups"
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
