package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"cardapio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("CARDAPIO_TEST_SECRET", "s3cret")
	yamlContent := `
database:
  path: "test.db"
menu:
  backend: memory
  cache_ttl: 10s
auth:
  jwt_secret: "${CARDAPIO_TEST_SECRET}"
notify:
  peers: ["http://peer:3000"]
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, BackendMemory, cfg.Menu.Backend)
	assert.Equal(t, 10*time.Second, cfg.Menu.CacheTTL)
	assert.Equal(t, 5*time.Second, cfg.Menu.ReadTimeout)
	assert.Equal(t, []string{"http://peer:3000"}, cfg.Notify.Peers)
}

func TestValidateConfig(t *testing.T) {
	valid := func() Config {
		c := Config{Database: DatabaseConfig{Path: "path"}, Auth: AuthConfig{JWTSecret: "x"}}
		c.applyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid config", func(c *Config) {}, false},
		{"missing database path", func(c *Config) { c.Database.Path = "" }, true},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }, true},
		{"unknown backend", func(c *Config) { c.Menu.Backend = "mongo" }, true},
		{"supabase without url", func(c *Config) { c.Menu.Backend = BackendSupabase }, true},
		{"supabase complete", func(c *Config) {
			c.Menu.Backend = BackendSupabase
			c.Supabase.URL = "https://x.supabase.co"
			c.Supabase.Key = "anon"
		}, false},
		{"postgres without dsn", func(c *Config) { c.Menu.Backend = BackendPostgres }, true},
		{"unknown bus", func(c *Config) { c.Notify.Bus = "kafka" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Menu.CacheTTL)
	assert.Equal(t, 8*time.Second, cfg.Menu.WriteTimeout)
	assert.Equal(t, 3, cfg.Menu.BreakerThreshold)
	assert.Equal(t, 30*time.Second, cfg.Menu.BreakerTimeout)
	assert.Equal(t, 2, cfg.Menu.RetryAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Menu.ReadRetryDelay)
	assert.Equal(t, time.Second, cfg.Menu.WriteRetryDelay)
	assert.Equal(t, BusMemory, cfg.Notify.Bus)
	assert.Equal(t, "cardapio", cfg.Supabase.Table)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.NotEmpty(t, cfg.Notify.InstanceID)

	pinned := &Config{Notify: NotifyConfig{InstanceID: "api-1"}}
	pinned.applyDefaults()
	assert.Equal(t, "api-1", pinned.Notify.InstanceID)
}

func TestPostgresConnString(t *testing.T) {
	p := PostgresConfig{DSN: "postgres://x"}
	assert.Equal(t, "postgres://x", p.ConnString())

	p = PostgresConfig{User: "u", Password: "p", Host: "db", Port: 5432, DBName: "menu", SSLMode: "disable", MaxConnections: 5}
	assert.Equal(t, "postgres://u:p@db:5432/menu?sslmode=disable&pool_max_conns=5", p.ConnString())
}

func TestValidateItems(t *testing.T) {
	tests := []struct {
		name    string
		items   []models.MenuItem
		wantErr bool
	}{
		{"Valid items", []models.MenuItem{{ID: 1, Name: "Item 1"}, {ID: 2, Name: "Item 2"}}, false},
		{"Duplicate ID", []models.MenuItem{{ID: 1, Name: "Item 1"}, {ID: 1, Name: "Item 2"}}, true},
		{"ID 0", []models.MenuItem{{ID: 0, Name: "Item 1"}}, true},
		{"Empty name", []models.MenuItem{{ID: 3, Name: " "}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateItems(tt.items)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateItems() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadItems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.yaml")
	content := `
items:
  - id: 1
    nome: "X BACON"
    preco: 24.9
    categoria: hamburguers
    disponivel: true
    is_active: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	items, err := LoadItems(path)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "X BACON", items[0].Name)
	assert.Equal(t, 24.9, items[0].Price)
	assert.True(t, items[0].Visible())
}

func TestShippedConfigs(t *testing.T) {
	t.Setenv("JWT_SECRET", "shipped-secret")

	cfg, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Menu.Backend)
	assert.Equal(t, BusMemory, cfg.Notify.Bus)
	assert.Equal(t, "shipped-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 3, cfg.Menu.BreakerThreshold)

	items, err := LoadItems(filepath.Join("..", "..", cfg.Menu.DefaultsPath))
	require.NoError(t, err)
	assert.Len(t, items, 4)
	for _, item := range items {
		assert.True(t, item.Visible(), item.Name)
	}
}
