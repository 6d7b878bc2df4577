package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.App.Env)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, 24*time.Hour, cfg.JWT.AccessTTL)
	assert.Equal(t, devJWTSecret, cfg.JWT.Secret)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  env: staging
db:
  driver: sqlite
  path: /tmp/ledger.db
server:
  port: "9000"
`), 0o644))

	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.App.Env)
	assert.Equal(t, DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, "/tmp/ledger.db", cfg.DB.Path)
	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", EnvProduction)
	t.Setenv("JWT_SECRET", "")

	_, err := Load("")
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load("")
	assert.ErrorContains(t, err, "db.driver")
}

func TestDSN(t *testing.T) {
	c := DBConfig{Host: "db", Port: "5432", User: "app", Password: "p@ss", Name: "ledger", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss@db:5432/ledger?sslmode=disable", c.DSN())
}
