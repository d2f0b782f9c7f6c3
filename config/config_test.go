package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`database: {host: localhost, port: 5432}`))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, 20000, cfg.Search.PriceCeiling)
	assert.Equal(t, "UTC", cfg.Search.Timezone)
	assert.Equal(t, 3*time.Second, cfg.Inventory.LockTimeout())
	assert.Equal(t, 10*time.Second, cfg.Inventory.OperationTimeout())
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 15*time.Second, cfg.Worker.GaugeInterval())
	assert.Equal(t, ":9101", cfg.Worker.MetricsAddress)
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := Parse([]byte(`
search:
  price_ceiling: 50000
  timezone: Asia/Kolkata
  cache_ttl_seconds: 45
inventory:
  lock_timeout_ms: 500
  operation_timeout_ms: 2000
kafka:
  brokers: [kafka:9092]
  seat_events_topic: seat-events
`))
	require.NoError(t, err)

	assert.Equal(t, 50000, cfg.Search.PriceCeiling)
	assert.Equal(t, 45*time.Second, cfg.Search.CacheTTL())
	loc, err := cfg.Search.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())
	assert.Equal(t, 500*time.Millisecond, cfg.Inventory.LockTimeout())
	assert.Equal(t, []string{"kafka:9092"}, cfg.Kafka.Brokers)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(`search: {timezone: Nowhere/Land}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`inventory: {lock_timeout_ms: 5000, operation_timeout_ms: 1000}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`search: [`))
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http: {address: \":9999\"}\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTP.Address)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "flights", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=flights sslmode=disable", d.DSN())
}
