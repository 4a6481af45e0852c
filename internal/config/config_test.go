package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
app:
  env: dev
  timezone: Europe/Moscow
http:
  addr: ":9090"
postgres:
  dsn: "postgres://u:p@localhost:5432/pos?sslmode=disable"
metrics:
  enabled: true
orders:
  number_prefix: "POS"
telegram:
  token: "t0ken"
  admin_chat_id: 42
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "dev", c.App.Env)
	require.Equal(t, ":9090", c.HTTP.Addr)
	require.Equal(t, "postgres://u:p@localhost:5432/pos?sslmode=disable", c.Postgres.DSN)
	require.True(t, c.Metrics.Enabled)
	require.Equal(t, "POS", c.Orders.NumberPrefix)
	require.Equal(t, int64(42), c.Telegram.AdminChatID)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
