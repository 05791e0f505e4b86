package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "config.yaml", `
ledger:
  withdrawal_limit: 5000
  bank_cap: 20000
payout:
  mode: grpc
  target: payout:50061
  timeout: 2s
mysql:
  enabled: true
  host: db
  db_name: custody
  conn_max_lifetime: 10m
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint64(5000), cfg.Ledger.WithdrawalLimit)
	assert.Equal(t, uint64(20000), cfg.Ledger.BankCap)
	assert.Equal(t, BackendMemory, cfg.Ledger.Backend)
	assert.Equal(t, ":50051", cfg.GRPC.Addr)
	assert.Equal(t, "wal.log", cfg.Journal.Path)
	assert.Equal(t, PayoutGRPC, cfg.Payout.Mode)
	assert.Equal(t, 2*time.Second, cfg.Payout.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 3306, cfg.MySQL.Port)
	assert.Equal(t, 100, cfg.MySQL.MaxOpenConns)
	assert.Equal(t, 10*time.Minute, cfg.MySQL.ConnMaxLifetime)
}

func TestLoadRepositoryConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", DefaultPath))
	require.NoError(t, err)
	assert.Equal(t, uint64(5000), cfg.Ledger.WithdrawalLimit)
	assert.Equal(t, uint64(20000), cfg.Ledger.BankCap)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "ledger: ["))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "empty.yaml", "grpc:\n  addr: \":1\"\n"))
	assert.ErrorContains(t, err, "ledger.bank_cap is required")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		c := Config{Ledger: LedgerConfig{WithdrawalLimit: 10, BankCap: 5}}
		c.SetDefaults()
		return c
	}

	// withdrawal_limit > bank_cap 是允許的
	c := valid()
	assert.NoError(t, c.Validate())

	c = valid()
	c.Payout.Mode = PayoutGRPC
	assert.ErrorContains(t, c.Validate(), "payout.target")

	c = valid()
	c.Payout.Mode = "carrier-pigeon"
	assert.ErrorContains(t, c.Validate(), "unknown payout.mode")

	c = valid()
	c.Ledger.Backend = BackendMySQL
	assert.ErrorContains(t, c.Validate(), "mysql.host")

	c = valid()
	c.Ledger.Backend = "redis"
	assert.ErrorContains(t, c.Validate(), "unknown ledger.backend")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"LEDGER_WITHDRAWAL_LIMIT": "7",
		"LEDGER_BANK_CAP":         "70",
		"LEDGER_GRPC_ADDR":        ":6000",
		"LEDGER_MYSQL_PASSWORD":   "s3cret",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	var c Config
	require.NoError(t, c.ApplyEnv(lookup))
	assert.Equal(t, uint64(7), c.Ledger.WithdrawalLimit)
	assert.Equal(t, uint64(70), c.Ledger.BankCap)
	assert.Equal(t, ":6000", c.GRPC.Addr)
	assert.Equal(t, "s3cret", c.MySQL.Password)

	env["LEDGER_BANK_CAP"] = "-1"
	assert.ErrorContains(t, c.ApplyEnv(lookup), "LEDGER_BANK_CAP")
}

func TestApplyEnvBool(t *testing.T) {
	env := map[string]string{
		"LEDGER_JOURNAL_ENABLED": "false",
		"LEDGER_JOURNAL_NO_SYNC": "1",
		"LEDGER_MYSQL_ENABLED":   "true",
		"LEDGER_GRPC_REFLECTION": "TRUE",
		"LEDGER_LOG_DEVELOPMENT": "t",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	c := Config{Journal: JournalConfig{Enabled: true}}
	require.NoError(t, c.ApplyEnv(lookup))
	assert.False(t, c.Journal.Enabled)
	assert.True(t, c.Journal.NoSync)
	assert.True(t, c.MySQL.Enabled)
	assert.True(t, c.GRPC.Reflection)
	assert.True(t, c.Log.Development)

	env["LEDGER_JOURNAL_ENABLED"] = "maybe"
	assert.ErrorContains(t, c.ApplyEnv(lookup), "LEDGER_JOURNAL_ENABLED")
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "LEDGER_TEST_DOTENV_VALUE=from-dotenv\n")
	t.Cleanup(func() { os.Unsetenv("LEDGER_TEST_DOTENV_VALUE") })

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"), path))
	assert.Equal(t, "from-dotenv", os.Getenv("LEDGER_TEST_DOTENV_VALUE"))
}
