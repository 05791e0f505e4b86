package mysql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigSetDefaults(t *testing.T) {
	cfg := Config{Host: "db", User: "ledger", Password: "secret", DBName: "custody"}
	cfg.SetDefaults()

	assert.Equal(t, 3306, cfg.Port)
	assert.Equal(t, 100, cfg.MaxOpenConns)
	assert.Equal(t, 10, cfg.MaxIdleConns)
	assert.Equal(t, 30*time.Minute, cfg.ConnMaxLifetime)
	assert.Equal(t, 10, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.RetryInterval)
	assert.Equal(t, "ledger:secret@tcp(db:3306)/custody?charset=utf8mb4&parseTime=True&loc=Local", cfg.DSN())
}

func TestConfigSetDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{Port: 3307, MaxOpenConns: 5, MaxRetries: 1}
	cfg.SetDefaults()

	assert.Equal(t, 3307, cfg.Port)
	assert.Equal(t, 5, cfg.MaxOpenConns)
	assert.Equal(t, 1, cfg.MaxRetries)
}

func TestNewLoggerLevels(t *testing.T) {
	for _, level := range []string{"info", "warn", "error", "silent", ""} {
		assert.NotNil(t, newLogger(level), level)
	}
}
