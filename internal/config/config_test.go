package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaultsLocal(t *testing.T) {
	cfg := Config{BuildTarget: "local", DBDriver: "auto", ReplyProvider: "rest", DatePollSeconds: 60}
	require.NoError(t, cfg.ResolveDefaults())
	assert.Equal(t, "sqlite", cfg.DBDriver)
}

func TestResolveDefaultsCloudRequiresDSN(t *testing.T) {
	cfg := Config{BuildTarget: "cloud", DBDriver: "auto", ReplyProvider: "rest", DatePollSeconds: 60}
	err := cfg.ResolveDefaults()
	require.Error(t, err)

	cfg.PostgresDSN = "postgres://localhost/journal"
	require.NoError(t, cfg.ResolveDefaults())
	assert.Equal(t, "postgres", cfg.DBDriver)
}

func TestResolveDefaultsRejectsUnknowns(t *testing.T) {
	cfg := Config{BuildTarget: "mainframe"}
	require.Error(t, cfg.ResolveDefaults())

	cfg = Config{BuildTarget: "local", DBDriver: "oracle", ReplyProvider: "rest"}
	require.Error(t, cfg.ResolveDefaults())

	cfg = Config{BuildTarget: "local", DBDriver: "auto", ReplyProvider: "telepathy"}
	require.Error(t, cfg.ResolveDefaults())
}

func TestResolveDefaultsPollFloor(t *testing.T) {
	cfg := Config{BuildTarget: "local", DBDriver: "auto", ReplyProvider: "rest", DatePollSeconds: -5}
	require.NoError(t, cfg.ResolveDefaults())
	assert.Equal(t, 60, cfg.DatePollSeconds)
}

func TestNewParsesEnvironment(t *testing.T) {
	t.Setenv("JOURNAL_HTTP_PORT", "9191")
	t.Setenv("JOURNAL_DB_DRIVER", "sqlite")
	t.Setenv("JOURNAL_DEFAULT_TIME_ZONE", "America/New_York")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.HTTPPort)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "America/New_York", cfg.DefaultTimeZone)
}
