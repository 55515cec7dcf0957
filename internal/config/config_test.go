package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8545", c.RPCEndpoint)
	assert.Equal(t, uint64(2), c.ConfirmationDepth)
	assert.Equal(t, 2*time.Second, c.PollInterval)
	assert.Equal(t, uint64(3), c.MaxPollErrors)
	assert.Equal(t, "journal.db", c.JournalDSN)
	assert.Equal(t, "info", c.LogLevel)
	assert.Empty(t, c.S3Bucket)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })
	os.Args = []string{"cmd"}
	t.Setenv("BLINDAUCTION_CONFIG", "")

	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "http://127.0.0.1:8545", cfg.RPCEndpoint)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
}
