package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd", "-r", "http://node:8545", "-a", "0xabc", "-k", "k.json", "-d", "5", "-i", "10", "-j", "postgres://x", "-l", "debug"},
			expected: &Config{RPCEndpoint: "http://node:8545", ContractAddress: "0xabc", KeystoreFile: "k.json",
				ConfirmationDepth: 5, PollInterval: 10 * time.Second, JournalDSN: "postgres://x", LogLevel: "debug"}},
		{name: "config flag ignored", args: []string{"cmd", "-c", "cfg.json", "-i", "1"},
			expected: &Config{PollInterval: time.Second}},
		{name: "incorrect poll interval", args: []string{"cmd", "-i", "abc"}, expectPanic: true},
		{name: "incorrect depth", args: []string{"cmd", "-d", "-1"}, expectPanic: true},
	}

	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			cfg := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(cfg) })
				return
			}
			require.NotPanics(t, func() { parseFlags(cfg) })
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}
