package config

import "time"

// Config holds runtime settings for the blindauction CLI.
//
// Engine: either RelayerEndpoint (public key fetched over JSON-RPC on first
// use) or EnginePublicKey (hex, for offline setups) must be set.
// Journal: JournalDSN selects SQLite (plain path or sqlite://) or Postgres
// (postgres://). Media: S3 uploads are disabled while S3Bucket is empty.
type Config struct {
	RPCEndpoint     string
	ContractAddress string

	RelayerEndpoint   string
	EnginePublicKey   string
	EngineInitTimeout time.Duration

	KeystoreFile  string
	SessionFile   string
	SessionSecret string
	SessionTTL    time.Duration

	ConfirmationDepth uint64
	PollInterval      time.Duration
	MaxPollErrors     uint64

	JournalDSN string

	S3Bucket        string
	S3Region        string
	S3BaseEndpoint  string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string

	LogLevel string
}

// LoadDefaults populates c with development defaults (local node, local
// SQLite journal, media disabled).
func (c *Config) LoadDefaults() {
	c.RPCEndpoint = "http://127.0.0.1:8545"
	c.ContractAddress = ""
	c.RelayerEndpoint = ""
	c.EnginePublicKey = ""
	c.EngineInitTimeout = 30 * time.Second
	c.KeystoreFile = "wallet.json"
	c.SessionFile = "session.jwt"
	c.SessionSecret = ""
	c.SessionTTL = 24 * time.Hour
	c.ConfirmationDepth = 2
	c.PollInterval = 2 * time.Second
	c.MaxPollErrors = 3
	c.JournalDSN = "journal.db"
	c.S3Region = "us-east-1"
	c.LogLevel = "info"
}

// LoadConfig builds a Config from defaults, then the JSON file (if any), then
// flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
