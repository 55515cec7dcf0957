package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/blindauction/internal/flagx"
	"github.com/dmitrijs2005/blindauction/internal/timex"
)

// JsonConfig is the on-disk shape of Config. Pointer fields distinguish
// "absent" from zero so a partial file only overrides what it names.
type JsonConfig struct {
	RPCEndpoint       *string         `json:"rpc_endpoint"`
	ContractAddress   *string         `json:"contract_address"`
	RelayerEndpoint   *string         `json:"relayer_endpoint"`
	EnginePublicKey   *string         `json:"engine_public_key"`
	EngineInitTimeout *timex.Duration `json:"engine_init_timeout"`
	KeystoreFile      *string         `json:"keystore_file"`
	SessionFile       *string         `json:"session_file"`
	SessionSecret     *string         `json:"session_secret"`
	SessionTTL        *timex.Duration `json:"session_ttl"`
	ConfirmationDepth *uint64         `json:"confirmation_depth"`
	PollInterval      *timex.Duration `json:"poll_interval"`
	MaxPollErrors     *uint64         `json:"max_poll_errors"`
	JournalDSN        *string         `json:"journal_dsn"`
	S3Bucket          *string         `json:"s3_bucket"`
	S3Region          *string         `json:"s3_region"`
	S3BaseEndpoint    *string         `json:"s3_base_endpoint"`
	S3AccessKey       *string         `json:"s3_access_key"`
	S3SecretKey       *string         `json:"s3_secret_key"`
	S3PublicBaseURL   *string         `json:"s3_public_base_url"`
	LogLevel          *string         `json:"log_level"`
}

// parseJson overlays cfg with the JSON file named by flagx.ConfigPath.
// Panics on read or decode errors.
func parseJson(cfg *Config) {
	path := flagx.ConfigPath()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}
	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.RPCEndpoint, jc.RPCEndpoint)
	setString(&cfg.ContractAddress, jc.ContractAddress)
	setString(&cfg.RelayerEndpoint, jc.RelayerEndpoint)
	setString(&cfg.EnginePublicKey, jc.EnginePublicKey)
	if jc.EngineInitTimeout != nil {
		cfg.EngineInitTimeout = jc.EngineInitTimeout.Duration
	}
	setString(&cfg.KeystoreFile, jc.KeystoreFile)
	setString(&cfg.SessionFile, jc.SessionFile)
	setString(&cfg.SessionSecret, jc.SessionSecret)
	if jc.SessionTTL != nil {
		cfg.SessionTTL = jc.SessionTTL.Duration
	}
	if jc.ConfirmationDepth != nil {
		cfg.ConfirmationDepth = *jc.ConfirmationDepth
	}
	if jc.PollInterval != nil {
		cfg.PollInterval = jc.PollInterval.Duration
	}
	if jc.MaxPollErrors != nil {
		cfg.MaxPollErrors = *jc.MaxPollErrors
	}
	setString(&cfg.JournalDSN, jc.JournalDSN)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.S3PublicBaseURL, jc.S3PublicBaseURL)
	setString(&cfg.LogLevel, jc.LogLevel)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
