// Package config loads runtime configuration for the blindauction CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c / -config or BLINDAUCTION_CONFIG.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-r string   Ethereum JSON-RPC endpoint
//	-a string   BlindAuction contract address
//	-k string   keystore file of the signing account
//	-d int      confirmation depth
//	-i int      receipt poll interval (seconds)
//	-j string   journal DSN (file path / sqlite:// for SQLite, postgres:// for Postgres)
//	-l string   log level
//
// # JSON schema
//
// Durations use timex.Duration, so "3s" and integer nanoseconds both work:
//
//	{
//	  "rpc_endpoint": "http://127.0.0.1:8545",
//	  "contract_address": "0x5FbDB2315678afecb367f032d93F642f64180aa3",
//	  "relayer_endpoint": "http://127.0.0.1:8546",
//	  "confirmation_depth": 2,
//	  "poll_interval": "2s",
//	  "journal_dsn": "journal.db"
//	}
package config
