package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/blindauction/internal/flagx"
)

var ownFlags = []string{"-r", "-a", "-k", "-d", "-i", "-j", "-l"}

// parseFlags overlays cfg with command-line flags. Only the flags listed in
// ownFlags are considered, so -c/-config never trip the parser.
// Panics on malformed values.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], ownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.StringVar(&cfg.RPCEndpoint, "r", cfg.RPCEndpoint, "Ethereum JSON-RPC endpoint")
	fs.StringVar(&cfg.ContractAddress, "a", cfg.ContractAddress, "BlindAuction contract address")
	fs.StringVar(&cfg.KeystoreFile, "k", cfg.KeystoreFile, "keystore file of the signing account")
	fs.Uint64Var(&cfg.ConfirmationDepth, "d", cfg.ConfirmationDepth, "confirmation depth")
	poll := fs.Int("i", int(cfg.PollInterval.Seconds()), "receipt poll interval (in seconds)")
	fs.StringVar(&cfg.JournalDSN, "j", cfg.JournalDSN, "journal DSN")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.PollInterval = time.Duration(*poll) * time.Second
}
