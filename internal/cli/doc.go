// Package cli implements the interactive blindauction client.
//
// The CLI is a thin front-end over the auction orchestrator. Every command
// runs behind an access guard: commands that need a connected account or
// the contract owner send the user back to the home prompt with a short
// explanation when the requirement is not met.
//
// Usage
//
//	ba (engine ready, 0x7099…79C8)> help
//	ba (engine ready, 0x7099…79C8)> bid 3 0.25
//	ba (engine ready, 0x7099…79C8)> journal
//
// Submissions run in the background. A command returns once the wallet has
// broadcast the transaction (or the submission failed before that); later
// progress is printed as it happens.
package cli
