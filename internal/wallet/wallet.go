// Package wallet is the signing boundary: it turns a transaction request into
// a signed, broadcast transaction after the user confirms it.
package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TxRequest is an unsigned contract call.
type TxRequest struct {
	To          common.Address
	Data        []byte
	Value       *big.Int
	Description string
}

// Wallet is what the auction workflow needs from a wallet.
//
// Send returns common.ErrUserRejected when the user declines, a
// *common.RevertError when the call would revert, and common.ErrTransport on
// RPC failures. A returned hash means the transaction was broadcast.
type Wallet interface {
	Account() (common.Address, bool)
	Send(ctx context.Context, req TxRequest) (common.Hash, error)
}
