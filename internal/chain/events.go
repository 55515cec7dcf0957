package chain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	bcommon "github.com/dmitrijs2005/blindauction/internal/common"
)

// ParseAuctionCreated decodes an AuctionCreated log emitted by c.
func (c *Contract) ParseAuctionCreated(log *types.Log) (*AuctionCreated, error) {
	ev := c.ABI.Events[EventAuctionCreated]
	if log.Address != c.Address || len(log.Topics) != 3 || log.Topics[0] != ev.ID {
		return nil, fmt.Errorf("%w: not an %s log", bcommon.ErrNotFound, EventAuctionCreated)
	}
	var out AuctionCreated
	if err := c.ABI.UnpackIntoInterface(&out, EventAuctionCreated, log.Data); err != nil {
		return nil, fmt.Errorf("unpack %s: %w", EventAuctionCreated, err)
	}
	out.AuctionID = new(big.Int).SetBytes(log.Topics[1].Bytes())
	out.Beneficiary = common.BytesToAddress(log.Topics[2].Bytes())
	return &out, nil
}

// AuctionIDFromReceipt returns the id of the auction created in receipt.
func (c *Contract) AuctionIDFromReceipt(receipt *types.Receipt) (*big.Int, error) {
	if receipt == nil {
		return nil, fmt.Errorf("%w: no receipt", bcommon.ErrNotFound)
	}
	for _, l := range receipt.Logs {
		if ev, err := c.ParseAuctionCreated(l); err == nil {
			return ev.AuctionID, nil
		}
	}
	return nil, fmt.Errorf("%w: %s in tx %s", bcommon.ErrNotFound, EventAuctionCreated, receipt.TxHash.Hex())
}
