package chain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

func (c *Contract) pack(method string, args ...interface{}) ([]byte, error) {
	data, err := c.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	return data, nil
}

func (c *Contract) PackCreateAuction(p CreateAuctionParams) ([]byte, error) {
	urls := p.ImageURLs
	if urls == nil {
		urls = []string{}
	}
	return c.pack(MethodCreateAuction,
		p.ImageURL, urls, p.Title, p.Description, p.Category, p.Location,
		p.StartTime, p.EndTime,
		p.EncryptedFeeAmount, p.EncryptedReservePrice, p.EncryptedDeposit,
		p.InputProof,
	)
}

func (c *Contract) PackBid(id *big.Int, encryptedAmount [32]byte, inputProof []byte) ([]byte, error) {
	return c.pack(MethodBid, id, encryptedAmount, inputProof)
}

func (c *Contract) PackDecryptWinningAddress(id *big.Int) ([]byte, error) {
	return c.pack(MethodDecryptWinningAddress, id)
}

func (c *Contract) PackWinnerClaimPrize(id *big.Int) ([]byte, error) {
	return c.pack(MethodWinnerClaimPrize, id)
}

func (c *Contract) PackWithdraw(id *big.Int, bidder common.Address) ([]byte, error) {
	return c.pack(MethodWithdraw, id, bidder)
}

func (c *Contract) PackWithdrawFees() ([]byte, error) {
	return c.pack(MethodWithdrawFees)
}
