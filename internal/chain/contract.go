package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	bcommon "github.com/dmitrijs2005/blindauction/internal/common"
	"github.com/dmitrijs2005/blindauction/internal/fee"
)

// Caller executes read-only calls; *ethclient.Client satisfies it.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Contract is a BlindAuction deployment reachable through a Caller.
type Contract struct {
	Address common.Address
	ABI     abi.ABI
	caller  Caller
}

func NewContract(address common.Address, caller Caller) (*Contract, error) {
	parsed, err := ABI()
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}
	return &Contract{Address: address, ABI: parsed, caller: caller}, nil
}

// callRaw packs method and executes it at the latest block. Reverts come
// back as *common.RevertError, anything else as ErrTransport.
func (c *Contract) callRaw(ctx context.Context, method string, args ...interface{}) ([]byte, error) {
	input, err := c.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	to := c.Address
	out, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		if data, ok := RevertData(err); ok {
			return nil, &bcommon.RevertError{Reason: c.DecodeRevert(data), Data: data}
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", bcommon.ErrTransport, method, err)
	}
	return out, nil
}

func (c *Contract) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	out, err := c.callRaw(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	values, err := c.ABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("%w: unpack %s: %w", bcommon.ErrTransport, method, err)
	}
	return values, nil
}

func (c *Contract) callBig(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	out, err := c.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (c *Contract) callAddress(ctx context.Context, method string, args ...interface{}) (common.Address, error) {
	out, err := c.call(ctx, method, args...)
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func (c *Contract) callBigSlice(ctx context.Context, method string, args ...interface{}) ([]*big.Int, error) {
	out, err := c.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int), nil
}

func (c *Contract) GetAuction(ctx context.Context, id *big.Int) (*AuctionInfo, error) {
	out, err := c.call(ctx, MethodGetAuction, id)
	if err != nil {
		return nil, err
	}
	info := *abi.ConvertType(out[0], new(AuctionInfo)).(*AuctionInfo)
	return &info, nil
}

// GetWinnerAddress returns the zero address until the winner is revealed.
func (c *Contract) GetWinnerAddress(ctx context.Context, id *big.Int) (common.Address, error) {
	return c.callAddress(ctx, MethodGetWinnerAddress, id)
}

// GetEncryptedBid returns the handle of account's bid on auction id.
func (c *Contract) GetEncryptedBid(ctx context.Context, id *big.Int, account common.Address) ([32]byte, error) {
	out, err := c.call(ctx, MethodGetEncryptedBid, id, account)
	if err != nil {
		return [32]byte{}, err
	}
	return *abi.ConvertType(out[0], new([32]byte)).(*[32]byte), nil
}

func (c *Contract) GetUserCreatedAuctions(ctx context.Context, user common.Address) ([]*big.Int, error) {
	return c.callBigSlice(ctx, MethodGetUserCreated, user)
}

func (c *Contract) GetUserCreatedAuctionsCount(ctx context.Context, user common.Address) (*big.Int, error) {
	return c.callBig(ctx, MethodGetUserCreatedCount, user)
}

func (c *Contract) GetUserBidAuctions(ctx context.Context, user common.Address) ([]*big.Int, error) {
	return c.callBigSlice(ctx, MethodGetUserBid, user)
}

func (c *Contract) GetUserBidAuctionsCount(ctx context.Context, user common.Address) (*big.Int, error) {
	return c.callBig(ctx, MethodGetUserBidCount, user)
}

func (c *Contract) NextAuctionID(ctx context.Context) (*big.Int, error) {
	return c.callBig(ctx, MethodNextAuctionID)
}

func (c *Contract) Owner(ctx context.Context) (common.Address, error) {
	return c.callAddress(ctx, MethodOwner)
}

func (c *Contract) ConfidentialToken(ctx context.Context) (common.Address, error) {
	return c.callAddress(ctx, MethodConfidentialToken)
}

func (c *Contract) FeePercentage(ctx context.Context) (*big.Int, error) {
	return c.callBig(ctx, MethodFeePercentage)
}

func (c *Contract) FeeDenominator(ctx context.Context) (*big.Int, error) {
	return c.callBig(ctx, MethodFeeDenominator)
}

// FeeParams reads both fee constants.
func (c *Contract) FeeParams(ctx context.Context) (fee.Params, error) {
	pct, err := c.FeePercentage(ctx)
	if err != nil {
		return fee.Params{}, err
	}
	denom, err := c.FeeDenominator(ctx)
	if err != nil {
		return fee.Params{}, err
	}
	p, overflow := uint256.FromBig(pct)
	d, overflow2 := uint256.FromBig(denom)
	if overflow || overflow2 {
		return fee.Params{}, fmt.Errorf("%w: fee constants exceed 256 bits", bcommon.ErrInvalidFeeParams)
	}
	return fee.Params{Percentage: p, Denominator: d}, nil
}

// Auctions reads the raw storage record of auction id.
func (c *Contract) Auctions(ctx context.Context, id *big.Int) (*AuctionRecord, error) {
	out, err := c.callRaw(ctx, MethodAuctions, id)
	if err != nil {
		return nil, err
	}
	var rec AuctionRecord
	if err := c.ABI.UnpackIntoInterface(&rec, MethodAuctions, out); err != nil {
		return nil, fmt.Errorf("%w: unpack %s: %w", bcommon.ErrTransport, MethodAuctions, err)
	}
	return &rec, nil
}
