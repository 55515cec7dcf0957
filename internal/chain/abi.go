// Package chain binds the BlindAuction contract: typed read calls, calldata
// packing for writes, revert decoding and receipt parsing.
package chain

import (
	"bytes"
	_ "embed"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

//go:embed blindauction.abi.json
var abiJSON []byte

var (
	abiOnce   sync.Once
	parsedABI abi.ABI
	abiErr    error
)

// ABI returns the parsed BlindAuction ABI.
func ABI() (abi.ABI, error) {
	abiOnce.Do(func() {
		parsedABI, abiErr = abi.JSON(bytes.NewReader(abiJSON))
	})
	return parsedABI, abiErr
}

// Method and event names used across the client.
const (
	MethodCreateAuction         = "createAuction"
	MethodBid                   = "bid"
	MethodDecryptWinningAddress = "decryptWinningAddress"
	MethodWinnerClaimPrize      = "winnerClaimPrize"
	MethodWithdraw              = "withdraw"
	MethodWithdrawFees          = "withdrawFees"
	MethodGetAuction            = "getAuction"
	MethodGetWinnerAddress      = "getWinnerAddress"
	MethodGetEncryptedBid       = "getEncryptedBid"
	MethodGetUserCreated        = "getUserCreatedAuctions"
	MethodGetUserCreatedCount   = "getUserCreatedAuctionsCount"
	MethodGetUserBid            = "getUserBidAuctions"
	MethodGetUserBidCount       = "getUserBidAuctionsCount"
	MethodNextAuctionID         = "nextAuctionId"
	MethodOwner                 = "owner"
	MethodConfidentialToken     = "confidentialFungibleToken"
	MethodFeePercentage         = "FEE_PERCENTAGE"
	MethodFeeDenominator        = "FEE_DENOMINATOR"
	MethodAuctions              = "auctions"
	EventAuctionCreated         = "AuctionCreated"
	EventBidPlaced              = "BidPlaced"
	EventDecryptionFulfilled    = "DecryptionFulfilled"
	EventFeesWithdrawn          = "FeesWithdrawn"
)
