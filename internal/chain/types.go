package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AuctionInfo is the public view returned by getAuction.
type AuctionInfo struct {
	Beneficiary common.Address
	ImageURL    string
	ImageURLs   []string
	Title       string
	Description string
	Category    string
	Location    string
	StartTime   *big.Int
	EndTime     *big.Int
	Winner      common.Address
	Claimed     bool
}

// AuctionRecord is the raw auctions(id) storage getter, including the
// encrypted handles.
type AuctionRecord struct {
	Beneficiary    common.Address `abi:"beneficiary"`
	ImageURL       string         `abi:"imageUrl"`
	Title          string         `abi:"title"`
	Description    string         `abi:"description"`
	Category       string         `abi:"category"`
	Location       string         `abi:"location"`
	StartTime      *big.Int       `abi:"auctionStartTime"`
	EndTime        *big.Int       `abi:"auctionEndTime"`
	ReservePrice   [32]byte       `abi:"reservePrice"`
	Deposit        [32]byte       `abi:"deposit"`
	HighestBid     [32]byte       `abi:"highestBid"`
	WinningAddress [32]byte       `abi:"winningAddress"`
	WinnerAddress  common.Address `abi:"winnerAddress"`
	IsNftClaimed   bool           `abi:"isNftClaimed"`
}

// CreateAuctionParams are the createAuction arguments. The three handles and
// the proof come from a single pipeline run.
type CreateAuctionParams struct {
	ImageURL              string
	ImageURLs             []string
	Title                 string
	Description           string
	Category              string
	Location              string
	StartTime             *big.Int
	EndTime               *big.Int
	EncryptedFeeAmount    [32]byte
	EncryptedReservePrice [32]byte
	EncryptedDeposit      [32]byte
	InputProof            []byte
}

// AuctionCreated is the decoded AuctionCreated event.
type AuctionCreated struct {
	AuctionID   *big.Int
	Beneficiary common.Address
	ImageURL    string   `abi:"imageUrl"`
	Title       string   `abi:"title"`
	StartTime   *big.Int `abi:"startTime"`
	EndTime     *big.Int `abi:"endTime"`
}
