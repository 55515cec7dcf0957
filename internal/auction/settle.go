package auction

import (
	"context"
	"fmt"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/dmitrijs2005/blindauction/internal/common"
	"github.com/dmitrijs2005/blindauction/internal/journal"
	"github.com/dmitrijs2005/blindauction/internal/wallet"
)

// DecryptWinningAddress asks the contract to reveal the winner of auction id.
func (o *Orchestrator) DecryptWinningAddress(ctx context.Context, id *big.Int) (*Submission, error) {
	return o.plain(ctx, KindDecrypt, "decrypt:"+id.String(), id, func() ([]byte, error) {
		return o.contract.PackDecryptWinningAddress(id)
	}, fmt.Sprintf("reveal winner of auction %s", id))
}

// ClaimPrize claims auction id for its winner.
func (o *Orchestrator) ClaimPrize(ctx context.Context, id *big.Int) (*Submission, error) {
	return o.plain(ctx, KindClaimPrize, "claim:"+id.String(), id, func() ([]byte, error) {
		return o.contract.PackWinnerClaimPrize(id)
	}, fmt.Sprintf("claim prize of auction %s", id))
}

// Withdraw returns the deposit of bidder on auction id.
func (o *Orchestrator) Withdraw(ctx context.Context, id *big.Int, bidder ethcommon.Address) (*Submission, error) {
	key := fmt.Sprintf("withdraw:%s:%s", id, bidder.Hex())
	return o.plain(ctx, KindWithdraw, key, id, func() ([]byte, error) {
		return o.contract.PackWithdraw(id, bidder)
	}, fmt.Sprintf("withdraw deposit of %s from auction %s", bidder.Hex(), id))
}

// WithdrawFees moves the collected fees to the contract owner.
func (o *Orchestrator) WithdrawFees(ctx context.Context) (*Submission, error) {
	return o.plain(ctx, KindWithdrawFees, "withdraw-fees", nil, func() ([]byte, error) {
		return o.contract.PackWithdrawFees()
	}, "withdraw collected fees")
}

// plain submits a call that carries no encrypted input.
func (o *Orchestrator) plain(ctx context.Context, kind Kind, key string, id *big.Int, pack func() ([]byte, error), description string) (*Submission, error) {
	release, err := o.registry.Acquire(key)
	if err != nil {
		return nil, err
	}
	caller, _, err := o.preflight(false)
	if err != nil {
		release()
		return nil, err
	}
	data, err := pack()
	if err != nil {
		release()
		return nil, err
	}

	sub := o.start(job{
		kind:      kind,
		key:       key,
		first:     Submitting,
		auctionID: id,
		release:   release,
		from:      caller,
		prepare: func(context.Context) (wallet.TxRequest, error) {
			return wallet.TxRequest{To: o.contract.Address, Data: data, Description: description}, nil
		},
	})
	o.log.Info(ctx, "submission started", "op", sub.ID, "kind", kind)
	return sub, nil
}

// Resume follows a journal entry whose transaction was broadcast by an
// earlier run and never reached a terminal status.
func (o *Orchestrator) Resume(ctx context.Context, e *journal.Entry) (*Submission, error) {
	if !e.Open() {
		return nil, fmt.Errorf("%w: entry %s has no open transaction", common.ErrNotFound, e.ID)
	}
	release, err := o.registry.Acquire(e.OperationKey)
	if err != nil {
		return nil, err
	}

	j := job{
		kind:    Kind(e.Kind),
		key:     e.OperationKey,
		first:   Pending,
		release: release,
		resumed: e,
	}
	if e.AuctionID != "" {
		if id, ok := new(big.Int).SetString(e.AuctionID, 10); ok {
			j.auctionID = id
		}
	}
	if j.kind == KindCreateAuction {
		j.confirmed = o.recordAuctionID
	}

	sub := o.start(j)
	o.log.Info(ctx, "resumed tracking", "op", sub.ID, "tx", e.TxHash)
	return sub, nil
}
