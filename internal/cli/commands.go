package cli

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/blindauction/internal/access"
	"github.com/dmitrijs2005/blindauction/internal/amount"
	"github.com/dmitrijs2005/blindauction/internal/auction"
	"github.com/dmitrijs2005/blindauction/internal/common"
)

// journalPageSize is how many entries the journal command lists.
const journalPageSize = 20

// Connect unlocks the keystore and records its account as connected.
func (a *App) Connect(ctx context.Context) error {
	addr, ok := a.signer.Account()
	if !ok {
		printlnFn("No account in the keystore.")
		return common.ErrUnauthorized
	}
	if err := a.signer.Unlock(ctx); err != nil {
		printlnFn("Unlock failed:", describe(err))
		return err
	}
	if err := a.accounts.Connect(ctx, addr); err != nil {
		printlnFn("Connect failed:", err)
		return err
	}
	printlnFn("Connected as", addr.Hex())
	return nil
}

func (a *App) Disconnect(ctx context.Context) error {
	a.signer.Lock()
	if err := a.accounts.Disconnect(ctx); err != nil {
		printlnFn("Disconnect failed:", err)
		return err
	}
	printlnFn("Disconnected.")
	return nil
}

// Status prints the engine state, the connected account and, when the node
// answers, the contract's public parameters.
func (a *App) Status(ctx context.Context) error {
	st := a.engine.Status()
	line := "Engine:  " + st.String()
	if err := a.engine.Err(); err != nil {
		line += " (" + err.Error() + ")"
	}
	printlnFn(line)

	if addr, ok := a.accounts.Connected(); ok {
		printlnFn("Account:", addr.Hex())
	} else {
		printlnFn("Account: not connected")
	}

	next, err := a.reader.NextAuctionID(ctx)
	if err != nil {
		printlnFn("Contract unreachable:", err)
		return err
	}
	printlnFn("Auctions:", next)
	if fp, err := a.reader.FeeParams(ctx); err == nil {
		printlnFn(fmt.Sprintf("Fee:     %s/%s of the reserve price", fp.Percentage.Dec(), fp.Denominator.Dec()))
	}
	return nil
}

func (a *App) Show(ctx context.Context, idText string) error {
	if !a.allow(ctx, access.Public, "show") {
		return common.ErrUnauthorized
	}
	id, err := parseID(idText)
	if err != nil {
		printlnFn(err)
		return err
	}
	info, err := a.reader.GetAuction(ctx, id)
	if err != nil {
		printlnFn("Cannot load auction:", describe(err))
		return err
	}

	printlnFn(fmt.Sprintf("Auction #%s: %s", id, info.Title))
	printlnFn("  Category:   ", info.Category)
	if info.Location != "" {
		printlnFn("  Location:   ", info.Location)
	}
	printlnFn("  Beneficiary:", info.Beneficiary.Hex())
	printlnFn("  Starts:     ", unixTime(info.StartTime, a.loc))
	printlnFn("  Ends:       ", unixTime(info.EndTime, a.loc))
	printlnFn("  Image:      ", info.ImageURL)
	for _, u := range info.ImageURLs {
		printlnFn("               ", u)
	}
	if info.Description != "" {
		printlnFn("  " + strings.ReplaceAll(info.Description, "\n", "\n  "))
	}
	if info.Winner != (ethcommon.Address{}) {
		claimed := "unclaimed"
		if info.Claimed {
			claimed = "claimed"
		}
		printlnFn(fmt.Sprintf("  Winner:      %s (%s)", info.Winner.Hex(), claimed))
	}
	return nil
}

// Mine lists the auctions the connected account created and bid on.
func (a *App) Mine(ctx context.Context) error {
	if !a.allow(ctx, access.Authenticated, "mine") {
		return common.ErrUnauthorized
	}
	addr, _ := a.accounts.Connected()

	created, err := a.reader.GetUserCreatedAuctions(ctx, addr)
	if err != nil {
		printlnFn("Cannot load auctions:", describe(err))
		return err
	}
	bids, err := a.reader.GetUserBidAuctions(ctx, addr)
	if err != nil {
		printlnFn("Cannot load bids:", describe(err))
		return err
	}
	printlnFn("Created:", joinIDs(created))
	printlnFn("Bid on: ", joinIDs(bids))
	return nil
}

// Create asks for the auction fields and submits them.
func (a *App) Create(ctx context.Context) error {
	if !a.allow(ctx, access.Authenticated, "create") {
		return common.ErrUnauthorized
	}

	d, err := a.readDraft(ctx)
	if err != nil {
		printlnFn("Input error:", err)
		return err
	}

	if fp, err := a.reader.FeeParams(ctx); err == nil {
		if reserve, err := amount.ScaleUint64(d.ReservePrice); err == nil {
			if f, err := fp.Compute(reserve); err == nil {
				printlnFn("Listing fee:", amount.FromUint64(f).Format())
			}
		}
	}

	sub, err := a.orch.CreateAuction(ctx, d)
	if err != nil {
		printlnFn(describe(err))
		return err
	}
	sub.OnComplete(func() {
		a.mu.Lock()
		if a.draftID == d.ID {
			a.draftID = uuid.Nil
		}
		a.mu.Unlock()
	})
	return a.follow(ctx, sub)
}

func (a *App) readDraft(ctx context.Context) (*auction.Draft, error) {
	d := auction.NewDraft()
	a.mu.Lock()
	if a.draftID == uuid.Nil {
		a.draftID = d.ID
	}
	d.ID = a.draftID
	a.mu.Unlock()

	image, err := GetSimpleText(a.in, "Main image (URL or local file)", a.out)
	if err != nil {
		return nil, err
	}
	if d.ImageURL, err = a.imageURL(ctx, image); err != nil {
		return nil, err
	}
	extra, err := GetList(a.in, "More images (comma separated, optional)", a.out)
	if err != nil {
		return nil, err
	}
	for _, img := range extra {
		u, err := a.imageURL(ctx, img)
		if err != nil {
			return nil, err
		}
		d.ImageURLs = append(d.ImageURLs, u)
	}

	if d.Title, err = GetSimpleText(a.in, "Title", a.out); err != nil {
		return nil, err
	}
	if d.Description, err = GetMultiline(a.in, "Description", a.out); err != nil {
		return nil, err
	}
	if d.Category, err = GetSimpleText(a.in, "Category", a.out); err != nil {
		return nil, err
	}
	if d.Location, err = GetSimpleText(a.in, "Location (optional)", a.out); err != nil {
		return nil, err
	}
	if d.Start, err = GetTime(a.in, "Start", a.out, a.loc); err != nil {
		return nil, err
	}
	if d.End, err = GetTime(a.in, "End", a.out, a.loc); err != nil {
		return nil, err
	}
	if d.ReservePrice, err = GetSimpleText(a.in, "Reserve price", a.out); err != nil {
		return nil, err
	}
	if d.Deposit, err = GetSimpleText(a.in, "Deposit", a.out); err != nil {
		return nil, err
	}
	return d, nil
}

// imageURL uploads a local file when uploads are configured; anything else
// is taken as a URL.
func (a *App) imageURL(ctx context.Context, s string) (string, error) {
	if s == "" {
		return "", nil
	}
	if _, err := os.Stat(s); err != nil {
		return s, nil
	}
	if a.uploader == nil {
		return "", errors.New("image uploads are not configured; enter a URL")
	}
	printlnFn("Uploading", s, "...")
	return a.uploader.Upload(ctx, s)
}

func (a *App) Bid(ctx context.Context, idText, amountText string) error {
	if !a.allow(ctx, access.Authenticated, "bid") {
		return common.ErrUnauthorized
	}
	id, err := parseID(idText)
	if err != nil {
		printlnFn(err)
		return err
	}
	sub, err := a.orch.PlaceBid(ctx, id, amountText)
	if err != nil {
		printlnFn(describe(err))
		return err
	}
	return a.follow(ctx, sub)
}

func (a *App) Decrypt(ctx context.Context, idText string) error {
	return a.settle(ctx, access.Owner, "decrypt", idText, func(id *big.Int) (*auction.Submission, error) {
		return a.orch.DecryptWinningAddress(ctx, id)
	})
}

func (a *App) Claim(ctx context.Context, idText string) error {
	return a.settle(ctx, access.Authenticated, "claim", idText, func(id *big.Int) (*auction.Submission, error) {
		return a.orch.ClaimPrize(ctx, id)
	})
}

// Withdraw withdraws bidder's deposit; bidder defaults to the connected
// account.
func (a *App) Withdraw(ctx context.Context, idText, bidderText string) error {
	return a.settle(ctx, access.Authenticated, "withdraw", idText, func(id *big.Int) (*auction.Submission, error) {
		bidder, _ := a.accounts.Connected()
		if bidderText != "" {
			if !ethcommon.IsHexAddress(bidderText) {
				return nil, fmt.Errorf("bidder %q is not an address", bidderText)
			}
			bidder = ethcommon.HexToAddress(bidderText)
		}
		return a.orch.Withdraw(ctx, id, bidder)
	})
}

func (a *App) WithdrawFees(ctx context.Context) error {
	if !a.allow(ctx, access.Owner, "withdraw-fees") {
		return common.ErrUnauthorized
	}
	sub, err := a.orch.WithdrawFees(ctx)
	if err != nil {
		printlnFn(describe(err))
		return err
	}
	return a.follow(ctx, sub)
}

func (a *App) settle(ctx context.Context, required access.Role, command, idText string, start func(*big.Int) (*auction.Submission, error)) error {
	if !a.allow(ctx, required, command) {
		return common.ErrUnauthorized
	}
	id, err := parseID(idText)
	if err != nil {
		printlnFn(err)
		return err
	}
	sub, err := start(id)
	if err != nil {
		printlnFn(describe(err))
		return err
	}
	return a.follow(ctx, sub)
}

// Admin prints the owner's view of the contract.
func (a *App) Admin(ctx context.Context) error {
	if !a.allow(ctx, access.Owner, "admin") {
		return common.ErrUnauthorized
	}
	owner, _ := a.owner.Resolve(ctx)
	printlnFn("Owner:  ", owner.Hex())
	if token, err := a.reader.ConfidentialToken(ctx); err == nil {
		printlnFn("Token:  ", token.Hex())
	}
	next, err := a.reader.NextAuctionID(ctx)
	if err != nil {
		printlnFn("Contract unreachable:", describe(err))
		return err
	}
	printlnFn("Auctions:", next)
	fp, err := a.reader.FeeParams(ctx)
	if err != nil {
		printlnFn("Fee constants unavailable:", describe(err))
		return err
	}
	printlnFn(fmt.Sprintf("Fee:      %s/%s", fp.Percentage.Dec(), fp.Denominator.Dec()))
	return nil
}

// Journal lists recent submissions, newest first.
func (a *App) Journal(ctx context.Context) error {
	entries, err := a.journal.ListRecent(ctx, journalPageSize)
	if err != nil {
		printlnFn("Cannot read journal:", err)
		return err
	}
	if len(entries) == 0 {
		printlnFn("No submissions yet.")
		return nil
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %-24s %-11s %s", e.UpdatedAt.In(a.loc).Format(TimeLayout), e.Kind, e.Status, e.OperationKey)
		if e.AuctionID != "" {
			line += " auction #" + e.AuctionID
		}
		if e.TxHash != "" {
			line += " tx " + e.TxHash
		}
		if e.ErrorKind != "" {
			line += " (" + e.ErrorKind + ")"
		}
		printlnFn(line)
	}
	return nil
}

// follow attaches progress output to sub and waits until it is broadcast.
func (a *App) follow(ctx context.Context, sub *auction.Submission) error {
	a.watch(sub)
	printlnFn(fmt.Sprintf("[%s] started", sub.Kind))
	a.awaitBroadcast(ctx, sub)
	return nil
}

func parseID(s string) (*big.Int, error) {
	id, ok := new(big.Int).SetString(s, 10)
	if !ok || id.Sign() < 0 {
		return nil, fmt.Errorf("auction id %q is not a non-negative integer", s)
	}
	return id, nil
}

func joinIDs(ids []*big.Int) string {
	if len(ids) == 0 {
		return "none"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = "#" + id.String()
	}
	return strings.Join(parts, ", ")
}

func unixTime(v *big.Int, loc *time.Location) string {
	if v == nil || !v.IsInt64() {
		return "?"
	}
	return time.Unix(v.Int64(), 0).In(loc).Format(TimeLayout)
}
