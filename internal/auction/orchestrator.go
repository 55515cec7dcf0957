package auction

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/blindauction/internal/amount"
	"github.com/dmitrijs2005/blindauction/internal/chain"
	"github.com/dmitrijs2005/blindauction/internal/common"
	"github.com/dmitrijs2005/blindauction/internal/engine"
	"github.com/dmitrijs2005/blindauction/internal/fee"
	"github.com/dmitrijs2005/blindauction/internal/journal"
	"github.com/dmitrijs2005/blindauction/internal/logging"
	"github.com/dmitrijs2005/blindauction/internal/pipeline"
	"github.com/dmitrijs2005/blindauction/internal/txtrack"
	"github.com/dmitrijs2005/blindauction/internal/wallet"
)

// Backend is the node API the orchestrator needs: polling for the tracker and
// eth_call for revert reasons. *ethclient.Client satisfies it.
type Backend interface {
	txtrack.Backend
	chain.Caller
}

// FeeReader reads the public fee constants. *chain.Contract satisfies it.
type FeeReader interface {
	FeeParams(ctx context.Context) (fee.Params, error)
}

// AccountSource reports the connected account. *session.Provider satisfies
// it.
type AccountSource interface {
	Connected() (ethcommon.Address, bool)
}

// Deps are the collaborators of an Orchestrator. Fees defaults to Contract,
// Accounts to the wallet's own account, Registry to a fresh registry.
// Journal and Logger are optional.
type Deps struct {
	Session  *engine.Session
	Contract *chain.Contract
	Fees     FeeReader
	Wallet   wallet.Wallet
	Accounts AccountSource
	Backend  Backend
	Registry *txtrack.Registry
	Journal  journal.Repository
	Logger   logging.Logger
	Tracking txtrack.Config
}

type walletAccounts struct{ w wallet.Wallet }

func (a walletAccounts) Connected() (ethcommon.Address, bool) { return a.w.Account() }

// Orchestrator runs submissions in the background. Close stops them.
type Orchestrator struct {
	session  *engine.Session
	contract *chain.Contract
	fees     FeeReader
	wallet   wallet.Wallet
	accounts AccountSource
	backend  Backend
	registry *txtrack.Registry
	journal  journal.Repository
	log      logging.Logger
	tracking txtrack.Config
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewOrchestrator(d Deps) *Orchestrator {
	if d.Fees == nil {
		d.Fees = d.Contract
	}
	if d.Accounts == nil {
		d.Accounts = walletAccounts{d.Wallet}
	}
	if d.Registry == nil {
		d.Registry = txtrack.NewRegistry()
	}
	if d.Logger == nil {
		d.Logger = logging.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		session:  d.Session,
		contract: d.Contract,
		fees:     d.Fees,
		wallet:   d.Wallet,
		accounts: d.Accounts,
		backend:  d.Backend,
		registry: d.Registry,
		journal:  d.Journal,
		log:      d.Logger.With("component", "auction"),
		tracking: d.Tracking,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Close cancels every running submission and waits for them to stop.
// Broadcast transactions stay open in the journal and can be resumed.
func (o *Orchestrator) Close() {
	o.cancel()
	o.wg.Wait()
}

// prepareFunc builds the transaction. It runs before the wallet is involved
// and is aborted by Detach.
type prepareFunc func(ctx context.Context) (wallet.TxRequest, error)

// CreateAuction validates d and starts creating the auction. Errors returned
// here are synchronous rejections; everything later is reported through the
// Submission. ctx bounds only the synchronous part.
func (o *Orchestrator) CreateAuction(ctx context.Context, d *Draft) (*Submission, error) {
	draftID, title := d.ID, d.Title
	key := "draft:" + draftID.String()
	release, err := o.registry.Acquire(key)
	if err != nil {
		return nil, err
	}
	if err := d.Validate(o.now()); err != nil {
		release()
		return nil, err
	}
	caller, eng, err := o.preflight(true)
	if err != nil {
		release()
		return nil, err
	}
	reserve, deposit, err := d.scaled()
	if err != nil {
		release()
		return nil, err
	}

	params := chain.CreateAuctionParams{
		ImageURL:    d.ImageURL,
		ImageURLs:   append([]string(nil), d.ImageURLs...),
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		Location:    d.Location,
		StartTime:   big.NewInt(d.Start.Unix()),
		EndTime:     big.NewInt(d.End.Unix()),
	}

	prepare := func(ctx context.Context) (wallet.TxRequest, error) {
		fp, err := o.fees.FeeParams(ctx)
		if err != nil {
			return wallet.TxRequest{}, err
		}
		feeAmount, err := fp.Compute(reserve)
		if err != nil {
			return wallet.TxRequest{}, err
		}
		o.log.Debug(ctx, "fee derived", "draft_id", draftID, "fee", amount.FromUint64(feeAmount).Format())

		res, err := pipeline.RunScaled(ctx, eng, []uint64{feeAmount, reserve, deposit}, o.contract.Address, caller)
		if err != nil {
			return wallet.TxRequest{}, err
		}
		params.EncryptedFeeAmount = res.Ciphertexts[0].Handle
		params.EncryptedReservePrice = res.Ciphertexts[1].Handle
		params.EncryptedDeposit = res.Ciphertexts[2].Handle
		params.InputProof = res.Proof

		data, err := o.contract.PackCreateAuction(params)
		if err != nil {
			return wallet.TxRequest{}, err
		}
		return wallet.TxRequest{
			To:          o.contract.Address,
			Data:        data,
			Description: fmt.Sprintf("create auction %q", title),
		}, nil
	}

	sub := o.start(job{
		kind:      KindCreateAuction,
		key:       key,
		first:     Encrypting,
		release:   release,
		from:      caller,
		prepare:   prepare,
		confirmed: o.recordAuctionID,
	})
	o.log.Info(ctx, "auction submission started", "op", sub.ID, "draft_id", draftID)
	return sub, nil
}

// PlaceBid encrypts amountText and bids it on auction id. At most one bid
// per auction is in flight.
func (o *Orchestrator) PlaceBid(ctx context.Context, id *big.Int, amountText string) (*Submission, error) {
	key := "bid:" + id.String()
	release, err := o.registry.Acquire(key)
	if err != nil {
		return nil, err
	}
	if err := ValidateBid(amountText); err != nil {
		release()
		return nil, err
	}
	caller, eng, err := o.preflight(true)
	if err != nil {
		release()
		return nil, err
	}

	auctionID := new(big.Int).Set(id)
	prepare := func(ctx context.Context) (wallet.TxRequest, error) {
		res, err := pipeline.Run(ctx, eng, pipeline.Request{
			Amounts:   []string{amountText},
			Recipient: o.contract.Address,
			Caller:    caller,
		})
		if err != nil {
			return wallet.TxRequest{}, err
		}
		data, err := o.contract.PackBid(auctionID, res.Ciphertexts[0].Handle, res.Proof)
		if err != nil {
			return wallet.TxRequest{}, err
		}
		return wallet.TxRequest{
			To:          o.contract.Address,
			Data:        data,
			Description: fmt.Sprintf("bid on auction %s", auctionID),
		}, nil
	}

	sub := o.start(job{
		kind:      KindBid,
		key:       key,
		first:     Encrypting,
		auctionID: auctionID,
		release:   release,
		from:      caller,
		prepare:   prepare,
	})
	o.log.Info(ctx, "bid submission started", "op", sub.ID, "auction", auctionID)
	return sub, nil
}

func (o *Orchestrator) recordAuctionID(s *Submission, r *types.Receipt) {
	id, err := o.contract.AuctionIDFromReceipt(r)
	if err != nil {
		o.log.Warn(o.ctx, "auction id not found in receipt", "op", s.ID, "error", err)
		return
	}
	s.setAuctionID(id)
}

// preflight checks the connected account and, when needEngine is set, that
// the encryption engine is Ready. It never blocks.
func (o *Orchestrator) preflight(needEngine bool) (ethcommon.Address, engine.Engine, error) {
	caller, ok := o.accounts.Connected()
	if !ok {
		return ethcommon.Address{}, nil, fmt.Errorf("%w: no connected account", common.ErrUnauthorized)
	}
	if signer, ok := o.wallet.Account(); !ok || signer != caller {
		return ethcommon.Address{}, nil, fmt.Errorf("%w: connected account %s is not the wallet account", common.ErrUnauthorized, caller.Hex())
	}
	if !needEngine {
		return caller, nil, nil
	}
	eng, err := o.session.Engine()
	if err != nil {
		return ethcommon.Address{}, nil, err
	}
	return caller, eng, nil
}

// job is the background part of a submission.
type job struct {
	kind      Kind
	key       string
	first     Stage
	auctionID *big.Int
	release   func()
	from      ethcommon.Address
	prepare   prepareFunc
	confirmed func(*Submission, *types.Receipt)

	// resumed is set for a transaction broadcast by an earlier run; prepare
	// and the wallet are skipped.
	resumed *journal.Entry
}

func (o *Orchestrator) start(j job) *Submission {
	prepCtx, abort := context.WithCancel(o.ctx)
	sub := newSubmission(j.kind, j.key, j.first, abort)
	if j.resumed != nil {
		sub.ID = j.resumed.ID
		sub.progress.TxHash = ethcommon.HexToHash(j.resumed.TxHash)
	}
	if j.auctionID != nil {
		sub.auctionID = new(big.Int).Set(j.auctionID)
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer close(sub.done)
		defer j.release()
		defer abort()
		o.run(prepCtx, sub, j)
	}()
	return sub
}

func (o *Orchestrator) run(prepCtx context.Context, sub *Submission, j job) {
	log := o.log.With("op", sub.ID, "kind", sub.Kind)
	entry := &journal.Entry{
		ID:           sub.ID,
		OperationKey: sub.Key,
		Kind:         string(sub.Kind),
		Status:       journal.StatusSubmitting,
	}
	if j.resumed != nil {
		entry = j.resumed
	}

	var (
		req    wallet.TxRequest
		reason txtrack.ReasonFunc
	)
	if j.resumed == nil {
		var err error
		req, err = j.prepare(prepCtx)
		if err != nil {
			log.Warn(o.ctx, "submission aborted before the wallet", "error", err)
			o.finish(sub, j, entry, Progress{Stage: Failed, Err: err}, journal.StatusFailed)
			return
		}
		reason = o.revertReason(j.from, req)
	}

	tracker := txtrack.NewTracker(o.backend, o.tracking, reason, log)
	tracker.OnChange(func(st txtrack.State) {
		switch st.Status {
		case txtrack.Submitting:
			sub.set(Progress{Stage: Submitting})
		case txtrack.Pending:
			entry.TxHash = st.TxHash.Hex()
			sub.set(Progress{Stage: Pending, TxHash: st.TxHash})
			o.record(entry, sub, journal.StatusPending, nil)
		case txtrack.Confirming:
			sub.set(Progress{Stage: Confirming, TxHash: st.TxHash})
			o.record(entry, sub, journal.StatusConfirming, nil)
		}
	})

	var (
		st  txtrack.State
		err error
	)
	if j.resumed != nil {
		st, err = tracker.Resume(o.ctx, ethcommon.HexToHash(j.resumed.TxHash))
	} else {
		st, err = tracker.Track(o.ctx, func(ctx context.Context) (ethcommon.Hash, error) {
			if !sub.enterWallet() {
				return ethcommon.Hash{}, context.Canceled
			}
			return o.wallet.Send(ctx, req)
		})
	}
	if err != nil {
		log.Info(o.ctx, "submission failed", "tx", st.TxHash.Hex(), "error_kind", common.Kind(err))
		o.finish(sub, j, entry, Progress{Stage: Failed, Err: err}, journal.StatusFailed)
		return
	}

	if j.confirmed != nil {
		j.confirmed(sub, st.Receipt)
	}
	log.Info(o.ctx, "submission confirmed", "tx", st.TxHash.Hex())
	o.finish(sub, j, entry, Progress{Stage: Confirmed, TxHash: st.TxHash}, journal.StatusConfirmed)
}

// finish journals a terminal state and frees the operation key before
// observers hear about it, so a callback may start the next attempt.
func (o *Orchestrator) finish(sub *Submission, j job, entry *journal.Entry, p Progress, status string) {
	o.record(entry, sub, status, p.Err)
	j.release()
	sub.set(p)
}

// revertReason replays the call at the parent of the inclusion block to get
// the revert payload, then decodes it.
func (o *Orchestrator) revertReason(from ethcommon.Address, req wallet.TxRequest) txtrack.ReasonFunc {
	return func(ctx context.Context, r *types.Receipt) string {
		var block *big.Int
		if r.BlockNumber != nil && r.BlockNumber.Sign() > 0 {
			block = new(big.Int).Sub(r.BlockNumber, big.NewInt(1))
		}
		to := req.To
		_, err := o.backend.CallContract(ctx, ethereum.CallMsg{From: from, To: &to, Data: req.Data, Value: req.Value}, block)
		if data, ok := chain.RevertData(err); ok {
			return o.contract.DecodeRevert(data)
		}
		return ""
	}
}

// record writes the entry to the journal. Cancellation never produces a
// terminal entry: a broadcast transaction stays open for the next run.
func (o *Orchestrator) record(e *journal.Entry, sub *Submission, status string, err error) {
	if o.journal == nil {
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	now := o.now()
	first := e.CreatedAt.IsZero()
	if first {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	e.Status = status
	e.ErrorKind = common.Kind(err)
	e.ErrorDetail = ""
	if err != nil {
		e.ErrorDetail = err.Error()
	}
	if id := sub.AuctionID(); id != nil {
		e.AuctionID = id.String()
	}

	ctx := context.WithoutCancel(o.ctx)
	if serr := o.saveEntry(ctx, e, first); serr != nil {
		o.log.Error(ctx, "journal write failed", "op", e.ID, "error", serr)
	}
}

// entryUpdater is implemented by journal.Store.
type entryUpdater interface {
	Update(ctx context.Context, id uuid.UUID, fn func(e *journal.Entry) error) error
}

// saveEntry inserts a new entry. Later transitions update the stored row in
// one transaction so the fields set at creation are kept as stored.
func (o *Orchestrator) saveEntry(ctx context.Context, e *journal.Entry, first bool) error {
	u, ok := o.journal.(entryUpdater)
	if first || !ok {
		return o.journal.Save(ctx, e)
	}
	err := u.Update(ctx, e.ID, func(stored *journal.Entry) error {
		stored.TxHash = e.TxHash
		stored.Status = e.Status
		stored.ErrorKind = e.ErrorKind
		stored.ErrorDetail = e.ErrorDetail
		if e.AuctionID != "" {
			stored.AuctionID = e.AuctionID
		}
		stored.UpdatedAt = e.UpdatedAt
		return nil
	})
	if errors.Is(err, common.ErrNotFound) {
		return o.journal.Save(ctx, e)
	}
	return err
}
