package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"sync"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/blindauction/internal/access"
	"github.com/dmitrijs2005/blindauction/internal/auction"
	"github.com/dmitrijs2005/blindauction/internal/chain"
	"github.com/dmitrijs2005/blindauction/internal/common"
	"github.com/dmitrijs2005/blindauction/internal/config"
	"github.com/dmitrijs2005/blindauction/internal/engine"
	"github.com/dmitrijs2005/blindauction/internal/engine/elgamal"
	"github.com/dmitrijs2005/blindauction/internal/fee"
	"github.com/dmitrijs2005/blindauction/internal/journal"
	"github.com/dmitrijs2005/blindauction/internal/logging"
	"github.com/dmitrijs2005/blindauction/internal/media"
	"github.com/dmitrijs2005/blindauction/internal/session"
	"github.com/dmitrijs2005/blindauction/internal/txtrack"
	"github.com/dmitrijs2005/blindauction/internal/wallet"
)

// auctionReader is the read side of the contract the commands display.
type auctionReader interface {
	access.OwnerReader
	GetAuction(ctx context.Context, id *big.Int) (*chain.AuctionInfo, error)
	GetWinnerAddress(ctx context.Context, id *big.Int) (ethcommon.Address, error)
	GetUserCreatedAuctions(ctx context.Context, user ethcommon.Address) ([]*big.Int, error)
	GetUserBidAuctions(ctx context.Context, user ethcommon.Address) ([]*big.Int, error)
	NextAuctionID(ctx context.Context) (*big.Int, error)
	ConfidentialToken(ctx context.Context) (ethcommon.Address, error)
	FeeParams(ctx context.Context) (fee.Params, error)
}

// submitter starts write operations; *auction.Orchestrator satisfies it.
type submitter interface {
	CreateAuction(ctx context.Context, d *auction.Draft) (*auction.Submission, error)
	PlaceBid(ctx context.Context, id *big.Int, amountText string) (*auction.Submission, error)
	DecryptWinningAddress(ctx context.Context, id *big.Int) (*auction.Submission, error)
	ClaimPrize(ctx context.Context, id *big.Int) (*auction.Submission, error)
	Withdraw(ctx context.Context, id *big.Int, bidder ethcommon.Address) (*auction.Submission, error)
	WithdrawFees(ctx context.Context) (*auction.Submission, error)
}

type accountStore interface {
	Connected() (ethcommon.Address, bool)
	Connect(ctx context.Context, address ethcommon.Address) error
	Disconnect(ctx context.Context) error
}

type signer interface {
	Account() (ethcommon.Address, bool)
	Unlock(ctx context.Context) error
	Lock()
}

type engineStatus interface {
	Status() engine.Status
	Err() error
}

type journalReader interface {
	ListRecent(ctx context.Context, limit int) ([]*journal.Entry, error)
}

type imageUploader interface {
	Upload(ctx context.Context, path string) (string, error)
}

// App is the interactive client. Fields are interfaces so commands can be
// tested without a node.
type App struct {
	reader   auctionReader
	orch     submitter
	accounts accountStore
	signer   signer
	engine   engineStatus
	journal  journalReader
	uploader imageUploader
	owner    *access.OwnerLookup
	keys     elgamal.KeySource
	contract ethcommon.Address
	log      logging.Logger

	in  *bufio.Reader
	out io.Writer
	loc *time.Location

	// draftID survives failed create attempts so a retry of the same
	// auction is recognised as such; it is reset once one is confirmed.
	draftID uuid.UUID

	mu     sync.Mutex
	active []*auction.Submission

	closers []func() error
}

// NewApp connects to the node and wires every component from cfg.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	if !ethcommon.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("contract address %q is not a hex address", cfg.ContractAddress)
	}

	a := &App{
		log: logger,
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
		loc: time.Local,
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.RPCEndpoint, err)
	}
	a.closers = append(a.closers, func() error { client.Close(); return nil })

	contract, err := chain.NewContract(ethcommon.HexToAddress(cfg.ContractAddress), client)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.reader = contract
	a.contract = contract.Address
	a.owner = access.NewOwnerLookup(contract)

	var src elgamal.KeySource
	switch {
	case cfg.EnginePublicKey != "":
		src = elgamal.StaticKey(cfg.EnginePublicKey)
	case cfg.RelayerEndpoint != "":
		src = elgamal.RelayerKey{Endpoint: cfg.RelayerEndpoint}
	default:
		a.Close()
		return nil, errors.New("neither engine public key nor relayer endpoint configured")
	}
	a.keys = src
	sess := engine.NewSession(engine.WithTimeout(elgamal.NewFactory(src, logger), cfg.EngineInitTimeout), logger)
	sess.Start()
	a.engine = sess
	a.closers = append(a.closers, sess.Close)

	store, err := journal.Open(ctx, cfg.JournalDSN)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.journal = store
	a.closers = append(a.closers, store.Close)

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		if secret, err = session.LoadOrCreateSecret(cfg.SessionFile + ".key"); err != nil {
			a.Close()
			return nil, err
		}
	}
	provider := session.NewProvider(session.FileStore{Path: cfg.SessionFile}, secret, cfg.SessionTTL, logger)
	a.accounts = provider

	w, err := wallet.OpenKeystore(cfg.KeystoreFile, client, a.passphrase, a.confirm, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open keystore %s: %w", cfg.KeystoreFile, err)
	}
	w.DecodeRevert = contract.DecodeRevert
	a.signer = w

	uploader, err := media.New(ctx, media.Config{
		Bucket:        cfg.S3Bucket,
		Region:        cfg.S3Region,
		BaseEndpoint:  cfg.S3BaseEndpoint,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		PublicBaseURL: cfg.S3PublicBaseURL,
	}, logger)
	switch {
	case err == nil:
		a.uploader = uploader
	case !errors.Is(err, media.ErrDisabled):
		logger.Warn(ctx, "image uploads unavailable", "error", err)
	}

	orch := auction.NewOrchestrator(auction.Deps{
		Session:  sess,
		Contract: contract,
		Wallet:   w,
		Accounts: provider,
		Backend:  client,
		Journal:  store,
		Logger:   logger,
		Tracking: txtrack.Config{
			Depth:         cfg.ConfirmationDepth,
			PollInterval:  cfg.PollInterval,
			MaxPollErrors: cfg.MaxPollErrors,
		},
	})
	a.orch = orch
	// the orchestrator stops before the stores it writes to
	a.closers = append(a.closers, func() error { orch.Close(); return nil })

	a.resumeOpen(ctx, orch, store)
	return a, nil
}

// resumeOpen follows transactions an earlier run broadcast but never saw
// finish.
func (a *App) resumeOpen(ctx context.Context, orch *auction.Orchestrator, store journal.Repository) {
	open, err := store.ListOpen(ctx)
	if err != nil {
		a.log.Warn(ctx, "cannot list open journal entries", "error", err)
		return
	}
	for _, e := range open {
		sub, err := orch.Resume(ctx, e)
		if err != nil {
			a.log.Warn(ctx, "cannot resume", "op", e.ID, "error", err)
			continue
		}
		printlnFn(fmt.Sprintf("Resuming %s %s (tx %s)", e.Kind, e.OperationKey, e.TxHash))
		a.watch(sub)
	}
}

// Run starts the REPL on stdin and tears everything down when it ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close()
	printlnFn("blindauction client (type 'help' for commands)")
	runREPL(ctx, a, a.status, bufio.NewScanner(a.in))
}

// Close detaches every running submission and releases resources in
// reverse order of creation.
func (a *App) Close() {
	a.mu.Lock()
	active := a.active
	a.active = nil
	a.mu.Unlock()
	for _, sub := range active {
		sub.Detach()
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn(context.Background(), "close failed", "error", err)
		}
	}
	a.closers = nil
}

func (a *App) status() string {
	s := "engine " + a.engine.Status().String()
	if addr, ok := a.accounts.Connected(); ok {
		s += ", " + shortAddress(addr)
	}
	return "(" + s + ")"
}

func shortAddress(addr ethcommon.Address) string {
	h := addr.Hex()
	return h[:6] + "…" + h[len(h)-4:]
}

// passphrase is the wallet's unlock prompt.
func (a *App) passphrase(ctx context.Context, account ethcommon.Address) (string, error) {
	pw, err := GetPassword(a.out, "Passphrase for "+account.Hex())
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// confirm shows what is about to be signed and asks for approval.
func (a *App) confirm(ctx context.Context, s wallet.Summary) (bool, error) {
	fmt.Fprintf(a.out, "About to sign: %s\n  from  %s\n  to    %s\n  nonce %d, gas %d, max cost %s wei\n",
		s.Description, s.From.Hex(), s.To.Hex(), s.Nonce, s.Gas, s.MaxFee)
	return GetConfirmation(a.in, "Sign and send?", a.out)
}
