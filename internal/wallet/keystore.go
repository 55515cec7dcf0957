package wallet

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/blindauction/internal/chain"
	bcommon "github.com/dmitrijs2005/blindauction/internal/common"
	"github.com/dmitrijs2005/blindauction/internal/logging"
)

// Backend is the node API the wallet uses; *ethclient.Client satisfies it.
type Backend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// PassphraseFunc asks the user for the keystore passphrase.
type PassphraseFunc func(ctx context.Context, account common.Address) (string, error)

// ConfirmFunc shows the user what is about to be signed. Returning false
// rejects the transaction.
type ConfirmFunc func(ctx context.Context, summary Summary) (bool, error)

// Summary is what the user is asked to approve.
type Summary struct {
	From        common.Address
	To          common.Address
	Description string
	Gas         uint64
	MaxFee      *big.Int // fee cap times gas, in wei
	Nonce       uint64
}

// KeystoreWallet signs with a go-ethereum keystore file. The key is
// decrypted on first use and kept until Lock.
type KeystoreWallet struct {
	backend      Backend
	keyJSON      []byte
	address      common.Address
	passphrase   PassphraseFunc
	confirm      ConfirmFunc
	DecodeRevert func([]byte) string
	log          logging.Logger

	mu  sync.Mutex
	key *ecdsa.PrivateKey
}

// OpenKeystore reads a keystore file without decrypting it.
func OpenKeystore(path string, backend Backend, passphrase PassphraseFunc, confirm ConfirmFunc, logger logging.Logger) (*KeystoreWallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var header struct {
		Address string `json:"address"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("parse keystore: %w", err)
	}
	if !common.IsHexAddress(header.Address) {
		return nil, fmt.Errorf("parse keystore: bad address %q", header.Address)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &KeystoreWallet{
		backend:    backend,
		keyJSON:    data,
		address:    common.HexToAddress(header.Address),
		passphrase: passphrase,
		confirm:    confirm,
		log:        logger.With("component", "wallet"),
	}, nil
}

// WriteKeystore encrypts key with passphrase and stores it at path.
func WriteKeystore(path string, key *ecdsa.PrivateKey, passphrase string, scryptN, scryptP int) (common.Address, error) {
	k := &keystore.Key{
		Id:         uuid.New(),
		Address:    crypto.PubkeyToAddress(key.PublicKey),
		PrivateKey: key,
	}
	data, err := keystore.EncryptKey(k, passphrase, scryptN, scryptP)
	if err != nil {
		return common.Address{}, err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return common.Address{}, err
	}
	return k.Address, nil
}

func (w *KeystoreWallet) Account() (common.Address, bool) {
	return w.address, true
}

// Unlock decrypts the key if it is not already unlocked.
func (w *KeystoreWallet) Unlock(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.unlock(ctx)
}

func (w *KeystoreWallet) unlock(ctx context.Context) error {
	if w.key != nil {
		return nil
	}
	if w.passphrase == nil {
		return fmt.Errorf("%w: no passphrase prompt", bcommon.ErrUnauthorized)
	}
	pass, err := w.passphrase(ctx, w.address)
	if err != nil {
		return fmt.Errorf("%w: %w", bcommon.ErrUserRejected, err)
	}
	k, err := keystore.DecryptKey(w.keyJSON, pass)
	if err != nil {
		return fmt.Errorf("%w: %w", bcommon.ErrUnauthorized, err)
	}
	w.key = k.PrivateKey
	return nil
}

// Lock forgets the decrypted key.
func (w *KeystoreWallet) Lock() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.key = nil
}

func (w *KeystoreWallet) Send(ctx context.Context, req TxRequest) (common.Hash, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.unlock(ctx); err != nil {
		return common.Hash{}, err
	}

	tx, summary, err := w.build(ctx, req)
	if err != nil {
		return common.Hash{}, err
	}

	if w.confirm != nil {
		ok, err := w.confirm(ctx, summary)
		if err != nil {
			return common.Hash{}, fmt.Errorf("%w: %w", bcommon.ErrUserRejected, err)
		}
		if !ok {
			return common.Hash{}, bcommon.ErrUserRejected
		}
	}

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(tx.ChainId()), w.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign: %w", err)
	}
	if err := w.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, transportErr("send", err)
	}

	w.log.Info(ctx, "transaction broadcast", "tx", signed.Hash().Hex(), "nonce", signed.Nonce())
	return signed.Hash(), nil
}

func (w *KeystoreWallet) build(ctx context.Context, req TxRequest) (*types.Transaction, Summary, error) {
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	chainID, err := w.backend.ChainID(ctx)
	if err != nil {
		return nil, Summary{}, transportErr("chain id", err)
	}
	nonce, err := w.backend.PendingNonceAt(ctx, w.address)
	if err != nil {
		return nil, Summary{}, transportErr("nonce", err)
	}
	tip, err := w.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, Summary{}, transportErr("gas tip", err)
	}
	head, err := w.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, Summary{}, transportErr("head", err)
	}
	feeCap := new(big.Int).Set(tip)
	if head.BaseFee != nil {
		feeCap.Add(feeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}

	to := req.To
	gas, err := w.backend.EstimateGas(ctx, ethereum.CallMsg{
		From: w.address, To: &to, Data: req.Data, Value: value,
		GasTipCap: tip, GasFeeCap: feeCap,
	})
	if err != nil {
		if data, ok := chain.RevertData(err); ok {
			reason := ""
			if w.DecodeRevert != nil {
				reason = w.DecodeRevert(data)
			}
			return nil, Summary{}, &bcommon.RevertError{Reason: reason, Data: data}
		}
		return nil, Summary{}, transportErr("estimate gas", err)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Value:     value,
		Data:      req.Data,
	})
	summary := Summary{
		From:        w.address,
		To:          to,
		Description: req.Description,
		Gas:         gas,
		MaxFee:      new(big.Int).Mul(feeCap, new(big.Int).SetUint64(gas)),
		Nonce:       nonce,
	}
	return tx, summary, nil
}

func transportErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", bcommon.ErrTransport, op, err)
}
