// Package engine defines the confidential-input capability the client
// encrypts amounts with, the proof envelope shared by all engine
// implementations, and Session, which brings one engine up lazily for the
// whole process.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

var (
	ErrUnsupportedWidth  = errors.New("unsupported ciphertext width")
	ErrForeignCiphertext = errors.New("ciphertext does not belong to this session")
)

// Width is the plaintext bit width of an encrypted value.
type Width uint8

const (
	Uint64 Width = 64
)

func (w Width) String() string {
	return fmt.Sprintf("euint%d", uint8(w))
}

// Handle is the 32-byte reference the contract receives in place of an
// amount (externalEuint64).
type Handle [32]byte

func (h Handle) Hex() string { return common.Hash(h).Hex() }

// EncryptedAmount is one encrypted value together with its on-chain handle.
// It is only meaningful to the session that produced it.
type EncryptedAmount struct {
	Handle     Handle
	Ciphertext []byte
	Width      Width
	SessionID  uuid.UUID
}

// Engine encrypts values and proves that a set of ciphertexts is well formed
// and bound to a (recipient, caller) pair.
//
// ProveInputs returns ErrForeignCiphertext for values produced by another
// session or already covered by an earlier proof. Encrypt returns
// ErrUnsupportedWidth for widths other than Uint64.
type Engine interface {
	Encrypt(ctx context.Context, value uint64, width Width) (EncryptedAmount, error)
	ProveInputs(ctx context.Context, values []EncryptedAmount, recipient, caller common.Address) (InputProof, error)
}

// Factory creates an engine. It may block on network I/O.
type Factory func(ctx context.Context) (Engine, error)
