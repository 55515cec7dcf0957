// Package elgamal implements engine.Engine with exponential ElGamal over
// Ed25519 and an aggregated Schnorr proof of knowledge of the encryption
// randomness.
//
// A value m is encrypted under the network key X as (K, C) = (rG, rX + mG).
// The proof shows knowledge of every r behind a set of ciphertexts and binds
// them to a (recipient, caller) pair, so a ciphertext cannot be replayed
// towards another contract or sender.
package elgamal

import (
	"context"
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/group/edwards25519"
	"golang.org/x/crypto/blake2b"

	"github.com/dmitrijs2005/blindauction/internal/engine"
	"github.com/dmitrijs2005/blindauction/internal/logging"
)

const (
	handleDomain = "blindauction/handle/v1"
	proofDomain  = "blindauction/proof/v1"

	pointLen      = 32
	scalarLen     = 32
	ciphertextLen = 2 * pointLen
	inputLen      = ciphertextLen + pointLen + scalarLen
	bodyHeaderLen = 16 + ethcommon.AddressLength*2
)

var suite = edwards25519.NewBlakeSHA256Ed25519()

type witness struct {
	r kyber.Scalar
}

// Engine is a single encryption session under one network public key.
// Witnesses live only in memory and are dropped once a proof covers them.
type Engine struct {
	pub    kyber.Point
	id     uuid.UUID
	random cipher.Stream
	log    logging.Logger

	mu        sync.Mutex
	witnesses map[engine.Handle]witness
}

// New creates an engine session under pub.
func New(pub kyber.Point, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Nop()
	}
	id := uuid.New()
	return &Engine{
		pub:       pub,
		id:        id,
		random:    suite.RandomStream(),
		log:       logger.With("component", "elgamal", "session", id.String()),
		witnesses: make(map[engine.Handle]witness),
	}
}

// SessionID identifies this session in handles and proofs.
func (e *Engine) SessionID() uuid.UUID { return e.id }

func (e *Engine) Encrypt(ctx context.Context, value uint64, width engine.Width) (engine.EncryptedAmount, error) {
	if err := ctx.Err(); err != nil {
		return engine.EncryptedAmount{}, err
	}
	if width != engine.Uint64 {
		return engine.EncryptedAmount{}, fmt.Errorf("%w: %s", engine.ErrUnsupportedWidth, width)
	}

	e.mu.Lock()
	r := suite.Scalar().Pick(e.random)
	e.mu.Unlock()

	K := suite.Point().Mul(r, nil)
	C := suite.Point().Add(suite.Point().Mul(r, e.pub), suite.Point().Mul(scalarFromUint64(value), nil))

	ct, err := marshalCiphertext(K, C)
	if err != nil {
		return engine.EncryptedAmount{}, err
	}
	h := deriveHandle(e.id, width, ct)

	e.mu.Lock()
	e.witnesses[h] = witness{r: r}
	e.mu.Unlock()

	return engine.EncryptedAmount{Handle: h, Ciphertext: ct, Width: width, SessionID: e.id}, nil
}

func (e *Engine) ProveInputs(ctx context.Context, values []engine.EncryptedAmount, recipient, caller ethcommon.Address) (engine.InputProof, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(values) == 0 || len(values) > engine.MaxInputs {
		return nil, fmt.Errorf("cannot prove %d inputs", len(values))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	rs := make([]kyber.Scalar, len(values))
	seen := make(map[engine.Handle]struct{}, len(values))
	for i, v := range values {
		if _, dup := seen[v.Handle]; dup {
			return nil, fmt.Errorf("%w: handle %s listed twice", engine.ErrForeignCiphertext, v.Handle.Hex())
		}
		seen[v.Handle] = struct{}{}

		w, ok := e.witnesses[v.Handle]
		if v.SessionID != e.id || !ok {
			return nil, fmt.Errorf("%w: %s", engine.ErrForeignCiphertext, v.Handle.Hex())
		}
		rs[i] = w.r
	}

	ts := make([]kyber.Scalar, len(values))
	commitments := make([][]byte, len(values))
	for i := range values {
		ts[i] = suite.Scalar().Pick(e.random)
		b, err := suite.Point().Mul(ts[i], nil).MarshalBinary()
		if err != nil {
			return nil, err
		}
		commitments[i] = b
	}

	handles := make([]engine.Handle, len(values))
	cts := make([][]byte, len(values))
	for i, v := range values {
		handles[i] = v.Handle
		cts[i] = v.Ciphertext
	}

	c, err := challenge(e.pub, e.id, recipient, caller, handles, cts, commitments)
	if err != nil {
		return nil, err
	}

	body := make([]byte, 0, bodyHeaderLen+inputLen*len(values))
	body = append(body, e.id[:]...)
	body = append(body, recipient.Bytes()...)
	body = append(body, caller.Bytes()...)
	for i := range values {
		s := suite.Scalar().Add(ts[i], suite.Scalar().Mul(c, rs[i]))
		sb, err := s.MarshalBinary()
		if err != nil {
			return nil, err
		}
		body = append(body, cts[i]...)
		body = append(body, commitments[i]...)
		body = append(body, sb...)
	}

	proof, err := engine.EncodeProof(handles, body)
	if err != nil {
		return nil, err
	}

	for _, h := range handles {
		delete(e.witnesses, h)
	}
	e.log.Debug(ctx, "input proof generated", "inputs", len(values))
	return proof, nil
}

func scalarFromUint64(v uint64) kyber.Scalar {
	hi := suite.Scalar().SetInt64(int64(v >> 32))
	lo := suite.Scalar().SetInt64(int64(v & 0xffffffff))
	shift := suite.Scalar().SetInt64(1 << 32)
	return suite.Scalar().Add(suite.Scalar().Mul(hi, shift), lo)
}

func marshalCiphertext(K, C kyber.Point) ([]byte, error) {
	kb, err := K.MarshalBinary()
	if err != nil {
		return nil, err
	}
	cb, err := C.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return append(kb, cb...), nil
}

func unmarshalCiphertext(ct []byte) (K, C kyber.Point, err error) {
	if len(ct) != ciphertextLen {
		return nil, nil, fmt.Errorf("ciphertext is %d bytes", len(ct))
	}
	K, C = suite.Point(), suite.Point()
	if err := K.UnmarshalBinary(ct[:pointLen]); err != nil {
		return nil, nil, err
	}
	if err := C.UnmarshalBinary(ct[pointLen:]); err != nil {
		return nil, nil, err
	}
	return K, C, nil
}

func deriveHandle(session uuid.UUID, width engine.Width, ct []byte) engine.Handle {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(handleDomain))
	h.Write(session[:])
	h.Write([]byte{byte(width)})
	h.Write(ct)
	var out engine.Handle
	copy(out[:], h.Sum(nil))
	return out
}

// challenge hashes the whole transcript and maps it onto a scalar.
func challenge(pub kyber.Point, session uuid.UUID, recipient, caller ethcommon.Address, handles []engine.Handle, cts, commitments [][]byte) (kyber.Scalar, error) {
	pb, err := pub.MarshalBinary()
	if err != nil {
		return nil, err
	}
	h, _ := blake2b.New512(nil)
	h.Write([]byte(proofDomain))
	h.Write(pb)
	h.Write(session[:])
	h.Write(recipient.Bytes())
	h.Write(caller.Bytes())
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(handles)))
	h.Write(n[:])
	for i := range handles {
		h.Write(handles[i][:])
		h.Write(cts[i])
		h.Write(commitments[i])
	}
	return suite.Scalar().Pick(suite.XOF(h.Sum(nil))), nil
}
