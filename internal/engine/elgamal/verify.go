package elgamal

import (
	"bytes"
	"errors"
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.dedis.ch/kyber/v3"

	"github.com/dmitrijs2005/blindauction/internal/engine"
)

var ErrInvalidProof = errors.New("invalid input proof")

// Verify checks proof against the network key and the expected (recipient,
// caller) binding. It returns the handles the proof covers.
func Verify(pub kyber.Point, proof engine.InputProof, recipient, caller ethcommon.Address) ([]engine.Handle, error) {
	handles, body, err := proof.Decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidProof, err)
	}
	if len(body) != bodyHeaderLen+inputLen*len(handles) {
		return nil, fmt.Errorf("%w: body is %d bytes", ErrInvalidProof, len(body))
	}

	var session uuid.UUID
	copy(session[:], body[:16])
	if !bytes.Equal(body[16:36], recipient.Bytes()) {
		return nil, fmt.Errorf("%w: recipient mismatch", ErrInvalidProof)
	}
	if !bytes.Equal(body[36:56], caller.Bytes()) {
		return nil, fmt.Errorf("%w: caller mismatch", ErrInvalidProof)
	}

	n := len(handles)
	cts := make([][]byte, n)
	commitments := make([][]byte, n)
	Ks := make([]kyber.Point, n)
	Ts := make([]kyber.Point, n)
	ss := make([]kyber.Scalar, n)

	off := bodyHeaderLen
	for i := 0; i < n; i++ {
		cts[i] = body[off : off+ciphertextLen]
		commitments[i] = body[off+ciphertextLen : off+ciphertextLen+pointLen]
		sb := body[off+ciphertextLen+pointLen : off+inputLen]
		off += inputLen

		if deriveHandle(session, engine.Uint64, cts[i]) != handles[i] {
			return nil, fmt.Errorf("%w: handle %d does not match its ciphertext", ErrInvalidProof, i)
		}
		K, _, err := unmarshalCiphertext(cts[i])
		if err != nil {
			return nil, fmt.Errorf("%w: ciphertext %d: %w", ErrInvalidProof, i, err)
		}
		Ks[i] = K
		Ts[i] = suite.Point()
		if err := Ts[i].UnmarshalBinary(commitments[i]); err != nil {
			return nil, fmt.Errorf("%w: commitment %d: %w", ErrInvalidProof, i, err)
		}
		ss[i] = suite.Scalar()
		if err := ss[i].UnmarshalBinary(sb); err != nil {
			return nil, fmt.Errorf("%w: response %d: %w", ErrInvalidProof, i, err)
		}
	}

	c, err := challenge(pub, session, recipient, caller, handles, cts, commitments)
	if err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		left := suite.Point().Mul(ss[i], nil)
		right := suite.Point().Add(Ts[i], suite.Point().Mul(c, Ks[i]))
		if !left.Equal(right) {
			return nil, fmt.Errorf("%w: input %d", ErrInvalidProof, i)
		}
	}
	return handles, nil
}
