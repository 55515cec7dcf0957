package engine

import (
	"bytes"
	"errors"
	"fmt"
)

// InputProof is an opaque proof blob wrapped in a small envelope:
//
//	"BAIP" | version(1) | count(1) | count * handle(32) | body
//
// The envelope lets callers check which handles a proof covers without
// understanding the engine-specific body.
type InputProof []byte

const (
	proofVersion = 1
	headerLen    = 6
	// MaxInputs is the largest number of handles one proof may cover.
	MaxInputs = 255
)

var proofMagic = []byte("BAIP")

var ErrMalformedProof = errors.New("malformed input proof")

// EncodeProof builds an envelope around body.
func EncodeProof(handles []Handle, body []byte) (InputProof, error) {
	if len(handles) == 0 || len(handles) > MaxInputs {
		return nil, fmt.Errorf("%w: %d handles", ErrMalformedProof, len(handles))
	}
	out := make([]byte, 0, headerLen+32*len(handles)+len(body))
	out = append(out, proofMagic...)
	out = append(out, proofVersion, byte(len(handles)))
	for _, h := range handles {
		out = append(out, h[:]...)
	}
	out = append(out, body...)
	return out, nil
}

// Decode splits the envelope into its handles and body.
func (p InputProof) Decode() ([]Handle, []byte, error) {
	if len(p) < headerLen {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrMalformedProof, len(p))
	}
	if !bytes.Equal(p[:4], proofMagic) {
		return nil, nil, fmt.Errorf("%w: bad magic", ErrMalformedProof)
	}
	if p[4] != proofVersion {
		return nil, nil, fmt.Errorf("%w: version %d", ErrMalformedProof, p[4])
	}
	n := int(p[5])
	if n == 0 || len(p) < headerLen+32*n {
		return nil, nil, fmt.Errorf("%w: truncated", ErrMalformedProof)
	}
	handles := make([]Handle, n)
	for i := range handles {
		copy(handles[i][:], p[headerLen+32*i:])
	}
	return handles, p[headerLen+32*n:], nil
}

// Covers reports whether the proof lists exactly the handles of values, in
// order.
func (p InputProof) Covers(values []EncryptedAmount) error {
	handles, _, err := p.Decode()
	if err != nil {
		return err
	}
	if len(handles) != len(values) {
		return fmt.Errorf("%w: covers %d handles, want %d", ErrMalformedProof, len(handles), len(values))
	}
	for i, v := range values {
		if handles[i] != v.Handle {
			return fmt.Errorf("%w: handle %d is %s, want %s", ErrMalformedProof, i, handles[i].Hex(), v.Handle.Hex())
		}
	}
	return nil
}
