package elgamal

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"go.dedis.ch/kyber/v3"

	"github.com/dmitrijs2005/blindauction/internal/engine"
	"github.com/dmitrijs2005/blindauction/internal/logging"
)

// KeySource yields the network public key ciphertexts are encrypted under.
type KeySource interface {
	PublicKey(ctx context.Context) (kyber.Point, error)
}

// StaticKey is a hex-encoded public key taken from configuration.
type StaticKey string

func (k StaticKey) PublicKey(ctx context.Context) (kyber.Point, error) {
	return ParsePublicKey(string(k))
}

// ParsePublicKey decodes a hex point, with or without 0x prefix.
func ParsePublicKey(s string) (kyber.Point, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	p := suite.Point()
	if err := p.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("decode public key: %w", err)
	}
	return p, nil
}

// RelayerKey fetches the key from the relayer's JSON-RPC endpoint
// (relayer_publicKey).
type RelayerKey struct {
	Endpoint string
}

var dialRPC = func(ctx context.Context, endpoint string) (*rpc.Client, error) {
	return rpc.DialContext(ctx, endpoint)
}

func (k RelayerKey) PublicKey(ctx context.Context) (kyber.Point, error) {
	if k.Endpoint == "" {
		return nil, errors.New("relayer endpoint not configured")
	}
	client, err := dialRPC(ctx, k.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial relayer: %w", err)
	}
	defer client.Close()

	var raw hexutil.Bytes
	if err := client.CallContext(ctx, &raw, "relayer_publicKey"); err != nil {
		return nil, fmt.Errorf("relayer_publicKey: %w", err)
	}
	p := suite.Point()
	if err := p.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("relayer returned bad key: %w", err)
	}
	return p, nil
}

// NewFactory returns an engine.Factory that resolves the public key from src
// and opens a fresh session.
func NewFactory(src KeySource, logger logging.Logger) engine.Factory {
	return func(ctx context.Context) (engine.Engine, error) {
		pub, err := src.PublicKey(ctx)
		if err != nil {
			return nil, err
		}
		return New(pub, logger), nil
	}
}

// GenerateKey creates a network key pair. The private half is only needed
// by whoever decrypts, which is never this client.
func GenerateKey() (kyber.Scalar, kyber.Point) {
	priv := suite.Scalar().Pick(suite.RandomStream())
	return priv, suite.Point().Mul(priv, nil)
}

// EncodePublicKey hex-encodes pub for configuration files.
func EncodePublicKey(pub kyber.Point) (string, error) {
	b, err := pub.MarshalBinary()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
