package cli

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/dmitrijs2005/blindauction/internal/engine"
	"github.com/dmitrijs2005/blindauction/internal/engine/elgamal"
)

// Keygen prints a fresh network key pair for local test networks.
func (a *App) Keygen(ctx context.Context) error {
	priv, pub := elgamal.GenerateKey()
	pubHex, err := elgamal.EncodePublicKey(pub)
	if err != nil {
		printlnFn("Cannot encode public key:", err)
		return err
	}
	privBytes, err := priv.MarshalBinary()
	if err != nil {
		printlnFn("Cannot encode private key:", err)
		return err
	}
	printlnFn("Public key: ", pubHex)
	printlnFn("Private key:", hex.EncodeToString(privBytes))
	printlnFn("Put the public key in the engine configuration; the private key belongs to the decryption service only.")
	return nil
}

// VerifyProof checks a hex input proof produced for caller against the
// network key and this contract, and lists the handles it covers.
func (a *App) VerifyProof(ctx context.Context, callerText, proofText string) error {
	if !ethcommon.IsHexAddress(callerText) {
		err := fmt.Errorf("caller %q is not an address", callerText)
		printlnFn(err)
		return err
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(proofText), "0x"))
	if err != nil {
		err = fmt.Errorf("proof is not hex: %w", err)
		printlnFn(err)
		return err
	}
	pub, err := a.keys.PublicKey(ctx)
	if err != nil {
		printlnFn("Cannot load network key:", err)
		return err
	}

	handles, err := elgamal.Verify(pub, engine.InputProof(raw), a.contract, ethcommon.HexToAddress(callerText))
	if err != nil {
		printlnFn("Proof rejected:", err)
		return err
	}
	printlnFn(fmt.Sprintf("Proof valid, covers %d handle(s):", len(handles)))
	for _, h := range handles {
		printlnFn("  " + h.Hex())
	}
	return nil
}
