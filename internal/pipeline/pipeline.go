// Package pipeline turns a list of decimal amounts into ciphertexts plus the
// single validity proof covering all of them.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/blindauction/internal/amount"
	"github.com/dmitrijs2005/blindauction/internal/common"
	"github.com/dmitrijs2005/blindauction/internal/engine"
)

// Request lists amounts as typed by the user, in the order the contract
// expects them.
type Request struct {
	Amounts   []string
	Recipient ethcommon.Address
	Caller    ethcommon.Address
}

// Result holds one ciphertext per input amount, in input order, and the proof
// that covers exactly those ciphertexts.
type Result struct {
	Ciphertexts []engine.EncryptedAmount
	Proof       engine.InputProof
}

// Handles returns the on-chain handles in input order.
func (r Result) Handles() [][32]byte {
	out := make([][32]byte, len(r.Ciphertexts))
	for i, c := range r.Ciphertexts {
		out[i] = c.Handle
	}
	return out
}

// Run scales every amount to the 18-decimal unit and hands them to RunScaled.
// Nothing reaches the engine unless every amount is valid.
func Run(ctx context.Context, eng engine.Engine, req Request) (Result, error) {
	values := make([]uint64, len(req.Amounts))
	for i, s := range req.Amounts {
		a, err := amount.Parse(s)
		if err != nil {
			return Result{}, err
		}
		if a.Sign() < 0 {
			return Result{}, fmt.Errorf("%w: amount %d is negative", common.ErrInvalidAmount, i)
		}
		v, err := a.Uint64()
		if err != nil {
			return Result{}, err
		}
		values[i] = v
	}
	return RunScaled(ctx, eng, values, req.Recipient, req.Caller)
}

// RunScaled encrypts already scaled values concurrently, waits for all of
// them, then asks the engine for exactly one proof over the whole set.
func RunScaled(ctx context.Context, eng engine.Engine, values []uint64, recipient, caller ethcommon.Address) (Result, error) {
	if len(values) == 0 {
		return Result{}, fmt.Errorf("%w: no amounts", common.ErrInvalidAmount)
	}
	if eng == nil {
		return Result{}, common.ErrEngineNotReady
	}

	cts := make([]engine.EncryptedAmount, len(values))
	g, gctx := errgroup.WithContext(ctx)
	for i, v := range values {
		g.Go(func() error {
			ct, err := eng.Encrypt(gctx, v, engine.Uint64)
			if err != nil {
				return fmt.Errorf("encrypt amount %d: %w", i, err)
			}
			cts[i] = ct
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	proof, err := eng.ProveInputs(ctx, cts, recipient, caller)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %w", common.ErrProofGenerationFailed, err)
	}
	if len(proof) == 0 {
		return Result{}, fmt.Errorf("%w: empty proof", common.ErrProofGenerationFailed)
	}
	if err := proof.Covers(cts); err != nil {
		return Result{}, fmt.Errorf("%w: %w", common.ErrProofGenerationFailed, err)
	}

	return Result{Ciphertexts: cts, Proof: proof}, nil
}
