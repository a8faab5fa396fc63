package program

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// LocalSigner signs with an in-process key and submits to an Engine. It is the
// localnet counterpart of wallet.Submitter.
type LocalSigner struct {
	engine *Engine
	key    solana.PrivateKey
}

// NewLocalSigner binds key to engine.
func NewLocalSigner(engine *Engine, key solana.PrivateKey) *LocalSigner {
	return &LocalSigner{engine: engine, key: key}
}

// PublicKey returns the fee payer.
func (s *LocalSigner) PublicKey() solana.PublicKey {
	return s.key.PublicKey()
}

// SignAndSubmit wraps instructions in a transaction paid by the signer's key,
// signs it with that key and extraSigners, and submits it once.
func (s *LocalSigner) SignAndSubmit(ctx context.Context, instructions []solana.Instruction, extraSigners ...solana.PrivateKey) (solana.Signature, error) {
	blockhash, err := s.engine.LatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(s.key.PublicKey()))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to create transaction: %w", err)
	}

	keys := append([]solana.PrivateKey{s.key}, extraSigners...)
	if _, err := tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		for i := range keys {
			if keys[i].PublicKey().Equals(pk) {
				return &keys[i]
			}
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	return s.engine.Submit(ctx, tx)
}
