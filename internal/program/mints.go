package program

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/launchpad/internal/errs"
	"github.com/rovshanmuradov/launchpad/internal/launch"
)

// LocalMints allocates mints and issues metadata against an Engine. Mint
// accounts are not modelled: allocating a mint only credits the initial
// supply to its owner.
type LocalMints struct {
	engine *Engine

	mu       sync.Mutex
	metadata map[solana.PublicKey]launch.TokenMetadata
}

// NewLocalMints creates the allocator for engine.
func NewLocalMints(engine *Engine) *LocalMints {
	return &LocalMints{
		engine:   engine,
		metadata: make(map[solana.PublicKey]launch.TokenMetadata),
	}
}

// AllocateMint creates a fresh mint keypair and credits supply to owner.
func (m *LocalMints) AllocateMint(ctx context.Context, owner solana.PublicKey, supply uint64) (solana.PrivateKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate mint key: %w", err)
	}
	if err := m.engine.MintTo(key.PublicKey(), owner, supply); err != nil {
		return nil, err
	}
	return key, nil
}

// IssueMetadata records metadata for mint. Metadata is immutable once issued.
func (m *LocalMints) IssueMetadata(ctx context.Context, mint solana.PublicKey, meta launch.TokenMetadata) error {
	const op = "program.IssueMetadata"
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := meta.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.metadata[mint]; ok {
		return errs.Errorf(op, errs.KindAlreadyExists, "metadata for %s already issued", mint)
	}
	m.metadata[mint] = meta
	return nil
}

// Metadata returns the metadata issued for mint.
func (m *LocalMints) Metadata(mint solana.PublicKey) (launch.TokenMetadata, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.metadata[mint]
	return meta, ok
}
