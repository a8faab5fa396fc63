// internal/client/interfaces.go
package client

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/launchpad/internal/launch"
)

// Signer подписывает и отправляет собранные инструкции. Клиент только
// использует эту возможность и никогда не реализует ее сам.
type Signer interface {
	// PublicKey возвращает кошелек, который платит комиссию и торгует.
	PublicKey() solana.PublicKey
	// SignAndSubmit отправляет транзакцию ровно один раз.
	SignAndSubmit(ctx context.Context, instructions []solana.Instruction, extraSigners ...solana.PrivateKey) (solana.Signature, error)
}

// MintAllocator выдает новый mint и начисляет owner-у начальный supply.
type MintAllocator interface {
	AllocateMint(ctx context.Context, owner solana.PublicKey, supply uint64) (solana.PrivateKey, error)
}

// MetadataIssuer однократно связывает mint с name/symbol/uri.
type MetadataIssuer interface {
	IssueMetadata(ctx context.Context, mint solana.PublicKey, meta launch.TokenMetadata) error
}
