// internal/blockchain/blockchain.go
package blockchain

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// AccountReader читает сырые данные аккаунта. Отсутствующий аккаунт
// возвращается как ошибка вида errs.KindNotFound.
type AccountReader interface {
	AccountData(ctx context.Context, addr solana.PublicKey) ([]byte, error)
}

// StatusReader проверяет, попала ли транзакция в леджер.
type StatusReader interface {
	SignatureStatus(ctx context.Context, sig solana.Signature) (SignatureStatus, error)
}

// HistoryReader отдает историю транзакций по адресу.
type HistoryReader interface {
	// SignaturesForAddress возвращает не более limit подписей старше before
	// (нулевая подпись - с самой новой), от новых к старым.
	SignaturesForAddress(ctx context.Context, addr solana.PublicKey, before solana.Signature, limit int) ([]SignatureInfo, error)
	Transaction(ctx context.Context, sig solana.Signature) (*TransactionRecord, error)
}

// BalanceReader читает балансы кошелька.
type BalanceReader interface {
	// Lamports возвращает SOL-баланс адреса; у несуществующего аккаунта он 0.
	Lamports(ctx context.Context, addr solana.PublicKey) (uint64, error)
	// TokenAmount возвращает баланс токен-аккаунта в базовых единицах.
	// Несуществующий аккаунт - ошибка вида errs.KindNotFound.
	TokenAmount(ctx context.Context, account solana.PublicKey) (uint64, error)
}

// Ledger - все операции чтения, которые нужны клиенту и читателю событий.
type Ledger interface {
	AccountReader
	StatusReader
	HistoryReader
	BalanceReader
}
