package wallet

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/utils/logger"
)

// Ledger принимает подписанные транзакции.
type Ledger interface {
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	Submit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// Confirmer ждёт, пока отправленная транзакция будет исполнена.
type Confirmer interface {
	Confirm(ctx context.Context, sig solana.Signature) error
}

// Submitter подписывает инструкции ключом кошелька и отправляет их один раз.
// Если леджер умеет подтверждать транзакции, SignAndSubmit дожидается
// подтверждения.
type Submitter struct {
	wallet *Wallet
	ledger Ledger
	logger *zap.Logger
}

// NewSubmitter связывает кошелёк с леджером.
func NewSubmitter(w *Wallet, ledger Ledger, logger *zap.Logger) *Submitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Submitter{wallet: w, ledger: ledger, logger: logger.Named("submitter")}
}

// PublicKey возвращает плательщика комиссии.
func (s *Submitter) PublicKey() solana.PublicKey {
	return s.wallet.PublicKey
}

// SignAndSubmit строит транзакцию, подписывает её и отправляет. Повторов нет:
// после таймаута вызывающий сам проверяет, попала ли подпись в леджер.
func (s *Submitter) SignAndSubmit(ctx context.Context, instructions []solana.Instruction, extraSigners ...solana.PrivateKey) (solana.Signature, error) {
	blockhash, err := s.ledger.LatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(s.wallet.PublicKey))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to create transaction: %w", err)
	}
	if err := s.wallet.SignTransaction(tx, extraSigners...); err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := s.ledger.Submit(ctx, tx)
	if err != nil {
		return sig, err
	}
	txLogger := logger.WithTransaction(s.logger, sig.String())
	txLogger.Debug("Transaction sent")

	if c, ok := s.ledger.(Confirmer); ok {
		if err := c.Confirm(ctx, sig); err != nil {
			txLogger.Warn("Transaction not confirmed", zap.Error(err))
			return sig, err
		}
		txLogger.Debug("Transaction confirmed")
	}
	return sig, nil
}
