// internal/blockchain/solbc/client.go
package solbc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/blockchain"
	"github.com/rovshanmuradov/launchpad/internal/errs"
	"github.com/rovshanmuradov/launchpad/internal/utils/metrics"
)

// rpcAPI - подмножество методов rpc.Client, которые нужны адаптеру.
type rpcAPI interface {
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	GetSignaturesForAddressWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error)
	GetTransaction(ctx context.Context, sig solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
}

// Options настраивают клиента.
type Options struct {
	Commitment rpc.CommitmentType
	Retry      RetryConfig
	// ConfirmTimeout ограничивает ожидание подтверждения в Confirm.
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
}

// Client – тонкий адаптер для взаимодействия с кластером Solana через solana-go.
// Чтения повторяются с backoff, отправка транзакций - никогда.
type Client struct {
	rpc     rpcAPI
	opts    Options
	logger  *zap.Logger
	metrics *metrics.Collector
}

var _ blockchain.Ledger = (*Client)(nil)

// NewClient создаёт новый клиент, принимая RPC URL и логгер через dependency injection.
func NewClient(rpcURL string, opts Options, logger *zap.Logger, collector *metrics.Collector) *Client {
	return newClient(rpc.New(rpcURL), opts, logger, collector)
}

func newClient(api rpcAPI, opts Options, logger *zap.Logger, collector *metrics.Collector) *Client {
	if opts.Commitment == "" {
		opts.Commitment = rpc.CommitmentConfirmed
	}
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = 30 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	opts.Retry = opts.Retry.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		rpc:     api,
		opts:    opts,
		logger:  logger.Named("solbc-client"),
		metrics: collector,
	}
}

// AccountData возвращает сырые данные аккаунта.
func (c *Client) AccountData(ctx context.Context, addr solana.PublicKey) ([]byte, error) {
	res, err := withRetry(ctx, c, "getAccountInfo", func(ctx context.Context) (*rpc.GetAccountInfoResult, error) {
		return c.rpc.GetAccountInfoWithOpts(ctx, addr, &rpc.GetAccountInfoOpts{
			Encoding:   solana.EncodingBase64,
			Commitment: c.opts.Commitment,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", addr, err)
	}
	if res.Value == nil || res.Value.Data == nil {
		return nil, errs.Errorf("solbc.AccountData", errs.KindNotFound, "account %s has no data", addr)
	}
	return res.Value.Data.GetBinary(), nil
}

// Lamports возвращает SOL-баланс адреса.
func (c *Client) Lamports(ctx context.Context, addr solana.PublicKey) (uint64, error) {
	res, err := withRetry(ctx, c, "getBalance", func(ctx context.Context) (*rpc.GetBalanceResult, error) {
		return c.rpc.GetBalance(ctx, addr, c.opts.Commitment)
	})
	if err != nil {
		return 0, fmt.Errorf("balance of %s: %w", addr, err)
	}
	return res.Value, nil
}

// TokenAmount возвращает баланс токен-аккаунта в базовых единицах.
func (c *Client) TokenAmount(ctx context.Context, account solana.PublicKey) (uint64, error) {
	res, err := withRetry(ctx, c, "getTokenAccountBalance", func(ctx context.Context) (*rpc.GetTokenAccountBalanceResult, error) {
		return c.rpc.GetTokenAccountBalance(ctx, account, c.opts.Commitment)
	})
	if err != nil {
		return 0, fmt.Errorf("token account %s: %w", account, err)
	}
	if res.Value == nil {
		return 0, errs.Errorf("solbc.TokenAmount", errs.KindNotFound, "token account %s has no balance", account)
	}
	amount, err := strconv.ParseUint(res.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("token account %s: bad amount %q: %w", account, res.Value.Amount, err)
	}
	return amount, nil
}

// SignatureStatus проверяет, попала ли транзакция в леджер.
func (c *Client) SignatureStatus(ctx context.Context, sig solana.Signature) (blockchain.SignatureStatus, error) {
	res, err := withRetry(ctx, c, "getSignatureStatuses", func(ctx context.Context) (*rpc.GetSignatureStatusesResult, error) {
		return c.rpc.GetSignatureStatuses(ctx, true, sig)
	})
	if err != nil {
		if errs.Is(err, errs.KindNotFound) {
			return blockchain.SignatureStatus{}, nil
		}
		return blockchain.SignatureStatus{}, err
	}
	if len(res.Value) == 0 || res.Value[0] == nil {
		return blockchain.SignatureStatus{}, nil
	}

	st := res.Value[0]
	return blockchain.SignatureStatus{
		Found: true,
		Slot:  st.Slot,
		Confirmed: st.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
			st.ConfirmationStatus == rpc.ConfirmationStatusFinalized,
		Err: txErrString(st.Err),
	}, nil
}

// SignaturesForAddress возвращает историю подписей адреса от новых к старым.
func (c *Client) SignaturesForAddress(ctx context.Context, addr solana.PublicKey, before solana.Signature, limit int) ([]blockchain.SignatureInfo, error) {
	opts := &rpc.GetSignaturesForAddressOpts{
		Before:     before,
		Commitment: c.opts.Commitment,
	}
	if limit > 0 {
		opts.Limit = &limit
	}
	sigs, err := withRetry(ctx, c, "getSignaturesForAddress", func(ctx context.Context) ([]*rpc.TransactionSignature, error) {
		return c.rpc.GetSignaturesForAddressWithOpts(ctx, addr, opts)
	})
	if err != nil {
		return nil, err
	}

	out := make([]blockchain.SignatureInfo, 0, len(sigs))
	for _, s := range sigs {
		if s == nil {
			continue
		}
		info := blockchain.SignatureInfo{
			Signature: s.Signature,
			Slot:      s.Slot,
			Failed:    s.Err != nil,
		}
		if s.BlockTime != nil {
			info.BlockTime = s.BlockTime.Time()
		}
		out = append(out, info)
	}
	return out, nil
}

// Transaction получает исполненную транзакцию вместе с логами программ.
func (c *Client) Transaction(ctx context.Context, sig solana.Signature) (*blockchain.TransactionRecord, error) {
	maxVersion := uint64(0)
	res, err := withRetry(ctx, c, "getTransaction", func(ctx context.Context) (*rpc.GetTransactionResult, error) {
		return c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
			Encoding:                       solana.EncodingBase64,
			Commitment:                     c.opts.Commitment,
			MaxSupportedTransactionVersion: &maxVersion,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", sig, err)
	}

	rec := &blockchain.TransactionRecord{
		Signature: sig,
		Slot:      res.Slot,
	}
	if res.BlockTime != nil {
		rec.BlockTime = res.BlockTime.Time()
	}
	if res.Meta != nil {
		rec.Logs = res.Meta.LogMessages
		rec.Err = txErrString(res.Meta.Err)
		rec.Failed = res.Meta.Err != nil
	}
	return rec, nil
}

// LatestBlockhash получает последний blockhash.
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	res, err := withRetry(ctx, c, "getLatestBlockhash", func(ctx context.Context) (*rpc.GetLatestBlockhashResult, error) {
		return c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	})
	if err != nil {
		c.logger.Error("GetLatestBlockhash error", zap.Error(err))
		return solana.Hash{}, err
	}
	if res.Value == nil {
		return solana.Hash{}, errors.New("empty blockhash response")
	}
	return res.Value.Blockhash, nil
}

// Submit отправляет подписанную транзакцию ровно один раз. Ошибка симуляции
// возвращается вместе с логами программы.
func (c *Client) Submit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	start := time.Now()
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: c.opts.Commitment,
	})
	c.metrics.RecordRPCLatency("sendTransaction", time.Since(start))
	if err != nil {
		err = AnalyzeSendError(err)
		c.logger.Error("SendTransaction error", zap.Error(err))
		if len(tx.Signatures) > 0 {
			sig = tx.Signatures[0]
		}
		return sig, err
	}
	return sig, nil
}

// Confirm ожидает подтверждения транзакции (с простым polling-механизмом).
// Транзакция, исполненная с ошибкой, возвращается как ошибка.
func (c *Client) Confirm(ctx context.Context, sig solana.Signature) error {
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()
	timeout := time.After(c.opts.ConfirmTimeout)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout:
			return fmt.Errorf("confirmation timeout for %s", sig)
		case <-ticker.C:
			status, err := c.SignatureStatus(ctx, sig)
			if err != nil {
				c.logger.Warn("Error getting signature status", zap.Error(err))
				continue
			}
			if !status.Found || !status.Confirmed {
				continue
			}
			if status.Err != "" {
				return fmt.Errorf("transaction %s failed: %s", sig, status.Err)
			}
			return nil
		}
	}
}
