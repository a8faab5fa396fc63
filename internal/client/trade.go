// =============================
// File: internal/client/trade.go
// =============================
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/errs"
	"github.com/rovshanmuradov/launchpad/internal/launch"
	"github.com/rovshanmuradov/launchpad/internal/utils/logger"
)

// ErrNoSigner is returned by write operations of a read-only client.
var ErrNoSigner = errors.New("client has no signer")

// CreateLaunchParams describes a new launch. When Mint is nil a MintAllocator
// must be passed to CreateLaunch to provide one.
type CreateLaunchParams struct {
	Mint                solana.PrivateKey
	FeeAuthority        solana.PublicKey
	FeeRateBps          uint16
	InitialTokenReserve uint64
	Metadata            *launch.TokenMetadata
}

// CreateResult is a submitted CreateLaunch.
type CreateResult struct {
	Signature solana.Signature
	Addresses launch.Addresses
}

// TradeResult is a submitted Buy or Sell.
type TradeResult struct {
	Signature solana.Signature
	// MinAmountOut is the floor that was sent with the request.
	MinAmountOut uint64
}

// BuildCreateLaunch builds create_launch for creator.
func (c *Client) BuildCreateLaunch(creator solana.PublicKey, mint solana.PublicKey, feeAuthority solana.PublicKey, args launch.CreateLaunchArgs) (solana.Instruction, launch.Addresses, error) {
	const op = "client.BuildCreateLaunch"

	if err := c.checkCreateArgs(op, args); err != nil {
		return nil, launch.Addresses{}, err
	}
	addrs, err := launch.Derive(c.cfg.ProgramID, mint)
	if err != nil {
		return nil, launch.Addresses{}, fmt.Errorf("%s: %w", op, err)
	}
	if feeAuthority.IsZero() {
		feeAuthority = creator
	}
	ix := launch.NewCreateLaunchInstruction(c.cfg.ProgramID, launch.CreateLaunchAccounts{
		Creator:      creator,
		FeeAuthority: feeAuthority,
		Launch:       addrs.Launch,
		Mint:         mint,
		Custody:      addrs.Custody,
	}, args)
	return ix, addrs, nil
}

func (c *Client) checkCreateArgs(op string, args launch.CreateLaunchArgs) error {
	if err := c.cfg.Curve.CheckFeeRate(args.FeeRateBps); err != nil {
		return err
	}
	if args.InitialTokenReserve == 0 {
		return errs.Errorf(op, errs.KindInvalidAmount, "initial token reserve must be positive")
	}
	return nil
}

// BuildBuy builds buy against a fetched launch.
func (c *Client) BuildBuy(l *Launch, user solana.PublicKey, args launch.TradeArgs) (solana.Instruction, error) {
	return launch.NewBuyInstruction(c.cfg.ProgramID, c.tradeAccounts(l, user), args)
}

// BuildSell builds sell against a fetched launch.
func (c *Client) BuildSell(l *Launch, user solana.PublicKey, args launch.TradeArgs) (solana.Instruction, error) {
	return launch.NewSellInstruction(c.cfg.ProgramID, c.tradeAccounts(l, user), args)
}

func (c *Client) tradeAccounts(l *Launch, user solana.PublicKey) launch.TradeAccounts {
	return launch.TradeAccounts{
		User:         user,
		FeeAuthority: l.FeeAuthority,
		Creator:      l.Creator,
		Launch:       l.Address,
		Mint:         l.Mint,
		Custody:      l.Custody,
	}
}

// CreateLaunch allocates a mint when needed, issues its metadata and submits
// create_launch signed by the client's signer and the mint key.
func (c *Client) CreateLaunch(ctx context.Context, p CreateLaunchParams, mints MintAllocator, issuer MetadataIssuer) (*CreateResult, error) {
	const op = "client.CreateLaunch"

	if c.signer == nil {
		return nil, ErrNoSigner
	}
	creator := c.signer.PublicKey()

	// reject before a mint is spent on a request that cannot succeed
	args := launch.CreateLaunchArgs{FeeRateBps: p.FeeRateBps, InitialTokenReserve: p.InitialTokenReserve}
	if err := c.checkCreateArgs(op, args); err != nil {
		return nil, err
	}
	if p.Metadata != nil {
		if err := p.Metadata.Validate(); err != nil {
			return nil, err
		}
	}

	mintKey := p.Mint
	if len(mintKey) == 0 {
		if mints == nil {
			return nil, fmt.Errorf("%s: no mint key and no mint allocator", op)
		}
		var err error
		mintKey, err = mints.AllocateMint(ctx, creator, p.InitialTokenReserve)
		if err != nil {
			return nil, fmt.Errorf("%s: allocate mint: %w", op, err)
		}
		c.logger.Info("Allocated mint",
			zap.String("mint", mintKey.PublicKey().String()),
			zap.Uint64("supply", p.InitialTokenReserve))
	}
	mint := mintKey.PublicKey()

	ix, addrs, err := c.BuildCreateLaunch(creator, mint, p.FeeAuthority, args)
	if err != nil {
		return nil, err
	}

	if p.Metadata != nil && issuer != nil {
		if err := issuer.IssueMetadata(ctx, mint, *p.Metadata); err != nil {
			return nil, fmt.Errorf("%s: issue metadata: %w", op, err)
		}
	}

	sig, err := c.submit(ctx, launch.InstructionCreateLaunch, []solana.Instruction{ix}, mintKey)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Launch created",
		zap.String("signature", sig.String()),
		zap.String("mint", mint.String()),
		zap.String("launch", addrs.Launch.String()),
		zap.Uint16("fee_bps", p.FeeRateBps))
	return &CreateResult{Signature: sig, Addresses: addrs}, nil
}

// Buy quotes against fresh reserves and submits a buy with the slippage floor.
func (c *Client) Buy(ctx context.Context, mint solana.PublicKey, lamports uint64, slippageBps uint16) (*TradeResult, error) {
	if c.signer == nil {
		return nil, ErrNoSigner
	}
	q, err := c.QuoteBuy(ctx, mint, lamports, slippageBps)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Calculated buy parameters",
		zap.String("mint", mint.String()),
		zap.Uint64("lamports_in", lamports),
		zap.Uint64("fee", q.Fee),
		zap.Uint64("expected_tokens", q.TokensOut),
		zap.Uint64("min_tokens_out", q.MinTokensOut))

	args := launch.TradeArgs{AmountIn: lamports, MinAmountOut: q.MinTokensOut}
	ix, err := c.BuildBuy(q.Launch, c.signer.PublicKey(), args)
	if err != nil {
		return nil, err
	}
	sig, err := c.submit(ctx, launch.InstructionBuy, []solana.Instruction{ix})
	if err != nil {
		return nil, err
	}
	return &TradeResult{Signature: sig, MinAmountOut: q.MinTokensOut}, nil
}

// Sell quotes against fresh reserves and submits a sell with the slippage
// floor. tokens are base units.
func (c *Client) Sell(ctx context.Context, mint solana.PublicKey, tokens uint64, slippageBps uint16) (*TradeResult, error) {
	if c.signer == nil {
		return nil, ErrNoSigner
	}
	q, err := c.QuoteSell(ctx, mint, tokens, slippageBps)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Calculated sell parameters",
		zap.String("mint", mint.String()),
		zap.Uint64("tokens_in", tokens),
		zap.Uint64("fee", q.Fee),
		zap.Uint64("expected_sol_out", q.SolOutNet),
		zap.Uint64("min_sol_out", q.MinSolOut))

	args := launch.TradeArgs{AmountIn: tokens, MinAmountOut: q.MinSolOut}
	ix, err := c.BuildSell(q.Launch, c.signer.PublicKey(), args)
	if err != nil {
		return nil, err
	}
	sig, err := c.submit(ctx, launch.InstructionSell, []solana.Instruction{ix})
	if err != nil {
		return nil, err
	}
	return &TradeResult{Signature: sig, MinAmountOut: q.MinSolOut}, nil
}

// submit hands the instructions to the signer exactly once. Failures keep the
// ledger's message and gain the kind the program reported.
func (c *Client) submit(ctx context.Context, kind launch.InstructionKind, ixs []solana.Instruction, extraSigners ...solana.PrivateKey) (solana.Signature, error) {
	op := "client." + kind.String()
	opLogger, end := logger.TrackPerformance(c.logger, op)
	defer end()

	start := time.Now()
	sig, err := c.signer.SignAndSubmit(ctx, ixs, extraSigners...)
	c.metrics.RecordOperation(kind.String(), time.Since(start), err)
	if err == nil {
		return sig, nil
	}

	errKind := errs.KindOf(err)
	if errKind == errs.KindUnknown {
		errKind = launch.ClassifyLedgerError(err.Error())
	}
	opLogger.Error("Transaction failed",
		zap.String("signature", sig.String()),
		zap.String("kind", errKind.String()),
		zap.Error(err))

	if errKind == errs.KindUnknown {
		return sig, fmt.Errorf("%s: failed to send transaction: %w", op, err)
	}
	return sig, errs.E(op, errKind, fmt.Errorf("failed to send transaction: %w", err))
}
