// Package client is the protocol adapter used by the CLI and the viewer. It
// derives launch addresses, reads and decodes launch state, prices trades with
// a slippage floor and submits requests through a Signer.
//
// Nothing is cached: every quote re-reads the launch so a floor is always
// computed from the reserves the ledger currently holds.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/blockchain"
	"github.com/rovshanmuradov/launchpad/internal/curve"
	"github.com/rovshanmuradov/launchpad/internal/errs"
	"github.com/rovshanmuradov/launchpad/internal/launch"
	"github.com/rovshanmuradov/launchpad/internal/utils/metrics"
)

// DefaultSlippageBps is used when a caller passes no tolerance.
const DefaultSlippageBps uint16 = 100

// Config is threaded into the client at construction.
type Config struct {
	ProgramID   solana.PublicKey
	Curve       curve.Params
	SlippageBps uint16
}

// Client talks to one deployment of the launchpad program.
type Client struct {
	cfg     Config
	ledger  blockchain.Ledger
	signer  Signer
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewClient creates a client. signer may be nil for a read-only client;
// collector may be nil.
func NewClient(cfg Config, ledger blockchain.Ledger, signer Signer, logger *zap.Logger, collector *metrics.Collector) (*Client, error) {
	if cfg.ProgramID.IsZero() {
		return nil, errors.New("program id is required")
	}
	if err := cfg.Curve.Validate(); err != nil {
		return nil, err
	}
	if cfg.SlippageBps == 0 {
		cfg.SlippageBps = DefaultSlippageBps
	}
	if cfg.SlippageBps > curve.BpsDenominator {
		return nil, fmt.Errorf("slippage %d bps exceeds %d", cfg.SlippageBps, curve.BpsDenominator)
	}
	if ledger == nil {
		return nil, errors.New("ledger is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:     cfg,
		ledger:  ledger,
		signer:  signer,
		logger:  logger.Named("client"),
		metrics: collector,
	}, nil
}

// Config returns the client configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Launch is a decoded launch together with its address.
type Launch struct {
	Address solana.PublicKey
	launch.State
}

// FetchLaunch reads the launch of mint. A missing launch fails with NotFound.
func (c *Client) FetchLaunch(ctx context.Context, mint solana.PublicKey) (*Launch, error) {
	const op = "client.FetchLaunch"

	addr, _, err := launch.DeriveLaunchAddress(c.cfg.ProgramID, mint)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	l, err := c.FetchLaunchAt(ctx, addr)
	if err != nil {
		return nil, err
	}
	if !l.Mint.Equals(mint) {
		return nil, errs.Errorf(op, errs.KindNotFound, "launch %s trades mint %s", addr, l.Mint)
	}
	return l, nil
}

// FetchLaunchAt reads the launch account at addr.
func (c *Client) FetchLaunchAt(ctx context.Context, addr solana.PublicKey) (*Launch, error) {
	const op = "client.FetchLaunch"

	start := time.Now()
	data, err := c.ledger.AccountData(ctx, addr)
	c.metrics.RecordRPCLatency("getAccountInfo", time.Since(start))
	if err != nil {
		if errs.Is(err, errs.KindNotFound) {
			return nil, errs.E(op, errs.KindNotFound, fmt.Errorf("no launch at %s: %w", addr, err))
		}
		return nil, fmt.Errorf("%s: read %s: %w", op, addr, err)
	}

	state, err := launch.DecodeState(data)
	if err != nil {
		return nil, errs.E(op, errs.KindNotFound, fmt.Errorf("decode %s: %w", addr, err))
	}
	return &Launch{Address: addr, State: *state}, nil
}

// Price returns the scaled spot price of l.
func (c *Client) Price(l *Launch) (*uint256.Int, error) {
	return c.cfg.Curve.PriceScaled(l.SolReserve, l.TokenReserve)
}

// PriceSOL returns the spot price of l in SOL per whole token.
func (c *Client) PriceSOL(l *Launch) (decimal.Decimal, error) {
	scaled, err := c.Price(l)
	if err != nil {
		return decimal.Zero, err
	}
	return c.cfg.Curve.PriceSOLPerToken(scaled), nil
}

// Progress returns how far l is toward graduation, in percent.
func (c *Client) Progress(l *Launch) decimal.Decimal {
	return c.cfg.Curve.Progress(l.SolReserve)
}

// BuyQuote is a priced buy with its slippage floor.
type BuyQuote struct {
	curve.BuyQuote
	Launch       *Launch
	SlippageBps  uint16
	MinTokensOut uint64
}

// SellQuote is a priced sell with its slippage floor.
type SellQuote struct {
	curve.SellQuote
	Launch      *Launch
	SlippageBps uint16
	MinSolOut   uint64
}

// QuoteBuy prices spending lamports on the launch of mint. slippageBps of 0
// uses the configured default.
func (c *Client) QuoteBuy(ctx context.Context, mint solana.PublicKey, lamports uint64, slippageBps uint16) (*BuyQuote, error) {
	const op = "client.QuoteBuy"

	l, tol, err := c.preflight(ctx, op, mint, lamports, slippageBps)
	if err != nil {
		return nil, err
	}
	q, err := c.cfg.Curve.QuoteBuy(l.SolReserve, l.TokenReserve, lamports, l.FeeRateBps)
	if err != nil {
		return nil, err
	}
	minOut, err := curve.MinOut(q.TokensOut, tol)
	if err != nil {
		return nil, err
	}
	return &BuyQuote{BuyQuote: q, Launch: l, SlippageBps: tol, MinTokensOut: minOut}, nil
}

// QuoteSell prices selling tokens (base units) to the launch of mint.
func (c *Client) QuoteSell(ctx context.Context, mint solana.PublicKey, tokens uint64, slippageBps uint16) (*SellQuote, error) {
	const op = "client.QuoteSell"

	l, tol, err := c.preflight(ctx, op, mint, tokens, slippageBps)
	if err != nil {
		return nil, err
	}
	q, err := c.cfg.Curve.QuoteSell(l.SolReserve, l.TokenReserve, tokens, l.FeeRateBps)
	if err != nil {
		return nil, err
	}
	minOut, err := curve.MinOut(q.SolOutNet, tol)
	if err != nil {
		return nil, err
	}
	return &SellQuote{SellQuote: q, Launch: l, SlippageBps: tol, MinSolOut: minOut}, nil
}

// preflight re-reads the launch and rejects what the program would reject
// before anything is signed.
func (c *Client) preflight(ctx context.Context, op string, mint solana.PublicKey, amount uint64, slippageBps uint16) (*Launch, uint16, error) {
	if amount == 0 {
		return nil, 0, errs.Errorf(op, errs.KindInvalidAmount, "amount must be positive")
	}
	tol := slippageBps
	if tol == 0 {
		tol = c.cfg.SlippageBps
	}
	if tol > curve.BpsDenominator {
		return nil, 0, errs.Errorf(op, errs.KindInvalidAmount, "slippage %d bps out of range", tol)
	}

	l, err := c.FetchLaunch(ctx, mint)
	if err != nil {
		return nil, 0, err
	}
	if l.Graduated {
		return nil, 0, errs.Errorf(op, errs.KindLaunchGraduated, "launch %s graduated", l.Address)
	}
	return l, tol, nil
}

// Landed reports whether sig executed without error. A submission that timed
// out must be checked here before anything is resent.
func (c *Client) Landed(ctx context.Context, sig solana.Signature) (bool, error) {
	start := time.Now()
	status, err := c.ledger.SignatureStatus(ctx, sig)
	c.metrics.RecordRPCLatency("getSignatureStatuses", time.Since(start))
	if err != nil {
		return false, fmt.Errorf("client.Landed: %w", err)
	}
	return status.Landed(), nil
}

// Holdings is what a wallet owns: SOL and, for a given mint, launch tokens.
type Holdings struct {
	Owner        solana.PublicKey
	Lamports     uint64
	Mint         solana.PublicKey
	TokenAccount solana.PublicKey
	Tokens       uint64
}

// Holdings reads the balances of owner. A zero mint skips the token lookup
// and a token account that was never opened holds zero tokens.
func (c *Client) Holdings(ctx context.Context, owner, mint solana.PublicKey) (*Holdings, error) {
	start := time.Now()
	lamports, err := c.ledger.Lamports(ctx, owner)
	c.metrics.RecordRPCLatency("getBalance", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("client.Holdings: %w", err)
	}
	h := &Holdings{Owner: owner, Lamports: lamports, Mint: mint}
	if mint.IsZero() {
		return h, nil
	}

	if h.TokenAccount, err = launch.DeriveUserTokenAccount(owner, mint); err != nil {
		return nil, errs.E("client.Holdings", errs.KindInvalidAmount, err)
	}
	start = time.Now()
	h.Tokens, err = c.ledger.TokenAmount(ctx, h.TokenAccount)
	c.metrics.RecordRPCLatency("getTokenAccountBalance", time.Since(start))
	if err != nil && !errs.Is(err, errs.KindNotFound) {
		return nil, fmt.Errorf("client.Holdings: %w", err)
	}
	return h, nil
}

// Owner returns the signer's address; ok is false for a read-only client.
func (c *Client) Owner() (owner solana.PublicKey, ok bool) {
	if c.signer == nil {
		return solana.PublicKey{}, false
	}
	return c.signer.PublicKey(), true
}
