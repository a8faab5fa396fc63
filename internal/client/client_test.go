package client

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rovshanmuradov/launchpad/internal/errs"
	"github.com/rovshanmuradov/launchpad/internal/launch"
	"github.com/rovshanmuradov/launchpad/internal/program"
	"github.com/rovshanmuradov/launchpad/internal/utils/metrics"
)

const supply uint64 = 1_000_000_000_000_000

type env struct {
	engine *program.Engine
	mints  *program.LocalMints
	key    solana.PrivateKey
	client *Client
}

func newEnv(t *testing.T, mutate func(*program.Config)) *env {
	t.Helper()
	cfg := program.DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	engine, err := program.NewEngine(cfg, zap.NewNop(), nil)
	require.NoError(t, err)

	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	require.NoError(t, engine.Airdrop(key.PublicKey(), 10_000_000_000))

	c, err := NewClient(Config{ProgramID: cfg.ProgramID, Curve: cfg.Curve, SlippageBps: 50},
		engine, program.NewLocalSigner(engine, key), zap.NewNop(), metrics.NewCollector())
	require.NoError(t, err)

	return &env{engine: engine, mints: program.NewLocalMints(engine), key: key, client: c}
}

func (e *env) createLaunch(t *testing.T) *CreateResult {
	t.Helper()
	res, err := e.client.CreateLaunch(context.Background(), CreateLaunchParams{
		FeeRateBps:          200,
		InitialTokenReserve: supply,
		Metadata:            &launch.TokenMetadata{Name: "Win", Symbol: "WIN", URI: "https://example.org/win.json"},
	}, e.mints, e.mints)
	require.NoError(t, err)
	return res
}

type stubSigner struct {
	key   solana.PublicKey
	err   error
	calls int
}

func (s *stubSigner) PublicKey() solana.PublicKey { return s.key }

func (s *stubSigner) SignAndSubmit(context.Context, []solana.Instruction, ...solana.PrivateKey) (solana.Signature, error) {
	s.calls++
	return solana.Signature{1}, s.err
}

type countingMints struct {
	MintAllocator
	calls int
}

func (m *countingMints) AllocateMint(ctx context.Context, owner solana.PublicKey, supply uint64) (solana.PrivateKey, error) {
	m.calls++
	return m.MintAllocator.AllocateMint(ctx, owner, supply)
}

func TestFetchLaunch(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	_, err := e.client.FetchLaunch(ctx, solana.NewWallet().PublicKey())
	assert.True(t, errs.Is(err, errs.KindNotFound))

	res := e.createLaunch(t)

	l, err := e.client.FetchLaunch(ctx, res.Addresses.Mint)
	require.NoError(t, err)
	assert.Equal(t, res.Addresses.Launch, l.Address)
	assert.Equal(t, res.Addresses.Custody, l.Custody)
	assert.Equal(t, e.key.PublicKey(), l.Creator)
	assert.Equal(t, e.key.PublicKey(), l.FeeAuthority)
	assert.Equal(t, uint16(200), l.FeeRateBps)
	assert.Equal(t, supply, l.TokenReserve)
	assert.Zero(t, l.SolReserve)

	again, err := e.client.FetchLaunch(ctx, res.Addresses.Mint)
	require.NoError(t, err)
	assert.Equal(t, l, again)

	price, err := e.client.Price(l)
	require.NoError(t, err)
	assert.Equal(t, uint64(50_000), price.Uint64())
	assert.True(t, e.client.Progress(l).IsZero())

	meta, ok := e.mints.Metadata(res.Addresses.Mint)
	require.True(t, ok)
	assert.Equal(t, "WIN", meta.Symbol)
}

func TestQuoteBuy(t *testing.T) {
	e := newEnv(t, nil)
	res := e.createLaunch(t)
	ctx := context.Background()

	q, err := e.client.QuoteBuy(ctx, res.Addresses.Mint, 100_000_000, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2_000_000), q.Fee)
	assert.Equal(t, uint64(98_000_000), q.AmountInNet)
	assert.Equal(t, uint64(989_898_989_898_989), q.TokensOut)
	assert.Equal(t, uint16(50), q.SlippageBps)
	assert.Equal(t, uint64(984_949_494_949_494), q.MinTokensOut)

	t.Run("zero", func(t *testing.T) {
		_, err := e.client.QuoteBuy(ctx, res.Addresses.Mint, 0, 0)
		assert.ErrorIs(t, err, errs.ErrInvalidAmount)
	})

	t.Run("slippage out of range", func(t *testing.T) {
		_, err := e.client.QuoteSell(ctx, res.Addresses.Mint, 10, 10_001)
		assert.ErrorIs(t, err, errs.ErrInvalidAmount)
	})
}

func TestBuyAndSell(t *testing.T) {
	e := newEnv(t, nil)
	res := e.createLaunch(t)
	ctx := context.Background()
	mint := res.Addresses.Mint
	user := e.key.PublicKey()
	balance := e.engine.Balance(user)

	bought, err := e.client.Buy(ctx, mint, 100_000_000, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(984_949_494_949_494), bought.MinAmountOut)

	landed, err := e.client.Landed(ctx, bought.Signature)
	require.NoError(t, err)
	assert.True(t, landed)

	tokens := e.engine.TokenBalance(mint, user)
	assert.Equal(t, uint64(989_898_989_898_989), tokens)
	// the signer is also the fee authority, so only the net amount left
	assert.Equal(t, balance-98_000_000, e.engine.Balance(user))

	sold, err := e.client.Sell(ctx, mint, tokens, 0)
	require.NoError(t, err)
	assert.NotZero(t, sold.MinAmountOut)
	assert.Zero(t, e.engine.TokenBalance(mint, user))
	assert.Less(t, e.engine.Balance(user), balance)

	l, err := e.client.FetchLaunch(ctx, mint)
	require.NoError(t, err)
	assert.Equal(t, supply, l.TokenReserve)
	assert.Equal(t, l.SolReserve, e.engine.Balance(l.Address))
}

func TestPreflightRejectsGraduated(t *testing.T) {
	e := newEnv(t, func(c *program.Config) { c.Curve.TargetSolReserve = 10_000_000 })
	res := e.createLaunch(t)
	ctx := context.Background()

	_, err := e.client.Buy(ctx, res.Addresses.Mint, 100_000_000, 0)
	require.NoError(t, err)
	slot := e.engine.Slot()

	_, err = e.client.Buy(ctx, res.Addresses.Mint, 1_000, 0)
	assert.ErrorIs(t, err, errs.ErrLaunchGraduated)
	_, err = e.client.Sell(ctx, res.Addresses.Mint, 1_000, 0)
	assert.ErrorIs(t, err, errs.ErrLaunchGraduated)

	assert.Equal(t, slot, e.engine.Slot(), "nothing must be submitted")
}

func TestStaleFloorFailsOnLedger(t *testing.T) {
	e := newEnv(t, nil)
	res := e.createLaunch(t)
	ctx := context.Background()

	q, err := e.client.QuoteBuy(ctx, res.Addresses.Mint, 100_000_000, 10)
	require.NoError(t, err)

	// someone else trades first
	other, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	require.NoError(t, e.engine.Airdrop(other.PublicKey(), 1_000_000_000))
	_, err = e.engine.Buy(ctx, program.TradeRequest{User: other.PublicKey(), Mint: res.Addresses.Mint, AmountIn: 50_000_000})
	require.NoError(t, err)

	ix, err := e.client.BuildBuy(q.Launch, e.key.PublicKey(), launch.TradeArgs{AmountIn: 100_000_000, MinAmountOut: q.MinTokensOut})
	require.NoError(t, err)
	sig, err := e.client.submit(ctx, launch.InstructionBuy, []solana.Instruction{ix})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrSlippageExceeded)
	assert.Equal(t, errs.KindSlippageExceeded, errs.KindOf(err))

	landed, err := e.client.Landed(ctx, sig)
	require.NoError(t, err)
	assert.False(t, landed)
}

func TestSubmitClassifiesLedgerMessages(t *testing.T) {
	e := newEnv(t, nil)
	res := e.createLaunch(t)
	ctx := context.Background()

	tests := []struct {
		name string
		err  error
		want errs.Kind
	}{
		{"graduated code", errors.New("Transaction simulation failed: Error processing Instruction 0: custom program error: 0x1778"), errs.KindLaunchGraduated},
		{"underfunded payer", errors.New("Transfer: insufficient lamports 5000, need 100000000"), errs.KindInsufficientBalance},
		{"transport", errors.New("connection reset by peer"), errs.KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer := &stubSigner{key: e.key.PublicKey(), err: tt.err}
			core, logs := observer.New(zapcore.ErrorLevel)
			c, err := NewClient(e.client.Config(), e.engine, signer, zap.New(core), nil)
			require.NoError(t, err)

			_, err = c.Buy(ctx, res.Addresses.Mint, 1_000_000, 0)
			require.Error(t, err)
			assert.Equal(t, tt.want, errs.KindOf(err))
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, 1, signer.calls, "submissions are never retried")

			failed := logs.FilterMessage("Transaction failed").All()
			require.Len(t, failed, 1)
			fields := failed[0].ContextMap()
			assert.Equal(t, "client.buy", fields["operation"])
			assert.Equal(t, tt.want.String(), fields["kind"])
			assert.NotEmpty(t, fields["correlation_id"])
		})
	}
}

func TestReadOnlyClient(t *testing.T) {
	e := newEnv(t, nil)
	c, err := NewClient(e.client.Config(), e.engine, nil, nil, nil)
	require.NoError(t, err)

	_, err = c.Buy(context.Background(), solana.NewWallet().PublicKey(), 1, 0)
	assert.ErrorIs(t, err, ErrNoSigner)
	_, err = c.CreateLaunch(context.Background(), CreateLaunchParams{InitialTokenReserve: 1}, nil, nil)
	assert.ErrorIs(t, err, ErrNoSigner)
}

func TestCreateLaunchRejects(t *testing.T) {
	e := newEnv(t, nil)
	ctx := context.Background()

	mints := &countingMints{MintAllocator: e.mints}
	_, err := e.client.CreateLaunch(ctx, CreateLaunchParams{FeeRateBps: 10_001, InitialTokenReserve: supply}, mints, nil)
	assert.ErrorIs(t, err, errs.ErrInvalidFeeRate)
	_, err = e.client.CreateLaunch(ctx, CreateLaunchParams{FeeRateBps: 100}, mints, nil)
	assert.ErrorIs(t, err, errs.ErrInvalidAmount)
	assert.Zero(t, mints.calls, "no mint is allocated for a request that cannot succeed")

	res := e.createLaunch(t)
	mintKey, err := e.mints.AllocateMint(ctx, e.key.PublicKey(), supply)
	require.NoError(t, err)

	// metadata is issued once per mint
	meta := launch.TokenMetadata{Name: "Win", Symbol: "WIN"}
	require.NoError(t, e.mints.IssueMetadata(ctx, mintKey.PublicKey(), meta))
	err = e.mints.IssueMetadata(ctx, mintKey.PublicKey(), meta)
	assert.ErrorIs(t, err, errs.ErrAlreadyExists)

	l, err := e.client.FetchLaunch(ctx, res.Addresses.Mint)
	require.NoError(t, err)
	assert.False(t, l.Graduated)
}

func TestHoldings(t *testing.T) {
	e := newEnv(t, nil)
	res := e.createLaunch(t)
	ctx := context.Background()
	owner, ok := e.client.Owner()
	require.True(t, ok)
	assert.Equal(t, e.key.PublicKey(), owner)

	h, err := e.client.Holdings(ctx, owner, solana.PublicKey{})
	require.NoError(t, err)
	assert.Equal(t, e.engine.Balance(owner), h.Lamports)
	assert.True(t, h.TokenAccount.IsZero())

	h, err = e.client.Holdings(ctx, owner, res.Addresses.Mint)
	require.NoError(t, err)
	assert.Zero(t, h.Tokens, "the whole supply sits in custody")

	_, err = e.client.Buy(ctx, res.Addresses.Mint, 10_000_000, 0)
	require.NoError(t, err)
	h, err = e.client.Holdings(ctx, owner, res.Addresses.Mint)
	require.NoError(t, err)
	assert.Equal(t, e.engine.TokenBalance(res.Addresses.Mint, owner), h.Tokens)
	assert.NotZero(t, h.Tokens)

	readOnly, err := NewClient(e.client.Config(), e.engine, nil, nil, nil)
	require.NoError(t, err)
	_, ok = readOnly.Owner()
	assert.False(t, ok)
}
