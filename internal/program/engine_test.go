package program

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/curve"
	"github.com/rovshanmuradov/launchpad/internal/errs"
	"github.com/rovshanmuradov/launchpad/internal/launch"
)

const initialReserve uint64 = 1_000_000_000_000_000

type fixture struct {
	engine    *Engine
	creator   solana.PrivateKey
	authority solana.PublicKey
	mint      solana.PrivateKey
	addrs     launch.Addresses
}

func newKey(t *testing.T) solana.PrivateKey {
	t.Helper()
	k, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return k
}

func newFixture(t *testing.T, mutate func(*Config)) *fixture {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	engine, err := NewEngine(cfg, zap.NewNop(), nil)
	require.NoError(t, err)

	f := &fixture{
		engine:    engine,
		creator:   newKey(t),
		authority: newKey(t).PublicKey(),
		mint:      newKey(t),
	}
	f.addrs, err = launch.Derive(cfg.ProgramID, f.mint.PublicKey())
	require.NoError(t, err)
	require.NoError(t, engine.MintTo(f.mint.PublicKey(), f.creator.PublicKey(), initialReserve))
	return f
}

func (f *fixture) create(t *testing.T, feeBps uint16) *Receipt {
	t.Helper()
	r, err := f.engine.CreateLaunch(context.Background(), CreateLaunchRequest{
		Creator:             f.creator.PublicKey(),
		FeeAuthority:        f.authority,
		Mint:                f.mint.PublicKey(),
		FeeRateBps:          feeBps,
		InitialTokenReserve: initialReserve,
	})
	require.NoError(t, err)
	return r
}

func (f *fixture) user(t *testing.T, lamports uint64) solana.PublicKey {
	t.Helper()
	u := newKey(t).PublicKey()
	require.NoError(t, f.engine.Airdrop(u, lamports))
	return u
}

func (f *fixture) trade(user solana.PublicKey, amount, minOut uint64) TradeRequest {
	return TradeRequest{User: user, Mint: f.mint.PublicKey(), AmountIn: amount, MinAmountOut: minOut}
}

// checkCustody asserts that recorded reserves match what the launch holds.
func (f *fixture) checkCustody(t *testing.T) {
	t.Helper()
	state, err := f.engine.Launch(f.mint.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, state.SolReserve, f.engine.Balance(f.addrs.Launch), "sol reserve vs launch lamports")
	assert.Equal(t, state.TokenReserve, f.engine.TokenAccountBalance(f.addrs.Custody), "token reserve vs custody")
}

func TestCreateLaunch(t *testing.T) {
	f := newFixture(t, nil)
	r := f.create(t, 200)

	state, err := f.engine.Launch(f.mint.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, launch.State{
		Bump:         f.addrs.Bump,
		Mint:         f.mint.PublicKey(),
		Custody:      f.addrs.Custody,
		FeeAuthority: f.authority,
		Creator:      f.creator.PublicKey(),
		FeeRateBps:   200,
		SolReserve:   0,
		TokenReserve: initialReserve,
	}, state)
	assert.True(t, state.Active())

	assert.Zero(t, f.engine.TokenBalance(f.mint.PublicKey(), f.creator.PublicKey()))
	f.checkCustody(t)

	require.Len(t, r.Events, 1)
	created, ok := r.Events[0].(*launch.Created)
	require.True(t, ok)
	assert.Equal(t, f.addrs.Launch, created.Launch)
	assert.Equal(t, initialReserve, created.TokenReserve)

	log := f.engine.Events(f.addrs.Launch)
	require.Len(t, log, 1)
	assert.Equal(t, r.Signature, log[0].Signature)

	t.Run("twice", func(t *testing.T) {
		require.NoError(t, f.engine.MintTo(f.mint.PublicKey(), f.creator.PublicKey(), initialReserve))
		_, err := f.engine.CreateLaunch(context.Background(), CreateLaunchRequest{
			Creator:             f.creator.PublicKey(),
			FeeAuthority:        f.authority,
			Mint:                f.mint.PublicKey(),
			FeeRateBps:          100,
			InitialTokenReserve: initialReserve,
		})
		assert.ErrorIs(t, err, errs.ErrAlreadyExists)

		again, err := f.engine.Launch(f.mint.PublicKey())
		require.NoError(t, err)
		assert.Equal(t, state, again)
	})
}

func TestCreateLaunchRejects(t *testing.T) {
	tests := []struct {
		name    string
		fee     uint16
		reserve uint64
		minted  uint64
		want    errs.Kind
	}{
		{"fee above cap", 10_001, initialReserve, initialReserve, errs.KindInvalidFeeRate},
		{"zero reserve", 100, 0, initialReserve, errs.KindInvalidAmount},
		{"creator lacks tokens", 100, initialReserve, initialReserve - 1, errs.KindInsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := NewEngine(DefaultConfig(), zap.NewNop(), nil)
			require.NoError(t, err)
			creator, mint := newKey(t).PublicKey(), newKey(t).PublicKey()
			require.NoError(t, engine.MintTo(mint, creator, tt.minted))

			_, err = engine.CreateLaunch(context.Background(), CreateLaunchRequest{
				Creator:             creator,
				FeeAuthority:        newKey(t).PublicKey(),
				Mint:                mint,
				FeeRateBps:          tt.fee,
				InitialTokenReserve: tt.reserve,
			})
			require.Error(t, err)
			assert.Equal(t, tt.want, errs.KindOf(err))

			_, err = engine.Launch(mint)
			assert.ErrorIs(t, err, errs.ErrNotFound)
			assert.Equal(t, tt.minted, engine.TokenBalance(mint, creator))
		})
	}
}

func TestFirstBuy(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, 200)
	user := f.user(t, 1_000_000_000)

	r, err := f.engine.Buy(context.Background(), f.trade(user, 100_000_000, 0))
	require.NoError(t, err)

	assert.Equal(t, uint64(900_000_000), f.engine.Balance(user))
	assert.Equal(t, uint64(2_000_000), f.engine.Balance(f.authority))
	assert.Zero(t, f.engine.Balance(f.creator.PublicKey()))
	assert.Equal(t, uint64(989_898_989_898_989), f.engine.TokenBalance(f.mint.PublicKey(), user))

	state, err := f.engine.Launch(f.mint.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, uint64(98_000_000), state.SolReserve)
	assert.Equal(t, uint64(10_101_010_101_011), state.TokenReserve)
	assert.False(t, state.Graduated)
	f.checkCustody(t)

	require.Len(t, r.Events, 1)
	assert.Equal(t, &launch.Bought{
		Launch:       f.addrs.Launch,
		User:         user,
		SolIn:        100_000_000,
		FeeLamports:  2_000_000,
		TokensOut:    989_898_989_898_989,
		SolReserve:   98_000_000,
		TokenReserve: 10_101_010_101_011,
	}, r.Events[0])
}

func TestBuyRejects(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, 200)
	user := f.user(t, 1_000_000_000)

	tests := []struct {
		name string
		req  TradeRequest
		want errs.Kind
	}{
		{"zero", f.trade(user, 0, 0), errs.KindInvalidAmount},
		{"floor above quote", f.trade(user, 100_000_000, 989_898_989_898_990), errs.KindSlippageExceeded},
		{"underfunded", f.trade(user, 1_000_000_001, 0), errs.KindInsufficientBalance},
		{"unknown mint", TradeRequest{User: user, Mint: newKey(t).PublicKey(), AmountIn: 1}, errs.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.Buy(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.want, errs.KindOf(err))

			assert.Equal(t, uint64(1_000_000_000), f.engine.Balance(user))
			assert.Zero(t, f.engine.TokenBalance(f.mint.PublicKey(), user))
			f.checkCustody(t)
		})
	}
	assert.Len(t, f.engine.Events(f.addrs.Launch), 1)
}

func TestBuyThenSell(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, 100)
	user := f.user(t, 1_000_000_000)

	_, err := f.engine.Buy(context.Background(), f.trade(user, 100_000_000, 0))
	require.NoError(t, err)
	tokens := f.engine.TokenBalance(f.mint.PublicKey(), user)

	t.Run("more than held", func(t *testing.T) {
		_, err := f.engine.Sell(context.Background(), f.trade(user, tokens+1, 0))
		assert.ErrorIs(t, err, errs.ErrInsufficientBalance)
	})

	r, err := f.engine.Sell(context.Background(), f.trade(user, tokens, 0))
	require.NoError(t, err)

	sold, ok := r.Events[0].(*launch.Sold)
	require.True(t, ok)
	assert.Equal(t, tokens, sold.TokensIn)
	assert.Equal(t, sold.SolOutGross, sold.SolOutNet+sold.FeeLamports)

	assert.Zero(t, f.engine.TokenBalance(f.mint.PublicKey(), user))
	assert.Less(t, f.engine.Balance(user), uint64(1_000_000_000), "round trip must lose fees")
	f.checkCustody(t)

	state, err := f.engine.Launch(f.mint.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, initialReserve, state.TokenReserve)
}

func TestSellSlippage(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, 100)
	user := f.user(t, 1_000_000_000)
	_, err := f.engine.Buy(context.Background(), f.trade(user, 100_000_000, 0))
	require.NoError(t, err)

	before, err := f.engine.Launch(f.mint.PublicKey())
	require.NoError(t, err)

	_, err = f.engine.Sell(context.Background(), f.trade(user, 1_000_000_000_000, 100_000_000))
	assert.ErrorIs(t, err, errs.ErrSlippageExceeded)

	after, err := f.engine.Launch(f.mint.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestGraduation(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.Curve.TargetSolReserve = 50_000_000 })
	f.create(t, 200)
	user := f.user(t, 1_000_000_000)

	r, err := f.engine.Buy(context.Background(), f.trade(user, 100_000_000, 0))
	require.NoError(t, err)
	assert.True(t, r.Events[0].IsGraduated())

	state, err := f.engine.Launch(f.mint.PublicKey())
	require.NoError(t, err)
	assert.True(t, state.Graduated)

	_, err = f.engine.Buy(context.Background(), f.trade(user, 1_000, 0))
	assert.ErrorIs(t, err, errs.ErrLaunchGraduated)
	_, err = f.engine.Sell(context.Background(), f.trade(user, 1_000, 0))
	assert.ErrorIs(t, err, errs.ErrLaunchGraduated)

	after, err := f.engine.Launch(f.mint.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, state, after)
}

func TestGraduationWithDefaultParams(t *testing.T) {
	f := newFixture(t, nil)
	require.Equal(t, curve.DefaultParams(), f.engine.Config().Curve)
	f.create(t, 100)
	user := f.user(t, 200_000_000_000)
	ctx := context.Background()

	_, err := f.engine.Buy(ctx, f.trade(user, 50_000_000, 0))
	require.NoError(t, err)

	// 102 SOL prices far more tokens than custody holds; the payout is capped
	// and the whole net input lands in the reserve.
	r, err := f.engine.Buy(ctx, f.trade(user, 102_000_000_000, 0))
	require.NoError(t, err)
	bought, ok := r.Events[0].(*launch.Bought)
	require.True(t, ok)
	assert.True(t, bought.Graduated)

	state, err := f.engine.Launch(f.mint.PublicKey())
	require.NoError(t, err)
	assert.True(t, state.Graduated)
	assert.Equal(t, uint64(49_500_000+100_980_000_000), state.SolReserve)
	assert.Zero(t, state.TokenReserve)
	assert.Equal(t, initialReserve, f.engine.TokenBalance(f.mint.PublicKey(), user))
	f.checkCustody(t)

	_, err = f.engine.Buy(ctx, f.trade(user, 50_000_000, 0))
	assert.ErrorIs(t, err, errs.ErrLaunchGraduated)
}

func TestEmptyCustodyBelowTarget(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, 100)
	user := f.user(t, 10_000_000_000)
	ctx := context.Background()

	_, err := f.engine.Buy(ctx, f.trade(user, 1_000_000_000, 0))
	require.NoError(t, err)

	state, err := f.engine.Launch(f.mint.PublicKey())
	require.NoError(t, err)
	assert.Zero(t, state.TokenReserve)
	assert.Equal(t, uint64(990_000_000), state.SolReserve)
	assert.False(t, state.Graduated)

	_, err = f.engine.Buy(ctx, f.trade(user, 10_000_000, 0))
	assert.ErrorIs(t, err, errs.ErrInsufficientOutput)

	held := f.engine.TokenBalance(f.mint.PublicKey(), user)
	_, err = f.engine.Sell(ctx, f.trade(user, held/2, 0))
	require.NoError(t, err)
	_, err = f.engine.Buy(ctx, f.trade(user, 10_000_000, 0))
	require.NoError(t, err)
	f.checkCustody(t)
}

func TestFeeSplit(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.CreatorShareBps = 2_500 })
	f.create(t, 200)
	user := f.user(t, 1_000_000_000)

	_, err := f.engine.Buy(context.Background(), f.trade(user, 100_000_000, 0))
	require.NoError(t, err)

	assert.Equal(t, uint64(500_000), f.engine.Balance(f.creator.PublicKey()))
	assert.Equal(t, uint64(1_500_000), f.engine.Balance(f.authority))
}

func TestConservation(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.CreatorShareBps = 3_333 })
	f.create(t, 150)

	rng := rand.New(rand.NewSource(7))
	users := make([]solana.PublicKey, 4)
	var total uint64
	for i := range users {
		users[i] = f.user(t, 10_000_000_000)
		total += 10_000_000_000
	}

	lamports := func() uint64 {
		sum := f.engine.Balance(f.addrs.Launch) + f.engine.Balance(f.authority) + f.engine.Balance(f.creator.PublicKey())
		for _, u := range users {
			sum += f.engine.Balance(u)
		}
		return sum
	}

	for i := 0; i < 200; i++ {
		u := users[rng.Intn(len(users))]
		if rng.Intn(2) == 0 {
			_, _ = f.engine.Buy(context.Background(), f.trade(u, uint64(rng.Int63n(2_000_000_000))+1, 0))
		} else if held := f.engine.TokenBalance(f.mint.PublicKey(), u); held > 0 {
			_, _ = f.engine.Sell(context.Background(), f.trade(u, uint64(rng.Int63n(int64(held)))+1, 0))
		}

		require.Equal(t, total, lamports(), "step %d", i)
		f.checkCustody(t)
	}
}

func TestSubmit(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	signer := NewLocalSigner(f.engine, f.creator)
	programID := f.engine.Config().ProgramID

	createIx := launch.NewCreateLaunchInstruction(programID, launch.CreateLaunchAccounts{
		Creator:      f.creator.PublicKey(),
		FeeAuthority: f.authority,
		Launch:       f.addrs.Launch,
		Mint:         f.mint.PublicKey(),
		Custody:      f.addrs.Custody,
	}, launch.CreateLaunchArgs{FeeRateBps: 200, InitialTokenReserve: initialReserve})

	t.Run("missing mint signature", func(t *testing.T) {
		_, err := signer.SignAndSubmit(ctx, []solana.Instruction{createIx})
		assert.Error(t, err)
		_, err = f.engine.Launch(f.mint.PublicKey())
		assert.ErrorIs(t, err, errs.ErrNotFound)
	})

	sig, err := signer.SignAndSubmit(ctx, []solana.Instruction{createIx}, f.mint)
	require.NoError(t, err)

	status, err := f.engine.SignatureStatus(ctx, sig)
	require.NoError(t, err)
	assert.True(t, status.Landed())

	rec, err := f.engine.Transaction(ctx, sig)
	require.NoError(t, err)
	logs := strings.Join(rec.Logs, "\n")
	assert.Contains(t, logs, "Program "+programID.String()+" invoke [1]")
	assert.Contains(t, logs, "Program log: Instruction: CreateLaunch")
	assert.Contains(t, logs, "Program data: ")
	assert.Contains(t, logs, "Program "+programID.String()+" success")

	t.Run("stale blockhash", func(t *testing.T) {
		tx, err := solana.NewTransaction([]solana.Instruction{createIx}, solana.Hash{1, 2, 3}, solana.TransactionPayer(f.creator.PublicKey()))
		require.NoError(t, err)
		_, err = tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
			if pk.Equals(f.creator.PublicKey()) {
				return &f.creator
			}
			return &f.mint
		})
		require.NoError(t, err)
		_, err = f.engine.Submit(ctx, tx)
		assert.ErrorContains(t, err, "blockhash not found")
	})

	t.Run("tampered signature", func(t *testing.T) {
		blockhash, err := f.engine.LatestBlockhash(ctx)
		require.NoError(t, err)
		tx, err := solana.NewTransaction([]solana.Instruction{createIx}, blockhash, solana.TransactionPayer(f.creator.PublicKey()))
		require.NoError(t, err)
		_, err = tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
			if pk.Equals(f.creator.PublicKey()) {
				return &f.creator
			}
			return &f.mint
		})
		require.NoError(t, err)
		tx.Signatures[1][0] ^= 0xff

		_, err = f.engine.Submit(ctx, tx)
		assert.ErrorContains(t, err, "signature verification failed")
	})
}

func TestSubmitIsAtomic(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, 200)
	ctx := context.Background()

	userKey := newKey(t)
	require.NoError(t, f.engine.Airdrop(userKey.PublicKey(), 1_000_000_000))
	programID := f.engine.Config().ProgramID

	accounts := launch.TradeAccounts{
		User:         userKey.PublicKey(),
		FeeAuthority: f.authority,
		Creator:      f.creator.PublicKey(),
		Launch:       f.addrs.Launch,
		Mint:         f.mint.PublicKey(),
		Custody:      f.addrs.Custody,
	}
	good, err := launch.NewBuyInstruction(programID, accounts, launch.TradeArgs{AmountIn: 100_000_000})
	require.NoError(t, err)
	bad, err := launch.NewBuyInstruction(programID, accounts, launch.TradeArgs{AmountIn: 100_000_000, MinAmountOut: initialReserve})
	require.NoError(t, err)

	before, err := f.engine.Launch(f.mint.PublicKey())
	require.NoError(t, err)

	sig, err := NewLocalSigner(f.engine, userKey).SignAndSubmit(ctx, []solana.Instruction{good, bad})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrSlippageExceeded)

	var txErr *TxError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, 1, txErr.Instruction)
	assert.Contains(t, txErr.Error(), "custom program error: 0x1772")
	assert.Equal(t, errs.KindSlippageExceeded, launch.ClassifyLedgerError(txErr.Error()))

	after, err := f.engine.Launch(f.mint.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, uint64(1_000_000_000), f.engine.Balance(userKey.PublicKey()))
	assert.Zero(t, f.engine.TokenBalance(f.mint.PublicKey(), userKey.PublicKey()))
	assert.Len(t, f.engine.Events(f.addrs.Launch), 1)

	status, err := f.engine.SignatureStatus(ctx, sig)
	require.NoError(t, err)
	assert.True(t, status.Found)
	assert.False(t, status.Landed())

	rec, err := f.engine.Transaction(ctx, sig)
	require.NoError(t, err)
	assert.True(t, rec.Failed)
	assert.Contains(t, strings.Join(rec.Logs, "\n"), "Error Code: SlippageExceeded")
}

func TestSubmitRejectsForeignAccounts(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, 200)
	ctx := context.Background()

	userKey := newKey(t)
	require.NoError(t, f.engine.Airdrop(userKey.PublicKey(), 1_000_000_000))
	programID := f.engine.Config().ProgramID
	signer := NewLocalSigner(f.engine, userKey)

	accounts := launch.TradeAccounts{
		User:         userKey.PublicKey(),
		FeeAuthority: f.authority,
		Creator:      f.creator.PublicKey(),
		Launch:       f.addrs.Launch,
		Mint:         f.mint.PublicKey(),
		Custody:      newKey(t).PublicKey(),
	}
	ix, err := launch.NewBuyInstruction(programID, accounts, launch.TradeArgs{AmountIn: 1_000_000})
	require.NoError(t, err)
	_, err = signer.SignAndSubmit(ctx, []solana.Instruction{ix})
	assert.ErrorIs(t, err, errs.ErrInvalidAccount)
	assert.Contains(t, err.Error(), "custom program error: 0x1774")
	assert.Equal(t, errs.KindInvalidAccount, launch.ClassifyLedgerError(err.Error()))

	other, err := launch.Derive(programID, newKey(t).PublicKey())
	require.NoError(t, err)
	accounts.Launch, accounts.Custody = other.Launch, other.Custody
	ix, err = launch.NewBuyInstruction(programID, accounts, launch.TradeArgs{AmountIn: 1_000_000})
	require.NoError(t, err)
	_, err = signer.SignAndSubmit(ctx, []solana.Instruction{ix})
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.Equal(t, errs.KindNotFound, launch.ClassifyLedgerError(err.Error()))

	assert.Equal(t, uint64(1_000_000_000), f.engine.Balance(userKey.PublicKey()))
}

func TestSignaturesForAddress(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, 200)
	user := f.user(t, 10_000_000_000)
	ctx := context.Background()

	var sigs []solana.Signature
	for i := 0; i < 5; i++ {
		r, err := f.engine.Buy(ctx, f.trade(user, 10_000_000, 0))
		require.NoError(t, err)
		sigs = append(sigs, r.Signature)
	}

	page, err := f.engine.SignaturesForAddress(ctx, f.addrs.Launch, solana.Signature{}, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, sigs[4], page[0].Signature)
	assert.Equal(t, sigs[3], page[1].Signature)
	assert.Greater(t, page[0].Slot, page[1].Slot)

	page, err = f.engine.SignaturesForAddress(ctx, f.addrs.Launch, page[1].Signature, 10)
	require.NoError(t, err)
	// three buys and the create
	require.Len(t, page, 4)
	assert.Equal(t, sigs[0], page[2].Signature)

	_, err = f.engine.SignaturesForAddress(ctx, f.addrs.Launch, solana.Signature{9}, 10)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	data, err := f.engine.AccountData(ctx, f.addrs.Launch)
	require.NoError(t, err)
	state, err := launch.DecodeState(data)
	require.NoError(t, err)
	assert.Equal(t, f.mint.PublicKey(), state.Mint)

	_, err = f.engine.AccountData(ctx, newKey(t).PublicKey())
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.CreatorShareBps = curve.BpsDenominator + 1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.ProgramID = solana.PublicKey{}
	_, err := NewEngine(cfg, nil, nil)
	assert.Error(t, err)
}
