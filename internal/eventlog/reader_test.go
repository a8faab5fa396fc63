package eventlog

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/blockchain"
	"github.com/rovshanmuradov/launchpad/internal/errs"
	"github.com/rovshanmuradov/launchpad/internal/launch"
	"github.com/rovshanmuradov/launchpad/internal/program"
	"github.com/rovshanmuradov/launchpad/internal/utils/metrics"
)

const supply uint64 = 1_000_000_000_000_000

type env struct {
	engine *program.Engine
	mint   solana.PublicKey
	addrs  launch.Addresses
	user   solana.PublicKey
}

func newKey(t *testing.T) solana.PublicKey {
	t.Helper()
	k, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return k.PublicKey()
}

// newEnv opens a launch and funds one trader.
func newEnv(t *testing.T) *env {
	t.Helper()
	engine, err := program.NewEngine(program.DefaultConfig(), zap.NewNop(), nil)
	require.NoError(t, err)

	e := &env{engine: engine, mint: newKey(t), user: newKey(t)}
	creator := newKey(t)
	e.addrs, err = launch.Derive(engine.Config().ProgramID, e.mint)
	require.NoError(t, err)

	require.NoError(t, engine.MintTo(e.mint, creator, supply))
	require.NoError(t, engine.Airdrop(e.user, 100_000_000_000))
	_, err = engine.CreateLaunch(context.Background(), program.CreateLaunchRequest{
		Creator:             creator,
		FeeAuthority:        newKey(t),
		Mint:                e.mint,
		FeeRateBps:          100,
		InitialTokenReserve: supply,
	})
	require.NoError(t, err)
	return e
}

func (e *env) buy(t *testing.T, lamports, minOut uint64) error {
	t.Helper()
	_, err := e.engine.Buy(context.Background(), program.TradeRequest{User: e.user, Mint: e.mint, AmountIn: lamports, MinAmountOut: minOut})
	return err
}

func (e *env) sell(t *testing.T, tokens uint64) {
	t.Helper()
	_, err := e.engine.Sell(context.Background(), program.TradeRequest{User: e.user, Mint: e.mint, AmountIn: tokens})
	require.NoError(t, err)
}

func (e *env) reader(history blockchain.HistoryReader, opts Options, collector *metrics.Collector) *Reader {
	return NewReader(history, e.engine.Config().ProgramID, opts, zap.NewNop(), collector)
}

func TestEventsMatchEngineLog(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.buy(t, 50_000_000, 0))
	require.NoError(t, e.buy(t, 25_000_000, 0))
	e.sell(t, e.engine.TokenBalance(e.mint, e.user)/2)
	// fails on slippage and must not show up
	require.Error(t, e.buy(t, 1_000, supply))
	require.NoError(t, e.buy(t, 5_000_000, 0))

	// small pages exercise the paging and batching paths
	for _, opts := range []Options{{}, {PageSize: 2, Concurrency: 1}, {PageSize: 3, Concurrency: 4}} {
		records, err := Collect(e.reader(e.engine, opts, nil).Events(context.Background(), e.addrs.Launch))
		require.NoError(t, err)

		want := e.engine.Events(e.addrs.Launch)
		require.Len(t, records, len(want))
		for i, rec := range records {
			assert.Equal(t, want[i].Event, rec.Event, "event %d", i)
			assert.Equal(t, want[i].Signature, rec.Signature)
			assert.Equal(t, want[i].Slot, rec.Slot)
			assert.Equal(t, e.addrs.Launch, rec.Launch)
		}
		assert.Equal(t, launch.EventCreated, records[0].Event.Kind())
		assert.Equal(t, launch.EventSold, records[3].Event.Kind())
	}
}

func TestEventsAreSnapshots(t *testing.T) {
	e := newEnv(t)
	r := e.reader(e.engine, Options{}, nil)
	ctx := context.Background()

	first, err := Collect(r.Events(ctx, e.addrs.Launch))
	require.NoError(t, err)
	require.Len(t, first, 1)

	require.NoError(t, e.buy(t, 1_000_000, 0))
	second, err := Collect(r.Events(ctx, e.addrs.Launch))
	require.NoError(t, err)
	assert.Len(t, second, 2)

	after, err := Collect(r.EventsAfter(ctx, e.addrs.Launch, first[0].Signature))
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, launch.EventBought, after[0].Event.Kind())
}

func TestEventsStopEarly(t *testing.T) {
	e := newEnv(t)
	for range 3 {
		require.NoError(t, e.buy(t, 1_000_000, 0))
	}

	n := 0
	for _, err := range e.reader(e.engine, Options{}, nil).Events(context.Background(), e.addrs.Launch) {
		require.NoError(t, err)
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestUnknownLaunchHasNoEvents(t *testing.T) {
	e := newEnv(t)
	records, err := Collect(e.reader(e.engine, Options{}, nil).Events(context.Background(), newKey(t)))
	require.NoError(t, err)
	assert.Empty(t, records)
}

// tamperedHistory serves the engine's history with extra log lines appended
// to every transaction.
type tamperedHistory struct {
	blockchain.HistoryReader
	extra   []string
	failTx  bool
	fetches int
}

func (h *tamperedHistory) Transaction(ctx context.Context, sig solana.Signature) (*blockchain.TransactionRecord, error) {
	h.fetches++
	if h.failTx {
		return nil, errors.New("rpc unavailable")
	}
	rec, err := h.HistoryReader.Transaction(ctx, sig)
	if err != nil {
		return nil, err
	}
	rec.Logs = append(rec.Logs[:len(rec.Logs)-1], append(h.extra, rec.Logs[len(rec.Logs)-1])...)
	return rec, nil
}

func TestMalformedAndForeignEventsAreSkipped(t *testing.T) {
	e := newEnv(t)

	foreign, err := launch.EncodeEvent(&launch.Bought{Launch: newKey(t), SolIn: 1})
	require.NoError(t, err)
	history := &tamperedHistory{
		HistoryReader: e.engine,
		extra: []string{
			"Program data: " + base64.StdEncoding.EncodeToString([]byte("not an event")),
			"Program data: " + base64.StdEncoding.EncodeToString(foreign),
			"Program data: %%%",
		},
	}

	collector := metrics.NewCollector()
	records, err := Collect(e.reader(history, Options{}, collector).Events(context.Background(), e.addrs.Launch))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, launch.EventCreated, records[0].Event.Kind())
	assert.Equal(t, 1, history.fetches)
}

func TestFetchFailureSurfaces(t *testing.T) {
	e := newEnv(t)
	history := &tamperedHistory{HistoryReader: e.engine, failTx: true}

	records, err := Collect(e.reader(history, Options{}, nil).Events(context.Background(), e.addrs.Launch))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpc unavailable")
	assert.Empty(t, records)
}

func TestCancelledContext(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Collect(e.reader(e.engine, Options{}, nil).Events(ctx, e.addrs.Launch))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUnknownCursor(t *testing.T) {
	e := newEnv(t)
	_, err := Collect(e.reader(e.engine, Options{PageSize: 1}, nil).EventsAfter(context.Background(), e.addrs.Launch, solana.Signature{9}))
	require.NoError(t, err, "a cursor never seen reads the whole history")

	r := e.reader(&cursorHistory{HistoryReader: e.engine}, Options{}, nil)
	_, err = Collect(r.Events(context.Background(), e.addrs.Launch))
	assert.True(t, errs.Is(err, errs.KindNotFound))
}

type cursorHistory struct {
	blockchain.HistoryReader
}

func (h *cursorHistory) SignaturesForAddress(ctx context.Context, addr solana.PublicKey, _ solana.Signature, limit int) ([]blockchain.SignatureInfo, error) {
	return h.HistoryReader.SignaturesForAddress(ctx, addr, solana.Signature{7}, limit)
}
