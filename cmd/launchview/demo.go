package main

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/client"
	"github.com/rovshanmuradov/launchpad/internal/curve"
	"github.com/rovshanmuradov/launchpad/internal/program"
	"github.com/rovshanmuradov/launchpad/internal/ui"
)

const (
	demoMinBuy = 1_000_000  // 0.001 SOL
	demoMaxBuy = 10_000_000 // 0.01 SOL
)

// demoTrader trades against a localnet launch so the viewer has something
// to show. Every third step on average sells part of the holdings, and it
// always sells once custody holds less than a fifth of demoSupply, so buys
// never hit an empty curve.
type demoTrader struct {
	client   *client.Client
	engine   *program.Engine
	owner    solana.PublicKey
	mint     solana.PublicKey
	slippage uint16
	rng      *rand.Rand
	logger   *zap.Logger
}

func newDemoTrader(c *client.Client, engine *program.Engine, owner, mint solana.PublicKey, slippage uint16, logger *zap.Logger) *demoTrader {
	return &demoTrader{
		client:   c,
		engine:   engine,
		owner:    owner,
		mint:     mint,
		slippage: slippage,
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		logger:   logger.Named("demo"),
	}
}

// Step submits one random trade.
func (d *demoTrader) Step(ctx context.Context) ui.TradeMsg {
	l, err := d.client.FetchLaunch(ctx, d.mint)
	if err != nil {
		return ui.TradeMsg{Side: "buy", Err: err}
	}
	held := d.engine.TokenBalance(d.mint, d.owner)
	thin := l.TokenReserve < demoSupply/5
	if held > 0 && (thin || d.rng.IntN(3) == 0) {
		units := max(held*uint64(10+d.rng.IntN(41))/100, 1)
		msg := ui.TradeMsg{Side: "sell", Amount: curve.BaseUnitsToTokens(units).StringFixed(0)}
		res, err := d.client.Sell(ctx, d.mint, units, d.slippage)
		if err != nil {
			msg.Err = err
			return msg
		}
		msg.Signature = res.Signature
		return msg
	}

	lamports := demoMinBuy + d.rng.Uint64N(demoMaxBuy-demoMinBuy)
	msg := ui.TradeMsg{Side: "buy", Amount: sol(lamports)}
	res, err := d.client.Buy(ctx, d.mint, lamports, d.slippage)
	if err != nil {
		msg.Err = err
		return msg
	}
	msg.Signature = res.Signature
	return msg
}

// Run trades every interval until ctx is done or the launch graduates.
func (d *demoTrader) Run(ctx context.Context, interval time.Duration, notify func(ui.TradeMsg)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			msg := d.Step(ctx)
			notify(msg)
			if msg.Err != nil {
				d.logger.Warn("Demo trade failed", zap.String("side", msg.Side), zap.Error(msg.Err))
			}

			l, err := d.client.FetchLaunch(ctx, d.mint)
			if err == nil && l.Graduated {
				d.logger.Info("Launch graduated, demo trader stopping",
					zap.String("sol_reserve", sol(l.SolReserve)))
				return
			}
		}
	}
}

// sol formats lamports for log fields.
func sol(lamports uint64) string {
	return curve.LamportsToSOL(lamports).StringFixed(3) + " SOL"
}
