package eventlog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/launchpad/internal/curve"
	"github.com/rovshanmuradov/launchpad/internal/launch"
)

func TestPriceSeries(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.buy(t, 20_000_000, 0))
	require.NoError(t, e.buy(t, 5_000_000, 0))
	e.sell(t, e.engine.TokenBalance(e.mint, e.user))

	records, err := Collect(e.reader(e.engine, Options{}, nil).Events(context.Background(), e.addrs.Launch))
	require.NoError(t, err)
	require.Len(t, records, 4)

	params := e.engine.Config().Curve
	points, err := PriceSeries(params, records)
	require.NoError(t, err)
	require.Len(t, points, 4)

	assert.Equal(t, uint64(50_000), points[0].PriceScaled.Uint64())
	assert.Equal(t, string(launch.EventCreated), points[0].Kind)
	assert.True(t, points[1].PriceScaled.Gt(points[0].PriceScaled), "buys raise the price")
	assert.True(t, points[2].PriceScaled.Gt(points[1].PriceScaled))
	assert.True(t, points[3].PriceScaled.Lt(points[2].PriceScaled), "sells lower it")

	for i, p := range points {
		sol, tok := records[i].Event.Reserves()
		assert.Equal(t, sol, p.SolReserve)
		assert.Equal(t, tok, p.TokenReserve)
		want, err := params.PriceScaled(sol, tok)
		require.NoError(t, err)
		assert.Equal(t, want, p.PriceScaled)
		assert.True(t, params.PriceSOLPerToken(want).Equal(p.SOLPerToken))
	}

	floats := Floats(points)
	require.Len(t, floats, 4)
	assert.InDelta(t, 5e-11, floats[0], 1e-15)
}

func TestPriceSeriesEmpty(t *testing.T) {
	points, err := PriceSeries(curve.DefaultParams(), nil)
	require.NoError(t, err)
	assert.Empty(t, points)
}
