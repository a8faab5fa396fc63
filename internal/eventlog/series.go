package eventlog

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/launchpad/internal/curve"
)

// PricePoint is the spot price right after one event.
type PricePoint struct {
	Slot         uint64
	BlockTime    time.Time
	Signature    solana.Signature
	Kind         string
	PriceScaled  *uint256.Int
	SOLPerToken  decimal.Decimal
	SolReserve   uint64
	TokenReserve uint64
	Graduated    bool
}

// PriceSeries prices every record from the reserves it carries. Records keep
// their order; nothing is re-simulated.
func PriceSeries(params curve.Params, records []Record) ([]PricePoint, error) {
	out := make([]PricePoint, 0, len(records))
	for _, rec := range records {
		sol, tok := rec.Event.Reserves()
		scaled, err := params.PriceScaled(sol, tok)
		if err != nil {
			return nil, fmt.Errorf("price %s#%d: %w", rec.Signature, rec.Index, err)
		}
		out = append(out, PricePoint{
			Slot:         rec.Slot,
			BlockTime:    rec.BlockTime,
			Signature:    rec.Signature,
			Kind:         string(rec.Event.Kind()),
			PriceScaled:  scaled,
			SOLPerToken:  params.PriceSOLPerToken(scaled),
			SolReserve:   sol,
			TokenReserve: tok,
			Graduated:    rec.Event.IsGraduated(),
		})
	}
	return out, nil
}

// Floats returns SOL-per-token prices as float64, for charts.
func Floats(points []PricePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i], _ = p.SOLPerToken.Float64()
	}
	return out
}
