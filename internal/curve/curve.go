// Package curve implements the constant-product bonding curve with virtual
// reserves. Every function is pure and works on exact unsigned integers;
// intermediate products are carried in 256-bit words and narrowed back to
// uint64 with an explicit overflow check.
//
// Rounding always favours the curve: the post-trade opposite reserve is
// rounded up, so the product (sol+virtualSol)*(token+virtualToken) never
// decreases across a trade. Payouts are capped at the real reserve on the
// paying side, which only grows the product further.
package curve

import (
	"github.com/holiman/uint256"

	"github.com/rovshanmuradov/launchpad/internal/errs"
)

// BuyQuote is the outcome of spending AmountInGross lamports on the curve.
type BuyQuote struct {
	AmountInGross   uint64
	Fee             uint64
	AmountInNet     uint64
	TokensOut       uint64
	NewSolReserve   uint64
	NewTokenReserve uint64
	Graduated       bool
}

// SellQuote is the outcome of returning TokensIn base units to the curve.
type SellQuote struct {
	TokensIn        uint64
	SolOutGross     uint64
	Fee             uint64
	SolOutNet       uint64
	NewSolReserve   uint64
	NewTokenReserve uint64
	Graduated       bool
}

// PriceScaled returns (sol+virtualSol)*Scale/(token+virtualToken), the
// lamports-per-base-unit price multiplied by Scale. Display only.
func (p Params) PriceScaled(solReserve, tokenReserve uint64) (*uint256.Int, error) {
	const op = "curve.PriceScaled"

	x := add(solReserve, p.VirtualSol)
	y := add(tokenReserve, p.VirtualToken)
	if y.IsZero() {
		return nil, errs.Errorf(op, errs.KindArithmeticOverflow, "zero token side")
	}

	num, overflow := new(uint256.Int).MulOverflow(x, uint256.NewInt(p.Scale))
	if overflow {
		return nil, errs.E(op, errs.KindArithmeticOverflow, nil)
	}
	return num.Div(num, y), nil
}

// QuoteBuy prices a buy of amountInGross lamports. The fee is deducted before
// the swap so it never enters the invariant.
func (p Params) QuoteBuy(solReserve, tokenReserve, amountInGross uint64, feeRateBps uint16) (BuyQuote, error) {
	const op = "curve.QuoteBuy"

	if amountInGross == 0 {
		return BuyQuote{}, errs.Errorf(op, errs.KindInvalidAmount, "zero lamports in")
	}
	fee, err := FeeAmount(amountInGross, feeRateBps)
	if err != nil {
		return BuyQuote{}, err
	}
	net := amountInGross - fee

	x := add(solReserve, p.VirtualSol)
	y := add(tokenReserve, p.VirtualToken)
	k := new(uint256.Int).Mul(x, y)

	// y1 = ceil(k / (x + net))
	y1 := ceilDiv(k, new(uint256.Int).Add(x, uint256.NewInt(net)))
	out := new(uint256.Int).Sub(y, y1)

	// The virtual side can promise more than custody holds. The payout is
	// capped at the real reserve while the full net input is kept, so a
	// large enough buy empties the curve and can still graduate it.
	if reserve := uint256.NewInt(tokenReserve); out.Gt(reserve) {
		out = reserve
	}
	if out.IsZero() {
		return BuyQuote{}, errs.Errorf(op, errs.KindInsufficientOutput,
			"%d lamports (net %d) buys zero tokens", amountInGross, net)
	}
	tokensOut := out.Uint64()

	newSol, err := narrow(op, add(solReserve, net))
	if err != nil {
		return BuyQuote{}, err
	}

	return BuyQuote{
		AmountInGross:   amountInGross,
		Fee:             fee,
		AmountInNet:     net,
		TokensOut:       tokensOut,
		NewSolReserve:   newSol,
		NewTokenReserve: tokenReserve - tokensOut,
		Graduated:       CheckGraduation(newSol, p.TargetSolReserve),
	}, nil
}

// QuoteSell prices returning tokensInGross base units. The whole token input
// is swapped; the fee is taken from the SOL proceeds.
func (p Params) QuoteSell(solReserve, tokenReserve, tokensInGross uint64, feeRateBps uint16) (SellQuote, error) {
	const op = "curve.QuoteSell"

	if tokensInGross == 0 {
		return SellQuote{}, errs.Errorf(op, errs.KindInvalidAmount, "zero tokens in")
	}
	if err := checkBps(op, feeRateBps); err != nil {
		return SellQuote{}, err
	}

	newTok, err := narrow(op, add(tokenReserve, tokensInGross))
	if err != nil {
		return SellQuote{}, err
	}

	x := add(solReserve, p.VirtualSol)
	y := add(tokenReserve, p.VirtualToken)
	k := new(uint256.Int).Mul(x, y)

	// x1 = ceil(k / (y + tokensIn))
	x1 := ceilDiv(k, new(uint256.Int).Add(y, uint256.NewInt(tokensInGross)))
	gross := new(uint256.Int).Sub(x, x1)

	// Only real lamports can leave; the virtual part is never paid out.
	if reserve := uint256.NewInt(solReserve); gross.Gt(reserve) {
		gross = reserve
	}
	if gross.IsZero() {
		return SellQuote{}, errs.Errorf(op, errs.KindInsufficientOutput,
			"%d tokens sell for zero lamports", tokensInGross)
	}
	solOutGross := gross.Uint64()

	fee, err := FeeAmount(solOutGross, feeRateBps)
	if err != nil {
		return SellQuote{}, err
	}
	newSol := solReserve - solOutGross

	return SellQuote{
		TokensIn:        tokensInGross,
		SolOutGross:     solOutGross,
		Fee:             fee,
		SolOutNet:       solOutGross - fee,
		NewSolReserve:   newSol,
		NewTokenReserve: newTok,
		Graduated:       CheckGraduation(newSol, p.TargetSolReserve),
	}, nil
}

// CheckGraduation reports whether a post-trade SOL reserve reached target.
func CheckGraduation(newSolReserve, targetSolReserve uint64) bool {
	return newSolReserve >= targetSolReserve
}

// FeeAmount returns floor(amount*bps/10000).
func FeeAmount(amount uint64, bps uint16) (uint64, error) {
	const op = "curve.FeeAmount"
	if err := checkBps(op, bps); err != nil {
		return 0, err
	}
	fee := new(uint256.Int).Mul(uint256.NewInt(amount), uint256.NewInt(uint64(bps)))
	fee.Div(fee, uint256.NewInt(BpsDenominator))
	return narrow(op, fee)
}

// SplitFee divides fee between creator and fee authority. The creator gets
// floor(fee*creatorShareBps/10000); the authority gets the rest, so the two
// shares always sum to fee.
func SplitFee(fee uint64, creatorShareBps uint16) (creatorShare, authorityShare uint64, err error) {
	creatorShare, err = FeeAmount(fee, creatorShareBps)
	if err != nil {
		return 0, 0, err
	}
	return creatorShare, fee - creatorShare, nil
}

// MinOut applies a slippage tolerance to an expected output:
// floor(expected*(10000-tol)/10000).
func MinOut(expected uint64, toleranceBps uint16) (uint64, error) {
	const op = "curve.MinOut"
	if err := checkBps(op, toleranceBps); err != nil {
		return 0, err
	}
	v := new(uint256.Int).Mul(uint256.NewInt(expected), uint256.NewInt(uint64(BpsDenominator-toleranceBps)))
	v.Div(v, uint256.NewInt(BpsDenominator))
	return narrow(op, v)
}

func checkBps(op string, bps uint16) error {
	if bps > BpsDenominator {
		return errs.Errorf(op, errs.KindInvalidFeeRate, "%d bps out of range", bps)
	}
	return nil
}

func add(a, b uint64) *uint256.Int {
	return new(uint256.Int).Add(uint256.NewInt(a), uint256.NewInt(b))
}

func ceilDiv(n, d *uint256.Int) *uint256.Int {
	q := new(uint256.Int).Div(n, d)
	if !new(uint256.Int).Mod(n, d).IsZero() {
		q.AddUint64(q, 1)
	}
	return q
}

func narrow(op string, v *uint256.Int) (uint64, error) {
	if !v.IsUint64() {
		return 0, errs.Errorf(op, errs.KindArithmeticOverflow, "%s does not fit in 64 bits", v.Dec())
	}
	return v.Uint64(), nil
}
