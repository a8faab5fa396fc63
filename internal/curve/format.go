package curve

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

const (
	SolDecimals   = 9
	TokenDecimals = 6
)

var hundred = decimal.NewFromInt(100)

// LamportsToSOL converts lamports to SOL.
func LamportsToSOL(lamports uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -SolDecimals)
}

// SOLToLamports converts a SOL amount to lamports, truncating dust.
func SOLToLamports(sol decimal.Decimal) uint64 {
	if !sol.IsPositive() {
		return 0
	}
	return sol.Shift(SolDecimals).Truncate(0).BigInt().Uint64()
}

// BaseUnitsToTokens converts token base units to whole tokens.
func BaseUnitsToTokens(units uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), -TokenDecimals)
}

// TokensToBaseUnits converts whole tokens to base units, truncating dust.
func TokensToBaseUnits(tokens decimal.Decimal) uint64 {
	if !tokens.IsPositive() {
		return 0
	}
	return tokens.Shift(TokenDecimals).Truncate(0).BigInt().Uint64()
}

// PriceSOLPerToken turns a PriceScaled value into SOL per whole token.
func (p Params) PriceSOLPerToken(scaled *uint256.Int) decimal.Decimal {
	if scaled == nil || p.Scale == 0 {
		return decimal.Zero
	}
	// lamports/base unit -> SOL/token: x / scale / 10^9 * 10^6
	v := decimal.NewFromBigInt(scaled.ToBig(), TokenDecimals-SolDecimals)
	return v.Div(decimal.NewFromBigInt(new(big.Int).SetUint64(p.Scale), 0))
}

// Progress returns the bonding progress towards graduation in percent,
// capped at 100.
func (p Params) Progress(solReserve uint64) decimal.Decimal {
	if p.TargetSolReserve == 0 {
		return hundred
	}
	pct := decimal.NewFromBigInt(new(big.Int).SetUint64(solReserve), 0).
		Mul(hundred).
		Div(decimal.NewFromBigInt(new(big.Int).SetUint64(p.TargetSolReserve), 0))
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}
