package curve

import (
	"fmt"

	"github.com/rovshanmuradov/launchpad/internal/errs"
)

const (
	// BpsDenominator is the basis-point denominator used for every fee.
	BpsDenominator = 10_000

	DefaultVirtualSol       uint64 = 100_000_000               // 0.1 SOL
	DefaultVirtualToken     uint64 = 1_000_000_000_000_000     // 1B tokens @ 6 decimals
	DefaultTargetSolReserve uint64 = 100_000_000_000           // 100 SOL
	DefaultScale            uint64 = 1_000_000_000_000         // 10^12
	DefaultMaxFeeBps        uint16 = BpsDenominator
)

// Params holds the protocol-wide curve constants. Virtual reserves are added
// to the real reserves of every launch and are never stored per launch.
type Params struct {
	VirtualSol       uint64 `mapstructure:"virtual_sol"`
	VirtualToken     uint64 `mapstructure:"virtual_token"`
	TargetSolReserve uint64 `mapstructure:"target_sol_reserve"`
	Scale            uint64 `mapstructure:"scale"`
	MaxFeeBps        uint16 `mapstructure:"max_fee_bps"`
}

// DefaultParams returns the mainnet constants.
func DefaultParams() Params {
	return Params{
		VirtualSol:       DefaultVirtualSol,
		VirtualToken:     DefaultVirtualToken,
		TargetSolReserve: DefaultTargetSolReserve,
		Scale:            DefaultScale,
		MaxFeeBps:        DefaultMaxFeeBps,
	}
}

// Validate rejects constants under which price would be undefined.
func (p Params) Validate() error {
	switch {
	case p.VirtualSol == 0:
		return fmt.Errorf("curve: virtual sol must be positive")
	case p.VirtualToken == 0:
		return fmt.Errorf("curve: virtual token must be positive")
	case p.TargetSolReserve == 0:
		return fmt.Errorf("curve: target sol reserve must be positive")
	case p.Scale == 0:
		return fmt.Errorf("curve: scale must be positive")
	case p.MaxFeeBps > BpsDenominator:
		return fmt.Errorf("curve: max fee %d bps exceeds %d", p.MaxFeeBps, BpsDenominator)
	}
	return nil
}

// CheckFeeRate fails with InvalidFeeRate when bps is above the configured cap.
func (p Params) CheckFeeRate(bps uint16) error {
	if bps > p.MaxFeeBps || bps > BpsDenominator {
		return errs.Errorf("curve.CheckFeeRate", errs.KindInvalidFeeRate,
			"%d bps exceeds maximum %d", bps, p.MaxFeeBps)
	}
	return nil
}
