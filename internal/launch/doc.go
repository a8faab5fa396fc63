// Package launch describes the on-ledger shape of the launchpad program: the
// Launch account layout, address derivation, instruction encoding and the
// events the program emits.
//
// Everything here is pure encode/decode; nothing talks to the network.
//
// Files:
//   - accounts.go: launch PDA and custody ATA derivation.
//   - state.go: Launch account layout and decoding.
//   - instructions.go: CreateLaunch/Buy/Sell builders and parsing.
//   - events.go: LaunchCreated/Bought/Sold events and discriminator dispatch.
//   - codes.go: program error codes and their mapping to errs kinds.
//
// Usage example:
//
//	addrs, err := launch.Derive(programID, mint)
//	if err != nil {
//	    return err
//	}
//	ix, err := launch.NewBuyInstruction(programID, launch.TradeAccounts{
//	    User:         user,
//	    FeeAuthority: state.FeeAuthority,
//	    Creator:      state.Creator,
//	    Launch:       addrs.Launch,
//	    Mint:         mint,
//	    Custody:      addrs.Custody,
//	}, launch.TradeArgs{AmountIn: lamports, MinAmountOut: minTokens})
package launch
