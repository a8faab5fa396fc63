package program

import (
	"math/bits"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/launchpad/internal/curve"
	"github.com/rovshanmuradov/launchpad/internal/errs"
	"github.com/rovshanmuradov/launchpad/internal/launch"
)

type signerSet map[solana.PublicKey]struct{}

func (s signerSet) require(op string, pk solana.PublicKey, role string) error {
	if _, ok := s[pk]; !ok {
		return &SignatureError{Op: op, Account: pk, Role: role}
	}
	return nil
}

func (e *Engine) createLaunch(tx *overlay, signers signerSet, accounts launch.CreateLaunchAccounts, args launch.CreateLaunchArgs) error {
	const op = "program.CreateLaunch"

	if err := signers.require(op, accounts.Creator, "creator"); err != nil {
		return err
	}
	if err := signers.require(op, accounts.Mint, "mint"); err != nil {
		return err
	}
	if err := e.cfg.Curve.CheckFeeRate(args.FeeRateBps); err != nil {
		return errs.E(op, errs.KindInvalidFeeRate, err)
	}
	if args.InitialTokenReserve == 0 {
		return errs.Errorf(op, errs.KindInvalidAmount, "initial token reserve is zero")
	}

	addrs, err := launch.Derive(e.cfg.ProgramID, accounts.Mint)
	if err != nil {
		return err
	}
	if !addrs.Launch.Equals(accounts.Launch) || !addrs.Custody.Equals(accounts.Custody) {
		return errs.Errorf(op, errs.KindInvalidAccount, "launch or custody address does not match mint %s", accounts.Mint)
	}
	if _, exists := tx.launch(addrs.Launch); exists {
		return errs.Errorf(op, errs.KindAlreadyExists, "account %s already in use", addrs.Launch)
	}

	creatorATA, err := launch.DeriveUserTokenAccount(accounts.Creator, accounts.Mint)
	if err != nil {
		return err
	}
	if err := moveTokens(op, tx, creatorATA, addrs.Custody, accounts.Mint, addrs.Launch, args.InitialTokenReserve); err != nil {
		return err
	}

	state := launch.State{
		Bump:         addrs.Bump,
		Mint:         accounts.Mint,
		Custody:      addrs.Custody,
		FeeAuthority: accounts.FeeAuthority,
		Creator:      accounts.Creator,
		FeeRateBps:   args.FeeRateBps,
		Graduated:    false,
		SolReserve:   0,
		TokenReserve: args.InitialTokenReserve,
	}
	tx.setLaunch(addrs.Launch, state)

	tx.emit(&launch.Created{
		Launch:       addrs.Launch,
		Mint:         state.Mint,
		Custody:      state.Custody,
		Creator:      state.Creator,
		FeeAuthority: state.FeeAuthority,
		FeeRateBps:   state.FeeRateBps,
		TokenReserve: state.TokenReserve,
		SolReserve:   state.SolReserve,
	})
	return nil
}

func (e *Engine) buy(tx *overlay, signers signerSet, accounts launch.TradeAccounts, args launch.TradeArgs) error {
	const op = "program.Buy"

	if err := signers.require(op, accounts.User, "user"); err != nil {
		return err
	}
	state, err := e.tradableLaunch(op, tx, accounts)
	if err != nil {
		return err
	}
	if args.AmountIn == 0 {
		return errs.Errorf(op, errs.KindInvalidAmount, "zero lamports in")
	}
	if have := tx.balance(accounts.User); have < args.AmountIn {
		return errs.Errorf(op, errs.KindInsufficientBalance, "insufficient lamports %d, need %d", have, args.AmountIn)
	}

	q, err := e.cfg.Curve.QuoteBuy(state.SolReserve, state.TokenReserve, args.AmountIn, state.FeeRateBps)
	if err != nil {
		return err
	}
	if q.TokensOut < args.MinAmountOut {
		return errs.Errorf(op, errs.KindSlippageExceeded, "tokens out %d below minimum %d", q.TokensOut, args.MinAmountOut)
	}

	// lamports: user -> fee recipients + launch
	tx.setBalance(accounts.User, tx.balance(accounts.User)-args.AmountIn)
	if err := e.payFee(op, tx, state, q.Fee); err != nil {
		return err
	}
	if err := credit(op, tx, accounts.Launch, q.AmountInNet); err != nil {
		return err
	}

	// tokens: custody -> user
	if err := moveTokens(op, tx, state.Custody, accounts.UserTokenAccount, state.Mint, accounts.User, q.TokensOut); err != nil {
		return err
	}

	state.SolReserve = q.NewSolReserve
	state.TokenReserve = q.NewTokenReserve
	state.Graduated = state.Graduated || q.Graduated
	tx.setLaunch(accounts.Launch, state)

	tx.emit(&launch.Bought{
		Launch:       accounts.Launch,
		User:         accounts.User,
		SolIn:        args.AmountIn,
		FeeLamports:  q.Fee,
		TokensOut:    q.TokensOut,
		SolReserve:   state.SolReserve,
		TokenReserve: state.TokenReserve,
		Graduated:    state.Graduated,
	})
	return nil
}

func (e *Engine) sell(tx *overlay, signers signerSet, accounts launch.TradeAccounts, args launch.TradeArgs) error {
	const op = "program.Sell"

	if err := signers.require(op, accounts.User, "user"); err != nil {
		return err
	}
	state, err := e.tradableLaunch(op, tx, accounts)
	if err != nil {
		return err
	}
	if args.AmountIn == 0 {
		return errs.Errorf(op, errs.KindInvalidAmount, "zero tokens in")
	}
	if acc, _ := tx.tokenAccount(accounts.UserTokenAccount); acc.Amount < args.AmountIn {
		return errs.Errorf(op, errs.KindInsufficientBalance, "insufficient tokens %d, need %d", acc.Amount, args.AmountIn)
	}

	q, err := e.cfg.Curve.QuoteSell(state.SolReserve, state.TokenReserve, args.AmountIn, state.FeeRateBps)
	if err != nil {
		return err
	}
	if q.SolOutNet < args.MinAmountOut {
		return errs.Errorf(op, errs.KindSlippageExceeded, "lamports out %d below minimum %d", q.SolOutNet, args.MinAmountOut)
	}

	// tokens: user -> custody
	if err := moveTokens(op, tx, accounts.UserTokenAccount, state.Custody, state.Mint, accounts.Launch, args.AmountIn); err != nil {
		return err
	}

	// lamports: launch -> user + fee recipients
	if have := tx.balance(accounts.Launch); have < q.SolOutGross {
		return errs.Errorf(op, errs.KindInsufficientOutput, "launch holds %d lamports, need %d", have, q.SolOutGross)
	}
	tx.setBalance(accounts.Launch, tx.balance(accounts.Launch)-q.SolOutGross)
	if err := credit(op, tx, accounts.User, q.SolOutNet); err != nil {
		return err
	}
	if err := e.payFee(op, tx, state, q.Fee); err != nil {
		return err
	}

	state.SolReserve = q.NewSolReserve
	state.TokenReserve = q.NewTokenReserve
	state.Graduated = state.Graduated || q.Graduated
	tx.setLaunch(accounts.Launch, state)

	tx.emit(&launch.Sold{
		Launch:       accounts.Launch,
		User:         accounts.User,
		TokensIn:     args.AmountIn,
		SolOutGross:  q.SolOutGross,
		FeeLamports:  q.Fee,
		SolOutNet:    q.SolOutNet,
		SolReserve:   state.SolReserve,
		TokenReserve: state.TokenReserve,
		Graduated:    state.Graduated,
	})
	return nil
}

// tradableLaunch loads the launch and checks the account constraints shared by
// buy and sell.
func (e *Engine) tradableLaunch(op string, tx *overlay, accounts launch.TradeAccounts) (launch.State, error) {
	state, ok := tx.launch(accounts.Launch)
	if !ok {
		return launch.State{}, errs.Errorf(op, errs.KindNotFound, "no launch at %s", accounts.Launch)
	}
	switch {
	case !state.Mint.Equals(accounts.Mint):
		return launch.State{}, errs.Errorf(op, errs.KindInvalidAccount, "launch %s does not trade mint %s", accounts.Launch, accounts.Mint)
	case !state.Custody.Equals(accounts.Custody):
		return launch.State{}, errs.Errorf(op, errs.KindInvalidAccount, "custody %s does not belong to launch", accounts.Custody)
	case !state.FeeAuthority.Equals(accounts.FeeAuthority):
		return launch.State{}, errs.Errorf(op, errs.KindInvalidAccount, "fee authority %s does not belong to launch", accounts.FeeAuthority)
	case !accounts.Creator.IsZero() && !state.Creator.Equals(accounts.Creator):
		return launch.State{}, errs.Errorf(op, errs.KindInvalidAccount, "creator %s does not belong to launch", accounts.Creator)
	}
	ata, err := launch.DeriveUserTokenAccount(accounts.User, accounts.Mint)
	if err != nil {
		return launch.State{}, err
	}
	if !ata.Equals(accounts.UserTokenAccount) {
		return launch.State{}, errs.Errorf(op, errs.KindInvalidAccount, "token account %s is not the user's associated account", accounts.UserTokenAccount)
	}
	if state.Graduated {
		return launch.State{}, errs.Errorf(op, errs.KindLaunchGraduated, "launch %s graduated", accounts.Launch)
	}
	return state, nil
}

// payFee distributes the whole fee in the same step: the creator share first,
// the remainder to the fee authority.
func (e *Engine) payFee(op string, tx *overlay, state launch.State, fee uint64) error {
	creatorShare, authorityShare, err := curve.SplitFee(fee, e.cfg.CreatorShareBps)
	if err != nil {
		return err
	}
	if err := credit(op, tx, state.Creator, creatorShare); err != nil {
		return err
	}
	return credit(op, tx, state.FeeAuthority, authorityShare)
}

func credit(op string, tx *overlay, pk solana.PublicKey, amount uint64) error {
	sum, carry := bits.Add64(tx.balance(pk), amount, 0)
	if carry != 0 {
		return errs.Errorf(op, errs.KindArithmeticOverflow, "balance of %s overflows", pk)
	}
	tx.setBalance(pk, sum)
	return nil
}

// moveTokens transfers amount of mint between token accounts, opening the
// destination (owned by owner) when it does not exist yet.
func moveTokens(op string, tx *overlay, from, to, mint, owner solana.PublicKey, amount uint64) error {
	src, ok := tx.tokenAccount(from)
	if !ok || src.Amount < amount {
		return errs.Errorf(op, errs.KindInsufficientBalance, "insufficient tokens %d, need %d", src.Amount, amount)
	}
	if !src.Mint.Equals(mint) {
		return errs.Errorf(op, errs.KindInvalidAccount, "token account %s holds mint %s", from, src.Mint)
	}

	dst, ok := tx.tokenAccount(to)
	if !ok {
		dst = tokenAccount{Mint: mint, Owner: owner}
	} else if !dst.Mint.Equals(mint) {
		return errs.Errorf(op, errs.KindInvalidAccount, "token account %s holds mint %s", to, dst.Mint)
	}
	sum, carry := bits.Add64(dst.Amount, amount, 0)
	if carry != 0 {
		return errs.Errorf(op, errs.KindArithmeticOverflow, "token account %s overflows", to)
	}

	src.Amount -= amount
	dst.Amount = sum
	tx.setTokenAccount(from, src)
	tx.setTokenAccount(to, dst)
	return nil
}
