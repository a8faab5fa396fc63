// Package program is the reference implementation of the launchpad program: a
// deterministic ledger that executes CreateLaunch, Buy and Sell atomically and
// records transactions, logs and events the way a validator would report them.
//
// The engine serves two purposes. Its direct operations (CreateLaunch, Buy,
// Sell) define the protocol semantics, and it implements blockchain.Ledger so
// the client and the event log reader can run against it without a cluster.
package program

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
	"slices"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/blockchain"
	"github.com/rovshanmuradov/launchpad/internal/curve"
	"github.com/rovshanmuradov/launchpad/internal/errs"
	"github.com/rovshanmuradov/launchpad/internal/launch"
	"github.com/rovshanmuradov/launchpad/internal/utils/metrics"
)

// recentBlockhashes is how many blockhashes stay valid for submission.
const recentBlockhashes = 150

var _ blockchain.Ledger = (*Engine)(nil)

// Config fixes the protocol constants for one engine.
type Config struct {
	ProgramID solana.PublicKey
	Curve     curve.Params
	// CreatorShareBps is the part of every fee paid to the launch creator.
	// The rest goes to the fee authority.
	CreatorShareBps uint16
}

// DefaultConfig returns the localnet program with default curve constants.
func DefaultConfig() Config {
	return Config{
		ProgramID: launch.DefaultProgramID,
		Curve:     curve.DefaultParams(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.ProgramID.IsZero() {
		return errors.New("program id is required")
	}
	if err := c.Curve.Validate(); err != nil {
		return err
	}
	if c.CreatorShareBps > curve.BpsDenominator {
		return errs.Errorf("program.Config", errs.KindInvalidFeeRate, "creator share %d bps exceeds %d", c.CreatorShareBps, curve.BpsDenominator)
	}
	return nil
}

// EventRecord is one entry of a launch's event log.
type EventRecord struct {
	Seq       uint64
	Slot      uint64
	Signature solana.Signature
	Event     launch.Event
}

// Receipt describes a committed transaction.
type Receipt struct {
	Signature solana.Signature
	Slot      uint64
	Events    []launch.Event
}

// Engine executes program instructions against an in-memory ledger. All
// methods are safe for concurrent use; transactions apply in a total order.
type Engine struct {
	mu      sync.Mutex
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.Collector
	now     func() time.Time

	state       *ledger
	slot        uint64
	seq         uint64
	blockhashes []solana.Hash
	txs         map[solana.Signature]*blockchain.TransactionRecord
	history     map[solana.PublicKey][]solana.Signature
	events      map[solana.PublicKey][]EventRecord
}

// NewEngine creates an engine. collector may be nil.
func NewEngine(cfg Config, logger *zap.Logger, collector *metrics.Collector) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid program config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:     cfg,
		logger:  logger.Named("program"),
		metrics: collector,
		now:     time.Now,
		state:   newLedger(),
		txs:     make(map[solana.Signature]*blockchain.TransactionRecord),
		history: make(map[solana.PublicKey][]solana.Signature),
		events:  make(map[solana.PublicKey][]EventRecord),
	}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// CreateLaunchRequest are the inputs of CreateLaunch.
type CreateLaunchRequest struct {
	Creator             solana.PublicKey
	FeeAuthority        solana.PublicKey
	Mint                solana.PublicKey
	FeeRateBps          uint16
	InitialTokenReserve uint64
}

// TradeRequest are the inputs of Buy and Sell. AmountIn is lamports for a buy
// and token base units for a sell.
type TradeRequest struct {
	User         solana.PublicKey
	Mint         solana.PublicKey
	AmountIn     uint64
	MinAmountOut uint64
}

// CreateLaunch opens a launch for mint on behalf of the creator. The caller is
// trusted to hold the creator and mint keys.
func (e *Engine) CreateLaunch(ctx context.Context, req CreateLaunchRequest) (*Receipt, error) {
	addrs, err := launch.Derive(e.cfg.ProgramID, req.Mint)
	if err != nil {
		return nil, err
	}
	ix := launch.NewCreateLaunchInstruction(e.cfg.ProgramID, launch.CreateLaunchAccounts{
		Creator:      req.Creator,
		FeeAuthority: req.FeeAuthority,
		Launch:       addrs.Launch,
		Mint:         req.Mint,
		Custody:      addrs.Custody,
	}, launch.CreateLaunchArgs{
		FeeRateBps:          req.FeeRateBps,
		InitialTokenReserve: req.InitialTokenReserve,
	})

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runTrusted(ctx, req.Creator, ix, req.Creator, req.Mint)
}

// Buy spends req.AmountIn lamports of req.User on the launch of req.Mint.
func (e *Engine) Buy(ctx context.Context, req TradeRequest) (*Receipt, error) {
	return e.trade(ctx, "program.Buy", launch.NewBuyInstruction, req)
}

// Sell returns req.AmountIn tokens of req.User to the launch of req.Mint.
func (e *Engine) Sell(ctx context.Context, req TradeRequest) (*Receipt, error) {
	return e.trade(ctx, "program.Sell", launch.NewSellInstruction, req)
}

type tradeBuilder func(solana.PublicKey, launch.TradeAccounts, launch.TradeArgs) (solana.Instruction, error)

func (e *Engine) trade(ctx context.Context, op string, build tradeBuilder, req TradeRequest) (*Receipt, error) {
	launchAddr, _, err := launch.DeriveLaunchAddress(e.cfg.ProgramID, req.Mint)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	state, ok := e.state.launches[launchAddr]
	if !ok {
		return nil, errs.Errorf(op, errs.KindNotFound, "no launch for mint %s", req.Mint)
	}
	ix, err := build(e.cfg.ProgramID, launch.TradeAccounts{
		User:         req.User,
		FeeAuthority: state.FeeAuthority,
		Creator:      state.Creator,
		Launch:       launchAddr,
		Mint:         req.Mint,
		Custody:      state.Custody,
	}, launch.TradeArgs{AmountIn: req.AmountIn, MinAmountOut: req.MinAmountOut})
	if err != nil {
		return nil, err
	}
	return e.runTrusted(ctx, req.User, ix, req.User)
}

// runTrusted executes ix with the given accounts treated as signers. The
// transaction id is a digest of the message and the slot. Callers hold e.mu.
func (e *Engine) runTrusted(ctx context.Context, payer solana.PublicKey, ix solana.Instruction, signers ...solana.PublicKey) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, e.blockhashAt(e.slot), solana.TransactionPayer(payer))
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	var slot [8]byte
	binary.LittleEndian.PutUint64(slot[:], e.slot)
	sig := solana.Signature(sha512.Sum512(append(msg, slot[:]...)))

	set := make(signerSet, len(signers))
	for _, pk := range signers {
		set[pk] = struct{}{}
	}
	return e.execute(tx, sig, set)
}

// Submit executes a signed transaction, the way a validator would. Every
// signature is verified and the recent blockhash must still be valid. A
// transaction that fails in the program is recorded and returned as *TxError
// together with its signature.
func (e *Engine) Submit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if err := ctx.Err(); err != nil {
		return solana.Signature{}, err
	}
	if tx == nil || len(tx.Signatures) == 0 {
		return solana.Signature{}, errors.New("transaction is not signed")
	}
	if err := tx.VerifySignatures(); err != nil {
		return solana.Signature{}, fmt.Errorf("signature verification failed: %w", err)
	}
	sig := tx.Signatures[0]

	e.mu.Lock()
	defer e.mu.Unlock()

	if !slices.Contains(e.blockhashes, tx.Message.RecentBlockhash) {
		return solana.Signature{}, fmt.Errorf("blockhash not found: %s", tx.Message.RecentBlockhash)
	}
	if _, dup := e.txs[sig]; dup {
		return sig, fmt.Errorf("transaction %s has already been processed", sig)
	}

	signers := make(signerSet)
	for _, pk := range tx.Message.Signers() {
		signers[pk] = struct{}{}
	}
	if _, err := e.execute(tx, sig, signers); err != nil {
		return sig, err
	}
	return sig, nil
}

// execute runs every instruction of tx on one overlay and commits only when
// all of them succeed. Callers hold e.mu.
func (e *Engine) execute(tx *solana.Transaction, sig solana.Signature, signers signerSet) (*Receipt, error) {
	start := time.Now()

	ixs, err := instructionsOf(tx)
	if err != nil {
		return nil, err
	}

	e.slot++
	slot := e.slot
	staged := e.state.begin()
	logs := &programLog{}
	opName := launch.InstructionUnknown

	for i, ix := range ixs {
		programID := ix.ProgramID()
		logs.invoke(programID, 1)

		if !programID.Equals(e.cfg.ProgramID) {
			err := fmt.Errorf("program %s is not supported by this ledger", programID)
			logs.failed(programID, launch.InstructionUnknown, err)
			return nil, e.fail(tx, sig, slot, i, opName, err, logs, start)
		}

		parsed, err := launch.ParseInstruction(e.cfg.ProgramID, ix)
		if err != nil {
			logs.failed(programID, launch.InstructionUnknown, err)
			return nil, e.fail(tx, sig, slot, i, opName, err, logs, start)
		}
		if opName == launch.InstructionUnknown {
			opName = parsed.Kind
		}
		logs.msg("Instruction: %s", instructionName(parsed.Kind))

		emitted := len(staged.events)
		if err := e.apply(staged, signers, parsed); err != nil {
			logs.failed(programID, parsed.Kind, err)
			return nil, e.fail(tx, sig, slot, i, opName, err, logs, start)
		}

		for _, call := range builtinCalls(parsed.Kind) {
			logs.cpi(call.program, call.instruction)
		}
		for _, ev := range staged.events[emitted:] {
			payload, err := launch.EncodeEvent(ev)
			if err != nil {
				return nil, e.fail(tx, sig, slot, i, opName, err, logs, start)
			}
			logs.data(payload)
		}
		logs.consumed(programID, computeUnits[parsed.Kind])
		logs.success(programID)
	}

	staged.commit()
	blockTime := e.now()
	e.record(tx, &blockchain.TransactionRecord{
		Signature: sig,
		Slot:      slot,
		BlockTime: blockTime,
		Logs:      logs.lines,
	})

	for _, ev := range staged.events {
		e.seq++
		addr := ev.LaunchAddress()
		e.events[addr] = append(e.events[addr], EventRecord{
			Seq:       e.seq,
			Slot:      slot,
			Signature: sig,
			Event:     ev,
		})
		sol, tok := ev.Reserves()
		e.metrics.UpdateReserves(addr.String(), sol, tok)
	}

	e.metrics.RecordOperation(opName.String(), time.Since(start), nil)
	e.logger.Debug("Transaction committed",
		zap.String("signature", sig.String()),
		zap.Uint64("slot", slot),
		zap.String("op", opName.String()),
		zap.Int("events", len(staged.events)))

	return &Receipt{Signature: sig, Slot: slot, Events: staged.events}, nil
}

func (e *Engine) apply(tx *overlay, signers signerSet, parsed *launch.ParsedInstruction) error {
	switch parsed.Kind {
	case launch.InstructionCreateLaunch:
		return e.createLaunch(tx, signers, parsed.CreateAccounts, parsed.Create)
	case launch.InstructionBuy:
		return e.buy(tx, signers, parsed.TradeAccounts, parsed.Trade)
	case launch.InstructionSell:
		return e.sell(tx, signers, parsed.TradeAccounts, parsed.Trade)
	default:
		return fmt.Errorf("unsupported instruction %s", parsed.Kind)
	}
}

// fail records a failed transaction. Staged writes are dropped with the
// overlay.
func (e *Engine) fail(tx *solana.Transaction, sig solana.Signature, slot uint64, index int,
	opName launch.InstructionKind, err error, logs *programLog, start time.Time) error {
	txErr := &TxError{Signature: sig, Instruction: index, Err: err, Logs: logs.lines}
	e.record(tx, &blockchain.TransactionRecord{
		Signature: sig,
		Slot:      slot,
		BlockTime: e.now(),
		Failed:    true,
		Err:       txErr.Error(),
		Logs:      logs.lines,
	})

	e.metrics.RecordOperation(opName.String(), time.Since(start), err)
	e.logger.Debug("Transaction failed",
		zap.String("signature", sig.String()),
		zap.Uint64("slot", slot),
		zap.String("op", opName.String()),
		zap.String("kind", errs.KindOf(err).String()),
		zap.Error(err))
	return txErr
}

// record stores the transaction and indexes it under every account it names.
func (e *Engine) record(tx *solana.Transaction, rec *blockchain.TransactionRecord) {
	e.txs[rec.Signature] = rec
	seen := make(map[solana.PublicKey]struct{}, len(tx.Message.AccountKeys))
	for _, key := range tx.Message.AccountKeys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		e.history[key] = append(e.history[key], rec.Signature)
	}
}

// instructionsOf turns the compiled message back into instructions.
func instructionsOf(tx *solana.Transaction) ([]solana.Instruction, error) {
	metas, err := tx.Message.AccountMetaList()
	if err != nil {
		return nil, fmt.Errorf("resolve accounts: %w", err)
	}
	out := make([]solana.Instruction, 0, len(tx.Message.Instructions))
	for i, ci := range tx.Message.Instructions {
		programID, err := tx.Message.ResolveProgramIDIndex(ci.ProgramIDIndex)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		accounts := make(solana.AccountMetaSlice, 0, len(ci.Accounts))
		for _, idx := range ci.Accounts {
			if int(idx) >= len(metas) {
				return nil, fmt.Errorf("instruction %d: account index %d out of range", i, idx)
			}
			accounts = append(accounts, metas[idx])
		}
		out = append(out, solana.NewInstruction(programID, accounts, ci.Data))
	}
	return out, nil
}

// LatestBlockhash issues a blockhash for the next transaction.
func (e *Engine) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	if err := ctx.Err(); err != nil {
		return solana.Hash{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.blockhashAt(e.slot), nil
}

// blockhashAt derives the blockhash of slot and keeps it valid for the next
// recentBlockhashes issues. Callers hold e.mu.
func (e *Engine) blockhashAt(slot uint64) solana.Hash {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], slot)
	h := solana.Hash(sha256.Sum256(append([]byte("launchpad-blockhash"), buf[:]...)))
	if !slices.Contains(e.blockhashes, h) {
		e.blockhashes = append(e.blockhashes, h)
		if len(e.blockhashes) > recentBlockhashes {
			e.blockhashes = e.blockhashes[len(e.blockhashes)-recentBlockhashes:]
		}
	}
	return h
}

// Slot returns the slot of the last executed transaction.
func (e *Engine) Slot() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.slot
}

// Airdrop credits lamports to an account.
func (e *Engine) Airdrop(pk solana.PublicKey, lamports uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	sum, carry := bits.Add64(e.state.lamports[pk], lamports, 0)
	if carry != 0 {
		return errs.Errorf("program.Airdrop", errs.KindArithmeticOverflow, "balance of %s overflows", pk)
	}
	e.state.lamports[pk] = sum
	return nil
}

// MintTo credits amount of mint to the owner's associated token account.
// Mint accounts themselves are not modelled.
func (e *Engine) MintTo(mint, owner solana.PublicKey, amount uint64) error {
	ata, err := launch.DeriveUserTokenAccount(owner, mint)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	acc, ok := e.state.tokens[ata]
	if !ok {
		acc = tokenAccount{Mint: mint, Owner: owner}
	}
	sum, carry := bits.Add64(acc.Amount, amount, 0)
	if carry != 0 {
		return errs.Errorf("program.MintTo", errs.KindArithmeticOverflow, "token account %s overflows", ata)
	}
	acc.Amount = sum
	e.state.tokens[ata] = acc
	return nil
}

// Balance returns the lamports held by pk.
func (e *Engine) Balance(pk solana.PublicKey) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.lamports[pk]
}

// TokenBalance returns the owner's balance of mint in its associated account.
func (e *Engine) TokenBalance(mint, owner solana.PublicKey) uint64 {
	ata, err := launch.DeriveUserTokenAccount(owner, mint)
	if err != nil {
		return 0
	}
	return e.TokenAccountBalance(ata)
}

// TokenAccountBalance returns the balance of a token account by address.
func (e *Engine) TokenAccountBalance(addr solana.PublicKey) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.tokens[addr].Amount
}

// Launch returns the launch of mint.
func (e *Engine) Launch(mint solana.PublicKey) (launch.State, error) {
	addr, _, err := launch.DeriveLaunchAddress(e.cfg.ProgramID, mint)
	if err != nil {
		return launch.State{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	state, ok := e.state.launches[addr]
	if !ok {
		return launch.State{}, errs.Errorf("program.Launch", errs.KindNotFound, "no launch for mint %s", mint)
	}
	return state, nil
}

// Events returns the event log of a launch in sequence order.
func (e *Engine) Events(launchAddr solana.PublicKey) []EventRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.events[launchAddr])
}

// AccountData returns the encoded launch account at addr.
func (e *Engine) AccountData(ctx context.Context, addr solana.PublicKey) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	state, ok := e.state.launches[addr]
	e.mu.Unlock()
	if !ok {
		return nil, errs.Errorf("program.AccountData", errs.KindNotFound, "account %s not found", addr)
	}
	return state.Encode()
}

// SignatureStatus reports whether sig was executed and how it ended.
func (e *Engine) SignatureStatus(ctx context.Context, sig solana.Signature) (blockchain.SignatureStatus, error) {
	if err := ctx.Err(); err != nil {
		return blockchain.SignatureStatus{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.txs[sig]
	if !ok {
		return blockchain.SignatureStatus{}, nil
	}
	return blockchain.SignatureStatus{
		Found:     true,
		Slot:      rec.Slot,
		Confirmed: true,
		Err:       rec.Err,
	}, nil
}

// Lamports reads the balance of addr through the ledger interface.
func (e *Engine) Lamports(ctx context.Context, addr solana.PublicKey) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return e.Balance(addr), nil
}

// TokenAmount reads a token account through the ledger interface.
func (e *Engine) TokenAmount(ctx context.Context, account solana.PublicKey) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	acc, ok := e.state.tokens[account]
	if !ok {
		return 0, errs.Errorf("program.TokenAmount", errs.KindNotFound, "token account %s does not exist", account)
	}
	return acc.Amount, nil
}

// SignaturesForAddress pages the history of addr from newest to oldest.
func (e *Engine) SignaturesForAddress(ctx context.Context, addr solana.PublicKey, before solana.Signature, limit int) ([]blockchain.SignatureInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	sigs := e.history[addr]
	end := len(sigs)
	if !before.IsZero() {
		idx := slices.Index(sigs, before)
		if idx < 0 {
			return nil, errs.Errorf("program.SignaturesForAddress", errs.KindNotFound, "signature %s not in history of %s", before, addr)
		}
		end = idx
	}

	out := make([]blockchain.SignatureInfo, 0, min(end, max(limit, 0)))
	for i := end - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		rec := e.txs[sigs[i]]
		out = append(out, blockchain.SignatureInfo{
			Signature: rec.Signature,
			Slot:      rec.Slot,
			BlockTime: rec.BlockTime,
			Failed:    rec.Failed,
		})
	}
	return out, nil
}

// Transaction returns the recorded transaction with its logs.
func (e *Engine) Transaction(ctx context.Context, sig solana.Signature) (*blockchain.TransactionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.txs[sig]
	if !ok {
		return nil, errs.Errorf("program.Transaction", errs.KindNotFound, "transaction %s not found", sig)
	}
	cp := *rec
	cp.Logs = slices.Clone(rec.Logs)
	return &cp, nil
}
