package program

import (
	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/launchpad/internal/launch"
)

// tokenAccount is an SPL token account reduced to what the program moves.
type tokenAccount struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
}

// ledger is the committed account state.
type ledger struct {
	lamports map[solana.PublicKey]uint64
	tokens   map[solana.PublicKey]tokenAccount
	launches map[solana.PublicKey]launch.State
}

func newLedger() *ledger {
	return &ledger{
		lamports: make(map[solana.PublicKey]uint64),
		tokens:   make(map[solana.PublicKey]tokenAccount),
		launches: make(map[solana.PublicKey]launch.State),
	}
}

// overlay stages writes of one transaction. Nothing reaches the ledger until
// commit, so a failed instruction leaves no partial state behind.
type overlay struct {
	base     *ledger
	lamports map[solana.PublicKey]uint64
	tokens   map[solana.PublicKey]tokenAccount
	launches map[solana.PublicKey]launch.State
	events   []launch.Event
}

func (l *ledger) begin() *overlay {
	return &overlay{
		base:     l,
		lamports: make(map[solana.PublicKey]uint64),
		tokens:   make(map[solana.PublicKey]tokenAccount),
		launches: make(map[solana.PublicKey]launch.State),
	}
}

func (o *overlay) balance(pk solana.PublicKey) uint64 {
	if v, ok := o.lamports[pk]; ok {
		return v
	}
	return o.base.lamports[pk]
}

func (o *overlay) setBalance(pk solana.PublicKey, v uint64) {
	o.lamports[pk] = v
}

func (o *overlay) tokenAccount(addr solana.PublicKey) (tokenAccount, bool) {
	if v, ok := o.tokens[addr]; ok {
		return v, true
	}
	v, ok := o.base.tokens[addr]
	return v, ok
}

func (o *overlay) setTokenAccount(addr solana.PublicKey, acc tokenAccount) {
	o.tokens[addr] = acc
}

func (o *overlay) launch(addr solana.PublicKey) (launch.State, bool) {
	if v, ok := o.launches[addr]; ok {
		return v, true
	}
	v, ok := o.base.launches[addr]
	return v, ok
}

func (o *overlay) setLaunch(addr solana.PublicKey, s launch.State) {
	o.launches[addr] = s
}

func (o *overlay) emit(ev launch.Event) {
	o.events = append(o.events, ev)
}

func (o *overlay) commit() {
	for k, v := range o.lamports {
		o.base.lamports[k] = v
	}
	for k, v := range o.tokens {
		o.base.tokens[k] = v
	}
	for k, v := range o.launches {
		o.base.launches[k] = v
	}
}
