package ui

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// Tea message types for UI communication

// RefreshMsg asks the viewer to poll. Seq drops ticks made stale by a
// manual refresh.
type RefreshMsg struct {
	Seq       int
	Timestamp time.Time
}

// SnapshotMsg carries a completed poll.
type SnapshotMsg struct {
	Snapshot *Snapshot
}

// ErrorMsg carries a failed poll.
type ErrorMsg struct {
	Err error
}

// TradeMsg reports a trade submitted outside the viewer, by the localnet
// demo trader.
type TradeMsg struct {
	Side      string
	Amount    string
	Signature solana.Signature
	Err       error
}
