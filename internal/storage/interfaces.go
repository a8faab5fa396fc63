// Package storage archives decoded launch events.
package storage

import (
	"context"
	"time"
)

// Event is one archived program event. Payload holds the event exactly as the
// program emitted it (discriminator and borsh body), the remaining columns are
// denormalized for queries.
type Event struct {
	Launch     string
	Signature  string
	EventIndex int
	Slot       uint64
	// BlockTime is zero when the cluster did not report one.
	BlockTime    time.Time
	Kind         string
	SolReserve   uint64
	TokenReserve uint64
	Graduated    bool
	Payload      []byte
}

// Key identifies an event across the whole archive.
type Key struct {
	Signature  string
	EventIndex int
}

// Key returns the deduplication key of e.
func (e *Event) Key() Key {
	return Key{Signature: e.Signature, EventIndex: e.EventIndex}
}

// Validate rejects events that cannot be archived.
func (e *Event) Validate() error {
	if e == nil || e.Launch == "" || e.Signature == "" || e.Kind == "" || len(e.Payload) == 0 || e.EventIndex < 0 {
		return ErrInvalidInput
	}
	return nil
}

// EventStore is an append-only archive of launch events kept in chain order.
type EventStore interface {
	// Insert adds a single event. Returns ErrDuplicateKey if its key exists.
	Insert(ctx context.Context, e *Event) error

	// Append adds events in the given order, skipping keys already archived,
	// and returns how many were new. The batch is applied atomically.
	Append(ctx context.Context, events []*Event) (int, error)

	// GetByLaunch returns the events of a launch in chain order.
	GetByLaunch(ctx context.Context, launch string) ([]*Event, error)

	// Last returns the newest archived event of a launch. Returns ErrNotFound
	// when nothing is archived.
	Last(ctx context.Context, launch string) (*Event, error)

	// Launches returns every launch with archived events, sorted.
	Launches(ctx context.Context) ([]string, error)
}
