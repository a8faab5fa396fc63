package ui

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/rovshanmuradov/launchpad/internal/client"
	"github.com/rovshanmuradov/launchpad/internal/eventlog"
)

// Poller produces snapshots for the viewer.
type Poller interface {
	Poll(ctx context.Context) (*Snapshot, error)
}

// Snapshot is the launch as of one poll plus the events that landed since
// the previous one.
type Snapshot struct {
	Launch   *client.Launch
	Price    decimal.Decimal
	Progress decimal.Decimal
	// Points are priced events newer than the previous snapshot, oldest first.
	Points []eventlog.PricePoint
	At     time.Time
}

// Feed polls one launch through the protocol client and tails its events
// from the reader.
type Feed struct {
	client *client.Client
	reader *eventlog.Reader
	mint   solana.PublicKey

	mu     sync.Mutex
	cursor solana.Signature
}

// NewFeed creates a feed for the launch of mint.
func NewFeed(c *client.Client, r *eventlog.Reader, mint solana.PublicKey) *Feed {
	return &Feed{client: c, reader: r, mint: mint}
}

// Poll fetches the launch and the events after the last one seen. Polls are
// serialized so every event is delivered once.
func (f *Feed) Poll(ctx context.Context) (*Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	l, err := f.client.FetchLaunch(ctx, f.mint)
	if err != nil {
		return nil, err
	}
	price, err := f.client.PriceSOL(l)
	if err != nil {
		return nil, err
	}

	records, err := eventlog.Collect(f.reader.EventsAfter(ctx, l.Address, f.cursor))
	if err != nil {
		return nil, fmt.Errorf("read events of %s: %w", l.Address, err)
	}
	points, err := eventlog.PriceSeries(f.client.Config().Curve, records)
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		f.cursor = records[len(records)-1].Signature
	}

	return &Snapshot{
		Launch:   l,
		Price:    price,
		Progress: f.client.Progress(l),
		Points:   points,
		At:       time.Now(),
	}, nil
}
