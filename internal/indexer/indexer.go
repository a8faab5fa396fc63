// Package indexer copies launch events from the chain into an archive and
// serves price history from it.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/launchpad/internal/curve"
	"github.com/rovshanmuradov/launchpad/internal/eventlog"
	"github.com/rovshanmuradov/launchpad/internal/launch"
	"github.com/rovshanmuradov/launchpad/internal/storage"
	"github.com/rovshanmuradov/launchpad/internal/utils/metrics"
)

// DefaultBatchSize bounds how many events go into one Append call.
const DefaultBatchSize = 500

// Indexer syncs events of launches into a storage.EventStore.
type Indexer struct {
	reader    *eventlog.Reader
	store     storage.EventStore
	batchSize int
	logger    *zap.Logger
	metrics   *metrics.Collector
}

// New creates an indexer.
func New(reader *eventlog.Reader, store storage.EventStore, logger *zap.Logger, collector *metrics.Collector) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		reader:    reader,
		store:     store,
		batchSize: DefaultBatchSize,
		logger:    logger.Named("indexer"),
		metrics:   collector,
	}
}

// Sync archives the events recorded since the newest archived one and returns
// how many were new. Already archived events are skipped, so Sync can be
// repeated or interrupted at any point.
func (ix *Indexer) Sync(ctx context.Context, launchAddr solana.PublicKey) (int, error) {
	var cursor solana.Signature
	last, err := ix.store.Last(ctx, launchAddr.String())
	switch {
	case err == nil:
		if cursor, err = solana.SignatureFromBase58(last.Signature); err != nil {
			return 0, fmt.Errorf("invalid archived signature %q: %w", last.Signature, err)
		}
	case errors.Is(err, storage.ErrNotFound):
	default:
		return 0, fmt.Errorf("failed to load sync cursor: %w", err)
	}

	total := 0
	batch := make([]*storage.Event, 0, ix.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := ix.store.Append(ctx, batch)
		if err != nil {
			return fmt.Errorf("failed to archive events: %w", err)
		}
		ix.metrics.RecordEventsStored(n)
		total += n
		batch = batch[:0]
		return nil
	}

	for rec, err := range ix.reader.EventsAfter(ctx, launchAddr, cursor) {
		if err != nil {
			if ferr := flush(); ferr != nil {
				ix.logger.Warn("Failed to archive partial batch", zap.Error(ferr))
			}
			return total, err
		}
		e, err := FromRecord(rec)
		if err != nil {
			return total, err
		}
		batch = append(batch, e)
		if len(batch) == ix.batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := flush(); err != nil {
		return total, err
	}

	ix.logger.Debug("Launch synced",
		zap.String("launch", launchAddr.String()),
		zap.Int("new_events", total))
	return total, nil
}

// Run syncs the launches immediately and then every interval until ctx is
// done. Sync failures are logged and retried on the next tick.
func (ix *Indexer) Run(ctx context.Context, interval time.Duration, launches ...solana.PublicKey) error {
	ix.logger.Info("Starting indexer",
		zap.Int("launches", len(launches)),
		zap.Duration("interval", interval))

	ix.syncAll(ctx, launches)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ix.syncAll(ctx, launches)
		case <-ctx.Done():
			ix.logger.Debug("Indexer stopped")
			return ctx.Err()
		}
	}
}

func (ix *Indexer) syncAll(ctx context.Context, launches []solana.PublicKey) {
	for _, addr := range launches {
		n, err := ix.Sync(ctx, addr)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			ix.logger.Error("Failed to sync launch", zap.String("launch", addr.String()), zap.Error(err))
			continue
		}
		if n > 0 {
			ix.logger.Info("Archived new events", zap.String("launch", addr.String()), zap.Int("count", n))
		}
	}
}

// History returns the archived events of a launch in chain order.
func (ix *Indexer) History(ctx context.Context, launchAddr solana.PublicKey) ([]eventlog.Record, error) {
	events, err := ix.store.GetByLaunch(ctx, launchAddr.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load archived events: %w", err)
	}
	out := make([]eventlog.Record, 0, len(events))
	for _, e := range events {
		rec, err := ToRecord(e)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Summary is what the archive holds for one launch.
type Summary struct {
	Launch     string
	Events     int
	LastSlot   uint64
	SolReserve uint64
	Graduated  bool
}

// Archived summarizes every launch in the archive, sorted by address.
func (ix *Indexer) Archived(ctx context.Context) ([]Summary, error) {
	launches, err := ix.store.Launches(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list archived launches: %w", err)
	}
	out := make([]Summary, 0, len(launches))
	for _, addr := range launches {
		events, err := ix.store.GetByLaunch(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("failed to load archived events: %w", err)
		}
		if len(events) == 0 {
			continue
		}
		last := events[len(events)-1]
		out = append(out, Summary{
			Launch:     addr,
			Events:     len(events),
			LastSlot:   last.Slot,
			SolReserve: last.SolReserve,
			Graduated:  last.Graduated,
		})
	}
	return out, nil
}

// PriceHistory prices every archived event of a launch.
func (ix *Indexer) PriceHistory(ctx context.Context, params curve.Params, launchAddr solana.PublicKey) ([]eventlog.PricePoint, error) {
	records, err := ix.History(ctx, launchAddr)
	if err != nil {
		return nil, err
	}
	return eventlog.PriceSeries(params, records)
}

// FromRecord converts a decoded event into its archived form.
func FromRecord(rec eventlog.Record) (*storage.Event, error) {
	payload, err := launch.EncodeEvent(rec.Event)
	if err != nil {
		return nil, err
	}
	sol, tok := rec.Event.Reserves()
	return &storage.Event{
		Launch:       rec.Launch.String(),
		Signature:    rec.Signature.String(),
		EventIndex:   rec.Index,
		Slot:         rec.Slot,
		BlockTime:    rec.BlockTime,
		Kind:         string(rec.Event.Kind()),
		SolReserve:   sol,
		TokenReserve: tok,
		Graduated:    rec.Event.IsGraduated(),
		Payload:      payload,
	}, nil
}

// ToRecord decodes an archived event. The payload is authoritative.
func ToRecord(e *storage.Event) (eventlog.Record, error) {
	ev, err := launch.DecodeEvent(e.Payload)
	if err != nil {
		return eventlog.Record{}, fmt.Errorf("archived event %s#%d: %w", e.Signature, e.EventIndex, err)
	}
	sig, err := solana.SignatureFromBase58(e.Signature)
	if err != nil {
		return eventlog.Record{}, fmt.Errorf("archived event %s#%d: %w", e.Signature, e.EventIndex, err)
	}
	return eventlog.Record{
		Launch:    ev.LaunchAddress(),
		Signature: sig,
		Slot:      e.Slot,
		BlockTime: e.BlockTime,
		Index:     e.EventIndex,
		Event:     ev,
	}, nil
}
