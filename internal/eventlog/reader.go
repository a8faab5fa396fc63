// Package eventlog reads the event history of a launch from the ledger's
// transaction logs and turns it into a price series.
//
// Each call to Reader.Events takes a fresh snapshot of the launch's signature
// history, so a sequence is finite and ordered by (slot, position in the
// transaction). Malformed or foreign events are skipped; a failed fetch ends
// the sequence with an error.
package eventlog

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/launchpad/internal/blockchain"
	"github.com/rovshanmuradov/launchpad/internal/launch"
	"github.com/rovshanmuradov/launchpad/internal/utils/metrics"
)

const (
	DefaultPageSize    = 100
	DefaultConcurrency = 8
)

// Skip reasons reported to metrics.
const (
	SkipMalformed     = "malformed"
	SkipForeignLaunch = "foreign_launch"
	SkipBadEncoding   = "bad_encoding"
)

// Record is a decoded event with its position in the ledger.
type Record struct {
	Launch    solana.PublicKey
	Signature solana.Signature
	Slot      uint64
	BlockTime time.Time
	// Index is the position of the event within its transaction.
	Index int
	Event launch.Event
}

// Options tune paging and fan-out.
type Options struct {
	PageSize    int
	Concurrency int
}

// Reader decodes program events from transaction history.
type Reader struct {
	history   blockchain.HistoryReader
	programID solana.PublicKey
	opts      Options
	logger    *zap.Logger
	metrics   *metrics.Collector
}

// NewReader creates a reader. Zero options take the defaults.
func NewReader(history blockchain.HistoryReader, programID solana.PublicKey, opts Options, logger *zap.Logger, collector *metrics.Collector) *Reader {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{
		history:   history,
		programID: programID,
		opts:      opts,
		logger:    logger.Named("eventlog"),
		metrics:   collector,
	}
}

// Events yields every event of the launch at launchAddr, oldest first.
func (r *Reader) Events(ctx context.Context, launchAddr solana.PublicKey) iter.Seq2[Record, error] {
	return r.EventsAfter(ctx, launchAddr, solana.Signature{})
}

// EventsAfter yields the events recorded after the transaction after. A zero
// signature reads the whole history.
func (r *Reader) EventsAfter(ctx context.Context, launchAddr solana.PublicKey, after solana.Signature) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		sigs, err := r.signatures(ctx, launchAddr, after)
		if err != nil {
			yield(Record{}, err)
			return
		}

		for start := 0; start < len(sigs); start += r.opts.PageSize {
			batch := sigs[start:min(start+r.opts.PageSize, len(sigs))]
			txs, err := r.fetch(ctx, batch)
			if err != nil {
				yield(Record{}, err)
				return
			}
			for _, tx := range txs {
				for _, rec := range r.decode(launchAddr, tx) {
					if !yield(rec, nil) {
						return
					}
				}
			}
		}
	}
}

// signatures pages the history of addr back to after (exclusive) and returns
// the successful transactions oldest first.
func (r *Reader) signatures(ctx context.Context, addr solana.PublicKey, after solana.Signature) ([]blockchain.SignatureInfo, error) {
	var (
		out    []blockchain.SignatureInfo
		before solana.Signature
	)
	for {
		start := time.Now()
		page, err := r.history.SignaturesForAddress(ctx, addr, before, r.opts.PageSize)
		r.metrics.RecordRPCLatency("getSignaturesForAddress", time.Since(start))
		if err != nil {
			return nil, fmt.Errorf("failed to list signatures for %s: %w", addr, err)
		}

		reached := false
		for _, info := range page {
			if !after.IsZero() && info.Signature == after {
				reached = true
				break
			}
			if !info.Failed {
				out = append(out, info)
			}
		}
		if reached || len(page) < r.opts.PageSize {
			break
		}
		before = page[len(page)-1].Signature
	}

	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b blockchain.SignatureInfo) int {
		switch {
		case a.Slot < b.Slot:
			return -1
		case a.Slot > b.Slot:
			return 1
		}
		return 0
	})

	r.logger.Debug("Signature history loaded",
		zap.String("address", addr.String()),
		zap.Int("transactions", len(out)))
	return out, nil
}

// fetch loads a batch of transactions with bounded concurrency, preserving
// order.
func (r *Reader) fetch(ctx context.Context, batch []blockchain.SignatureInfo) ([]*blockchain.TransactionRecord, error) {
	txs := make([]*blockchain.TransactionRecord, len(batch))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for i, info := range batch {
		g.Go(func() error {
			start := time.Now()
			tx, err := r.history.Transaction(gCtx, info.Signature)
			r.metrics.RecordRPCLatency("getTransaction", time.Since(start))
			if err != nil {
				return fmt.Errorf("failed to fetch transaction %s: %w", info.Signature, err)
			}
			if tx == nil {
				return errors.New("empty transaction record for " + info.Signature.String())
			}
			txs[i] = tx
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return txs, nil
}

// decode extracts the launch's events from one transaction.
func (r *Reader) decode(launchAddr solana.PublicKey, tx *blockchain.TransactionRecord) []Record {
	if tx.Failed {
		return nil
	}

	var out []Record
	for _, p := range ProgramData(r.programID, tx.Logs) {
		if p.Err != nil {
			r.skip(tx.Signature, p.Index, SkipBadEncoding, p.Err)
			continue
		}
		ev, err := launch.DecodeEvent(p.Data)
		if err != nil {
			r.skip(tx.Signature, p.Index, SkipMalformed, err)
			continue
		}
		if !ev.LaunchAddress().Equals(launchAddr) {
			r.skip(tx.Signature, p.Index, SkipForeignLaunch, nil)
			continue
		}

		r.metrics.RecordEventDecoded(string(ev.Kind()))
		out = append(out, Record{
			Launch:    launchAddr,
			Signature: tx.Signature,
			Slot:      tx.Slot,
			BlockTime: tx.BlockTime,
			Index:     p.Index,
			Event:     ev,
		})
	}
	return out
}

func (r *Reader) skip(sig solana.Signature, index int, reason string, err error) {
	r.metrics.RecordEventSkipped(reason)
	r.logger.Debug("Skipping program data",
		zap.String("signature", sig.String()),
		zap.Int("index", index),
		zap.String("reason", reason),
		zap.Error(err))
}

// Collect drains seq, stopping at the first error.
func Collect(seq iter.Seq2[Record, error]) ([]Record, error) {
	var out []Record
	for rec, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}
