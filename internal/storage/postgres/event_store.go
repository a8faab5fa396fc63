package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rovshanmuradov/launchpad/internal/storage"
)

// EventStore implements storage.EventStore using PostgreSQL.
type EventStore struct {
	pool *Pool
}

// NewEventStore creates a new EventStore.
func NewEventStore(pool *Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

// Reserves are u64 and may not fit BIGINT, so they travel as text into
// NUMERIC(20,0) columns.
const insertEventQuery = `
	INSERT INTO launch_events (
		launch, signature, event_index, slot, block_time, kind,
		sol_reserve, token_reserve, graduated, payload
	) VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8::numeric, $9, $10)
`

const selectEventColumns = `
	SELECT launch, signature, event_index, slot, block_time, kind,
		sol_reserve::text, token_reserve::text, graduated, payload
	FROM launch_events
`

func eventArgs(e *storage.Event) []any {
	var blockTime *time.Time
	if !e.BlockTime.IsZero() {
		t := e.BlockTime.UTC()
		blockTime = &t
	}
	return []any{
		e.Launch,
		e.Signature,
		e.EventIndex,
		int64(e.Slot),
		blockTime,
		e.Kind,
		strconv.FormatUint(e.SolReserve, 10),
		strconv.FormatUint(e.TokenReserve, 10),
		e.Graduated,
		e.Payload,
	}
}

// Insert adds a new event. Returns ErrDuplicateKey if (signature, event_index) exists.
func (s *EventStore) Insert(ctx context.Context, e *storage.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx, insertEventQuery, eventArgs(e)...)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert launch event: %w", err)
	}
	return nil
}

// Append adds events in one transaction, skipping archived keys.
func (s *EventStore) Append(ctx context.Context, events []*storage.Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return 0, err
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := insertEventQuery + ` ON CONFLICT (signature, event_index) DO NOTHING`

	inserted := 0
	for _, e := range events {
		tag, err := tx.Exec(ctx, query, eventArgs(e)...)
		if err != nil {
			return 0, fmt.Errorf("append launch event: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return inserted, nil
}

// GetByLaunch returns the events of a launch ordered by slot, then by
// insertion order.
func (s *EventStore) GetByLaunch(ctx context.Context, launch string) ([]*storage.Event, error) {
	query := selectEventColumns + `
		WHERE launch = $1
		ORDER BY slot ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, launch)
	if err != nil {
		return nil, fmt.Errorf("get launch events: %w", err)
	}
	defer rows.Close()

	var result []*storage.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate launch events: %w", err)
	}
	return result, nil
}

// Last returns the newest event of a launch.
func (s *EventStore) Last(ctx context.Context, launch string) (*storage.Event, error) {
	query := selectEventColumns + `
		WHERE launch = $1
		ORDER BY slot DESC, id DESC
		LIMIT 1
	`

	e, err := scanEvent(s.pool.QueryRow(ctx, query, launch))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// Launches returns the distinct launches, sorted.
func (s *EventStore) Launches(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT launch FROM launch_events ORDER BY launch ASC`)
	if err != nil {
		return nil, fmt.Errorf("get launches: %w", err)
	}
	defer rows.Close()

	var launches []string
	for rows.Next() {
		var launch string
		if err := rows.Scan(&launch); err != nil {
			return nil, fmt.Errorf("scan launch: %w", err)
		}
		launches = append(launches, launch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate launches: %w", err)
	}
	return launches, nil
}

func scanEvent(row pgx.Row) (*storage.Event, error) {
	var (
		e            storage.Event
		slot         int64
		blockTime    *time.Time
		solReserve   string
		tokenReserve string
	)
	err := row.Scan(
		&e.Launch,
		&e.Signature,
		&e.EventIndex,
		&slot,
		&blockTime,
		&e.Kind,
		&solReserve,
		&tokenReserve,
		&e.Graduated,
		&e.Payload,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("scan launch event: %w", err)
	}

	e.Slot = uint64(slot)
	if blockTime != nil {
		e.BlockTime = blockTime.UTC()
	}
	if e.SolReserve, err = strconv.ParseUint(solReserve, 10, 64); err != nil {
		return nil, fmt.Errorf("parse sol_reserve %q: %w", solReserve, err)
	}
	if e.TokenReserve, err = strconv.ParseUint(tokenReserve, 10, 64); err != nil {
		return nil, fmt.Errorf("parse token_reserve %q: %w", tokenReserve, err)
	}
	return &e, nil
}
