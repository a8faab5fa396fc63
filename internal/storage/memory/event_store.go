package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/rovshanmuradov/launchpad/internal/storage"
)

// EventStore is an in-memory implementation of storage.EventStore.
type EventStore struct {
	mu   sync.RWMutex
	data []*storage.Event
	keys map[storage.Key]bool
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{
		data: make([]*storage.Event, 0),
		keys: make(map[storage.Key]bool),
	}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

// Insert adds a new event. Returns ErrDuplicateKey if (signature, event_index) exists.
func (s *EventStore) Insert(_ context.Context, e *storage.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keys[e.Key()] {
		return storage.ErrDuplicateKey
	}
	s.add(e)
	return nil
}

// Append adds events in order, skipping archived keys.
func (s *EventStore) Append(_ context.Context, events []*storage.Event) (int, error) {
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return 0, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, e := range events {
		if s.keys[e.Key()] {
			continue
		}
		s.add(e)
		inserted++
	}
	return inserted, nil
}

func (s *EventStore) add(e *storage.Event) {
	// Store a copy
	c := *e
	c.Payload = slices.Clone(e.Payload)
	s.data = append(s.data, &c)
	s.keys[e.Key()] = true
}

// GetByLaunch returns the events of a launch ordered by slot, then by
// insertion order.
func (s *EventStore) GetByLaunch(_ context.Context, launch string) ([]*storage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*storage.Event
	for _, e := range s.data {
		if e.Launch == launch {
			c := *e
			c.Payload = slices.Clone(e.Payload)
			result = append(result, &c)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Slot < result[j].Slot
	})
	return result, nil
}

// Last returns the newest event of a launch.
func (s *EventStore) Last(ctx context.Context, launch string) (*storage.Event, error) {
	events, err := s.GetByLaunch(ctx, launch)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, storage.ErrNotFound
	}
	return events[len(events)-1], nil
}

// Launches returns the distinct launches, sorted.
func (s *EventStore) Launches(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var result []string
	for _, e := range s.data {
		if !seen[e.Launch] {
			seen[e.Launch] = true
			result = append(result, e.Launch)
		}
	}
	sort.Strings(result)
	return result, nil
}
