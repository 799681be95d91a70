package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cognicore/linlog/pkg/linlog/internalerr"
	"github.com/cognicore/linlog/pkg/linlog/store"
	"github.com/cognicore/linlog/pkg/linlog/trace"
)

var _ store.Store = (*Store)(nil)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu     sync.RWMutex
	runs   []string
	events map[string][]trace.Event
	closed bool
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		events: make(map[string][]trace.Event),
	}
}

// Close implements store.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// AppendEvents implements store.Store.
func (s *Store) AppendEvents(ctx context.Context, run string, events []trace.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return internalerr.ErrStoreUnavailable
	}
	if run == "" {
		return fmt.Errorf("append events: empty run: %w", internalerr.ErrInvalidInput)
	}

	if _, ok := s.events[run]; !ok {
		s.runs = append(s.runs, run)
	}
	cp := make([]trace.Event, len(events))
	copy(cp, events)
	s.events[run] = append(s.events[run], cp...)
	return nil
}

// Events implements store.Store.
func (s *Store) Events(ctx context.Context, run string) ([]trace.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, internalerr.ErrStoreUnavailable
	}
	evs, ok := s.events[run]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", run, internalerr.ErrNotFound)
	}

	out := make([]trace.Event, len(evs))
	copy(out, evs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

// Runs implements store.Store.
func (s *Store) Runs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, internalerr.ErrStoreUnavailable
	}
	out := make([]string, len(s.runs))
	copy(out, s.runs)
	return out, nil
}

// KindCounts implements store.Store.
func (s *Store) KindCounts(ctx context.Context, run string) (map[trace.Kind]int, error) {
	evs, err := s.Events(ctx, run)
	if err != nil {
		return nil, err
	}
	counts := make(map[trace.Kind]int)
	for _, e := range evs {
		counts[e.Kind]++
	}
	return counts, nil
}
