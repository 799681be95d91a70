package store

import (
	"context"

	"github.com/cognicore/linlog/pkg/linlog/trace"
)

// Store is the interface for persisting and querying resolution traces
type Store interface {
	Close() error

	// AppendEvents adds events to a run, creating the run on first use.
	AppendEvents(ctx context.Context, run string, events []trace.Event) error

	// Events returns a run's events in sequence order, or ErrNotFound.
	Events(ctx context.Context, run string) ([]trace.Event, error)

	// Runs returns every run ID in the order runs were first written.
	Runs(ctx context.Context) ([]string, error)

	// KindCounts tallies a run's events by kind.
	KindCounts(ctx context.Context, run string) (map[trace.Kind]int, error)
}
