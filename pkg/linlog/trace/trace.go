// Package trace records a human-readable path of what resolution did:
// consumed resources, fired rules, asserted productions and backtracks.
// It is diagnostic only; a nil *Tracker is valid and records nothing.
package trace

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind classifies an event
type Kind string

const (
	KindQuery     Kind = "query"
	KindConsume   Kind = "consume"
	KindFire      Kind = "fire"
	KindAssert    Kind = "assert"
	KindBacktrack Kind = "backtrack"
	KindSolution  Kind = "solution"
	KindFail      Kind = "fail"
)

// Event is one step of a resolution run
type Event struct {
	ID     ulid.ULID
	Run    string
	Seq    int
	Depth  int
	Kind   Kind
	Detail string
	At     time.Time
}

// Sink receives flushed events
type Sink interface {
	AppendEvents(ctx context.Context, run string, events []Event) error
}

// Tracker buffers events in memory, grouped by run
type Tracker struct {
	entropy *ulid.MonotonicEntropy
	runs    []string
	events  map[string][]Event
	current string
}

// New creates an empty tracker
func New() *Tracker {
	return &Tracker{
		entropy: ulid.Monotonic(rand.Reader, 0),
		events:  make(map[string][]Event),
	}
}

// StartRun opens a new run, records the query event and returns the run ID
func (t *Tracker) StartRun(query string) string {
	if t == nil {
		return ""
	}
	run := ulid.MustNew(ulid.Now(), t.entropy).String()
	t.runs = append(t.runs, run)
	t.current = run
	t.Record(KindQuery, 0, query)
	return run
}

// Record appends an event to the current run. Without an open run a new one
// is started implicitly.
func (t *Tracker) Record(kind Kind, depth int, detail string) {
	if t == nil {
		return
	}
	if t.current == "" {
		t.StartRun("")
	}
	evs := t.events[t.current]
	t.events[t.current] = append(evs, Event{
		ID:     ulid.MustNew(ulid.Now(), t.entropy),
		Run:    t.current,
		Seq:    len(evs),
		Depth:  depth,
		Kind:   kind,
		Detail: detail,
		At:     time.Now().UTC(),
	})
}

// Current returns the ID of the most recent run
func (t *Tracker) Current() string {
	if t == nil {
		return ""
	}
	return t.current
}

// Runs returns run IDs in start order
func (t *Tracker) Runs() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.runs))
	copy(out, t.runs)
	return out
}

// Events returns the events of a run
func (t *Tracker) Events(run string) []Event {
	if t == nil {
		return nil
	}
	evs := t.events[run]
	out := make([]Event, len(evs))
	copy(out, evs)
	return out
}

// Count returns the number of events of kind k in a run
func (t *Tracker) Count(run string, k Kind) int {
	n := 0
	for _, e := range t.Events(run) {
		if e.Kind == k {
			n++
		}
	}
	return n
}

// Explain renders a run as a numbered, depth-indented trace
func (t *Tracker) Explain(run string) string {
	evs := t.Events(run)
	if len(evs) == 0 {
		return fmt.Sprintf("no trace recorded for run %q", run)
	}

	var explanation strings.Builder
	explanation.WriteString(fmt.Sprintf("Resolution trace %s:\n", run))
	for i, e := range evs {
		explanation.WriteString(fmt.Sprintf("  %d. %s%-9s %s\n", i+1, strings.Repeat("  ", e.Depth), e.Kind, e.Detail))
	}
	return explanation.String()
}

// Flush writes every buffered run to sink and clears the buffer
func (t *Tracker) Flush(ctx context.Context, sink Sink) error {
	if t == nil {
		return nil
	}
	for _, run := range t.runs {
		if err := sink.AppendEvents(ctx, run, t.events[run]); err != nil {
			return fmt.Errorf("flush run %s: %w", run, err)
		}
	}
	t.runs = nil
	t.events = make(map[string][]Event)
	t.current = ""
	return nil
}
