package kb

import (
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/linlog/pkg/linlog/internalerr"
)

// SnapshotEntry is the consumption state of one resource
type SnapshotEntry struct {
	ID       ulid.ULID
	Consumed bool
}

// Snapshot records the consumption flag of every resource at a point in
// time. Restoring it also drops resources asserted after it was taken.
type Snapshot struct {
	entries []SnapshotEntry
}

// Entries returns the recorded state in resource order
func (s Snapshot) Entries() []SnapshotEntry {
	out := make([]SnapshotEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of resources the snapshot covers
func (s Snapshot) Len() int { return len(s.entries) }

// Equal reports whether two snapshots describe the same state
func (s Snapshot) Equal(o Snapshot) bool {
	if len(s.entries) != len(o.entries) {
		return false
	}
	for i := range s.entries {
		if s.entries[i] != o.entries[i] {
			return false
		}
	}
	return true
}

// Snapshot captures the current consumption state
func (k *KB) Snapshot() Snapshot {
	entries := make([]SnapshotEntry, len(k.resources))
	for i, r := range k.resources {
		entries[i] = SnapshotEntry{ID: r.ID, Consumed: r.consumed}
	}
	return Snapshot{entries: entries}
}

// Restore resets consumption flags to s and removes resources added since.
func (k *KB) Restore(s Snapshot) error {
	if len(k.resources) < len(s.entries) {
		return fmt.Errorf("restore: snapshot covers %d resources, kb has %d: %w",
			len(s.entries), len(k.resources), internalerr.ErrInvalidInput)
	}
	for i, e := range s.entries {
		if k.resources[i].ID != e.ID {
			return fmt.Errorf("restore: resource %d is %s, snapshot has %s: %w",
				i, k.resources[i].ID, e.ID, internalerr.ErrInvalidInput)
		}
	}

	for i := len(s.entries); i < len(k.resources); i++ {
		k.resources[i] = nil
	}
	k.resources = k.resources[:len(s.entries)]
	for i, e := range s.entries {
		k.resources[i].consumed = e.Consumed
	}
	return nil
}

// Try runs fn and then restores the state from before the call, whatever fn
// returned. It is the unit of exploration for backtracking search.
func (k *KB) Try(fn func() error) (err error) {
	snap := k.Snapshot()
	defer func() {
		if rerr := k.Restore(snap); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return fn()
}
