package ledger

import (
	"sync"

	"github.com/AMOL-023/fx-microstructure-alpha/internal/execution"
)

// Ledger is the append-only record of one run: every fill plus periodic snapshots.
// Reads copy out so the evaluator and the HTTP layer only ever see immutable data.
type Ledger struct {
	mu        sync.Mutex
	fills     []execution.Fill
	snapshots []Snapshot
}

// NewLedger creates an empty ledger optionally pre-sizing fill storage.
func NewLedger(capacity int) *Ledger {
	if capacity < 0 {
		capacity = 0
	}
	return &Ledger{fills: make([]execution.Fill, 0, capacity)}
}

// Append records a fill.
func (l *Ledger) Append(fill execution.Fill) {
	l.mu.Lock()
	l.fills = append(l.fills, fill)
	l.mu.Unlock()
}

// AppendSnapshot records a position snapshot.
func (l *Ledger) AppendSnapshot(snap Snapshot) {
	l.mu.Lock()
	l.snapshots = append(l.snapshots, snap)
	l.mu.Unlock()
}

// Fills returns a copy of the recorded fills in append order.
func (l *Ledger) Fills() []execution.Fill {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]execution.Fill, len(l.fills))
	copy(out, l.fills)
	return out
}

// Snapshots returns a copy of the recorded snapshots in append order.
func (l *Ledger) Snapshots() []Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Snapshot, len(l.snapshots))
	copy(out, l.snapshots)
	return out
}

// FillCount reports how many fills have been recorded.
func (l *Ledger) FillCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.fills)
}
