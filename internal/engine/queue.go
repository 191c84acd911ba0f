package engine

import (
	"time"

	"github.com/tidwall/btree"

	"github.com/AMOL-023/fx-microstructure-alpha/internal/execution"
)

// intentQueue holds latency-pending intents ordered by execution timestamp. Intents
// sharing a timestamp resolve in submission order.
type intentQueue struct {
	tree  *btree.Map[int64, []execution.Intent]
	count int
}

func newIntentQueue() *intentQueue {
	return &intentQueue{tree: btree.NewMap[int64, []execution.Intent](8)}
}

func (q *intentQueue) push(intent execution.Intent) {
	key := intent.ExecTs.UnixNano()
	bucket, _ := q.tree.Get(key)
	q.tree.Set(key, append(bucket, intent))
	q.count++
}

// popDue removes and returns every intent whose execution time is at or before ts,
// earliest first.
func (q *intentQueue) popDue(ts time.Time) []execution.Intent {
	cutoff := ts.UnixNano()
	var due []execution.Intent
	for {
		key, bucket, ok := q.tree.Min()
		if !ok || key > cutoff {
			break
		}
		due = append(due, bucket...)
		q.tree.Delete(key)
		q.count -= len(bucket)
	}
	return due
}

// drain removes and returns everything still pending, earliest first.
func (q *intentQueue) drain() []execution.Intent {
	var rest []execution.Intent
	q.tree.Scan(func(_ int64, bucket []execution.Intent) bool {
		rest = append(rest, bucket...)
		return true
	})
	q.tree = btree.NewMap[int64, []execution.Intent](8)
	q.count = 0
	return rest
}

func (q *intentQueue) len() int { return q.count }
