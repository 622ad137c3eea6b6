package actorcore

import "sync"

// messageQueue is the ordered sequence of message envelopes an actor's
// Receive selects from. It is mutex-guarded because timer-delivered
// messages may land concurrently with the owning worker's poll, even
// though in practice only the owning worker drains it (spec.md §5).
type messageQueue struct {
	mu    sync.Mutex
	items []any
}

func newMessageQueue() *messageQueue {
	return &messageQueue{}
}

// push appends to the tail.
func (q *messageQueue) push(envelope any) {
	q.mu.Lock()
	q.items = append(q.items, envelope)
	q.mu.Unlock()
}

// removeMatching scans from head, returns and removes the first envelope
// for which predicate returns true. Unmatched envelopes keep their
// relative order. O(n) per call — selective receive rescans from the
// head every time rather than tracking a cursor (spec.md §9 Open
// Question, decided in DESIGN.md).
func (q *messageQueue) removeMatching(predicate func(any) bool) (any, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, item := range q.items {
		if predicate(item) {
			q.items = append(q.items[:i:i], q.items[i+1:]...)
			return item, true
		}
	}
	return nil, false
}

func (q *messageQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
