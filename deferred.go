package sway

import "sync"

// WorkQueue holds work posted for the UI thread. Post never blocks and may
// be called from any goroutine; Drain runs the queued work in FIFO order on
// the goroutine that calls it.
type WorkQueue struct {
	mu    sync.Mutex
	items []func()
}

// NewWorkQueue creates an empty queue.
func NewWorkQueue() *WorkQueue {
	return &WorkQueue{}
}

// Post appends fn to the queue.
func (q *WorkQueue) Post(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.items = append(q.items, fn)
	q.mu.Unlock()
}

// Len returns the number of queued items.
func (q *WorkQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drain runs up to limit queued items (all of them when limit <= 0) and
// returns how many ran. Work posted while draining runs on a later Drain.
func (q *WorkQueue) Drain(limit int) int {
	q.mu.Lock()
	n := len(q.items)
	if limit > 0 && limit < n {
		n = limit
	}
	batch := make([]func(), n)
	copy(batch, q.items[:n])
	rest := copy(q.items, q.items[n:])
	for i := rest; i < len(q.items); i++ {
		q.items[i] = nil
	}
	q.items = q.items[:rest]
	q.mu.Unlock()

	// Run outside the lock; released objects may post more work.
	for _, fn := range batch {
		fn()
	}
	return n
}

// releaseLater schedules t.Release on q. The closure holds a strong copy of
// t until the queue runs it. A nil queue releases inline.
func releaseLater(q *WorkQueue, t SharedTransform) {
	if t == nil {
		return
	}
	if q == nil {
		t.Release()
		return
	}
	q.Post(func() {
		t.Release()
	})
}
