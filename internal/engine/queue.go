package engine

import "sync"

// commandQueue is a thread-safe FIFO of log sequence numbers announcing
// newly scheduled commands.
//
// The durable log is the source of truth; the queue only wakes the Run
// loop. The queue uses a channel for signaling to enable context-aware
// waiting in the Run loop.
type commandQueue struct {
	mu     sync.Mutex
	seqs   []int64
	closed bool
	signal chan struct{} // Signals availability (buffered, size 1)
}

// newCommandQueue creates an empty queue.
func newCommandQueue() *commandQueue {
	return &commandQueue{
		seqs:   make([]int64, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a sequence number to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *commandQueue) Enqueue(seq int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.seqs = append(q.seqs, seq)

	// Non-blocking: buffer of 1 coalesces multiple signals
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the front sequence number without blocking.
// Returns (0, false) if the queue is empty.
func (q *commandQueue) TryDequeue() (int64, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.seqs) == 0 {
		return 0, false
	}

	seq := q.seqs[0]
	if len(q.seqs) == 1 {
		q.seqs = q.seqs[:0]
	} else {
		q.seqs = q.seqs[1:]
	}
	return seq, true
}

// DrainAll empties the queue and returns the highest sequence number seen.
func (q *commandQueue) DrainAll() (int64, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.seqs) == 0 {
		return 0, false
	}

	high := q.seqs[0]
	for _, s := range q.seqs[1:] {
		if s > high {
			high = s
		}
	}
	q.seqs = q.seqs[:0]
	return high, true
}

// Wait returns a channel that signals when sequence numbers may be
// available. The channel is closed when the queue is closed.
func (q *commandQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *commandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.seqs)
}

// Closed reports whether Close has been called.
func (q *commandQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close signals that nothing more will be enqueued.
// Wakes any blocked waiters by closing the signal channel.
func (q *commandQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
