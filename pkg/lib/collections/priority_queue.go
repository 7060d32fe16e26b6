package collections

import (
	"container/heap"
	"sync"
)

// QueueItem is the type returned from the queue when items are dequeued,
// containing the value previously enqueued along with the priority it was
// enqueued with.
type QueueItem[T any] struct {
	Value    T
	Priority int64
}

// MatchingFunction can be used to find a specific item in the queue when
// using DequeueWhere.
type MatchingFunction[T any] func(possibleMatch T) bool

// PriorityQueueInterface is the interface implemented by the priority queues
// in this package.
type PriorityQueueInterface[T any] interface {
	Enqueue(data T, priority int64)
	Dequeue() *QueueItem[T]
	DequeueWhere(matcher MatchingFunction[T]) *QueueItem[T]
	Peek() *QueueItem[T]
	Len() int
	IsEmpty() bool
}

// PriorityQueue is a max-priority queue: items with a higher priority value
// are dequeued first. Items enqueued with equal priority are dequeued in
// insertion order, which callers rely on for strict ordering guarantees.
type PriorityQueue[T any] struct {
	mu    sync.Mutex
	items queueHeap[T]
	seq   int64
}

// NewPriorityQueue creates a new, empty PriorityQueue.
func NewPriorityQueue[T any]() *PriorityQueue[T] {
	return &PriorityQueue[T]{}
}

// Enqueue will add the item specified by `data` to the queue with the
// priority given by `priority`.
func (q *PriorityQueue[T]) Enqueue(data T, priority int64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.seq++
	heap.Push(&q.items, &queueEntry[T]{
		value:    data,
		priority: priority,
		seq:      q.seq,
	})
}

// Dequeue returns the next highest priority item, returning both the data
// enqueued previously and the priority with which it was enqueued. It
// returns nil if the queue is currently empty.
func (q *PriorityQueue[T]) Dequeue() *QueueItem[T] {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.items.Len() == 0 {
		return nil
	}

	entry := heap.Pop(&q.items).(*queueEntry[T])
	return &QueueItem[T]{Value: entry.value, Priority: entry.priority}
}

// Peek returns the next highest priority item without removing it from the
// queue, or nil if the queue is empty.
func (q *PriorityQueue[T]) Peek() *QueueItem[T] {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.items.Len() == 0 {
		return nil
	}

	entry := q.items[0]
	return &QueueItem[T]{Value: entry.value, Priority: entry.priority}
}

// DequeueWhere allows the caller to iterate through the queue, in priority
// order, and attempt to match an item using the provided `MatchingFunction`.
// This method has a high time cost as dequeued but non-matching items must be
// held and requeued once the process is complete.
func (q *PriorityQueue[T]) DequeueWhere(matcher MatchingFunction[T]) *QueueItem[T] {
	q.mu.Lock()
	defer q.mu.Unlock()

	var unmatched []*queueEntry[T]
	var result *QueueItem[T]

	for q.items.Len() > 0 {
		entry := heap.Pop(&q.items).(*queueEntry[T])
		if matcher(entry.value) {
			result = &QueueItem[T]{Value: entry.value, Priority: entry.priority}
			break
		}
		unmatched = append(unmatched, entry)
	}

	for _, entry := range unmatched {
		heap.Push(&q.items, entry)
	}

	return result
}

// Len returns the number of items currently in the queue.
func (q *PriorityQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// IsEmpty returns a boolean denoting whether the queue is currently empty.
func (q *PriorityQueue[T]) IsEmpty() bool {
	return q.Len() == 0
}

var _ PriorityQueueInterface[struct{}] = (*PriorityQueue[struct{}])(nil)

// queueEntry is the internal heap element. seq keeps dequeue order stable
// for items that share a priority.
type queueEntry[T any] struct {
	value    T
	priority int64
	seq      int64
}

type queueHeap[T any] []*queueEntry[T]

func (h queueHeap[T]) Len() int { return len(h) }

func (h queueHeap[T]) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h queueHeap[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *queueHeap[T]) Push(x any) { *h = append(*h, x.(*queueEntry[T])) }

func (h *queueHeap[T]) Pop() any {
	old := *h
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return entry
}
