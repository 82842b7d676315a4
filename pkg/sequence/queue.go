package sequence

// Queue is an unbounded FIFO queue backed by a ring buffer.
// It is not safe for concurrent use.
type Queue[T any] struct {
	items []T
	head  int
	size  int
}

// NewQueue returns an empty queue with room for capacity items before growing.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 4
	}
	return &Queue[T]{items: make([]T, capacity)}
}

// Enqueue appends value at the tail.
func (q *Queue[T]) Enqueue(value T) {
	if q.items == nil {
		q.items = make([]T, 4)
	}
	if q.size == len(q.items) {
		q.grow()
	}
	q.items[(q.head+q.size)%len(q.items)] = value
	q.size++
}

// Dequeue removes and returns the head.
func (q *Queue[T]) Dequeue() (T, bool) {
	var zero T
	if q.size == 0 {
		return zero, false
	}
	value := q.items[q.head]
	q.items[q.head] = zero
	q.head = (q.head + 1) % len(q.items)
	q.size--
	return value, true
}

// Clear drops every queued item and returns how many were dropped.
func (q *Queue[T]) Clear() int {
	n := q.size
	var zero T
	for i := 0; i < q.size; i++ {
		q.items[(q.head+i)%len(q.items)] = zero
	}
	q.head, q.size = 0, 0
	return n
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return q.size
}

// Items returns a copy of the queued items in FIFO order.
func (q *Queue[T]) Items() []T {
	out := make([]T, 0, q.size)
	for i := 0; i < q.size; i++ {
		out = append(out, q.items[(q.head+i)%len(q.items)])
	}
	return out
}

func (q *Queue[T]) grow() {
	next := make([]T, len(q.items)*2)
	for i := 0; i < q.size; i++ {
		next[i] = q.items[(q.head+i)%len(q.items)]
	}
	q.items = next
	q.head = 0
}
