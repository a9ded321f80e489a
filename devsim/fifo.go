package devsim

import "errors"

// ErrQueueEmpty is returned when a read queue register is read while the
// queue holds no beats.
var ErrQueueEmpty = errors.New("devsim: read queue empty")

// ErrQueueFull is returned when a write queue register is written while the
// queue is at capacity.
var ErrQueueFull = errors.New("devsim: write queue full")

// fifo is a bounded first-in first-out queue of beats. A capacity of zero
// means unbounded.
type fifo struct {
	capacity int
	elements []uint64
}

func (q *fifo) canPush() bool {
	return q.capacity == 0 || len(q.elements) < q.capacity
}

func (q *fifo) push(v uint64) error {
	if !q.canPush() {
		return ErrQueueFull
	}

	q.elements = append(q.elements, v)

	return nil
}

func (q *fifo) pop() (uint64, error) {
	if len(q.elements) == 0 {
		return 0, ErrQueueEmpty
	}

	v := q.elements[0]
	q.elements = q.elements[1:]

	return v, nil
}

func (q *fifo) take(n int) []uint64 {
	if n > len(q.elements) {
		n = len(q.elements)
	}

	out := append([]uint64(nil), q.elements[:n]...)
	q.elements = q.elements[n:]

	return out
}

func (q *fifo) size() int {
	return len(q.elements)
}

func (q *fifo) clear() {
	q.elements = nil
}
