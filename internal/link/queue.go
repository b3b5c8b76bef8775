package link

import (
	"sync"
	"sync/atomic"

	"luma/internal/wire"
)

type message struct {
	topic   wire.Topic
	payload []byte
}

// queue is a bounded FIFO that discards its oldest entry when full.
// signal has capacity one and is poked on every push.
type queue struct {
	mu      sync.Mutex
	buf     []message
	head, n int

	signal  chan struct{}
	dropped atomic.Uint64
}

func newQueue(size int) *queue {
	if size < 1 {
		size = 1
	}
	return &queue{buf: make([]message, size), signal: make(chan struct{}, 1)}
}

func (q *queue) push(m message) (dropped bool) {
	q.mu.Lock()
	if q.n == len(q.buf) {
		q.buf[q.head] = message{}
		q.head = (q.head + 1) % len(q.buf)
		q.n--
		dropped = true
	}
	q.buf[(q.head+q.n)%len(q.buf)] = m
	q.n++
	q.mu.Unlock()

	if dropped {
		q.dropped.Add(1)
	}
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return dropped
}

func (q *queue) pop() (message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.n == 0 {
		return message{}, false
	}
	m := q.buf[q.head]
	q.buf[q.head] = message{}
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	return m, true
}

func (q *queue) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.n
}

func (q *queue) reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.buf {
		q.buf[i] = message{}
	}
	q.head, q.n = 0, 0
}
