package daemon

import (
	"errors"
	"sync"
)

var (
	// ErrSenderClosed is returned when the owning subscription has ended.
	ErrSenderClosed = errors.New("request sender closed")
	// ErrSenderFull is returned when the request queue is full; the request is dropped.
	ErrSenderFull = errors.New("request queue full")
)

// RequestSender is the capability to send requests to the daemon.
// Delivery is at-most-once and unacknowledged.
type RequestSender interface {
	Send(req Request) error
}

// queueSender is the RequestSender handed out by Subscribe.
type queueSender struct {
	mu     sync.Mutex
	ch     chan Request
	closed bool
}

func newQueueSender(size int) *queueSender {
	if size < 1 {
		size = 1
	}
	return &queueSender{ch: make(chan Request, size)}
}

// Send enqueues req without blocking.
func (s *queueSender) Send(req Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSenderClosed
	}

	select {
	case s.ch <- req:
		return nil
	default:
		return ErrSenderFull
	}
}

// close rejects further sends. The queue channel stays open; the
// subscription simply stops reading it.
func (s *queueSender) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
