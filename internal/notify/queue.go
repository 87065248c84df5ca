package notify

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Common errors returned by the Queue
var (
	ErrQueueClosed = errors.New("notification queue is closed")
	ErrQueueFull   = errors.New("notification queue is full")
)

// Queue is a bounded buffer of pending notifications. It satisfies Submitter
// for producers; the worker pool consumes it through Channel.
type Queue struct {
	messages chan Message
	logger   *slog.Logger
	mu       sync.Mutex
	closed   bool
}

// NewQueue creates a new notification queue with the specified buffer size.
func NewQueue(size int, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		messages: make(chan Message, size),
		logger:   logger.With(slog.String("component", "notify_queue")),
	}
}

// Submit adds a message to the queue for delivery. It never blocks: a full
// queue returns ErrQueueFull so one slow mail server cannot stall callers.
func (q *Queue) Submit(msg Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.messages <- msg:
		q.logger.Debug("notification enqueued",
			"to", msg.To,
			"subject", msg.Subject,
			"queue_len", len(q.messages),
			"queue_cap", cap(q.messages))
		return nil
	default:
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(q.messages))
	}
}

// Close closes the queue, preventing further submission. Messages already
// buffered remain readable so the worker pool can drain them.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.messages)
		q.logger.Info("notification queue closed")
	}
}

// Channel returns a read-only channel for consuming messages.
func (q *Queue) Channel() <-chan Message {
	return q.messages
}
