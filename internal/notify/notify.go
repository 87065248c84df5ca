// Package notify provides best-effort email notification delivery: a Gateway
// abstraction over the outbound mail transport and a bounded queue consumed
// by a small worker pool, so request handlers and jobs submit notifications
// without awaiting delivery.
package notify

import "context"

// Message is one rendered email ready for delivery.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Gateway sends a single rendered email. A delivery failure is returned as an
// error value that callers log and move past; it is never fatal to the
// operation that produced the message.
type Gateway interface {
	Send(ctx context.Context, msg Message) error
}

// Submitter enqueues a message for asynchronous delivery without blocking on
// the send itself. Returns ErrQueueFull or ErrQueueClosed when the message
// cannot be accepted; the caller logs and continues.
type Submitter interface {
	Submit(msg Message) error
}
