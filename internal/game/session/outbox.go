// Package session provides player session tracking, room presence, and
// message delivery for the game backend.
package session

import (
	"fmt"
	"sync"
)

// Outbox queues text lines bound for one connected player, bridging the
// game systems to whatever transport drains the channel.
type Outbox struct {
	uid    string
	lines  chan string
	mu     sync.Mutex
	closed bool
}

// NewOutbox creates an Outbox for the given player UID.
//
// Precondition: uid must be non-empty.
// Postcondition: Returns an Outbox with an open lines channel.
func NewOutbox(uid string, bufferSize int) *Outbox {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Outbox{
		uid:   uid,
		lines: make(chan string, bufferSize),
	}
}

// UID returns the player's unique identifier.
func (o *Outbox) UID() string {
	return o.uid
}

// Push enqueues a line for delivery.
//
// Postcondition: The line is enqueued, or an error if the outbox is closed
// or its buffer is full. A full buffer drops the line rather than blocking
// the game loop.
func (o *Outbox) Push(line string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return fmt.Errorf("outbox %s is closed", o.uid)
	}
	select {
	case o.lines <- line:
		return nil
	default:
		return fmt.Errorf("outbox %s buffer full", o.uid)
	}
}

// Lines returns the read-only delivery channel.
// The transport goroutine reads from this channel to write to the player.
func (o *Outbox) Lines() <-chan string {
	return o.lines
}

// Close marks the outbox as closed and closes the lines channel.
//
// Postcondition: The lines channel is closed. Further Push calls return an
// error.
func (o *Outbox) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.closed {
		o.closed = true
		close(o.lines)
	}
	return nil
}

// IsClosed reports whether the outbox has been closed.
func (o *Outbox) IsClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}
