// File: client/inbox.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package client

import (
	"sync"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-chat/protocol"
)

// inbox is a bounded FIFO of decoded payloads. When full, pushing evicts
// the oldest entry.
type inbox struct {
	mu    sync.Mutex
	q     *queue.Queue
	limit int
}

func newInbox(limit int) *inbox {
	return &inbox{q: queue.New(), limit: limit}
}

// push appends p and reports whether an older payload was evicted.
func (b *inbox) push(p protocol.Payload) (evicted bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.q.Length() >= b.limit {
		b.q.Remove()
		evicted = true
	}
	b.q.Add(p)
	return evicted
}

// drain removes and returns everything queued, oldest first.
func (b *inbox) drain() []protocol.Payload {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.q.Length()
	if n == 0 {
		return nil
	}
	out := make([]protocol.Payload, 0, n)
	for b.q.Length() > 0 {
		out = append(out, b.q.Remove().(protocol.Payload))
	}
	return out
}

func (b *inbox) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.q.Length()
}
