// Package bus provides the multi-producer, single-consumer event channel
// that merges subprocess and remote-control activity into the orchestrator.
// Producers never touch application state directly; they publish events
// here and the orchestrator folds them in on its own goroutine.
package bus

import (
	"fmt"

	"github.com/parleyhq/parley/pkg/logging"
)

// DefaultSize is the buffer depth used when no size is given.
const DefaultSize = 256

// Bus is a bounded FIFO event channel. Events are tagged structs owned by
// their producer packages; the consumer type-switches on them.
type Bus struct {
	ch  chan any
	log *logging.Logger
}

// New creates a bus with the given buffer size.
func New(size int, log *logging.Logger) *Bus {
	if size <= 0 {
		size = DefaultSize
	}
	return &Bus{ch: make(chan any, size), log: log}
}

// Publish delivers an event, blocking until the bus has room. Delivery
// order per producer is preserved, which is what keeps reply chunks for a
// single message in subprocess order.
func (b *Bus) Publish(ev any) {
	b.ch <- ev
}

// TryPublish delivers an event only if the bus has room. A full bus
// drops the event with a logged warning instead of blocking the
// producer.
func (b *Bus) TryPublish(ev any) bool {
	select {
	case b.ch <- ev:
		return true
	default:
		b.log.Warn("bus", "event dropped, bus full", map[string]any{"event": fmt.Sprintf("%T", ev)})
		return false
	}
}

// Events exposes the receive side. Only the orchestrator may read it.
func (b *Bus) Events() <-chan any {
	return b.ch
}

// Drain receives up to max buffered events without blocking. The
// orchestrator uses it on each tick so a burst from one producer cannot
// starve visible progress on another.
func (b *Bus) Drain(max int) []any {
	var out []any
	for len(out) < max {
		select {
		case ev := <-b.ch:
			out = append(out, ev)
		default:
			return out
		}
	}
	return out
}
