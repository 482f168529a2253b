// ABOUTME: Change notifications for query cache subscribers
// ABOUTME: Views subscribe and re-read affected keys when an event arrives

package querycache

// EventKind classifies a cache change.
type EventKind int

const (
	// EventUpdated fires when a fetch result is committed for Key.
	EventUpdated EventKind = iota
	// EventInvalidated fires when entries under the Key prefix were marked stale.
	EventInvalidated
	// EventCleared fires when every entry was dropped. Key is empty.
	EventCleared
)

func (k EventKind) String() string {
	switch k {
	case EventUpdated:
		return "updated"
	case EventInvalidated:
		return "invalidated"
	case EventCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Event describes one cache change.
type Event struct {
	Kind EventKind
	Key  Key
}

// subscriberBuffer bounds queued events per subscriber. Subscribers re-read
// whole views, so an event dropped on a full buffer is covered by the ones queued.
const subscriberBuffer = 64

// Subscribe returns a channel of cache events and a function that ends the
// subscription and closes the channel.
func (c *Cache) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.subMu.Unlock()

	var cancelled bool
	cancel := func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if cancelled {
			return
		}
		cancelled = true
		delete(c.subs, id)
		close(ch)
	}
	return ch, cancel
}

func (c *Cache) publish(ev Event) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for id, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			c.logger.Debug("Dropping cache event for slow subscriber", "subscriber", id, "kind", ev.Kind.String())
		}
	}
}
