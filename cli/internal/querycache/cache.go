// ABOUTME: Keyed store of asynchronous query results with read-through fetch
// ABOUTME: Joins in-flight fetches, discards superseded completions, publishes change events

package querycache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Status describes the state of a cached query.
type Status int

const (
	// StatusDisabled means the read's prerequisites were not met and no fetch ran.
	StatusDisabled Status = iota
	// StatusIdle means nothing has been fetched for the key yet.
	StatusIdle
	// StatusLoading means the first fetch for the key is in flight.
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusDisabled:
		return "disabled"
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Fetcher loads the value for a key.
type Fetcher func(ctx context.Context) (any, error)

// Query describes one read. When Enabled is false the fetcher never runs.
type Query struct {
	Key     Key
	Enabled bool
	Fetch   Fetcher
}

// Result is a point-in-time view of a cache entry.
type Result struct {
	Key      Key
	Status   Status
	Value    any
	HasValue bool
	Err      error
	// Stale is set once the entry has been invalidated and not yet refetched.
	Stale bool
	// Fetching is set while a fetch for the key is outstanding.
	Fetching bool
	// Generation is the fetch generation that produced the committed result.
	Generation uint64
	FetchedAt  time.Time
}

// Ready reports whether the result holds a completed fetch outcome.
func (r Result) Ready() bool {
	return r.Status == StatusSuccess || r.Status == StatusError
}

// Value extracts a typed value from a result.
func Value[T any](r Result) (T, bool) {
	v, ok := r.Value.(T)
	return v, ok
}

type call struct {
	gen         uint64
	done        chan struct{}
	value       any
	err         error
	committed   bool
	invalidated bool
}

type entry struct {
	key       Key
	status    Status
	value     any
	hasValue  bool
	err       error
	stale     bool
	started   uint64
	committed uint64
	fetchedAt time.Time
	inflight  *call
}

func (e *entry) fresh() bool {
	return e.committed > 0 && !e.stale
}

func (e *entry) snapshot() Result {
	status := e.status
	if e.committed == 0 {
		status = StatusIdle
		if e.inflight != nil {
			status = StatusLoading
		}
	}
	return Result{
		Key:        e.key.clone(),
		Status:     status,
		Value:      e.value,
		HasValue:   e.hasValue,
		Err:        e.err,
		Stale:      e.stale,
		Fetching:   e.inflight != nil,
		Generation: e.committed,
		FetchedAt:  e.fetchedAt,
	}
}

// Cache is a process-wide store of query results. Create one at start-up,
// pass it to consumers, and Clear it on logout.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int

	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for cache diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]*entry),
		subs:    make(map[int]chan Event),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Read returns a fresh entry immediately, joins an in-flight fetch, or starts
// a new one and waits for it. Fetches outlive ctx; only the wait is bounded by it.
func (c *Cache) Read(ctx context.Context, q Query) Result {
	if !q.Enabled {
		return Result{Key: q.Key.clone(), Status: StatusDisabled}
	}

	for {
		c.mu.Lock()
		e := c.entryLocked(q.Key)
		if e.fresh() {
			r := e.snapshot()
			c.mu.Unlock()
			c.logger.Debug("Query cache hit", "key", q.Key.String())
			return r
		}
		cl := e.inflight
		if cl == nil {
			cl = c.startLocked(ctx, e, q.Fetch)
		} else {
			c.logger.Debug("Joining in-flight fetch", "key", q.Key.String(), "generation", cl.gen)
		}
		c.mu.Unlock()

		select {
		case <-cl.done:
		case <-ctx.Done():
			r := c.Peek(q.Key)
			r.Err = ctx.Err()
			return r
		}

		if cl.committed {
			return c.resultFor(e, cl)
		}
		// Superseded: follow whichever fetch replaced it.
	}
}

// Load is the non-blocking form of Read: it returns the current snapshot and
// starts a fetch when the entry is missing or stale and nothing is in flight.
func (c *Cache) Load(q Query) Result {
	if !q.Enabled {
		return Result{Key: q.Key.clone(), Status: StatusDisabled}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryLocked(q.Key)
	if !e.fresh() && e.inflight == nil {
		c.startLocked(context.Background(), e, q.Fetch)
	}
	return e.snapshot()
}

// Peek returns the current snapshot for key without fetching.
func (c *Cache) Peek(key Key) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.id()]
	if !ok {
		return Result{Key: key.clone(), Status: StatusIdle}
	}
	return e.snapshot()
}

// Invalidate marks every entry whose key starts with prefix stale. Values are
// kept for display; any in-flight fetch is detached so the next read refetches.
// It returns the number of entries marked.
func (c *Cache) Invalidate(prefix Key) int {
	c.mu.Lock()
	n := 0
	for _, e := range c.entries {
		if !e.key.HasPrefix(prefix) {
			continue
		}
		e.stale = true
		if e.inflight != nil {
			e.inflight.invalidated = true
			e.inflight = nil
		}
		n++
	}
	c.mu.Unlock()

	if n > 0 {
		c.logger.Debug("Query cache invalidated", "prefix", prefix.String(), "entries", n)
		c.publish(Event{Kind: EventInvalidated, Key: prefix.clone()})
	}
	return n
}

// Clear drops every entry. In-flight fetches finish but never commit.
func (c *Cache) Clear() {
	c.mu.Lock()
	for _, e := range c.entries {
		if e.inflight != nil {
			e.inflight.invalidated = true
			e.inflight = nil
		}
	}
	n := len(c.entries)
	c.entries = make(map[string]*entry)
	c.mu.Unlock()

	c.logger.Debug("Query cache cleared", "entries", n)
	c.publish(Event{Kind: EventCleared})
}

// Len returns the number of entries held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) entryLocked(key Key) *entry {
	id := key.id()
	e, ok := c.entries[id]
	if !ok {
		e = &entry{key: key.clone()}
		c.entries[id] = e
	}
	return e
}

func (c *Cache) startLocked(ctx context.Context, e *entry, fetch Fetcher) *call {
	e.started++
	cl := &call{gen: e.started, done: make(chan struct{})}
	e.inflight = cl

	c.logger.Debug("Query cache fetch", "key", e.key.String(), "generation", cl.gen)
	go c.run(context.WithoutCancel(ctx), e, cl, fetch)
	return cl
}

func (c *Cache) run(ctx context.Context, e *entry, cl *call, fetch Fetcher) {
	value, err := fetch(ctx)

	c.mu.Lock()
	cl.value, cl.err = value, err
	current := c.entries[e.key.id()] == e
	if current && cl.gen == e.started {
		if err == nil {
			e.value = value
			e.hasValue = true
			e.err = nil
			e.status = StatusSuccess
		} else {
			e.err = err
			e.status = StatusError
		}
		e.committed = cl.gen
		e.stale = cl.invalidated
		e.fetchedAt = c.now()
		cl.committed = true
	} else {
		c.logger.Debug("Discarding superseded fetch",
			"key", e.key.String(), "generation", cl.gen, "latest", e.started, "cleared", !current)
	}
	if e.inflight == cl {
		e.inflight = nil
	}
	c.mu.Unlock()

	// Publish before waking readers so events arrive in commit order.
	if cl.committed {
		c.publish(Event{Kind: EventUpdated, Key: e.key.clone()})
	}
	close(cl.done)
}

func (c *Cache) resultFor(e *entry, cl *call) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries[e.key.id()] == e && e.committed == cl.gen {
		return e.snapshot()
	}

	r := Result{
		Key:        e.key.clone(),
		Status:     StatusSuccess,
		Value:      cl.value,
		HasValue:   cl.err == nil,
		Err:        cl.err,
		Stale:      cl.invalidated,
		Generation: cl.gen,
	}
	if cl.err != nil {
		r.Status = StatusError
		r.Value = nil
	}
	return r
}
