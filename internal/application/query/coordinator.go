package query

import (
	"context"
	"sync"
	"time"

	"crypto-pulse-service/internal/infrastructure/logging"
	"crypto-pulse-service/internal/infrastructure/metrics"
)

// Coordinator is the registry of live queries keyed by descriptor.
//
// Lock order is Coordinator.mu before query.mu. No lock is held while a
// fetch function runs.
type Coordinator struct {
	mu      sync.Mutex
	queries map[string]*query
	closed  bool

	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	now    func() time.Time
	logger logging.QueryLogger
}

// NewCoordinator crea el registro con los valores por defecto de cfg
func NewCoordinator(cfg Config) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		queries: make(map[string]*query),
		cfg:     cfg.withDefaults(),
		ctx:     ctx,
		cancel:  cancel,
		now:     time.Now,
		logger:  logging.Query(),
	}
}

// Subscribe attaches to the query for d, creating it on first use. A fetch
// starts when the query has no data or its data is older than StaleTime,
// unless one is already in flight or the query is disabled.
func (c *Coordinator) Subscribe(d Descriptor, fetch FetchFunc, opts Options) (*Subscription, error) {
	key := d.Key()
	opts = c.cfg.resolve(opts)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	q, ok := c.queries[key]
	if !ok {
		q = newQuery(c, key, d.Label())
		c.queries[key] = q
		metrics.UpdateActiveQueries(len(c.queries))
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.fetch = fetch
	q.opts = opts
	sub := q.addSubscriberLocked()

	if opts.Disabled {
		sub.deliver(q.state)
		return sub, nil
	}

	if len(q.subs) == 1 {
		q.activateLocked()
	}
	if q.state.isStale(c.now(), opts.StaleTime) && q.startFetchLocked(false) {
		return sub, nil
	}

	sub.deliver(q.state)
	return sub, nil
}

// Peek returns the current state of key without subscribing
func (c *Coordinator) Peek(key string) (State, bool) {
	c.mu.Lock()
	q, ok := c.queries[key]
	c.mu.Unlock()
	if !ok {
		return State{}, false
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state, true
}

// Len is the number of queries in the registry, active or awaiting GC
func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queries)
}

// Close stops every timer, cancels in-flight fetches, closes all update
// channels and waits for the background goroutines to exit.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true

	for key, q := range c.queries {
		q.mu.Lock()
		q.deactivateLocked()
		q.stopGCLocked()
		for id, sub := range q.subs {
			delete(q.subs, id)
			close(sub.updates)
		}
		q.mu.Unlock()
		delete(c.queries, key)
	}
	metrics.UpdateActiveQueries(0)
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

// unsubscribe removes sub; the last one out stops the query and arms GC
func (c *Coordinator) unsubscribe(sub *Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q := sub.q
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.subs[sub.id]; !ok {
		return
	}
	delete(q.subs, sub.id)
	close(sub.updates)
	metrics.AddQuerySubscribers(q.resource, -1)

	if len(q.subs) > 0 || c.closed {
		return
	}

	q.deactivateLocked()
	q.gcTimer = time.AfterFunc(q.opts.GCTime, func() { c.collect(q) })
}

// refetch fuerza un fetch para la suscripción, deduplicado con el en vuelo
func (c *Coordinator) refetch(sub *Subscription) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	q := sub.q
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.subs[sub.id]; !ok {
		return ErrNoSubscribers
	}
	if q.opts.Disabled {
		return ErrQueryDisabled
	}
	q.startFetchLocked(false)
	return nil
}

// collect drops q once its GC timer fires, unless it was revived meanwhile
func (c *Coordinator) collect(q *query) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.queries[q.key] != q {
		return
	}

	q.mu.Lock()
	idle := len(q.subs) == 0
	q.mu.Unlock()
	if !idle {
		return
	}

	delete(c.queries, q.key)
	metrics.UpdateActiveQueries(len(c.queries))
	c.logger.QueryEvicted(c.ctx, q.key)
}
