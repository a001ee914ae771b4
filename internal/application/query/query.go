package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"crypto-pulse-service/internal/infrastructure/metrics"
)

// query holds the shared state of one descriptor key.
// Every field below mu is guarded by it.
type query struct {
	c        *Coordinator
	key      string
	resource string

	mu        sync.Mutex
	fetch     FetchFunc
	opts      Options
	state     State
	subs      map[uint64]*Subscription
	nextSubID uint64

	// inFlight guarantees a single fetch per key. generation changes every
	// time the query loses its last subscriber so late results are dropped.
	inFlight     bool
	generation   uint64
	fetchCancel  context.CancelFunc
	tickerCancel context.CancelFunc
	gcTimer      *time.Timer
}

func newQuery(c *Coordinator, key, resource string) *query {
	return &query{
		c:        c,
		key:      key,
		resource: resource,
		state:    State{Key: key, Status: StatusIdle},
		subs:     make(map[uint64]*Subscription),
	}
}

func (q *query) addSubscriberLocked() *Subscription {
	q.stopGCLocked()
	q.nextSubID++
	sub := &Subscription{
		id:      q.nextSubID,
		q:       q,
		updates: make(chan State, 1),
	}
	q.subs[sub.id] = sub
	metrics.AddQuerySubscribers(q.resource, 1)
	return sub
}

// activateLocked starts the background refresh for the first subscriber
func (q *query) activateLocked() {
	interval := q.opts.RefetchInterval
	if interval <= 0 || q.tickerCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(q.c.ctx)
	q.tickerCancel = cancel
	q.c.wg.Add(1)
	go q.refreshLoop(ctx, interval)
}

func (q *query) refreshLoop(ctx context.Context, interval time.Duration) {
	defer q.c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.mu.Lock()
			if ctx.Err() == nil && len(q.subs) > 0 && !q.opts.Disabled {
				q.startFetchLocked(true)
			}
			q.mu.Unlock()
		}
	}
}

// deactivateLocked stops the ticker and abandons the in-flight fetch
func (q *query) deactivateLocked() {
	q.generation++
	if q.tickerCancel != nil {
		q.tickerCancel()
		q.tickerCancel = nil
	}
	if q.fetchCancel != nil {
		q.fetchCancel()
		q.fetchCancel = nil
	}
	q.inFlight = false
	q.state.IsFetching = false
	if q.state.Status == StatusLoading {
		q.state.Status = StatusIdle
	}
}

func (q *query) stopGCLocked() {
	if q.gcTimer != nil {
		q.gcTimer.Stop()
		q.gcTimer = nil
	}
}

// startFetchLocked launches the fetch pipeline unless one is running.
// It reports whether the current state was broadcast.
func (q *query) startFetchLocked(background bool) bool {
	if q.inFlight || q.fetch == nil {
		return false
	}

	ctx, cancel := context.WithCancel(q.c.ctx)
	q.inFlight = true
	q.fetchCancel = cancel
	q.state.IsFetching = true
	if !q.state.HasData() {
		q.state.Status = StatusLoading
	}
	q.broadcastLocked()

	q.c.wg.Add(1)
	go q.run(ctx, q.generation, q.fetch, q.opts, background)
	return true
}

func (q *query) run(ctx context.Context, generation uint64, fetch FetchFunc, opts Options, background bool) {
	defer q.c.wg.Done()

	logger := q.c.logger
	logger.FetchStarted(ctx, q.key, background)
	start := time.Now()

	data, attempts, err := q.execute(ctx, fetch, opts)
	duration := time.Since(start)

	q.mu.Lock()
	defer q.mu.Unlock()

	if generation != q.generation {
		// nobody is listening anymore
		return
	}
	q.inFlight = false
	q.fetchCancel = nil
	q.state.IsFetching = false

	if err != nil && ctx.Err() != nil {
		if q.state.Status == StatusLoading {
			q.state.Status = StatusIdle
		}
		q.broadcastLocked()
		return
	}

	if err != nil {
		metrics.RecordQueryFetch(q.resource, "error", duration.Seconds())
		logger.FetchFailed(ctx, q.key, attempts, err)
		q.state.Status = StatusError
		q.state.Err = err
		q.state.FailureCount = attempts
		q.broadcastLocked()
		return
	}

	metrics.RecordQueryFetch(q.resource, "success", duration.Seconds())
	logger.FetchSucceeded(ctx, q.key, duration)
	q.state.Status = StatusSuccess
	q.state.Data = data
	q.state.Err = nil
	q.state.FailureCount = 0
	q.state.LastUpdated = q.c.now()
	q.broadcastLocked()
}

// execute runs fetch with up to opts.RetryCount retries
func (q *query) execute(ctx context.Context, fetch FetchFunc, opts Options) (json.RawMessage, int, error) {
	attempts := 0
	total := uint(opts.RetryCount) + 1

	data, err := retry.DoWithData(
		func() (json.RawMessage, error) {
			attempts++
			return safeFetch(ctx, fetch)
		},
		retry.Context(ctx),
		retry.Attempts(total),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return opts.RetryDelay(n - 1)
		}),
		retry.RetryIf(func(err error) bool {
			return retry.IsRecoverable(err) &&
				!errors.Is(err, context.Canceled) &&
				!errors.Is(err, context.DeadlineExceeded)
		}),
		retry.OnRetry(func(n uint, err error) {
			if n+1 >= total {
				return
			}
			metrics.RecordQueryRetry(q.resource, n+1)
			q.c.logger.RetryScheduled(ctx, q.key, n+1, opts.RetryDelay(n), err)
		}),
	)
	return data, attempts, err
}

// safeFetch turns a panicking fetch into an error
func safeFetch(ctx context.Context, fetch FetchFunc) (data json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = retry.Unrecoverable(fmt.Errorf("%w: %v", ErrFetchPanicked, r))
		}
	}()
	return fetch(ctx)
}

func (q *query) broadcastLocked() {
	for _, sub := range q.subs {
		sub.deliver(q.state)
	}
}
