package query

import "context"

// Subscription is one subscriber's handle on a shared query
type Subscription struct {
	id      uint64
	q       *query
	updates chan State
}

// Key returns the descriptor key of the underlying query
func (s *Subscription) Key() string {
	return s.q.key
}

// State returns the current state of the query
func (s *Subscription) State() State {
	s.q.mu.Lock()
	defer s.q.mu.Unlock()
	return s.q.state
}

// Updates yields state changes. Only the latest undelivered state is kept,
// so a slow reader skips intermediate states but never misses the last one.
// The channel is closed on Unsubscribe or when the coordinator closes.
func (s *Subscription) Updates() <-chan State {
	return s.updates
}

// Refetch forces a fetch, joining the one in flight if any
func (s *Subscription) Refetch() error {
	return s.q.c.refetch(s)
}

// Unsubscribe detaches from the query. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.q.c.unsubscribe(s)
}

// WaitSettled blocks until no fetch is running or ctx is done, consuming
// Updates meanwhile. On timeout it returns the latest state and ctx.Err().
func (s *Subscription) WaitSettled(ctx context.Context) (State, error) {
	for {
		state := s.State()
		if state.Settled() {
			return state, nil
		}

		select {
		case <-ctx.Done():
			return s.State(), ctx.Err()
		case _, ok := <-s.updates:
			if !ok {
				return s.State(), ErrNoSubscribers
			}
		}
	}
}

// deliver replaces any pending state with st. Called with q.mu held.
func (s *Subscription) deliver(st State) {
	select {
	case s.updates <- st:
		return
	default:
	}
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- st:
	default:
	}
}
