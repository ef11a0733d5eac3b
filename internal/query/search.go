package query

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/intelink/console/internal/logger"
)

// DefaultSearchDelay is the pause after the last keystroke before searching.
const DefaultSearchDelay = 500 * time.Millisecond

// Fetcher loads results for a search term.
type Fetcher[T any] func(ctx context.Context, term string) (T, error)

// Result is one delivered search response.
type Result[T any] struct {
	Term  string
	Seq   uint64
	Value T
	Err   error
}

// SearchController debounces keystrokes and delivers only the response of
// the newest dispatched search. Older responses that arrive late are dropped.
type SearchController[T any] struct {
	key      string
	fetch    Fetcher[T]
	deliver  func(Result[T])
	seq      *Sequencer
	debounce *Debouncer
	log      *logrus.Entry

	ctx      context.Context
	cancel   context.CancelFunc
	inflight sync.WaitGroup
	mu       sync.Mutex
	closed   bool
	dropped  atomic.Int64

	// deliverMu makes the latest-check and the delivery one step.
	deliverMu sync.Mutex
}

func NewSearchController[T any](key string, delay time.Duration, fetch Fetcher[T], deliver func(Result[T])) *SearchController[T] {
	if delay <= 0 {
		delay = DefaultSearchDelay
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &SearchController[T]{
		key:      key,
		fetch:    fetch,
		deliver:  deliver,
		seq:      NewSequencer(),
		debounce: NewDebouncer(delay),
		log:      logger.Component("query").WithField("query", key),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Type records a keystroke; the search runs after the debounce delay.
func (c *SearchController[T]) Type(term string) {
	c.debounce.Trigger(func() { c.Submit(term) })
}

// Submit dispatches a search right away and returns its sequence number,
// or 0 once the controller is closed.
func (c *SearchController[T]) Submit(term string) uint64 {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0
	}
	seq := c.seq.Next(c.key)
	c.inflight.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.inflight.Done()
		value, err := c.fetch(c.ctx, term)

		c.deliverMu.Lock()
		defer c.deliverMu.Unlock()
		if !c.seq.IsLatest(c.key, seq) {
			c.dropped.Add(1)
			c.log.WithField("seq", seq).Debug("dropping stale search response")
			return
		}
		if c.ctx.Err() != nil {
			return
		}
		c.deliver(Result[T]{Term: term, Seq: seq, Value: value, Err: err})
	}()
	return seq
}

// Flush drops the pending keystroke and searches for term right away, as
// when the user presses enter.
func (c *SearchController[T]) Flush(term string) uint64 {
	c.debounce.Cancel()
	return c.Submit(term)
}

// Dropped returns how many stale responses were discarded.
func (c *SearchController[T]) Dropped() int64 {
	return c.dropped.Load()
}

// Close cancels the pending keystroke and in-flight fetches and waits for
// them to return. Nothing is delivered after Close returns.
func (c *SearchController[T]) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.debounce.Stop()
	c.cancel()
	c.inflight.Wait()
}
