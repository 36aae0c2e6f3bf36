// Package suggest turns a raw keystroke stream into rate-limited suggestion
// fetches.
//
// Each keystroke resets a debounce timer; a query is committed only after
// the quiet period elapses with no further input. Responses are matched to
// the query generation that produced them, so a slow fetch can never
// overwrite suggestions for a newer query.
package suggest

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/maisonnoir/storefront/internal/domain/catalog"
)

const (
	// DefaultQuietPeriod is the pause required after the last keystroke
	// before a query is committed.
	DefaultQuietPeriod = 300 * time.Millisecond
	// DefaultMinLength is the shortest query that triggers a fetch; anything
	// shorter clears the suggestion list instead.
	DefaultMinLength = 2
)

// Fetcher retrieves suggestions for a committed query.
type Fetcher interface {
	Fetch(ctx context.Context, query string) ([]catalog.Product, error)
}

// EventKind discriminates pipeline events.
type EventKind int

const (
	// EventSuggestions carries fresh suggestions for the committed query.
	EventSuggestions EventKind = iota
	// EventClear tells the consumer to drop the current suggestion list.
	EventClear
)

// Event is a pipeline output: either a suggestion list for a committed
// query or an explicit clear signal.
type Event struct {
	Kind     EventKind
	Query    string
	Products []catalog.Product
}

// Sink consumes pipeline events.
type Sink func(Event)

// Config holds pipeline tuning knobs.
type Config struct {
	QuietPeriod time.Duration
	MinLength   int
}

func (c *Config) setDefaults() {
	if c.QuietPeriod <= 0 {
		c.QuietPeriod = DefaultQuietPeriod
	}
	if c.MinLength <= 0 {
		c.MinLength = DefaultMinLength
	}
}

// Pipeline debounces keystrokes into committed queries and fans fetched
// suggestions out to the sink.
type Pipeline struct {
	fetcher   Fetcher
	sink      Sink
	debouncer *Debouncer
	minLength int
	lg        *zap.Logger

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc

	// deliverMu is held across the staleness check and the sink call, so
	// a response that passed the check cannot be overtaken by a newer one.
	deliverMu sync.Mutex
}

// NewPipeline creates a Pipeline delivering events to sink.
func NewPipeline(cfg Config, clock Clock, fetcher Fetcher, sink Sink, lg *zap.Logger) *Pipeline {
	cfg.setDefaults()
	return &Pipeline{
		fetcher:   fetcher,
		sink:      sink,
		debouncer: NewDebouncer(clock, cfg.QuietPeriod),
		minLength: cfg.MinLength,
		lg:        lg,
	}
}

// Update feeds one keystroke's worth of query text into the pipeline.
// Queries below the minimum length cancel any pending commit, invalidate
// in-flight fetches, and emit a clear event immediately.
func (p *Pipeline) Update(query string) {
	query = strings.TrimSpace(query)

	if utf8.RuneCountInString(query) < p.minLength {
		p.debouncer.Cancel()
		p.invalidate()
		p.deliverMu.Lock()
		p.sink(Event{Kind: EventClear})
		p.deliverMu.Unlock()
		return
	}

	p.debouncer.Trigger(func() {
		p.commit(query)
	})
}

// Close cancels any pending commit and in-flight fetch.
func (p *Pipeline) Close() {
	p.debouncer.Cancel()
	p.invalidate()
}

// commit starts a fetch for a query that survived the quiet period. The
// fetch runs in its own goroutine; a previous in-flight fetch is cancelled
// and its response, should it still arrive, is discarded as stale.
func (p *Pipeline) commit(query string) {
	p.mu.Lock()
	p.gen++
	gen := p.gen
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.mu.Unlock()

	go func() {
		products, err := p.fetcher.Fetch(ctx, query)

		p.deliverMu.Lock()
		defer p.deliverMu.Unlock()

		p.mu.Lock()
		stale := gen != p.gen
		p.mu.Unlock()
		if stale {
			// A newer query was committed while this fetch was in flight.
			return
		}
		if err != nil {
			p.lg.Warn("suggestion fetch failed",
				zap.String("query", query),
				zap.Error(err),
			)
			return
		}

		p.sink(Event{Kind: EventSuggestions, Query: query, Products: products})
	}()
}

// invalidate bumps the generation so any in-flight response is discarded,
// and cancels the fetch context.
func (p *Pipeline) invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}
