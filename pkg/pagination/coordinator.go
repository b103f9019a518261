package pagination

import (
	"context"
	"sync"

	"github.com/Sternrassler/movie-search/pkg/catalog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for page coordination.
var (
	pagesAppendedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagination_pages_appended_total",
		Help: "Total number of pages appended to a result set",
	})

	staleResponsesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagination_stale_responses_total",
		Help: "Total number of responses discarded because the query changed",
	})

	coalescedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagination_coalesced_total",
		Help: "Total number of fetch-more signals ignored because a fetch was in flight",
	})

	exhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagination_exhausted_total",
		Help: "Total number of result sets that reached the exhausted state by cause",
	}, []string{"cause"}) // "last_page", "empty"
)

// PageFetcher is the interface the query client must implement.
// ok is false for an empty result, which includes any failure.
type PageFetcher interface {
	FetchPage(ctx context.Context, query catalog.SearchQuery, page int) (*catalog.Page, bool)
}

// Coordinator owns the page list of the active search query.
// It is safe for concurrent use.
type Coordinator struct {
	fetcher PageFetcher
	logger  zerolog.Logger

	mu         sync.Mutex
	query      catalog.SearchQuery
	generation uint64
	version    uint64
	pages      []catalog.Page
	state      State

	subMu       sync.Mutex
	subscribers map[int]func(Snapshot)
	nextSubID   int
}

// NewCoordinator creates a coordinator with no active query.
func NewCoordinator(fetcher PageFetcher) *Coordinator {
	if fetcher == nil {
		panic("page fetcher cannot be nil")
	}
	return &Coordinator{
		fetcher:     fetcher,
		logger:      log.With().Str("component", "pagination").Logger(),
		state:       StateIdle,
		subscribers: make(map[int]func(Snapshot)),
	}
}

// Reset discards the current result set and makes query the active query.
// Any fetch still in flight for the previous query is dropped when it
// completes.
func (c *Coordinator) Reset(query catalog.SearchQuery) {
	c.mu.Lock()
	previous := c.query
	dropped := len(c.pages)
	c.generation++
	c.query = query
	c.pages = nil
	c.state = StateIdle
	c.version++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Info().
		Str("query", query.String()).
		Str("previous_query", previous.String()).
		Int("dropped_pages", dropped).
		Msg("Result set reset")

	c.notify(snap)
}

// Begin starts a fetch if ShouldFetchMore holds. Otherwise it returns false
// and the signal is a no-op. Each successful Begin must be followed by
// exactly one Complete with the returned ticket.
func (c *Coordinator) Begin() (Ticket, bool) {
	c.mu.Lock()
	if !c.shouldFetchMoreLocked() {
		fetching := c.state.IsFetching()
		c.mu.Unlock()
		if fetching {
			coalescedTotal.Inc()
		}
		return Ticket{}, false
	}

	next := c.cursorLocked()
	if next == 1 {
		c.state = StateFetchingFirstPage
	} else {
		c.state = StateFetchingNextPage
	}
	ticket := Ticket{
		Query:      c.query,
		Page:       next,
		generation: c.generation,
	}
	c.version++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Debug().
		Str("query", ticket.Query.String()).
		Int("page", ticket.Page).
		Msg("Fetch started")

	c.notify(snap)
	return ticket, true
}

// Complete records the outcome of the fetch identified by ticket.
// It returns true when page was appended. A ticket from before the last
// Reset is discarded without touching the current result set.
func (c *Coordinator) Complete(ticket Ticket, page *catalog.Page, ok bool) bool {
	c.mu.Lock()
	if ticket.generation != c.generation {
		c.mu.Unlock()
		staleResponsesTotal.Inc()
		c.logger.Debug().
			Str("query", ticket.Query.String()).
			Int("page", ticket.Page).
			Msg("Discarding response for abandoned query")
		return false
	}

	appended := false
	if !ok || page == nil {
		c.state = StateExhausted
		exhaustedTotal.WithLabelValues("empty").Inc()
		c.logger.Info().
			Str("query", ticket.Query.String()).
			Int("page", ticket.Page).
			Msg("Empty result, no more pages")
	} else {
		p := *page
		// The cursor, not the remote, decides the page number.
		p.Number = ticket.Page
		p.Results = append([]catalog.MovieSummary(nil), page.Results...)
		c.pages = append(c.pages, p)
		appended = true
		pagesAppendedTotal.Inc()

		if p.HasNext() {
			c.state = StateIdle
		} else {
			c.state = StateExhausted
			exhaustedTotal.WithLabelValues("last_page").Inc()
		}

		c.logger.Debug().
			Str("query", ticket.Query.String()).
			Int("page", p.Number).
			Int("total_pages", p.TotalPages).
			Int("results", len(p.Results)).
			Str("state", string(c.state)).
			Msg("Page appended")
	}
	c.version++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snap)
	return appended
}

// FetchNext fetches and appends the next page if ShouldFetchMore holds.
// It blocks for the duration of the fetch and returns true when a page was
// appended to the active result set.
func (c *Coordinator) FetchNext(ctx context.Context) bool {
	ticket, ok := c.Begin()
	if !ok {
		return false
	}

	page, ok := c.fetcher.FetchPage(ctx, ticket.Query, ticket.Page)
	return c.Complete(ticket, page, ok)
}

// ShouldFetchMore reports HasNextPage && !IsFetching.
func (c *Coordinator) ShouldFetchMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shouldFetchMoreLocked()
}

// HasNextPage reports whether another page can be requested for the
// active query.
func (c *Coordinator) HasNextPage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasNextPageLocked()
}

// IsFetching reports whether a fetch is in flight.
func (c *Coordinator) IsFetching() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.IsFetching()
}

// NextPage returns the fetch cursor: the page number the next fetch would
// request. ok is false when no further page exists.
func (c *Coordinator) NextPage() (page int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasNextPageLocked() {
		return 0, false
	}
	return c.cursorLocked(), true
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Query returns the active query.
func (c *Coordinator) Query() catalog.SearchQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Pages returns a copy of the fetched pages in ascending order.
func (c *Coordinator) Pages() []catalog.Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]catalog.Page(nil), c.pages...)
}

// Movies returns all accumulated results in page order.
func (c *Coordinator) Movies() []catalog.MovieSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return flatten(c.pages)
}

// Snapshot returns a consistent copy of the coordinator state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to be called after every state change.
// fn runs on the goroutine that caused the change, outside the
// coordinator lock. The returned function removes the subscription.
func (c *Coordinator) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subscribers, id)
		c.subMu.Unlock()
	}
}

func (c *Coordinator) notify(snap Snapshot) {
	c.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (c *Coordinator) hasNextPageLocked() bool {
	if c.query.IsEmpty() || c.state == StateExhausted {
		return false
	}
	if len(c.pages) == 0 {
		return true
	}
	return c.pages[len(c.pages)-1].HasNext()
}

func (c *Coordinator) shouldFetchMoreLocked() bool {
	return c.hasNextPageLocked() && !c.state.IsFetching()
}

// cursorLocked derives the next page number from the last fetched page.
func (c *Coordinator) cursorLocked() int {
	if len(c.pages) == 0 {
		return 1
	}
	return c.pages[len(c.pages)-1].NextNumber()
}

// snapshotLocked must be called with c.mu held.
func (c *Coordinator) snapshotLocked() Snapshot {
	return Snapshot{
		Query:       c.query,
		State:       c.state,
		Pages:       append([]catalog.Page(nil), c.pages...),
		HasNextPage: c.hasNextPageLocked(),
		Version:     c.version,
	}
}
