package pagination

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/movie-search/pkg/catalog"
)

type fetchCall struct {
	Query catalog.SearchQuery
	Page  int
}

// fakeFetcher serves totalPages[query] pages of one movie each.
type fakeFetcher struct {
	mu         sync.Mutex
	totalPages map[catalog.SearchQuery]int
	empty      map[fetchCall]bool
	gates      map[catalog.SearchQuery]chan struct{}
	started    chan fetchCall
	calls      []fetchCall
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		totalPages: make(map[catalog.SearchQuery]int),
		empty:      make(map[fetchCall]bool),
		gates:      make(map[catalog.SearchQuery]chan struct{}),
		started:    make(chan fetchCall, 64),
	}
}

func (f *fakeFetcher) FetchPage(ctx context.Context, query catalog.SearchQuery, page int) (*catalog.Page, bool) {
	call := fetchCall{Query: query, Page: page}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	gate := f.gates[query]
	empty := f.empty[call]
	total, ok := f.totalPages[query]
	f.mu.Unlock()

	f.started <- call
	if gate != nil {
		<-gate
	}

	if empty {
		return nil, false
	}
	if !ok {
		total = 1
	}
	return &catalog.Page{
		Number:     page,
		TotalPages: total,
		Results: []catalog.MovieSummary{
			{ID: int64(page), Title: fmt.Sprintf("%s page %d", query, page)},
		},
	}, true
}

func (f *fakeFetcher) Calls() []fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fetchCall(nil), f.calls...)
}

// block makes fetches for query wait until the returned func is called.
func (f *fakeFetcher) block(query catalog.SearchQuery) (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gates[query] = gate
	f.mu.Unlock()
	return func() { close(gate) }
}

func waitStarted(t *testing.T, f *fakeFetcher) fetchCall {
	t.Helper()
	select {
	case call := <-f.started:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not start")
		return fetchCall{}
	}
}

func drain(ctx context.Context, c *Coordinator, max int) int {
	n := 0
	for i := 0; i < max && c.ShouldFetchMore(); i++ {
		c.FetchNext(ctx)
		n++
	}
	return n
}

func TestNewCoordinator_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewCoordinator should panic with nil fetcher")
		}
	}()
	NewCoordinator(nil)
}

func TestCoordinator_NoQuery(t *testing.T) {
	f := newFakeFetcher()
	c := NewCoordinator(f)

	if c.ShouldFetchMore() {
		t.Error("ShouldFetchMore() = true before any query")
	}
	if c.FetchNext(context.Background()) {
		t.Error("FetchNext() = true before any query")
	}
	if len(f.Calls()) != 0 {
		t.Errorf("fetch calls = %d, want 0", len(f.Calls()))
	}
}

func TestCoordinator_ThreePagesInOrder(t *testing.T) {
	f := newFakeFetcher()
	f.totalPages["alien"] = 3
	c := NewCoordinator(f)
	ctx := context.Background()

	c.Reset("alien")
	drain(ctx, c, 10)

	want := []fetchCall{{"alien", 1}, {"alien", 2}, {"alien", 3}}
	got := f.Calls()
	if len(got) != len(want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if c.State() != StateExhausted {
		t.Errorf("State() = %q, want %q", c.State(), StateExhausted)
	}

	// A further fetch-more signal after exhaustion issues nothing.
	if c.FetchNext(ctx) {
		t.Error("FetchNext() after exhaustion = true")
	}
	if len(f.Calls()) != 3 {
		t.Errorf("calls after exhaustion = %d, want 3", len(f.Calls()))
	}

	pages := c.Pages()
	for i, p := range pages {
		if p.Number != i+1 {
			t.Errorf("pages[%d].Number = %d, want %d", i, p.Number, i+1)
		}
	}
	if movies := c.Movies(); len(movies) != 3 {
		t.Errorf("Movies() = %d, want 3", len(movies))
	}
}

func TestCoordinator_SinglePageExhaustsImmediately(t *testing.T) {
	f := newFakeFetcher()
	f.totalPages["up"] = 1
	c := NewCoordinator(f)

	c.Reset("up")
	if !c.FetchNext(context.Background()) {
		t.Fatal("FetchNext() = false for page 1")
	}

	if c.State() != StateExhausted {
		t.Errorf("State() = %q, want %q", c.State(), StateExhausted)
	}
	if c.HasNextPage() {
		t.Error("HasNextPage() = true after single page")
	}
	if _, ok := c.NextPage(); ok {
		t.Error("NextPage() ok = true after single page")
	}

	c.FetchNext(context.Background())
	for _, call := range f.Calls() {
		if call.Page == 2 {
			t.Fatal("page 2 must never be requested")
		}
	}
}

func TestCoordinator_NoResults(t *testing.T) {
	f := newFakeFetcher()
	f.totalPages["zzzz"] = 0
	c := NewCoordinator(f)

	c.Reset("zzzz")
	drain(context.Background(), c, 10)

	if len(f.Calls()) != 1 {
		t.Errorf("calls = %d, want 1", len(f.Calls()))
	}
	if c.State() != StateExhausted {
		t.Errorf("State() = %q, want exhausted", c.State())
	}
}

func TestCoordinator_EmptySecondPageExhaustsWithoutError(t *testing.T) {
	f := newFakeFetcher()
	f.totalPages["alien"] = 5
	f.empty[fetchCall{"alien", 2}] = true
	c := NewCoordinator(f)
	ctx := context.Background()

	c.Reset("alien")
	if !c.FetchNext(ctx) {
		t.Fatal("page 1 should be appended")
	}
	if c.FetchNext(ctx) {
		t.Error("empty page 2 should not be appended")
	}

	// A failed fetch reads as "nothing more to load".
	if c.State() != StateExhausted {
		t.Errorf("State() = %q, want %q", c.State(), StateExhausted)
	}
	if len(c.Pages()) != 1 {
		t.Errorf("Pages() = %d, want 1 (page 1 kept)", len(c.Pages()))
	}
	if c.FetchNext(ctx) {
		t.Error("FetchNext() after exhaustion = true")
	}
	if len(f.Calls()) != 2 {
		t.Errorf("calls = %d, want 2", len(f.Calls()))
	}
}

func TestCoordinator_FetchCursor(t *testing.T) {
	f := newFakeFetcher()
	f.totalPages["alien"] = 3
	c := NewCoordinator(f)
	ctx := context.Background()

	c.Reset("alien")
	for want := 1; want <= 3; want++ {
		got, ok := c.NextPage()
		if !ok || got != want {
			t.Fatalf("NextPage() = (%d, %v), want (%d, true)", got, ok, want)
		}
		c.FetchNext(ctx)
	}
}

func TestCoordinator_CoalescesWhileFetching(t *testing.T) {
	f := newFakeFetcher()
	f.totalPages["alien"] = 3
	c := NewCoordinator(f)

	c.Reset("alien")
	ticket, ok := c.Begin()
	if !ok {
		t.Fatal("Begin() = false")
	}
	if c.State() != StateFetchingFirstPage {
		t.Errorf("State() = %q, want %q", c.State(), StateFetchingFirstPage)
	}

	if _, ok := c.Begin(); ok {
		t.Error("second Begin() while fetching should be a no-op")
	}
	if c.FetchNext(context.Background()) {
		t.Error("FetchNext() while fetching should be a no-op")
	}
	if c.ShouldFetchMore() {
		t.Error("ShouldFetchMore() = true while fetching")
	}
	if len(f.Calls()) != 0 {
		t.Errorf("fetcher called %d times, want 0", len(f.Calls()))
	}

	page, _ := f.FetchPage(context.Background(), ticket.Query, ticket.Page)
	if !c.Complete(ticket, page, true) {
		t.Fatal("Complete() = false")
	}

	next, ok := c.Begin()
	if !ok {
		t.Fatal("Begin() after completion = false")
	}
	if next.Page != 2 {
		t.Errorf("next ticket page = %d, want 2", next.Page)
	}
	if c.State() != StateFetchingNextPage {
		t.Errorf("State() = %q, want %q", c.State(), StateFetchingNextPage)
	}
}

func TestCoordinator_StaleTicketDiscarded(t *testing.T) {
	f := newFakeFetcher()
	c := NewCoordinator(f)

	c.Reset("alien")
	ticket, ok := c.Begin()
	if !ok {
		t.Fatal("Begin() = false")
	}

	c.Reset("bond")

	page := &catalog.Page{Number: 1, TotalPages: 1, Results: []catalog.MovieSummary{{ID: 1, Title: "Alien"}}}
	if c.Complete(ticket, page, true) {
		t.Error("Complete() with stale ticket = true")
	}

	if len(c.Pages()) != 0 {
		t.Errorf("Pages() = %d, want 0", len(c.Pages()))
	}
	if c.Query() != "bond" {
		t.Errorf("Query() = %q, want bond", c.Query())
	}
	if c.State() != StateIdle {
		t.Errorf("State() = %q, want idle", c.State())
	}
	if !c.ShouldFetchMore() {
		t.Error("new query should be fetchable")
	}
}

func TestCoordinator_StaleResponseArrivesAfterSwitch(t *testing.T) {
	f := newFakeFetcher()
	f.totalPages["alien"] = 2
	f.totalPages["bond"] = 2
	c := NewCoordinator(f)
	ctx := context.Background()

	release := f.block("alien")

	c.Reset("alien")
	done := make(chan bool)
	go func() { done <- c.FetchNext(ctx) }()
	waitStarted(t, f)

	c.Reset("bond")
	if !c.FetchNext(ctx) {
		t.Fatal("FetchNext() for bond = false")
	}
	waitStarted(t, f)

	release()
	if appended := <-done; appended {
		t.Error("stale alien response was appended")
	}

	for _, m := range c.Movies() {
		if m.Title != "bond page 1" {
			t.Errorf("unexpected movie %q in bond result set", m.Title)
		}
	}
	if got := len(c.Pages()); got != 1 {
		t.Errorf("Pages() = %d, want 1", got)
	}
	if c.State() != StateIdle {
		t.Errorf("State() = %q, want idle", c.State())
	}
}

func TestCoordinator_ResetDiscardsInFull(t *testing.T) {
	f := newFakeFetcher()
	f.totalPages["alien"] = 5
	c := NewCoordinator(f)
	ctx := context.Background()

	c.Reset("alien")
	c.FetchNext(ctx)
	c.FetchNext(ctx)

	c.Reset("alien")
	if len(c.Pages()) != 0 {
		t.Errorf("Pages() after reset = %d, want 0", len(c.Pages()))
	}
	if next, _ := c.NextPage(); next != 1 {
		t.Errorf("NextPage() after reset = %d, want 1", next)
	}
}

func TestCoordinator_PageNumberFollowsCursor(t *testing.T) {
	c := NewCoordinator(newFakeFetcher())

	c.Reset("alien")
	ticket, _ := c.Begin()
	c.Complete(ticket, &catalog.Page{Number: 9, TotalPages: 3}, true)

	pages := c.Pages()
	if len(pages) != 1 || pages[0].Number != 1 {
		t.Fatalf("Pages() = %+v, want single page numbered 1", pages)
	}
	if next, _ := c.NextPage(); next != 2 {
		t.Errorf("NextPage() = %d, want 2", next)
	}
}

func TestCoordinator_ConcurrentFetchNext(t *testing.T) {
	f := newFakeFetcher()
	f.totalPages["alien"] = 5
	c := NewCoordinator(f)
	ctx := context.Background()

	c.Reset("alien")

	deadline := time.Now().Add(5 * time.Second)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c.HasNextPage() && time.Now().Before(deadline) {
				c.FetchNext(ctx)
			}
		}()
	}
	wg.Wait()

	calls := f.Calls()
	if len(calls) != 5 {
		t.Fatalf("calls = %d, want 5", len(calls))
	}
	for i, call := range calls {
		if call.Page != i+1 {
			t.Errorf("call[%d].Page = %d, want %d", i, call.Page, i+1)
		}
	}
}

func TestCoordinator_Subscribe(t *testing.T) {
	f := newFakeFetcher()
	f.totalPages["alien"] = 2
	c := NewCoordinator(f)

	var mu sync.Mutex
	var states []State
	var lastVersion uint64
	unsubscribe := c.Subscribe(func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if s.Version <= lastVersion {
			t.Errorf("version %d not increasing (last %d)", s.Version, lastVersion)
		}
		lastVersion = s.Version
		states = append(states, s.State)
	})

	c.Reset("alien")
	c.FetchNext(context.Background())
	c.FetchNext(context.Background())
	unsubscribe()
	c.Reset("bond")

	want := []State{
		StateIdle,
		StateFetchingFirstPage, StateIdle,
		StateFetchingNextPage, StateExhausted,
	}

	mu.Lock()
	defer mu.Unlock()
	if len(states) != len(want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("states[%d] = %q, want %q", i, states[i], want[i])
		}
	}
}

func TestSnapshot(t *testing.T) {
	f := newFakeFetcher()
	f.totalPages["alien"] = 3
	c := NewCoordinator(f)

	c.Reset("alien")
	c.FetchNext(context.Background())

	snap := c.Snapshot()
	if snap.Query != "alien" {
		t.Errorf("Query = %q", snap.Query)
	}
	if !snap.HasNextPage || snap.IsFetching() || !snap.ShouldFetchMore() {
		t.Errorf("snapshot flags = %+v", snap)
	}
	if snap.MovieCount() != 1 || len(snap.Movies()) != 1 {
		t.Errorf("MovieCount() = %d, Movies() = %d", snap.MovieCount(), len(snap.Movies()))
	}

	// Snapshots are copies.
	snap.Pages[0].Number = 42
	if c.Pages()[0].Number != 1 {
		t.Error("mutating a snapshot changed the coordinator")
	}
}
