package pagination

import "github.com/Sternrassler/movie-search/pkg/catalog"

// State is the coordinator state for the active query.
type State string

const (
	// StateIdle means no fetch is running and more pages may exist.
	StateIdle State = "idle"

	// StateFetchingFirstPage means page 1 of the active query is in flight.
	StateFetchingFirstPage State = "fetching_first_page"

	// StateFetchingNextPage means a page after the first is in flight.
	StateFetchingNextPage State = "fetching_next_page"

	// StateExhausted is terminal for the active query: the last page was
	// fetched or a fetch came back empty.
	StateExhausted State = "exhausted"
)

// IsFetching reports whether a fetch is in flight.
func (s State) IsFetching() bool {
	return s == StateFetchingFirstPage || s == StateFetchingNextPage
}

// Ticket identifies one fetch started by Begin.
type Ticket struct {
	Query catalog.SearchQuery
	Page  int

	generation uint64
}

// Snapshot is a consistent, copied view of the coordinator.
type Snapshot struct {
	Query catalog.SearchQuery
	State State
	Pages []catalog.Page

	// HasNextPage is true before the first page and while the last page
	// reports more pages.
	HasNextPage bool

	// Version increases with every change, so subscribers can drop
	// snapshots delivered out of order.
	Version uint64
}

// IsFetching reports whether a fetch is in flight.
func (s Snapshot) IsFetching() bool {
	return s.State.IsFetching()
}

// ShouldFetchMore reports whether a "fetch more" signal would start a fetch.
func (s Snapshot) ShouldFetchMore() bool {
	return s.HasNextPage && !s.IsFetching()
}

// Movies returns all results in page order.
func (s Snapshot) Movies() []catalog.MovieSummary {
	return flatten(s.Pages)
}

// MovieCount returns the number of accumulated results.
func (s Snapshot) MovieCount() int {
	n := 0
	for i := range s.Pages {
		n += len(s.Pages[i].Results)
	}
	return n
}

func flatten(pages []catalog.Page) []catalog.MovieSummary {
	n := 0
	for i := range pages {
		n += len(pages[i].Results)
	}
	out := make([]catalog.MovieSummary, 0, n)
	for i := range pages {
		out = append(out, pages[i].Results...)
	}
	return out
}
