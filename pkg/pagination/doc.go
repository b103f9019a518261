// Package pagination coordinates incremental fetching of catalog search pages.
//
// A Coordinator owns the ordered page list for the active search query. It
// derives the next page number from the last fetched page, allows at most one
// fetch in flight per query, and drops responses that arrive after the query
// has changed.
//
// Example usage:
//
//	coord := pagination.NewCoordinator(catalogClient)
//	coord.Reset("alien")
//	for coord.ShouldFetchMore() {
//		coord.FetchNext(ctx)
//	}
//	movies := coord.Movies()
//
// The coordinator does not know how "fetch more" is triggered. Presentation
// code decides when the trailing item is visible and calls FetchNext, or
// splits the call into Begin and Complete when it runs the fetch itself.
//
// A failed fetch is indistinguishable from the last page: the query client
// reports both as an empty result, and the coordinator moves to
// StateExhausted without surfacing an error.
package pagination
