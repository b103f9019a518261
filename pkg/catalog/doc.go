// Package catalog defines the movie catalog data model shared by the query
// client, the pagination coordinator and the presentation layer.
//
// A search is keyed by a SearchQuery (1 to 10 characters). Each fetch yields
// one Page of MovieSummary records together with the total page count the
// remote catalog reports. Pages are immutable once fetched.
//
// Example usage:
//
//	q, err := catalog.ValidateQuery(input)
//	if err != nil {
//		// show err.Error() inline, do not fetch
//	}
//	page, ok := client.FetchPage(ctx, q, 1)
//	if ok && page.HasNext() {
//		next := page.NextNumber()
//	}
package catalog
