package catalog

// Page is one fetched batch of search results plus pagination metadata.
type Page struct {
	// Number is the 1-based page number that was requested.
	Number int `json:"page"`

	// TotalPages is the page count reported by the catalog for the query.
	TotalPages int `json:"total_pages"`

	// TotalResults is the hit count reported by the catalog.
	TotalResults int `json:"total_results"`

	Results []MovieSummary `json:"results"`
}

// HasNext reports whether the catalog has a page after this one.
func (p *Page) HasNext() bool {
	return p != nil && p.Number < p.TotalPages
}

// NextNumber returns the page number that follows this one.
// Only meaningful when HasNext is true.
func (p *Page) NextNumber() int {
	return p.Number + 1
}
