package tui

import "github.com/Sternrassler/movie-search/pkg/catalog"

// pageLoadedMsg is returned by a fetch command once FetchNext returns.
type pageLoadedMsg struct {
	Query    catalog.SearchQuery
	Appended bool
}

// coordinatorChangedMsg signals that the coordinator state changed.
// The model re-reads the snapshot rather than carrying it in the message.
type coordinatorChangedMsg struct{}
