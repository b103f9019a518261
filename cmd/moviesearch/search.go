package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Sternrassler/movie-search/internal/tui"
	"github.com/Sternrassler/movie-search/pkg/catalog"
	"github.com/Sternrassler/movie-search/pkg/pagination"
	"github.com/spf13/cobra"
)

type searchOptions struct {
	pages int
	all   bool
	json  bool
}

func newSearchCmd(opts *globalOptions) *cobra.Command {
	so := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog and print the results",
		Long: `Search the catalog by title and print one card per movie.

The query must be 1 to 10 characters long. It becomes the saved search,
so the interactive UI opens on it next time.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, opts, so, args[0])
		},
	}

	cmd.Flags().IntVarP(&so.pages, "pages", "n", 1, "number of pages to load")
	cmd.Flags().BoolVar(&so.all, "all", false, "load every page")
	cmd.Flags().BoolVar(&so.json, "json", false, "output results as JSON")
	cmd.MarkFlagsMutuallyExclusive("pages", "all")

	return cmd
}

// searchOutput is the --json document.
type searchOutput struct {
	Query       string                 `json:"query"`
	Pages       int                    `json:"pages"`
	TotalPages  int                    `json:"total_pages"`
	HasNextPage bool                   `json:"has_next_page"`
	Results     []catalog.MovieSummary `json:"results"`
}

func runSearch(cmd *cobra.Command, opts *globalOptions, so *searchOptions, raw string) error {
	query, err := catalog.ValidateQuery(raw)
	if err != nil {
		return errors.New(catalog.ValidationMessage(err))
	}
	if !so.all && so.pages < 1 {
		return fmt.Errorf("--pages must be at least 1 (got %d)", so.pages)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := setupLogging(cfg, cmd.ErrOrStderr())

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	unsubscribe := a.store.Subscribe(func(q catalog.SearchQuery) {
		a.coord.Reset(q)
	})
	defer unsubscribe()

	if err := a.store.Set(ctx, query); err != nil {
		logger.Warn().Err(err).Msg("Search query not persisted")
	}

	snap := loadPages(ctx, a.coord, so)

	if err := a.store.SetResults(ctx, snap.Movies()); err != nil {
		logger.Warn().Err(err).Msg("Results not persisted")
	}

	if so.json {
		return writeSearchJSON(cmd.OutOrStdout(), snap)
	}
	return writeSearchCards(cmd.OutOrStdout(), snap, tui.NewCardRenderer(nil, cfg.ImageBase()))
}

// loadPages drives the coordinator until the requested page count is
// reached or the result set is exhausted.
func loadPages(ctx context.Context, coord *pagination.Coordinator, so *searchOptions) pagination.Snapshot {
	loaded := 0
	for coord.ShouldFetchMore() && (so.all || loaded < so.pages) {
		if ctx.Err() != nil {
			break
		}
		if coord.FetchNext(ctx) {
			loaded++
		}
	}
	return coord.Snapshot()
}

func writeSearchJSON(w io.Writer, snap pagination.Snapshot) error {
	out := searchOutput{
		Query:       snap.Query.String(),
		Pages:       len(snap.Pages),
		HasNextPage: snap.HasNextPage,
		Results:     snap.Movies(),
	}
	if n := len(snap.Pages); n > 0 {
		out.TotalPages = snap.Pages[n-1].TotalPages
	}
	if out.Results == nil {
		out.Results = []catalog.MovieSummary{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeSearchCards(w io.Writer, snap pagination.Snapshot, cards *tui.CardRenderer) error {
	movies := snap.Movies()
	if len(movies) == 0 {
		_, err := fmt.Fprintf(w, "No results for %q\n", snap.Query.String())
		return err
	}

	var b strings.Builder
	for _, movie := range movies {
		b.WriteString(cards.Render(movie, false))
		b.WriteString("\n\n")
	}

	last := snap.Pages[len(snap.Pages)-1]
	if snap.HasNextPage {
		fmt.Fprintf(&b, "%d results, page %d of %d (use --all for more)\n",
			len(movies), last.Number, last.TotalPages)
	} else {
		fmt.Fprintf(&b, "%d results. %s\n", len(movies), tui.FooterDone)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
