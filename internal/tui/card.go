package tui

import (
	"strings"

	"github.com/Sternrassler/movie-search/pkg/catalog"
	"github.com/Sternrassler/movie-search/pkg/pagination"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// Footer texts.
const (
	FooterLoading = "Loading"
	FooterDone    = "Nothing more to load"
	noImage       = "No image"
)

const (
	// cardHeight is the number of terminal rows every card occupies,
	// including the blank separator.
	cardHeight    = 8
	overviewLines = 2
	minCardWidth  = 24
)

// FooterText returns the loader row for snap.
func FooterText(snap pagination.Snapshot) string {
	if snap.IsFetching() && snap.HasNextPage {
		return FooterLoading
	}
	return FooterDone
}

// CardRenderer renders one movie card per MovieSummary.
type CardRenderer struct {
	styles    *Styles
	imageBase string
	bar       progress.Model
	width     int
}

// NewCardRenderer creates a renderer that joins image paths onto imageBase.
func NewCardRenderer(s *Styles, imageBase string) *CardRenderer {
	if s == nil {
		s = DefaultStyles()
	}
	r := &CardRenderer{
		styles:    s,
		imageBase: imageBase,
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithoutPercentage(),
		),
	}
	r.SetWidth(80)
	return r
}

// SetWidth sets the card width in columns.
func (r *CardRenderer) SetWidth(width int) {
	if width < minCardWidth {
		width = minCardWidth
	}
	r.width = width
	r.bar.Width = width / 3
}

// Render renders movie as exactly cardHeight lines.
func (r *CardRenderer) Render(movie catalog.MovieSummary, selected bool) string {
	inner := r.width - 2

	image := movie.ImageURL(r.imageBase)
	if image == "" {
		image = noImage
	}

	lines := []string{
		r.styles.Title.Render(truncate(movie.Title, inner)),
		r.styles.Muted.Render(truncate(image, inner)),
		r.styles.Label.Render("User Score") + " " +
			r.bar.ViewAs(movie.PopularityPercent()/100) + " " +
			r.styles.Normal.Render(movie.PopularityLabel()),
		r.styles.Label.Render("Release date") + " " +
			r.styles.Normal.Render(movie.ReleaseDateLabel()),
		r.styles.Label.Render("Overview"),
	}
	lines = append(lines, r.overview(movie.Overview, inner)...)

	style := r.styles.Card
	if selected {
		style = r.styles.Selected
	}
	return style.Render(strings.Join(lines, "\n"))
}

// overview wraps text to width and cuts it to overviewLines rows.
func (r *CardRenderer) overview(text string, width int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		text = "-"
	}

	wrapped := strings.Split(lipgloss.NewStyle().Width(width).Render(text), "\n")
	if len(wrapped) > overviewLines {
		wrapped = wrapped[:overviewLines]
		last := strings.TrimRight(wrapped[overviewLines-1], " ")
		wrapped[overviewLines-1] = truncate(last+"…", width)
	}
	for len(wrapped) < overviewLines {
		wrapped = append(wrapped, "")
	}

	out := make([]string, len(wrapped))
	for i, line := range wrapped {
		out[i] = r.styles.Normal.Render(line)
	}
	return out
}

// truncate shortens s to width columns with a trailing ellipsis.
func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
