package catalog

import (
	"fmt"
	"math"
	"strings"
)

// UnknownReleaseDate is shown when the catalog has no release date.
const UnknownReleaseDate = "Unknown"

// MovieSummary is one search hit as returned by the catalog.
type MovieSummary struct {
	// ID is assigned by the remote catalog and unique across results.
	ID       int64  `json:"id" toml:"id"`
	Title    string `json:"title" toml:"title"`
	Overview string `json:"overview" toml:"overview"`

	// Image paths are relative to the image host; either may be absent.
	PosterPath   *string `json:"poster_path" toml:"poster_path,omitempty"`
	BackdropPath *string `json:"backdrop_path" toml:"backdrop_path,omitempty"`

	// Popularity is a 0-100-ish score rendered as a percentage bar.
	Popularity float64 `json:"popularity" toml:"popularity"`

	// ReleaseDate is nil (or zero) when unknown.
	ReleaseDate *Date `json:"release_date" toml:"release_date,omitempty"`
}

// ImagePath returns the image path used on the card: the backdrop, or the
// poster when no backdrop exists. ok is false when neither is set.
func (m MovieSummary) ImagePath() (path string, ok bool) {
	if p := nonEmpty(m.BackdropPath); p != "" {
		return p, true
	}
	if p := nonEmpty(m.PosterPath); p != "" {
		return p, true
	}
	return "", false
}

// ImageURL joins the card image path onto imageBase
// (for example "https://media.themoviedb.org/t/p/w1066_and_h600_bestv2").
// Returns "" when the movie has no image.
func (m MovieSummary) ImageURL(imageBase string) string {
	path, ok := m.ImagePath()
	if !ok {
		return ""
	}
	return strings.TrimRight(imageBase, "/") + "/" + strings.TrimLeft(path, "/")
}

// PopularityPercent returns the popularity clamped to [0, 100].
func (m MovieSummary) PopularityPercent() float64 {
	switch {
	case math.IsNaN(m.Popularity), m.Popularity < 0:
		return 0
	case m.Popularity > 100:
		return 100
	default:
		return m.Popularity
	}
}

// PopularityLabel renders the raw popularity rounded to an integer
// percentage, halves away from zero.
func (m MovieSummary) PopularityLabel() string {
	return fmt.Sprintf("%.0f%%", math.Round(m.Popularity))
}

// HasReleaseDate reports whether a release date is known.
func (m MovieSummary) HasReleaseDate() bool {
	return m.ReleaseDate != nil && !m.ReleaseDate.IsZero()
}

// ReleaseDateLabel renders the release date as DD/MM/YYYY.
func (m MovieSummary) ReleaseDateLabel() string {
	if !m.HasReleaseDate() {
		return UnknownReleaseDate
	}
	return m.ReleaseDate.Display()
}

func nonEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
