package catalog

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Length bounds for a search query, counted in runes.
const (
	MinQueryLength = 1
	MaxQueryLength = 10
)

var (
	// ErrInvalidQuery is the parent of every query validation error.
	ErrInvalidQuery = errors.New("invalid search query")

	// ErrQueryTooShort is returned for an empty query.
	ErrQueryTooShort = fmt.Errorf("%w: Search must be at least %d character long", ErrInvalidQuery, MinQueryLength)

	// ErrQueryTooLong is returned when the query exceeds MaxQueryLength runes.
	ErrQueryTooLong = fmt.Errorf("%w: Search must be at most %d characters long", ErrInvalidQuery, MaxQueryLength)
)

// SearchQuery is a validated movie-title substring used as the search key.
type SearchQuery string

// String returns the raw query text.
func (q SearchQuery) String() string {
	return string(q)
}

// IsEmpty reports whether no query has been submitted yet.
func (q SearchQuery) IsEmpty() bool {
	return q == ""
}

// ValidateQuery normalises raw input and checks its length.
// Input is NFC-normalised before the rune count is taken, so a decomposed
// accent counts as one character. Whitespace is kept and counted.
func ValidateQuery(raw string) (SearchQuery, error) {
	q := norm.NFC.String(raw)

	n := utf8.RuneCountInString(q)
	switch {
	case n < MinQueryLength:
		return "", ErrQueryTooShort
	case n > MaxQueryLength:
		return "", ErrQueryTooLong
	}

	return SearchQuery(q), nil
}

// ValidationMessage returns the user-facing text of a validation error,
// without the ErrInvalidQuery prefix. Other errors are returned verbatim.
func ValidationMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if errors.Is(err, ErrInvalidQuery) {
		msg = strings.TrimPrefix(msg, ErrInvalidQuery.Error()+": ")
	}
	return msg
}
