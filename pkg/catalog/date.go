package catalog

import (
	"fmt"
	"time"
)

const (
	// wireDateLayout is the ISO calendar date format used by the catalog API.
	wireDateLayout = "2006-01-02"

	// displayDateLayout matches the DD/MM/YYYY format shown on cards.
	displayDateLayout = "02/01/2006"
)

// Date is a calendar date without time of day.
// The zero Date means "unknown"; the catalog sends an empty string for it.
type Date struct {
	t time.Time
}

// NewDate returns the Date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(wireDateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// IsZero reports whether the date is unknown.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// Time returns the date at midnight UTC.
func (d Date) Time() time.Time {
	return d.t
}

// String returns the YYYY-MM-DD form, or "" for the zero Date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(wireDateLayout)
}

// Display returns the DD/MM/YYYY form.
func (d Date) Display() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(displayDateLayout)
}

// MarshalText implements encoding.TextMarshaler (used by JSON and TOML).
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
