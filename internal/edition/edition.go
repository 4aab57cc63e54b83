package edition

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used by the index API and sidecars.
const DateLayout = "2006-01-02"

// Edition is one published gazette edition as listed by the index.
type Edition struct {
	// Number identifies the edition and builds its download URL.
	Number int

	// Date is the publication date at UTC midnight.
	Date time.Time

	// Raw holds every field the index returned for this entry.
	Raw map[string]any
}

// DateString returns the publication date as YYYY-MM-DD.
func (e Edition) DateString() string {
	return e.Date.Format(DateLayout)
}

func (e Edition) String() string {
	return fmt.Sprintf("edition %04d (%s)", e.Number, e.DateString())
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// Numbers returns the edition numbers in order.
func Numbers(editions []Edition) []int {
	out := make([]int, len(editions))
	for i, e := range editions {
		out[i] = e.Number
	}
	return out
}

// Lookup indexes editions by number. The first occurrence wins.
func Lookup(editions []Edition) map[int]Edition {
	m := make(map[int]Edition, len(editions))
	for _, e := range editions {
		if _, ok := m[e.Number]; !ok {
			m[e.Number] = e
		}
	}
	return m
}
