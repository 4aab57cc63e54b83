package edition

// Match selects how the active criteria of a Selector combine.
type Match int

const (
	// MatchAll includes an edition only if every active criterion matches.
	MatchAll Match = iota

	// MatchAny includes an edition if at least one active criterion matches.
	MatchAny
)

func (m Match) String() string {
	switch m {
	case MatchAll:
		return "all"
	case MatchAny:
		return "any"
	default:
		return "unknown"
	}
}

// ParseMatch parses "all" or "any".
func ParseMatch(s string) (Match, bool) {
	switch s {
	case "all", "":
		return MatchAll, true
	case "any":
		return MatchAny, true
	}
	return 0, false
}

// Selector picks editions by publication year, month and day.
// A zero field is inactive.
type Selector struct {
	Year  int
	Month int
	Day   int
	Mode  Match
}

// Year selects every edition published in year.
func Year(year int) Selector {
	return Selector{Year: year}
}

// Month selects every edition published in the given month.
func Month(year, month int) Selector {
	return Selector{Year: year, Month: month}
}

// Day selects every edition published on the given day.
func Day(year, month, day int) Selector {
	return Selector{Year: year, Month: month, Day: day}
}

// Any returns a copy of s that includes editions matching any criterion.
func (s Selector) Any() Selector {
	s.Mode = MatchAny
	return s
}

// Active reports whether any criterion is set.
func (s Selector) Active() bool {
	return s.Year != 0 || s.Month != 0 || s.Day != 0
}

// Matches reports whether e satisfies the selector.
func (s Selector) Matches(e Edition) bool {
	if !s.Active() {
		return true
	}

	y, m, d := e.Date.Date()
	checks := make([]bool, 0, 3)
	if s.Year != 0 {
		checks = append(checks, y == s.Year)
	}
	if s.Month != 0 {
		checks = append(checks, int(m) == s.Month)
	}
	if s.Day != 0 {
		checks = append(checks, d == s.Day)
	}

	if s.Mode == MatchAny {
		for _, ok := range checks {
			if ok {
				return true
			}
		}
		return false
	}

	for _, ok := range checks {
		if !ok {
			return false
		}
	}
	return true
}

// Filter returns the editions matching s, preserving input order.
func Filter(editions []Edition, s Selector) []Edition {
	out := make([]Edition, 0, len(editions))
	for _, e := range editions {
		if s.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}
