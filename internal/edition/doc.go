// Package edition defines the gazette edition model and date selection.
//
// A [Selector] narrows an edition list by year, month and day. How the active
// criteria combine is explicit: [MatchAll] intersects them, [MatchAny] keeps
// an edition when any one of them matches.
//
//	january := edition.Filter(all, edition.Month(2022, 1))
//	loose := edition.Filter(all, edition.Day(2022, 1, 6).Any())
package edition
