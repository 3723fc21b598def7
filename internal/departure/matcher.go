package departure

import "strings"

// MatchesLine reports whether a pattern descriptor passes the line filter.
// A nil filter matches everything; otherwise the descriptor must contain the
// filter text, case-sensitively. "1" therefore also matches "21" and "199".
func MatchesLine(filter *string, descriptor string) bool {
	if filter == nil {
		return true
	}
	return strings.Contains(descriptor, *filter)
}
