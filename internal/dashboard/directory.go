package dashboard

import (
	"strings"

	"skillscope/dashboard/internal/model"
)

// MatchesQuery reports whether q appears (case-insensitive) in the user's
// name or primary focus. An empty query matches everyone.
func MatchesQuery(u model.User, q string) bool {
	q = strings.TrimSpace(q)
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(u.Name), q) ||
		strings.Contains(strings.ToLower(u.PrimaryFocus), q)
}

// FilterUsers returns the users matching q, in directory order.
func FilterUsers(users []model.User, q string) []model.User {
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		if MatchesQuery(u, q) {
			out = append(out, u)
		}
	}
	return out
}
