package surface

import (
	"fmt"
	"math"

	"skillscope/dashboard/internal/model"
)

// MatchPercent converts a match score in [0, 1] to a whole percentage.
func MatchPercent(score float64) int {
	return int(math.Round(score * 100))
}

// ImportanceBucket names the priority band of a skill gap.
func ImportanceBucket(importance float64) string {
	switch {
	case importance >= 0.8:
		return "Critical"
	case importance >= 0.6:
		return "High"
	case importance >= 0.4:
		return "Medium"
	case importance >= 0.2:
		return "Moderate"
	default:
		return "Low"
	}
}

// StatusLine summarizes the recommender's readiness in one line.
func StatusLine(st *model.ServiceStatus) string {
	switch {
	case st == nil:
		return "Checking connection..."
	case st.Ready():
		return fmt.Sprintf("Connected • %d Users • %d Jobs", st.UsersCount, st.JobsCount)
	case st.Message != "":
		return st.Message
	default:
		return string(st.Status)
	}
}
