// Package model defines the data shapes exchanged with the recommender service
// and held by the dashboard's orchestration core.
package model

// User mirrors one entry of the recommender's user directory.
type User struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	Skills          []string `json:"skills"`
	PrimaryFocus    string   `json:"primary_focus"`
	ExperienceYears int      `json:"experience_years" validate:"gte=0"`
}

// Job mirrors one entry of the recommender's job directory.
type Job struct {
	ID       int      `json:"id"`
	Title    string   `json:"title"`
	Company  string   `json:"company"`
	Skills   []string `json:"skills"`
	RoleType string   `json:"role_type"`
}

// JobMatch is a job ranked against a user. MatchScore is in [0, 1].
type JobMatch struct {
	ID         int     `json:"id"`
	Title      string  `json:"title"`
	Company    string  `json:"company"`
	MatchScore float64 `json:"match_score" validate:"gte=0,lte=1"`
}

// SkillGap is a missing skill with its market importance in [0, 1].
type SkillGap struct {
	Skill      string  `json:"skill"`
	Importance float64 `json:"importance" validate:"gte=0,lte=1"`
}

// Recommendation is the recommend-skills response for one user.
// Both recommendation lists are rankings: order matters and duplicates are kept.
type Recommendation struct {
	Market        []string   `json:"market_recommendations"`
	Collaborative []string   `json:"collaborative_recommendations"`
	Analysis      string     `json:"analysis"`
	JobMatches    []JobMatch `json:"job_matches" validate:"dive"`
}

// Normalize replaces absent lists with empty ones so an empty response is
// held as empty values rather than nil.
func (r *Recommendation) Normalize() {
	if r.Market == nil {
		r.Market = []string{}
	}
	if r.Collaborative == nil {
		r.Collaborative = []string{}
	}
	if r.JobMatches == nil {
		r.JobMatches = []JobMatch{}
	}
}

// SkillGapsResponse is the analyze-skill-gaps response body.
type SkillGapsResponse struct {
	SkillGaps []SkillGap `json:"skill_gaps" validate:"dive"`
}

// ServiceStatus is the recommender's self-reported readiness.
// Counts are set when ready; Message explains why it is not. A body
// without a status tag fails validation.
type ServiceStatus struct {
	Status     Readiness `json:"status" validate:"required"`
	UsersCount int       `json:"users_count" validate:"gte=0"`
	JobsCount  int       `json:"jobs_count" validate:"gte=0"`
	Message    string    `json:"message,omitempty"`
}

// ConnectFailureMessage is carried by the status synthesized when a check fails.
const ConnectFailureMessage = "Could not connect to API"

// NotConnected returns the synthetic status used when the service cannot be reached.
func NotConnected() ServiceStatus {
	return ServiceStatus{Status: NotInitialized, Message: ConnectFailureMessage}
}

// Ready reports whether the service can answer recommendation queries.
func (s ServiceStatus) Ready() bool { return s.Status == Ready }
