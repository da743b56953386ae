package model

import (
	"encoding/json"
	"fmt"
)

// Readiness values mirror the status field of the recommender's /status endpoint.
type Readiness string

const (
	Ready          Readiness = "ready"
	NotInitialized Readiness = "not_initialized"
)

// ParseReadiness converts a raw string to a Readiness, returning an error for
// unknown values.
func ParseReadiness(s string) (Readiness, error) {
	r := Readiness(s)
	switch r {
	case Ready, NotInitialized:
		return r, nil
	}
	return "", fmt.Errorf("unknown readiness %q", s)
}

// UnmarshalJSON rejects readiness tags the dashboard does not know.
func (r *Readiness) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseReadiness(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// UploadKind names the reference dataset an uploaded file replaces.
type UploadKind string

const (
	UploadUsers UploadKind = "users"
	UploadJobs  UploadKind = "jobs"
)

// ParseUploadKind converts a raw string to an UploadKind.
func ParseUploadKind(s string) (UploadKind, error) {
	k := UploadKind(s)
	switch k {
	case UploadUsers, UploadJobs:
		return k, nil
	}
	return "", fmt.Errorf("unknown upload kind %q (want users or jobs)", s)
}
