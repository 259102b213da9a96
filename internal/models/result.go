package models

import "encoding/json"

// AnalysisResult is the analysis service's job match payload, persisted under the "jobResult" key.
//
// Raw holds the payload exactly as the server sent it, including fields not modelled here.
type AnalysisResult struct {
	Jobs []JobGroup      `json:"jobs"`
	Raw  json.RawMessage `json:"-"`
}

// JobGroup is one matched job category.
type JobGroup struct {
	Category     string       `json:"job"`
	MatchPercent float64      `json:"percent"`
	Listings     []JobListing `json:"list_jobs"`
}

// JobListing is a single posting inside a [JobGroup].
type JobListing struct {
	Title      string             `json:"title"`
	Company    string             `json:"company_name"`
	Location   string             `json:"location"`
	Thumbnail  string             `json:"thumbnail,omitempty"`
	Link       string             `json:"share_link"`
	Extensions DetectedExtensions `json:"detected_extensions"`
}

// DetectedExtensions carries the listing's schedule, salary and age.
type DetectedExtensions struct {
	ScheduleType string `json:"schedule_type,omitempty"`
	Salary       string `json:"salary,omitempty"`
	PostedAt     string `json:"posted_at,omitempty"`
}

// Listing returns the listing at 1-based group and listing positions.
func (r *AnalysisResult) Listing(group, listing int) (*JobListing, bool) {
	if r == nil || group < 1 || group > len(r.Jobs) {
		return nil, false
	}
	g := r.Jobs[group-1]
	if listing < 1 || listing > len(g.Listings) {
		return nil, false
	}
	return &g.Listings[listing-1], true
}

// TotalListings counts listings across all groups.
func (r *AnalysisResult) TotalListings() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, g := range r.Jobs {
		n += len(g.Listings)
	}
	return n
}
