package analysis

import (
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/desertthunder/pathfinder/internal/models"
)

type compiledProfile struct {
	profile  Profile
	patterns []*regexp.Regexp
}

// Matcher scores text against a catalog of [Profile] values.
type Matcher struct {
	profiles   []compiledProfile
	minPercent float64
	limit      int
}

// MatcherOption configures a [Matcher].
type MatcherOption func(*Matcher)

// WithMinPercent drops groups scoring below p.
func WithMinPercent(p float64) MatcherOption {
	return func(m *Matcher) { m.minPercent = p }
}

// WithLimit keeps at most n groups. 0 keeps all.
func WithLimit(n int) MatcherOption {
	return func(m *Matcher) { m.limit = n }
}

// NewMatcher compiles the catalog's keyword patterns. Keywords are accent-folded like the text they are matched
// against.
//
// Groups scoring under 20% are dropped and at most 5 are returned unless overridden.
func NewMatcher(catalog []Profile, opts ...MatcherOption) (*Matcher, error) {
	m := &Matcher{minPercent: 20, limit: 5}
	for _, opt := range opts {
		opt(m)
	}

	for _, p := range catalog {
		if len(p.Keywords) == 0 {
			return nil, fmt.Errorf("profile %q has no keywords", p.Category)
		}
		cp := compiledProfile{profile: p}
		for _, kw := range p.Keywords {
			re, err := regexp.Compile(`(?i)(^|[^\pL\pN])(` + foldMarks(kw) + `)($|[^\pL\pN])`)
			if err != nil {
				return nil, fmt.Errorf("profile %q keyword %q: %w", p.Category, kw, err)
			}
			cp.patterns = append(cp.patterns, re)
		}
		m.profiles = append(m.profiles, cp)
	}
	return m, nil
}

// score returns the percentage of a profile's keywords found in normalized text, rounded to one decimal.
func (cp compiledProfile) score(text string) float64 {
	hits := 0
	for _, re := range cp.patterns {
		if re.MatchString(text) {
			hits++
		}
	}
	pct := float64(hits) / float64(len(cp.patterns)) * 100
	return math.Round(pct*10) / 10
}

// Match ranks catalog groups by keyword coverage of text, highest first.
func (m *Matcher) Match(text string) *models.AnalysisResult {
	text = Normalize(text)

	result := &models.AnalysisResult{Jobs: []models.JobGroup{}}
	for _, cp := range m.profiles {
		pct := cp.score(text)
		if pct <= 0 || pct < m.minPercent {
			continue
		}
		listings := make([]models.JobListing, len(cp.profile.Listings))
		copy(listings, cp.profile.Listings)
		result.Jobs = append(result.Jobs, models.JobGroup{
			Category:     cp.profile.Category,
			MatchPercent: pct,
			Listings:     listings,
		})
	}

	sort.SliceStable(result.Jobs, func(i, j int) bool {
		return result.Jobs[i].MatchPercent > result.Jobs[j].MatchPercent
	})

	if m.limit > 0 && len(result.Jobs) > m.limit {
		result.Jobs = result.Jobs[:m.limit]
	}
	return result
}

// AnalyzePDF extracts text from a PDF and matches it.
func (m *Matcher) AnalyzePDF(data []byte) (*models.AnalysisResult, error) {
	text, err := ExtractText(data)
	if err != nil {
		return nil, err
	}
	return m.Match(text), nil
}
