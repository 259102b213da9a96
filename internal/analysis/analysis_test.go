package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tu "github.com/desertthunder/pathfinder/internal/testing"
)

const backendCV = "Experienced Golang developer with PostgreSQL, Docker, Kubernetes, REST API and gRPC microservices on AWS"

func TestNormalize(t *testing.T) {
	assert.Equal(t, "developpeur senior", Normalize("Développeur SENIOR"))
	assert.Equal(t, "plain", Normalize("plain"))
}

func TestMatcher(t *testing.T) {
	m, err := NewMatcher(DefaultCatalog)
	require.NoError(t, err)

	t.Run("RanksBestGroupFirst", func(t *testing.T) {
		result := m.Match(backendCV)
		require.NotEmpty(t, result.Jobs)

		assert.Equal(t, "Backend Developer", result.Jobs[0].Category)
		assert.Equal(t, 50.0, result.Jobs[0].MatchPercent)
		assert.NotEmpty(t, result.Jobs[0].Listings)

		for i := 1; i < len(result.Jobs); i++ {
			assert.LessOrEqual(t, result.Jobs[i].MatchPercent, result.Jobs[i-1].MatchPercent)
		}
	})

	t.Run("AccentedKeywords", func(t *testing.T) {
		fr, err := NewMatcher([]Profile{{Category: "Développeur", Keywords: []string{`développeur`, `café`}}}, WithMinPercent(0))
		require.NoError(t, err)

		for _, text := range []string{"Développeur backend, amateur de café", "DEVELOPPEUR backend, amateur de cafe"} {
			result := fr.Match(text)
			require.Len(t, result.Jobs, 1, text)
			assert.Equal(t, 100.0, result.Jobs[0].MatchPercent, text)
		}
	})

	t.Run("NoMatches", func(t *testing.T) {
		result := m.Match("Pastry chef with ten years of croissant lamination")
		require.NotNil(t, result.Jobs)
		assert.Empty(t, result.Jobs)
	})

	t.Run("ListingsAreCopied", func(t *testing.T) {
		result := m.Match(backendCV)
		result.Jobs[0].Listings[0].Title = "mutated"
		assert.NotEqual(t, "mutated", DefaultCatalog[0].Listings[0].Title)
	})

	t.Run("Limit", func(t *testing.T) {
		limited, err := NewMatcher(DefaultCatalog, WithLimit(1), WithMinPercent(0))
		require.NoError(t, err)
		assert.Len(t, limited.Match(backendCV).Jobs, 1)
	})

	t.Run("WordBoundaries", func(t *testing.T) {
		custom, err := NewMatcher([]Profile{{Category: "Go", Keywords: []string{`go`}}}, WithMinPercent(0))
		require.NoError(t, err)

		assert.Empty(t, custom.Match("Google and MongoDB").Jobs)
		assert.Len(t, custom.Match("Go, Rust").Jobs, 1)
	})

	t.Run("InvalidCatalog", func(t *testing.T) {
		_, err := NewMatcher([]Profile{{Category: "broken", Keywords: []string{`(`}}})
		assert.Error(t, err)

		_, err = NewMatcher([]Profile{{Category: "empty"}})
		assert.Error(t, err)
	})
}

func TestExtractText(t *testing.T) {
	t.Run("PDF", func(t *testing.T) {
		text, err := ExtractText(tu.BuildPDF("Golang developer", "Docker and Kubernetes"))
		require.NoError(t, err)
		assert.True(t, strings.Contains(text, "Golang"), "got %q", text)
		assert.True(t, strings.Contains(text, "Kubernetes"), "got %q", text)
	})

	t.Run("NotAPDF", func(t *testing.T) {
		_, err := ExtractText([]byte("PK\x03\x04 this is a zip"))
		assert.Error(t, err)
	})

	t.Run("AnalyzePDF", func(t *testing.T) {
		m, err := NewMatcher(DefaultCatalog)
		require.NoError(t, err)

		result, err := m.AnalyzePDF(tu.BuildPDF(backendCV))
		require.NoError(t, err)
		require.NotEmpty(t, result.Jobs)
		assert.Equal(t, "Backend Developer", result.Jobs[0].Category)
	})
}
