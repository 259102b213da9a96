// package formatter renders job match results as plain text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/pathfinder/internal/models"
	"github.com/desertthunder/pathfinder/internal/shared"
)

// Formats accepted by [Render].
var Formats = []string{"text", "markdown", "csv", "json"}

// FormatPercent renders a match percentage, dropping the fraction when it is zero.
func FormatPercent(p float64) string {
	if p == float64(int64(p)) {
		return strconv.FormatInt(int64(p), 10) + "%"
	}
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}

// details joins a listing's schedule, salary and age with " · ", skipping blanks.
func details(ext models.DetectedExtensions) string {
	var parts []string
	for _, v := range []string{ext.ScheduleType, ext.Salary, ext.PostedAt} {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " · ")
}

// ExportToCSV converts a result to CSV with one row per listing
func ExportToCSV(result *models.AnalysisResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Group", "Category", "Match", "Title", "Company", "Location", "Schedule", "Salary", "Posted", "Link"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, group := range result.Jobs {
		for _, listing := range group.Listings {
			record := []string{
				strconv.Itoa(i + 1),
				group.Category,
				strconv.FormatFloat(group.MatchPercent, 'f', -1, 64),
				listing.Title,
				listing.Company,
				listing.Location,
				listing.Extensions.ScheduleType,
				listing.Extensions.Salary,
				listing.Extensions.PostedAt,
				listing.Link,
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a result to Markdown with a section per job group
func ExportToMarkdown(result *models.AnalysisResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Job Matches\n\n")
	fmt.Fprintf(&buf, "**Groups**: %d\n", len(result.Jobs))
	fmt.Fprintf(&buf, "**Listings**: %d\n\n", result.TotalListings())

	for i, group := range result.Jobs {
		fmt.Fprintf(&buf, "## %d. %s (%s match)\n\n", i+1, group.Category, FormatPercent(group.MatchPercent))

		if len(group.Listings) == 0 {
			buf.WriteString("_No open listings._\n\n")
			continue
		}

		for j, listing := range group.Listings {
			title := listing.Title
			if listing.Link != "" {
				title = fmt.Sprintf("[%s](%s)", listing.Title, listing.Link)
			}
			fmt.Fprintf(&buf, "%d. %s at **%s**", j+1, title, listing.Company)
			if listing.Location != "" {
				fmt.Fprintf(&buf, ", %s", listing.Location)
			}
			buf.WriteString("\n")
			if d := details(listing.Extensions); d != "" {
				fmt.Fprintf(&buf, "   - %s\n", d)
			}
			if listing.Thumbnail != "" {
				fmt.Fprintf(&buf, "   - ![%s logo](%s)\n", listing.Company, listing.Thumbnail)
			}
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts a result to plain text format
func ExportToText(result *models.AnalysisResult) ([]byte, error) {
	var buf bytes.Buffer

	if len(result.Jobs) == 0 {
		buf.WriteString("No job matches found.\n")
		return buf.Bytes(), nil
	}

	for i, group := range result.Jobs {
		fmt.Fprintf(&buf, "[%d] %s (%s match)\n", i+1, group.Category, FormatPercent(group.MatchPercent))
		for j, listing := range group.Listings {
			fmt.Fprintf(&buf, "  %d.%d %s - %s", i+1, j+1, listing.Title, listing.Company)
			if listing.Location != "" {
				fmt.Fprintf(&buf, " (%s)", listing.Location)
			}
			buf.WriteString("\n")
			if d := details(listing.Extensions); d != "" {
				fmt.Fprintf(&buf, "      %s\n", d)
			}
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a result to indented JSON in the analysis service's shape.
// The server's raw payload is preferred when the result carries one.
func ExportToJSON(result *models.AnalysisResult) ([]byte, error) {
	if len(result.Raw) > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, result.Raw, "", "  "); err == nil {
			buf.WriteByte('\n')
			return buf.Bytes(), nil
		}
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Render dispatches to the exporter for format.
func Render(result *models.AnalysisResult, format string) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: no result to render", shared.ErrInvalidArgument)
	}

	switch strings.ToLower(format) {
	case "", "text", "txt":
		return ExportToText(result)
	case "markdown", "md":
		return ExportToMarkdown(result)
	case "csv":
		return ExportToCSV(result)
	case "json":
		return ExportToJSON(result)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// Extension returns the file extension for format.
func Extension(format string) string {
	switch strings.ToLower(format) {
	case "markdown", "md":
		return ".md"
	case "csv":
		return ".csv"
	case "json":
		return ".json"
	default:
		return ".txt"
	}
}

// WriteExport renders result and writes it to path.
//
// Defaults to job-matches{ext} as the filename.
func WriteExport(result *models.AnalysisResult, format, path string) (string, error) {
	if path == "" {
		path = "job-matches" + Extension(format)
	}

	data, err := Render(result, format)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}
