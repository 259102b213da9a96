// Package analysis scores CV text against a built-in job catalog.
//
// It backs the development server's /upload/cv endpoint: [ExtractText] pulls plain text out of a PDF and
// [Matcher.Match] turns it into a [models.AnalysisResult].
package analysis

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ExtractText returns the plain text of every page in a PDF document.
//
// Pages without content are skipped. The parser panics on some malformed input; that is returned as an error.
func ExtractText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("failed to parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// Normalize folds accents and case so "Développeur" matches "developpeur".
func Normalize(s string) string {
	return strings.ToLower(foldMarks(s))
}

// foldMarks strips combining marks without changing case, so it is safe on regular expression source.
func foldMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}
