// Package extract converts uploaded résumé files into normalized plain text.
package extract

import (
	"fmt"
	"mime"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// UnsupportedFormatError reports a résumé upload whose MIME type has no
// registered extractor.
type UnsupportedFormatError struct {
	MIME string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported resume format: %s", e.MIME)
}

// Text extracts normalized plain text from an uploaded résumé. Dispatch is on
// the declared MIME type; parameters such as charset are ignored.
func Text(mimeType string, data []byte) (string, error) {
	mediaType := mimeType
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		mediaType = parsed
	}

	switch mediaType {
	case "text/plain", "text/markdown":
		return CleanText(string(data)), nil
	case "text/html", "application/xhtml+xml":
		return fromHTML(data)
	default:
		return "", &UnsupportedFormatError{MIME: mimeType}
	}
}

func fromHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML resume: %w", err)
	}
	doc.Find("script, style, noscript").Remove()
	return CleanText(doc.Find("body").Text()), nil
}

var (
	multiSpace      = regexp.MustCompile(`\s+`)
	excessiveBlanks = regexp.MustCompile(`\n\n\n+`)
)

// CleanText normalizes résumé text while preserving its structure: markdown
// headings and bullets survive, runs of spaces collapse, and blank-line runs
// shrink to at most one blank line.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		cleaned = append(cleaned, cleanLine(line))
	}

	result := strings.Join(cleaned, "\n")
	result = excessiveBlanks.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	if strings.TrimSpace(line) == "" {
		return ""
	}

	trimmed := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(trimmed, "#") {
		return trimmed
	}
	if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
		indent := len(line) - len(trimmed)
		return strings.Repeat(" ", indent) + trimmed
	}

	leading := len(line) - len(trimmed)
	content := multiSpace.ReplaceAllString(strings.TrimSpace(line), " ")
	if leading > 0 {
		return strings.Repeat(" ", leading) + content
	}
	return content
}
