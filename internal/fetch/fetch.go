// Package fetch retrieves job posting pages and reduces them to plain text.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; CVAgent/1.0)"

// Page holds the raw and processed content of a fetched job posting.
type Page struct {
	URL        string
	HTML       string
	Text       string
	StatusCode int
	// Rendered is true when the page came from the headless browser fallback.
	Rendered bool
}

// Error describes a failure while fetching a job posting URL.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Options configures the fetcher.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	// UseBrowser enables the headless browser fallback for pages whose
	// static HTML yields too little text.
	UseBrowser bool
}

// DefaultOptions returns sensible fetch defaults.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Fetcher downloads job posting pages over plain HTTP with an optional
// headless browser fallback for script-rendered boards.
type Fetcher struct {
	opts   *Options
	client *http.Client
}

// NewFetcher creates a fetcher with the given options.
func NewFetcher(opts *Options) *Fetcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &Fetcher{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
	}
}

// Fetch retrieves a job posting page and extracts its main text. When the
// static HTML produces too little text and the browser fallback is enabled,
// the page is re-fetched through a headless browser.
func (f *Fetcher) Fetch(ctx context.Context, urlStr string) (*Page, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}

	page, err := f.fetchHTTP(ctx, urlStr)
	if err != nil {
		return nil, err
	}

	page.Text, err = ExtractMainText(page.HTML, JobPostingSelectors())
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "parse HTML", Cause: err}
	}

	if f.opts.UseBrowser && needsBrowser(page.Text) {
		html, rerr := renderWithBrowser(ctx, urlStr, f.opts.Timeout)
		if rerr != nil {
			return nil, &Error{URL: urlStr, Message: "browser rendering failed", Cause: rerr}
		}
		text, terr := ExtractMainText(html, JobPostingSelectors())
		if terr != nil {
			return nil, &Error{URL: urlStr, Message: "parse rendered HTML", Cause: terr}
		}
		page.HTML = html
		page.Text = text
		page.Rendered = true
	}

	return page, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, urlStr string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "create request", Cause: err}
	}

	req.Header.Set("User-Agent", f.opts.UserAgent)
	for key, value := range f.opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "read response body", Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{URL: urlStr, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	return &Page{URL: urlStr, HTML: string(body), StatusCode: resp.StatusCode}, nil
}

// ExtractMainText parses HTML and returns the main body text. Noise elements
// are removed first, then the content selectors are tried in order with a
// fallback to the body element.
func ExtractMainText(html string, contentSelectors []string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("nav, footer, header, script, style, noscript, .ad, .ads, .sidebar, .cookie-banner, .popup").Remove()

	var main *goquery.Selection
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			main = sel.First()
			break
		}
	}
	if main == nil {
		main = doc.Find("body")
	}

	return cleanWhitespace(main.Text()), nil
}

// JobPostingSelectors returns selectors tried when isolating the posting body
// on common job boards.
func JobPostingSelectors() []string {
	return []string{
		".job-description",
		".job-content",
		"#job-description",
		"#job-content",
		".posting-content",
		".job-details",
		"[data-testid='job-description']",
		"main",
		"article",
		".content",
		"#content",
	}
}

func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
