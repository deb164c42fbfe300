package fetch

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postingHTML = `<html><head><title>t</title></head><body>
<nav>site nav</nav>
<div class="job-description">
<h1>Senior Go Engineer</h1>
<p>Build distributed systems in Go.</p>
</div>
<footer>footer text</footer>
</body></html>`

func TestFetcher_FetchExtractsPostingText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(postingHTML))
	}))
	defer srv.Close()

	f := NewFetcher(nil)
	page, err := f.Fetch(t.Context(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Contains(t, page.Text, "Senior Go Engineer")
	assert.Contains(t, page.Text, "distributed systems")
	assert.NotContains(t, page.Text, "site nav")
	assert.NotContains(t, page.Text, "footer text")
	assert.False(t, page.Rendered)
}

func TestFetcher_FetchRejectsInvalidURL(t *testing.T) {
	f := NewFetcher(nil)

	for _, bad := range []string{"", "not a url", "/relative/path", "ftp://host/x"} {
		_, err := f.Fetch(t.Context(), bad)
		if bad == "ftp://host/x" {
			// Scheme and host are present; failure happens at the transport.
			assert.Error(t, err, bad)
			continue
		}
		var fetchErr *Error
		require.ErrorAs(t, err, &fetchErr, bad)
		assert.Equal(t, "invalid URL", fetchErr.Message)
	}
}

func TestFetcher_FetchReportsHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(nil)
	_, err := f.Fetch(t.Context(), srv.URL)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, fetchErr.Message, "404")
}

func TestFetcher_SendsCustomHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "en-US", r.Header.Get("Accept-Language"))
		_, _ = w.Write([]byte(postingHTML))
	}))
	defer srv.Close()

	f := NewFetcher(&Options{Headers: map[string]string{"Accept-Language": "en-US"}})
	_, err := f.Fetch(t.Context(), srv.URL)
	require.NoError(t, err)
}

func TestExtractMainText_FallsBackToBody(t *testing.T) {
	text, err := ExtractMainText("<html><body><p>plain body content</p></body></html>", JobPostingSelectors())
	require.NoError(t, err)
	assert.Equal(t, "plain body content", text)
}

func TestNeedsBrowser(t *testing.T) {
	assert.True(t, needsBrowser("short"))
	assert.True(t, needsBrowser("   "))
	assert.False(t, needsBrowser(strings.Repeat("job posting text ", 40)))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &Error{URL: "https://example.com", Message: "HTTP request failed", Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "https://example.com")
}
