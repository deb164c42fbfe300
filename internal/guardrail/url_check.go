package guardrail

import (
	"context"
	"net/url"
)

// ViolationInvalidURL is reported when a job posting reference is not a
// fetchable absolute http(s) URL.
const ViolationInvalidURL = "InvalidUrlFormat"

// URLFormatCheck validates that the payload is a well-formed absolute
// http or https URL before the fetcher is invoked.
type URLFormatCheck struct{}

// NewURLFormatCheck creates the URL format pre-check.
func NewURLFormatCheck() *URLFormatCheck { return &URLFormatCheck{} }

func (c *URLFormatCheck) Name() string   { return "url_format" }
func (c *URLFormatCheck) Priority() int  { return 10 }
func (c *URLFormatCheck) Policy() Policy { return Blocking }

func (c *URLFormatCheck) Evaluate(_ context.Context, _ Direction, payload any, _ ContextReader) Verdict {
	raw, ok := payload.(string)
	if !ok {
		return unsupportedPayload(c.Name())
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		v := Trip(c.Name(), c.Policy(), ViolationInvalidURL, "job posting reference is not a valid http(s) URL: "+raw)
		v.Recommendations = []string{"provide an absolute http(s) job posting URL"}
		return v
	}

	return Pass(c.Name())
}
