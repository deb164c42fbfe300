package guardrail

import (
	"context"
	"fmt"
	"unicode/utf8"
)

// Violation types reported by the content length check.
const (
	ViolationContentTooShort = "ContentTooShort"
	ViolationContentTooLong  = "ContentTooLong"
)

// ContentLengthCheck bounds the rune length of textual payloads. A zero max
// disables the upper bound.
type ContentLengthCheck struct {
	min int
	max int
}

// NewContentLengthCheck creates a length check with the given rune bounds.
func NewContentLengthCheck(min, max int) *ContentLengthCheck {
	return &ContentLengthCheck{min: min, max: max}
}

func (c *ContentLengthCheck) Name() string   { return "content_length" }
func (c *ContentLengthCheck) Priority() int  { return 30 }
func (c *ContentLengthCheck) Policy() Policy { return Blocking }

func (c *ContentLengthCheck) Evaluate(_ context.Context, _ Direction, payload any, _ ContextReader) Verdict {
	text, ok := textOf(payload)
	if !ok {
		return unsupportedPayload(c.Name())
	}

	length := utf8.RuneCountInString(text)
	if length < c.min {
		return Trip(c.Name(), c.Policy(), ViolationContentTooShort,
			fmt.Sprintf("content has %d characters, minimum is %d", length, c.min))
	}
	if c.max > 0 && length > c.max {
		return Trip(c.Name(), c.Policy(), ViolationContentTooLong,
			fmt.Sprintf("content has %d characters, maximum is %d", length, c.max))
	}

	return Pass(c.Name())
}
