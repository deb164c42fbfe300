package guardrail

import (
	"context"
	"regexp"
	"strings"
)

// ViolationPromptInjection is reported when external text looks like an
// attempt to smuggle instructions to the text-generation provider.
const ViolationPromptInjection = "SuspectedPromptInjection"

// injectionKeywords contains trigger words that suggest prompt injection
// attempts. Intentionally not comprehensive; the primary defense is quoting
// external content in prompts.
var injectionKeywords = []string{
	"ignore previous",
	"ignore all",
	"disregard above",
	"forget everything",
	"system prompt",
	"new instructions",
	"act as",
	"pretend",
	"roleplay",
}

var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+instructions?`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|above)`),
	regexp.MustCompile(`(?i)forget\s+(all\s+)?(previous|prior|everything)`),
	regexp.MustCompile(`(?i)you\s+are\s+(now\s+)?a`),
	regexp.MustCompile(`(?i)new\s+instructions?:`),
}

// InjectionHeuristicsCheck scans external text (resume or posting content)
// for obvious prompt-injection markers. It is advisory: a hit is logged and
// surfaced in the decision, but the pipeline proceeds because quoted prompt
// construction is the primary defense.
type InjectionHeuristicsCheck struct{}

// NewInjectionHeuristicsCheck creates the prompt-injection heuristic check.
func NewInjectionHeuristicsCheck() *InjectionHeuristicsCheck { return &InjectionHeuristicsCheck{} }

func (c *InjectionHeuristicsCheck) Name() string   { return "injection_heuristics" }
func (c *InjectionHeuristicsCheck) Priority() int  { return 20 }
func (c *InjectionHeuristicsCheck) Policy() Policy { return Advisory }

func (c *InjectionHeuristicsCheck) Evaluate(_ context.Context, _ Direction, payload any, _ ContextReader) Verdict {
	text, ok := textOf(payload)
	if !ok {
		return unsupportedPayload(c.Name())
	}

	var detected []string
	lower := strings.ToLower(text)
	for _, keyword := range injectionKeywords {
		if strings.Contains(lower, keyword) {
			detected = append(detected, keyword)
		}
	}
	for _, pattern := range injectionPatterns {
		if match := pattern.FindString(text); match != "" {
			detected = append(detected, match)
		}
	}

	if len(detected) == 0 {
		return Pass(c.Name())
	}

	v := Trip(c.Name(), c.Policy(), ViolationPromptInjection,
		"detected potential injection markers: "+strings.Join(detected, ", "))
	v.Details = map[string]any{"markers": detected}
	return v
}
