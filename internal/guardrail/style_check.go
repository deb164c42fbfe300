package guardrail

import (
	"context"
	"strings"
)

// ViolationBannedPhrase is reported when a generated draft leans on filler
// phrases that weaken application documents.
const ViolationBannedPhrase = "BannedPhrase"

// defaultBannedPhrases lists cliches that reviewers consistently flag in CVs
// and cover letters. Intentionally short; matching is case-insensitive
// substring.
var defaultBannedPhrases = []string{
	"results-driven",
	"team player",
	"think outside the box",
	"go-getter",
	"synergy",
	"hard worker",
	"detail-oriented individual",
	"proven track record of success",
	"passionate self-starter",
}

// BannedPhraseCheck scans generated drafts for banned filler phrases. It is
// advisory: a hit is surfaced in the decision so callers can regenerate or
// edit, but the pipeline proceeds.
type BannedPhraseCheck struct {
	phrases []string
}

// NewBannedPhraseCheck creates the check. With no phrases the default cliche
// list is used.
func NewBannedPhraseCheck(phrases ...string) *BannedPhraseCheck {
	if len(phrases) == 0 {
		phrases = defaultBannedPhrases
	}
	return &BannedPhraseCheck{phrases: phrases}
}

func (c *BannedPhraseCheck) Name() string   { return "banned_phrases" }
func (c *BannedPhraseCheck) Priority() int  { return 40 }
func (c *BannedPhraseCheck) Policy() Policy { return Advisory }

func (c *BannedPhraseCheck) Evaluate(_ context.Context, _ Direction, payload any, _ ContextReader) Verdict {
	text, ok := textOf(payload)
	if !ok {
		return unsupportedPayload(c.Name())
	}

	lower := strings.ToLower(text)
	var found []string
	seen := make(map[string]bool)
	for _, phrase := range c.phrases {
		normalized := strings.ToLower(strings.TrimSpace(phrase))
		if normalized == "" || seen[normalized] {
			continue
		}
		if strings.Contains(lower, normalized) {
			found = append(found, phrase)
			seen[normalized] = true
		}
	}

	if len(found) == 0 {
		return Pass(c.Name())
	}

	v := Trip(c.Name(), c.Policy(), ViolationBannedPhrase,
		"draft contains discouraged phrases: "+strings.Join(found, ", "))
	v.Details = map[string]any{"phrases": found}
	return v
}
