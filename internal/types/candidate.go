// Package types provides type definitions for structured data used throughout the cvagent system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "strings"

// CandidateProfile is the structured representation of an uploaded resume.
type CandidateProfile struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Summary string `json:"summary,omitempty"`

	Skills     []string     `json:"skills"`
	Experience []Experience `json:"experience"`
	Education  []Education  `json:"education,omitempty"`

	// RawText preserves the extracted resume text for guardrail comparisons.
	RawText string `json:"raw_text,omitempty"`
}

// Experience represents one employment entry from the resume.
type Experience struct {
	Company    string   `json:"company"`
	Title      string   `json:"title"`
	StartDate  string   `json:"start_date,omitempty"`
	EndDate    string   `json:"end_date,omitempty"`
	Highlights []string `json:"highlights,omitempty"`
}

// Education represents one education entry from the resume.
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree,omitempty"`
	Field       string `json:"field,omitempty"`
	Year        string `json:"year,omitempty"`
}

// HasSkill reports whether the candidate lists the given skill,
// matched case-insensitively against the skills list and raw resume text.
func (c *CandidateProfile) HasSkill(skill string) bool {
	needle := strings.ToLower(strings.TrimSpace(skill))
	if needle == "" {
		return false
	}
	for _, s := range c.Skills {
		if strings.ToLower(strings.TrimSpace(s)) == needle {
			return true
		}
	}
	return strings.Contains(strings.ToLower(c.RawText), needle)
}
