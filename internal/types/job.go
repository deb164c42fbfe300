package types

// JobPosting is the structured representation of an ingested job posting.
type JobPosting struct {
	Company   string `json:"company"`
	RoleTitle string `json:"role_title"`
	Location  string `json:"location,omitempty"`
	URL       string `json:"url,omitempty"`

	Requirements     []string `json:"requirements"`
	Responsibilities []string `json:"responsibilities,omitempty"`
	NiceToHave       []string `json:"nice_to_have,omitempty"`
	Skills           []string `json:"skills,omitempty"`

	// AboutCompany holds the posting's company blurb, used for cover letter tone.
	AboutCompany string `json:"about_company,omitempty"`
}

// MatchResult captures how the candidate profile lines up against a job posting.
type MatchResult struct {
	Score         float64  `json:"score"` // 0.0 - 1.0
	MatchedSkills []string `json:"matched_skills"`
	MissingSkills []string `json:"missing_skills,omitempty"`
	Highlights    []string `json:"highlights,omitempty"`
	Summary       string   `json:"summary,omitempty"`
}
