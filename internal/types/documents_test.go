package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentKind_Valid(t *testing.T) {
	assert.True(t, KindCV.Valid())
	assert.True(t, KindCoverLetter.Valid())
	assert.False(t, DocumentKind("resume").Valid())
	assert.False(t, DocumentKind("").Valid())
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "cv-acme-corp.pdf", FileName(KindCV, "Acme Corp"))
	assert.Equal(t, "cover-letter-acme.pdf", FileName(KindCoverLetter, "Acme"))
	assert.Equal(t, "cv.pdf", FileName(KindCV, ""))
}

func TestCandidateProfile_HasSkill(t *testing.T) {
	profile := &CandidateProfile{
		Skills:  []string{"Go", "PostgreSQL"},
		RawText: "Built distributed systems with Kafka and Go.",
	}

	assert.True(t, profile.HasSkill("go"))
	assert.True(t, profile.HasSkill("postgresql"))
	assert.True(t, profile.HasSkill("Kafka"), "skills mentioned only in raw text still count")
	assert.False(t, profile.HasSkill("Kubernetes"))
	assert.False(t, profile.HasSkill(""))
}
