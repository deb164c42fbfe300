package pipeline

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devjibs/cvagent/internal/types"
)

func TestContext_WriteOnce(t *testing.T) {
	rc := NewContext(uuid.New(), "token")

	rc.Set(KeyCandidate, &types.CandidateProfile{Name: "Ada"})

	var panicked *KeyAlreadyWrittenError
	func() {
		defer func() {
			r := recover()
			require.NotNil(t, r, "second write to the same key must panic")
			panicked = r.(*KeyAlreadyWrittenError)
		}()
		rc.Set(KeyCandidate, &types.CandidateProfile{Name: "Eve"})
	}()

	assert.Equal(t, KeyCandidate, panicked.Key)

	// First write remains intact.
	candidate, ok := rc.Candidate()
	require.True(t, ok)
	assert.Equal(t, "Ada", candidate.Name)
}

func TestContext_UnwrittenKeyReturnsNotFound(t *testing.T) {
	rc := NewContext(uuid.New(), "token")

	_, ok := rc.Lookup(KeyJob)
	assert.False(t, ok)

	_, ok = rc.Candidate()
	assert.False(t, ok)
	_, ok = rc.Match()
	assert.False(t, ok)
	_, ok = rc.Review()
	assert.False(t, ok)
	_, ok = rc.Documents()
	assert.False(t, ok)
}

func TestContext_MustAccessorsPanicOnMissingKey(t *testing.T) {
	rc := NewContext(uuid.New(), "token")

	assert.PanicsWithError(t, "context key not written: candidate", func() {
		rc.MustCandidate()
	})
	assert.PanicsWithError(t, "context key not written: job", func() {
		rc.MustJob()
	})
}

func TestContext_TypedAccessors(t *testing.T) {
	rc := NewContext(uuid.New(), "token")

	job := &types.JobPosting{Company: "Acme", RoleTitle: "Engineer"}
	rc.Set(KeyJob, job)
	got, ok := rc.Job()
	require.True(t, ok)
	assert.Same(t, job, got)
	assert.Same(t, job, rc.MustJob())

	cv := &types.DraftDocument{Kind: types.KindCV, Body: "body"}
	cover := &types.DraftDocument{Kind: types.KindCoverLetter, Body: "letter"}
	rc.Set(KeyDraftCV, cv)
	rc.Set(KeyDraftCoverLetter, cover)

	gotCV, ok := rc.Draft(types.KindCV)
	require.True(t, ok)
	assert.Same(t, cv, gotCV)
	assert.Same(t, cover, rc.MustDraft(types.KindCoverLetter))
}

func TestContext_MetaIsOverwritable(t *testing.T) {
	rc := NewContext(uuid.New(), "token")

	rc.SetMeta("fetch_ms", 120)
	rc.SetMeta("fetch_ms", 340)

	v, ok := rc.Meta("fetch_ms")
	require.True(t, ok)
	assert.Equal(t, 340, v)
}

func TestContext_AppendLog(t *testing.T) {
	rc := NewContext(uuid.New(), "token")

	rc.AppendLog("stage %s started", "parse")
	rc.AppendLog("stage %s finished", "parse")

	log := rc.Log()
	require.Len(t, log, 2)
	assert.Equal(t, "stage parse started", log[0])

	// Returned slice is a copy.
	log[0] = "mutated"
	assert.Equal(t, "stage parse started", rc.Log()[0])
}
