package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer([]byte("secret"), time.Hour)
	require.NoError(t, err)

	id := uuid.New()
	token, err := issuer.Issue(id, time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestTokenIssuer_RejectsForeignSignature(t *testing.T) {
	issuerA, err := NewTokenIssuer([]byte("secret-a"), time.Hour)
	require.NoError(t, err)
	issuerB, err := NewTokenIssuer([]byte("secret-b"), time.Hour)
	require.NoError(t, err)

	token, err := issuerA.Issue(uuid.New(), time.Now())
	require.NoError(t, err)

	_, err = issuerB.Parse(token)
	assert.Error(t, err)
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	issuer, err := NewTokenIssuer([]byte("secret"), time.Minute)
	require.NoError(t, err)

	token, err := issuer.Issue(uuid.New(), time.Now().Add(-2*time.Minute))
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	assert.Error(t, err)
}

func TestNewTokenIssuer_RequiresSecret(t *testing.T) {
	_, err := NewTokenIssuer(nil, time.Hour)
	assert.Error(t, err)
}

func TestNewTokenIssuer_DefaultTTL(t *testing.T) {
	issuer, err := NewTokenIssuer([]byte("secret"), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, issuer.TTL())
}
