package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner_IssueAndParse(t *testing.T) {
	t.Parallel()

	signer := NewSigner("super-secret", time.Hour)
	claims := Claims{ID: "d7f0c1f4-5f4e-4a43-9b57-1b1e0f9f1a10", Email: "a@x.com", Verified: true}

	tok, err := signer.Issue(claims)
	require.NoError(t, err)

	got, err := signer.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, claims, got)
}

func TestSigner_ParseExpired(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	signer := NewSigner("secret", time.Hour).WithClock(func() time.Time { return issuedAt })

	tok, err := signer.Issue(Claims{ID: "u1", Email: "u1@x.com"})
	require.NoError(t, err)

	_, err = signer.WithClock(func() time.Time { return issuedAt.Add(59 * time.Minute) }).Parse(tok)
	require.NoError(t, err)

	_, err = signer.WithClock(func() time.Time { return issuedAt.Add(2 * time.Hour) }).Parse(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSigner_ParseWrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewSigner("right-secret", time.Hour).Issue(Claims{ID: "u2", Email: "u2@x.com"})
	require.NoError(t, err)

	_, err = NewSigner("wrong-secret", time.Hour).Parse(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSigner_ParseMalformed(t *testing.T) {
	t.Parallel()

	_, err := NewSigner("k", time.Hour).Parse("not.a.jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSigner_ParseTamperedPayload(t *testing.T) {
	t.Parallel()

	signer := NewSigner("k", time.Hour)
	tok, err := signer.Issue(Claims{ID: "u3", Email: "u3@x.com", Verified: false})
	require.NoError(t, err)

	forged, err := NewSigner("other", time.Hour).Issue(Claims{ID: "u3", Email: "u3@x.com", Verified: true})
	require.NoError(t, err)

	// Header and payload of the forged token with the original signature.
	parts := splitToken(forged)
	orig := splitToken(tok)
	_, err = signer.Parse(parts[0] + "." + parts[1] + "." + orig[2])
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func splitToken(tok string) []string {
	return strings.Split(tok, ".")
}
