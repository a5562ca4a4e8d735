package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintToken(t *testing.T) {
	id, raw, digest, err := MintToken()
	require.NoError(t, err)

	_, parseErr := uuid.Parse(id)
	assert.NoError(t, parseErr)
	assert.NotContains(t, raw, digest, "raw bearer must not embed the stored digest")

	parsedID, secret, err := SplitToken(raw)
	require.NoError(t, err)
	assert.Equal(t, id, parsedID)
	assert.Equal(t, digest, DigestSecret(secret))
	assert.True(t, DigestEqual(digest, secret))
}

func TestMintToken_Unique(t *testing.T) {
	_, first, _, err := MintToken()
	require.NoError(t, err)
	_, second, _, err := MintToken()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestSplitToken_Malformed(t *testing.T) {
	cases := []string{
		"",
		"no-separator",
		"|secret-without-id",
		uuid.NewString(),
		uuid.NewString() + "|",
		"not-a-uuid|secret",
	}
	for _, raw := range cases {
		_, _, err := SplitToken(raw)
		assert.ErrorIs(t, err, ErrMalformedToken, "expected malformed token for %q", raw)
	}
}

func TestDigestEqual_WrongSecret(t *testing.T) {
	digest := DigestSecret("secret-a")
	assert.False(t, DigestEqual(digest, "secret-b"))
}
