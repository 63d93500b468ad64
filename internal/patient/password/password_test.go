package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashRoundTrip(t *testing.T) {
	encoded, err := Hash("correct horse")
	require.NoError(t, err)

	assert.True(t, Verify("correct horse", encoded))
	assert.False(t, Verify("wrong horse", encoded))
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	assert.False(t, Verify("x", "$bcrypt$v=19$m=1,t=1,p=1$aa$bb"))
	assert.False(t, Verify("x", "$argon2id$v=19$m=1,t=1$aa$bb"))
	assert.False(t, Verify("x", "not-a-hash"))
}

func TestPlaceholderIsSalted(t *testing.T) {
	a, err := Placeholder()
	require.NoError(t, err)
	b, err := Placeholder()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
