package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgon2_HashAndCompare(t *testing.T) {
	h := NewArgon2(1, 1024, 1)

	hash, err := h.Hash("s3cret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))
	assert.NotContains(t, hash, "s3cret")

	ok, err := h.Compare(hash, "s3cret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Compare(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2_SaltedHashesDiffer(t *testing.T) {
	h := NewArgon2(1, 1024, 1)

	first, err := h.Hash("same")
	require.NoError(t, err)
	second, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestArgon2_CompareUsesStoredParameters(t *testing.T) {
	old := NewArgon2(2, 2048, 1)
	hash, err := old.Hash("pw")
	require.NoError(t, err)

	ok, err := NewArgon2(1, 1024, 1).Compare(hash, "pw")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestArgon2_CompareMalformed(t *testing.T) {
	h := NewArgon2(1, 1024, 1)

	tests := []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$garbage$c2FsdA$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$",
	}

	for _, hash := range tests {
		ok, err := h.Compare(hash, "pw")
		assert.ErrorIs(t, err, ErrMalformedHash, hash)
		assert.False(t, ok)
	}
}
