package credential

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssue_VerifyRoundTrip(t *testing.T) {
	for _, secret := range []string{"foobar", "correct horse battery", "ünïcødé-secret", "a--b--c"} {
		salt, hash, err := Issue(secret)
		require.NoError(t, err)
		assert.True(t, Verify(salt, hash, secret), "secret %q must verify", secret)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	salt, hash, err := Issue("foobar")
	require.NoError(t, err)

	assert.False(t, Verify(salt, hash, "invalid"))
	assert.False(t, Verify(salt, hash, "foobar "))
	assert.False(t, Verify(salt, hash, ""))
}

func TestVerify_WrongSalt(t *testing.T) {
	_, hash, err := Issue("foobar")
	require.NoError(t, err)
	otherSalt, _, err := Issue("foobar")
	require.NoError(t, err)

	assert.False(t, Verify(otherSalt, hash, "foobar"))
}

func TestIssue_SaltShape(t *testing.T) {
	a, _, err := Issue("foobar")
	require.NoError(t, err)
	b, _, err := Issue("foobar")
	require.NoError(t, err)

	raw, err := hex.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, SaltSize)
	assert.NotEqual(t, a, b, "two salts for the same secret must differ")
}

func TestRehash_KeepsSaltContract(t *testing.T) {
	salt, oldHash, err := Issue("foobar")
	require.NoError(t, err)

	newHash := Rehash(salt, "barbaz")
	assert.NotEqual(t, oldHash, newHash)
	assert.True(t, Verify(salt, newHash, "barbaz"))
	assert.False(t, Verify(salt, newHash, "foobar"))
}

func TestSecureHash(t *testing.T) {
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", SecureHash("abc"))
	assert.Equal(t, SecureHash("salt--secret"), Rehash("salt", "secret"))
	assert.Len(t, SecureHash(""), 64)
}
