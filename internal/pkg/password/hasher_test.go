package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fastParams keep the suite quick; production uses DefaultParams.
var fastParams = Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func newTestHasher(t *testing.T, pepper string) *Hasher {
	t.Helper()
	h, err := NewHasher(pepper, fastParams)
	require.NoError(t, err)
	return h
}

func TestNewHasher_RejectsEmptyPepper(t *testing.T) {
	_, err := NewHasher("", fastParams)
	assert.ErrorIs(t, err, ErrEmptyPepper)
}

func TestNewHasher_RejectsZeroParams(t *testing.T) {
	_, err := NewHasher("pepper", Params{})
	assert.Error(t, err)
}

func TestHashVerify_RoundTrip(t *testing.T) {
	h := newTestHasher(t, "pepper")
	for _, pw := range []string{"Secure123", "Login123", "Pässwörd9", strings.Repeat("Ab1", 40)} {
		encoded, err := h.Hash(pw)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$"))

		ok, err := h.Verify(pw, encoded)
		require.NoError(t, err)
		assert.True(t, ok, pw)

		ok, err = h.Verify(pw+"x", encoded)
		require.NoError(t, err)
		assert.False(t, ok, pw)
	}
}

func TestHash_SaltedPerCall(t *testing.T) {
	h := newTestHasher(t, "pepper")
	a, err := h.Hash("Secure123")
	require.NoError(t, err)
	b, err := h.Hash("Secure123")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerify_DifferentPepperFails(t *testing.T) {
	encoded, err := newTestHasher(t, "pepper-a").Hash("Secure123")
	require.NoError(t, err)

	ok, err := newTestHasher(t, "pepper-b").Verify("Secure123", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_UsesParamsStoredInHash(t *testing.T) {
	old := newTestHasher(t, "pepper")
	encoded, err := old.Hash("Secure123")
	require.NoError(t, err)

	stronger, err := NewHasher("pepper", Params{Memory: 2048, Iterations: 2, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)
	ok, err := stronger.Verify("Secure123", encoded)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerify_LegacyBcrypt(t *testing.T) {
	h := newTestHasher(t, "pepper")
	legacy, err := bcrypt.GenerateFromPassword([]byte("Secure123pepper"), bcrypt.MinCost)
	require.NoError(t, err)

	ok, err := h.Verify("Secure123", string(legacy))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("Secure124", string(legacy))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_MalformedHash(t *testing.T) {
	h := newTestHasher(t, "pepper")
	for _, encoded := range []string{
		"",
		"plain",
		"$argon2id$v=19$m=1024,t=1,p=1$$",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5",
	} {
		ok, err := h.Verify("Secure123", encoded)
		assert.False(t, ok)
		assert.ErrorIs(t, err, ErrInvalidHash, encoded)
	}
}

func TestVerify_IncompatibleVersion(t *testing.T) {
	h := newTestHasher(t, "pepper")
	_, err := h.Verify("Secure123", "$argon2id$v=16$m=1024,t=1,p=1$c2FsdHNhbHQ$a2V5a2V5a2V5a2V5")
	assert.ErrorIs(t, err, ErrIncompatibleVersion)
}
