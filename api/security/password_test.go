package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	Cost = bcrypt.MinCost

	hashed, err := Hash("qwe")
	require.NoError(t, err)
	assert.NotEqual(t, "qwe", string(hashed))

	assert.NoError(t, VerifyPassword(string(hashed), "qwe"))
	assert.ErrorIs(t, VerifyPassword(string(hashed), "asd"), bcrypt.ErrMismatchedHashAndPassword)
}

func TestHashIsSalted(t *testing.T) {
	Cost = bcrypt.MinCost

	first, err := Hash("same")
	require.NoError(t, err)
	second, err := Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, string(first), string(second))
}

func TestVerifyCorruptHash(t *testing.T) {
	err := VerifyPassword("not-a-bcrypt-hash", "qwe")
	require.Error(t, err)
	assert.NotErrorIs(t, err, bcrypt.ErrMismatchedHashAndPassword)
}
