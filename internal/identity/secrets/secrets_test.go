package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "healthfund/pkg/domain-errors"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("pw123")
	require.NoError(t, err)
	assert.NotEqual(t, "pw123", hash)

	require.NoError(t, Verify("pw123", hash))
	assert.ErrorIs(t, Verify("wrong", hash), ErrMismatch)
}

func TestHash_SaltsEachCall(t *testing.T) {
	a, err := Hash("same")
	require.NoError(t, err)
	b, err := Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHash_Rejects(t *testing.T) {
	_, err := Hash("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeMissingFields))

	_, err = Hash(strings.Repeat("x", 100))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestVerify_CorruptHash(t *testing.T) {
	err := Verify("pw", "not-a-bcrypt-hash")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMismatch)
}

func TestBurn_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() { Burn("anything") })
}
