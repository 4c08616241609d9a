package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarthenmalai/SubwayScheduler/internal/auth"
)

func TestHashAndVerifyPassword(t *testing.T) {
	stored, err := auth.HashPassword("correct horse battery staple")
	require.NoError(t, err)

	ok, err := auth.VerifyPassword(stored, "correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = auth.VerifyPassword(stored, "Tr0ub4dor&3")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordSaltsEachCall(t *testing.T) {
	a, err := auth.HashPassword("same password")
	require.NoError(t, err)
	b, err := auth.HashPassword("same password")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyPasswordMalformedCredential(t *testing.T) {
	_, err := auth.VerifyPassword("not hex", "anything")
	assert.Error(t, err)

	_, err = auth.VerifyPassword("abcd", "anything")
	assert.Error(t, err)
}
