package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("P1")
	require.NoError(t, err)
	assert.NotEqual(t, "P1", hash)
	assert.True(t, CheckPassword(hash, "P1"))
	assert.False(t, CheckPassword(hash, "P2"))

	again, err := HashPassword("P1")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again, "each hash carries its own salt")
}
