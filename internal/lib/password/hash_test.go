package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHashAndCompare(t *testing.T) {
	hash, err := GetHash("pw123456")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "pw123456", hash)

	assert.NoError(t, CompareHash(hash, "pw123456"))
	assert.Error(t, CompareHash(hash, "pw654321"))
}

func TestCompareHash_NotAHash(t *testing.T) {
	assert.Error(t, CompareHash("plaintext", "plaintext"))
}

func TestGetHash_DifferentSalts(t *testing.T) {
	h1, err := GetHash("123456")
	require.NoError(t, err)
	h2, err := GetHash("123456")
	require.NoError(t, err)

	// одинаковые коды дают разные хэши из-за соли
	assert.NotEqual(t, h1, h2)
	assert.NoError(t, CompareHash(h1, "123456"))
	assert.NoError(t, CompareHash(h2, "123456"))
}
