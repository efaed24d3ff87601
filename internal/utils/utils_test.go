package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/issue-tracker-api/internal/query"
)

func TestRandomHex(t *testing.T) {
	a, err := RandomHex(48)
	require.NoError(t, err)
	b, err := RandomHex(48)
	require.NoError(t, err)

	assert.Len(t, a, 96)
	assert.NotEqual(t, a, b)
}

func TestHashToken(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}

func TestNewPaginationResponse(t *testing.T) {
	q, err := query.Build(map[string]string{"page": "3", "limit": "20"}, query.Issues)
	require.NoError(t, err)

	assert.Equal(t, PaginationResponse{Page: 3, Limit: 20, Total: 55}, NewPaginationResponse(q, 55))
}
