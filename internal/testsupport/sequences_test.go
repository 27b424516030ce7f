package testsupport

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniqueName(t *testing.T) {
	a := UniqueName("segment")
	b := UniqueName("segment")

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "segment_"))
}

func TestUniqueRequestID(t *testing.T) {
	id := UniqueRequestID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, UniqueRequestID())
}
