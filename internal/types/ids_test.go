package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID(t *testing.T) {
	id := NewID()
	assert.False(t, id.IsZero())
	assert.NoError(t, id.Validate())
	assert.NotEqual(t, id, NewID())
}

func TestParseID(t *testing.T) {
	id := NewID()

	parsed, err := ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseID("")
	assert.Error(t, err)

	_, err = ParseID("not-a-uuid")
	assert.Error(t, err)
}

func TestIDShort(t *testing.T) {
	id, err := ParseID("3b241101-e2bb-4255-8caf-4136c566a962")
	require.NoError(t, err)
	assert.Equal(t, "3b241101", id.Short())
	assert.Equal(t, "ab", ID("ab").Short())
}

func TestIDValidate(t *testing.T) {
	assert.Error(t, ID("").Validate())
	assert.Error(t, ID("garbage").Validate())
	assert.NoError(t, NewID().Validate())
}
