package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetIndependentNumbering(t *testing.T) {
	s := NewSet()
	assert.False(t, s.Shared())

	assert.Equal(t, ID(0), s.Truths.Propose("t", 1))
	assert.Equal(t, ID(0), s.Realities.Register("r"))
	assert.Equal(t, ID(1), s.Truths.Propose("t", 2))
}

func TestSetSharedNumbering(t *testing.T) {
	s := NewSet(WithSharedAllocator())
	assert.True(t, s.Shared())

	assert.Equal(t, ID(0), s.Truths.Propose("t", 1))
	assert.Equal(t, ID(1), s.Realities.Register("r"))
	assert.Equal(t, ID(2), s.Truths.Propose("t", 2))

	_, err := s.Realities.Get(0)
	assert.True(t, IsNotFound(err))
	_, err = s.Truths.Get(1)
	assert.True(t, IsNotFound(err))
}

func TestSetReset(t *testing.T) {
	for _, shared := range []bool{false, true} {
		var opts []SetOption
		if shared {
			opts = append(opts, WithSharedAllocator())
		}
		s := NewSet(opts...)
		s.Truths.Propose("t", 1)
		s.Realities.Register("r")

		s.Reset()

		assert.Equal(t, 0, s.Truths.Len())
		assert.Equal(t, 0, s.Realities.Len())
		assert.Equal(t, ID(0), s.Realities.Register("again"))
		_, err := s.Realities.Get(0)
		require.NoError(t, err)
	}
}
