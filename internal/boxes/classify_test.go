package boxes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	in := []Rect{
		R(0, 0, 10, 10), // ok
		R(5, 5, 5, 20),  // degenerate
		R(10, 0, 0, 10), // inverted
		R(0, 0, 10, 10), // duplicate of 0
		R(3, 3, 3, 3),   // degenerate
		R(3, 3, 3, 3),   // degenerate + duplicate of 4
	}

	issues := Classify(in)
	require.Len(t, issues, 6)

	assert.Equal(t, Issue{Index: 1, Rect: in[1], Kind: Degenerate, Of: -1}, issues[0])
	assert.Equal(t, Issue{Index: 2, Rect: in[2], Kind: Inverted, Of: -1}, issues[1])
	assert.Equal(t, Issue{Index: 3, Rect: in[3], Kind: Duplicate, Of: 0}, issues[2])
	assert.Equal(t, Issue{Index: 4, Rect: in[4], Kind: Degenerate, Of: -1}, issues[3])
	assert.Equal(t, Issue{Index: 5, Rect: in[5], Kind: Degenerate, Of: -1}, issues[4])
	assert.Equal(t, Issue{Index: 5, Rect: in[5], Kind: Duplicate, Of: 4}, issues[5])
}

func TestClassify_Clean(t *testing.T) {
	assert.Empty(t, Classify(nil))
	assert.Empty(t, Classify([]Rect{R(0, 0, 1, 1), R(2, 2, 3, 3)}))
}

func TestRectPredicates(t *testing.T) {
	r := R(2, 3, 12, 8)
	assert.Equal(t, 10, r.Width())
	assert.Equal(t, 5, r.Height())
	assert.Equal(t, 50, r.Area())
	assert.False(t, r.IsDegenerate())
	assert.False(t, r.IsInverted())

	inv := R(12, 8, 2, 3)
	assert.True(t, inv.IsInverted())
	assert.Equal(t, r, inv.Normalize())
	assert.Equal(t, r.ImageRect(), inv.ImageRect())

	assert.True(t, R(0, 0, 10, 10).Contains(R(0, 0, 10, 10)))
	assert.False(t, R(0, 0, 10, 10).Contains(R(-1, 0, 10, 10)))
	assert.Equal(t, "(2, 3, 12, 8)", r.String())
	assert.Equal(t, r, FromImageRect(r.ImageRect()))
}
