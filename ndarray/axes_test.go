package ndarray

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAxis(t *testing.T) {
	cases := []struct {
		axis, rank int
		want       int
		wantErr    bool
	}{
		{0, 3, 0, false},
		{2, 3, 2, false},
		{-1, 3, 2, false},
		{-3, 3, 0, false},
		{3, 3, 0, true},
		{-4, 3, 0, true},
		{0, 0, 0, true},
	}
	for _, c := range cases {
		got, err := NormalizeAxis(c.axis, c.rank)
		if c.wantErr {
			require.ErrorIs(t, err, ErrInvalidAxis, "axis %d rank %d", c.axis, c.rank)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "axis %d rank %d", c.axis, c.rank)
	}
}

func TestSplitTrailing(t *testing.T) {
	ax, err := Split([]int{2, 3, 5, 7}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, ax.Batch)
	assert.Equal(t, []int{2, 3}, ax.Op)

	// Zero batch axes: a bare single-channel array.
	ax, err = Split([]int{1024}, 1)
	require.NoError(t, err)
	assert.Empty(t, ax.Batch)
	assert.Equal(t, []int{0}, ax.Op)

	// Rank smaller than the operating-axis requirement.
	_, err = Split([]int{}, 2)
	require.ErrorIs(t, err, ErrInvalidAxis)
	_, err = Split([]int{4}, 2)
	require.ErrorIs(t, err, ErrInvalidAxis)
}

func TestBatchShape(t *testing.T) {
	bs, err := BatchShape([]int{2, 3, 5, 7}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, bs)

	bs, err = BatchShape([]int{7}, 1)
	require.NoError(t, err)
	assert.Empty(t, bs)
}

func TestIndexIterOrder(t *testing.T) {
	it := NewIndexIter([]int{2, 3})
	var got [][]int
	for ix, ok := it.Next(); ok; ix, ok = it.Next() {
		got = append(got, append([]int(nil), ix...))
	}
	want := [][]int{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2}}
	assert.Equal(t, want, got)
}

func TestIndexIterScalarShape(t *testing.T) {
	it := NewIndexIter(nil)
	ix, ok := it.Next()
	require.True(t, ok)
	assert.Empty(t, ix)
	_, ok = it.Next()
	assert.False(t, ok)
}

func TestIndexIterZeroExtent(t *testing.T) {
	it := NewIndexIter([]int{3, 0})
	_, ok := it.Next()
	assert.False(t, ok)
}

func TestUnravel(t *testing.T) {
	dst := make([]int, 3)
	Unravel(17, []int{2, 3, 4}, dst)
	assert.Equal(t, []int{1, 1, 1}, dst)
	Unravel(0, []int{2, 3, 4}, dst)
	assert.Equal(t, []int{0, 0, 0}, dst)
	Unravel(23, []int{2, 3, 4}, dst)
	assert.Equal(t, []int{1, 2, 3}, dst)
}
