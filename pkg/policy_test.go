package dupedetector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSmallFile(t *testing.T) {
	testCases := []struct {
		size      int64
		chunkSize int64
		small     bool
	}{
		{0, 1000, true},
		{1999, 1000, true},
		{2000, 1000, false},
		{2001, 1000, false},
		{7, 4, true},
		{8, 4, false},
		{DefaultChunkSize*2 - 1, DefaultChunkSize, true},
		{2*MaxChunkSize - 1, MaxChunkSize, true},
		{2 * MaxChunkSize, MaxChunkSize, false},
		// twice this chunk size does not fit in an int64
		{10, 5764607523034234880, true},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.small, IsSmallFile(tc.size, tc.chunkSize), "IsSmallFile(%d, %d)", tc.size, tc.chunkSize)
	}
}

func TestSplitBySize(t *testing.T) {
	groups := [][]*FileRecord{
		{newSizedFileRecord("a", 10), newSizedFileRecord("b", 10)},
		{newSizedFileRecord("c", 100), newSizedFileRecord("d", 100)},
		{newSizedFileRecord("e", 0), newSizedFileRecord("f", 0)},
		{newSizedFileRecord("g", 64), newSizedFileRecord("h", 64)},
	}

	small, large, err := splitBySize(groups, 32)
	require.NoError(t, err)

	require.Len(t, small, 2)
	assert.Equal(t, "a", small[0][0].Path)
	assert.Equal(t, "e", small[1][0].Path)

	require.Len(t, large, 2)
	assert.Equal(t, "c", large[0][0].Path)
	assert.Equal(t, "g", large[1][0].Path)
}

func TestSplitBySize_StatFailure(t *testing.T) {
	groups := [][]*FileRecord{{NewFileRecord("/nonexistent/file"), NewFileRecord("/nonexistent/other")}}

	_, _, err := splitBySize(groups, 32)
	var readErr *ReadError
	require.ErrorAs(t, err, &readErr)
	assert.Equal(t, StageSize, readErr.Stage)
}
