package dupedetector

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucket_PreservesInsertionOrder(t *testing.T) {
	bucket := NewBucket[string, int]()
	bucket.Add("b", 1)
	bucket.Add("a", 2)
	bucket.Add("b", 3)
	bucket.Add("c", 4)
	bucket.Add("a", 5)

	assert.Equal(t, [][]int{{1, 3}, {2, 5}, {4}}, bucket.Groups(1))
	assert.Equal(t, [][]int{{1, 3}, {2, 5}}, bucket.Groups(2))
}

func TestFilterGroups_DropsSingletons(t *testing.T) {
	groups := [][]string{{"apple", "avocado", "banana", "blueberry", "cherry"}}

	result, err := FilterGroups(groups, func(s string) (byte, error) {
		return s[0], nil
	})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"apple", "avocado"}, {"banana", "blueberry"}}, result)
}

func TestFilterGroups_KeepsInputGroupsApart(t *testing.T) {
	// Equal keys in different input groups must not be merged
	groups := [][]int{{1, 3, 5}, {7, 9}, {2}}

	result, err := FilterGroups(groups, func(n int) (int, error) {
		return n % 2, nil
	})
	require.NoError(t, err)

	assert.Equal(t, [][]int{{1, 3, 5}, {7, 9}}, result)
}

func TestFilterGroups_CallsKeyOncePerItem(t *testing.T) {
	calls := make(map[int]int)
	groups := [][]int{{1, 2, 3}, {4, 5}}

	_, err := FilterGroups(groups, func(n int) (int, error) {
		calls[n]++
		return 0, nil
	})
	require.NoError(t, err)

	for n := 1; n <= 5; n++ {
		assert.Equal(t, 1, calls[n], "key calls for %d", n)
	}
}

func TestFilterGroups_PropagatesKeyError(t *testing.T) {
	boom := errors.New("boom")
	groups := [][]int{{1, 2}, {3, 4}}

	result, err := FilterGroups(groups, func(n int) (int, error) {
		if n == 3 {
			return 0, boom
		}
		return n, nil
	})

	assert.ErrorIs(t, err, boom)
	assert.Nil(t, result)
}

func TestFilterGroups_Empty(t *testing.T) {
	result, err := FilterGroups[int, int](nil, func(n int) (int, error) { return n, nil })
	require.NoError(t, err)
	assert.Empty(t, result)

	result, err = FilterGroups([][]int{{}}, func(n int) (int, error) { return n, nil })
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestCountItems(t *testing.T) {
	assert.Equal(t, 0, CountItems[int](nil))
	assert.Equal(t, 5, CountItems([][]int{{1, 2}, {3, 4, 5}}))
}
