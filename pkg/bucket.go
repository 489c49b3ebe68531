package dupedetector

// Bucket maps a key to the items sharing it. Items under a key keep the order
// they were added in, and keys are remembered in first-seen order so that the
// groups a bucket produces come out in a stable order.
type Bucket[K comparable, T any] struct {
	keys    []K
	members map[K][]T
}

// NewBucket creates an empty bucket
func NewBucket[K comparable, T any]() *Bucket[K, T] {
	return &Bucket[K, T]{
		members: make(map[K][]T),
	}
}

// Add appends item to the sequence for key
func (b *Bucket[K, T]) Add(key K, item T) {
	existing, ok := b.members[key]
	if !ok {
		b.keys = append(b.keys, key)
	}
	b.members[key] = append(existing, item)
}

// Groups returns, in first-seen key order, every sequence with at least
// minSize members
func (b *Bucket[K, T]) Groups(minSize int) [][]T {
	var groups [][]T
	for _, key := range b.keys {
		if members := b.members[key]; len(members) >= minSize {
			groups = append(groups, members)
		}
	}
	return groups
}

// FilterGroups re-partitions each input group by key and keeps only the
// partitions with two or more members. Partitions of different input groups
// are never merged, even when they share a key. The key function is called
// exactly once per item; its first error stops the pass and is returned.
func FilterGroups[K comparable, T any](groups [][]T, key func(T) (K, error)) ([][]T, error) {
	var candidates [][]T
	for _, group := range groups {
		bucket := NewBucket[K, T]()
		for _, item := range group {
			k, err := key(item)
			if err != nil {
				return nil, err
			}
			bucket.Add(k, item)
		}
		candidates = append(candidates, bucket.Groups(2)...)
	}
	return candidates, nil
}

// CountItems returns the total number of items across groups
func CountItems[T any](groups [][]T) int {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	return total
}
