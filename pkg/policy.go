package dupedetector

// IsSmallFile reports whether a file is too small to be worth sampling.
// Sampling windows would cover at least half of such a file, so it goes
// straight to the full-content hash instead.
func IsSmallFile(size, chunkSize int64) bool {
	return size/2 < chunkSize
}

// splitBySize separates size groups into small-file groups, which skip the
// sampling stages, and large-file groups. All members of a size group share a
// size, so the first member decides for the whole group.
func splitBySize(groups [][]*FileRecord, chunkSize int64) (small, large [][]*FileRecord, err error) {
	for _, group := range groups {
		size, sizeErr := group[0].Size()
		if sizeErr != nil {
			return nil, nil, readError(StageSize, group[0].Path, sizeErr)
		}
		if IsSmallFile(size, chunkSize) {
			small = append(small, group)
		} else {
			large = append(large, group)
		}
	}
	return small, large, nil
}
