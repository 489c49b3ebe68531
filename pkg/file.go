package dupedetector

import (
	"fmt"
	"os"
)

// FileRecord is a handle to a candidate file: its path and its size in bytes.
// The size is read at most once, either from the enumerator's stat or lazily
// on the first call to Size, and never changes afterwards.
type FileRecord struct {
	Path string

	size  int64
	sized bool
}

// NewFileRecord creates a record whose size will be read on first use
func NewFileRecord(path string) *FileRecord {
	return &FileRecord{Path: path}
}

// newSizedFileRecord creates a record with a size already known from a stat
func newSizedFileRecord(path string, size int64) *FileRecord {
	return &FileRecord{Path: path, size: size, sized: true}
}

// Size returns the file size, stat'ing the file the first time it is needed
func (f *FileRecord) Size() (int64, error) {
	if f.sized {
		return f.size, nil
	}

	info, err := os.Stat(f.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat file %s: %w", f.Path, err)
	}

	f.size = info.Size()
	f.sized = true
	return f.size, nil
}

// String returns the path
func (f *FileRecord) String() string {
	return f.Path
}

// Paths converts candidate groups to the path lists used for output
func Paths(groups [][]*FileRecord) [][]string {
	result := make([][]string, 0, len(groups))
	for _, group := range groups {
		paths := make([]string, len(group))
		for i, file := range group {
			paths[i] = file.Path
		}
		result = append(result, paths)
	}
	return result
}
