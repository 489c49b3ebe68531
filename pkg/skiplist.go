package dupedetector

import (
	"strings"

	zcsl "github.com/mattkeenan/zerocopyskiplist"
)

// Context values attached to queued paths
const (
	ScanContext = "scan" // reached by plain directory traversal
	LinkContext = "link" // reached through a followed symlink
)

// pendingPath is a path waiting to be visited by the scanner
type pendingPath struct {
	Path string
}

// pathQueue is the scanner's work queue: a skiplist keyed by path, so the
// lexicographically smallest path is always visited next.
type pathQueue struct {
	skiplist *zcsl.ZeroCopySkiplist[pendingPath, string, string]
}

// newPathQueue creates an empty queue
func newPathQueue() *pathQueue {
	getKeyFromItem := func(p *pendingPath) string {
		return p.Path
	}

	getItemSize := func(p *pendingPath) int {
		return len(p.Path)
	}

	cmpKey := func(a, b string) int {
		return strings.Compare(a, b)
	}

	return &pathQueue{
		skiplist: zcsl.MakeZeroCopySkiplist[pendingPath, string, string](
			16,
			getKeyFromItem,
			getItemSize,
			cmpKey,
		),
	}
}

// Push queues a path with a context and reports whether it was inserted
func (q *pathQueue) Push(path, context string) bool {
	return q.skiplist.Insert(&pendingPath{Path: path}, context)
}

// PushAll queues several paths with the same context
func (q *pathQueue) PushAll(paths []string, context string) {
	for _, path := range paths {
		q.Push(path, context)
	}
}

// Pop removes and returns the smallest queued path
func (q *pathQueue) Pop() (path string, context string, ok bool) {
	first := q.skiplist.First()
	if first == nil {
		return "", "", false
	}

	path = first.Item().Path
	context = first.Context()
	q.skiplist.Delete(path)
	return path, context, true
}

// Length returns the number of queued paths
func (q *pathQueue) Length() int {
	return q.skiplist.Length()
}

// IsEmpty returns true if nothing is queued
func (q *pathQueue) IsEmpty() bool {
	return q.skiplist.IsEmpty()
}
