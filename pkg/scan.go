package dupedetector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// ScanOptions configures a Scanner
type ScanOptions struct {
	SymlinkMode string         // all, contained or none
	Ignore      *IgnoreManager // paths to skip, relative to each root
	Notifier    *Notifier
}

// fileID identifies a directory independently of the path used to reach it
type fileID struct {
	Dev uint64
	Ino uint64
}

// Scanner turns input paths into a flat list of regular files. Directories
// are walked iteratively with an ordered work queue, so nesting depth does
// not grow the call stack, and every file is listed once even when it is
// reachable from several inputs.
type Scanner struct {
	symlinkMode string
	ignore      *IgnoreManager
	notifier    *Notifier

	seenFiles   map[string]struct{}
	visitedDirs map[fileID]struct{}
}

// NewScanner creates a scanner
func NewScanner(opts ScanOptions) *Scanner {
	mode := strings.ToLower(opts.SymlinkMode)
	if mode == "" {
		mode = SymlinkAll
	}
	return &Scanner{
		symlinkMode: mode,
		ignore:      opts.Ignore,
		notifier:    opts.Notifier,
		seenFiles:   make(map[string]struct{}),
		visitedDirs: make(map[fileID]struct{}),
	}
}

// Scan enumerates every regular file under paths, in input order and then in
// lexicographic path order within each input. A path that does not exist or
// a directory that cannot be read aborts the scan with an *EnumerationError.
func (s *Scanner) Scan(ctx context.Context, paths []string) ([]*FileRecord, error) {
	defer VerboseEnter()()

	var files []*FileRecord
	for _, root := range paths {
		s.notifier.ScanningPath(root)

		found, err := s.scanRoot(ctx, root)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}

	s.notifier.CollectedFiles(len(files))
	VerboseLog(1, "enumerated %d files from %d paths", len(files), len(paths))
	return files, nil
}

// scanRoot handles one input path, which may be a file or a directory
func (s *Scanner) scanRoot(ctx context.Context, root string) ([]*FileRecord, error) {
	// An input path is always followed, even when it is itself a symlink.
	info, err := os.Stat(root)
	if err != nil {
		return nil, &EnumerationError{Path: root, Err: err}
	}

	switch {
	case info.Mode().IsRegular():
		if record := s.addFile(root, info); record != nil {
			return []*FileRecord{record}, nil
		}
		return nil, nil
	case info.IsDir():
		return s.scanDirectory(ctx, root, info)
	default:
		VerboseLog(1, "skipping %s: not a regular file or directory", root)
		return nil, nil
	}
}

// scanDirectory walks a directory tree with a sorted queue of pending paths
func (s *Scanner) scanDirectory(ctx context.Context, root string, rootInfo os.FileInfo) ([]*FileRecord, error) {
	if !s.enterDirectory(rootInfo) {
		VerboseLog(2, "skipping %s: directory already scanned", root)
		return nil, nil
	}

	resolvedRoot := root
	if s.symlinkMode == SymlinkContained {
		var err error
		if resolvedRoot, err = resolvePath(root); err != nil {
			return nil, &EnumerationError{Path: root, Err: err}
		}
	}

	var files []*FileRecord
	queue := newPathQueue()
	if err := s.queueChildren(queue, root, root, ScanContext); err != nil {
		return nil, err
	}

	for !queue.IsEmpty() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		currentPath, pathContext, _ := queue.Pop()

		info, err := os.Lstat(currentPath)
		if err != nil {
			// removed since its directory was read
			VerboseLog(2, "skipping %s: %v", currentPath, err)
			continue
		}

		if info.Mode()&os.ModeSymlink != 0 {
			info, err = s.followSymlink(currentPath, resolvedRoot)
			if err != nil || info == nil {
				if err != nil {
					VerboseLog(2, "skipping symlink %s: %v", currentPath, err)
				}
				continue
			}
			pathContext = LinkContext
		}

		if info.IsDir() {
			if !s.enterDirectory(info) {
				VerboseLog(2, "skipping %s: directory already scanned", currentPath)
				continue
			}
			if err := s.queueChildren(queue, root, currentPath, pathContext); err != nil {
				return nil, err
			}
		} else if info.Mode().IsRegular() {
			DebugLog("scan", "found file %s (%s)", currentPath, pathContext)
			if record := s.addFile(currentPath, info); record != nil {
				files = append(files, record)
			}
		}
	}

	return files, nil
}

// queueChildren reads a directory and queues the entries not ignored
func (s *Scanner) queueChildren(queue *pathQueue, root, dir, pathContext string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return &EnumerationError{Path: dir, Err: err}
	}

	children := make([]string, 0, len(entries))
	for _, entry := range entries {
		fullPath := filepath.Join(dir, entry.Name())

		if s.ignore.HasPatterns() {
			relPath, err := filepath.Rel(root, fullPath)
			if err != nil {
				relPath = fullPath
			}
			if s.ignore.ShouldIgnore(relPath) {
				DebugLog("scan", "ignoring %s", relPath)
				continue
			}
		}

		children = append(children, fullPath)
	}

	queue.PushAll(children, pathContext)
	DebugLog("scan", "%s queued %d entries, %d pending", dir, len(children), queue.Length())
	return nil
}

// followSymlink applies the symlink mode. It returns the target's info, or
// nil if the link must not be followed.
func (s *Scanner) followSymlink(linkPath, resolvedRoot string) (os.FileInfo, error) {
	switch s.symlinkMode {
	case SymlinkNone:
		return nil, nil
	case SymlinkContained:
		target, err := filepath.EvalSymlinks(linkPath)
		if err != nil {
			return nil, err
		}
		if !isPathContained(target, resolvedRoot) {
			VerboseLog(2, "skipping symlink %s: target %s is outside %s", linkPath, target, resolvedRoot)
			return nil, nil
		}
	}

	targetInfo, err := os.Stat(linkPath)
	if err != nil {
		return nil, fmt.Errorf("broken symlink: %w", err)
	}
	return targetInfo, nil
}

// enterDirectory records a directory as visited; it returns false if it was
// visited before, which stops symlink cycles and overlapping inputs
func (s *Scanner) enterDirectory(info os.FileInfo) bool {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return true
	}

	id := fileID{Dev: uint64(stat.Dev), Ino: uint64(stat.Ino)}
	if _, seen := s.visitedDirs[id]; seen {
		return false
	}
	s.visitedDirs[id] = struct{}{}
	return true
}

// addFile creates a record for a file path not seen before
func (s *Scanner) addFile(path string, info os.FileInfo) *FileRecord {
	key := filepath.Clean(path)
	if _, seen := s.seenFiles[key]; seen {
		return nil
	}
	s.seenFiles[key] = struct{}{}
	return newSizedFileRecord(path, info.Size())
}

// resolvePath returns the absolute path with every symlink resolved
func resolvePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(absPath)
}

// isPathContained checks if targetPath is contained within containerPath
func isPathContained(targetPath, containerPath string) bool {
	targetPath = filepath.Clean(targetPath)
	containerPath = filepath.Clean(containerPath)

	if !filepath.IsAbs(targetPath) {
		var err error
		if targetPath, err = filepath.Abs(targetPath); err != nil {
			return false
		}
	}
	if !filepath.IsAbs(containerPath) {
		var err error
		if containerPath, err = filepath.Abs(containerPath); err != nil {
			return false
		}
	}

	if targetPath == containerPath {
		return true
	}

	containerWithSep := containerPath + string(filepath.Separator)
	return strings.HasPrefix(targetPath, containerWithSep)
}
