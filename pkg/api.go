package dupedetector

import (
	"context"
	"fmt"
)

// RunResult is the outcome of a completed run
type RunResult struct {
	Files  int          // files enumerated
	Groups [][]string   // confirmed duplicate groups, as written
	Stats  []StageStats // per-stage narrowing statistics
}

// Run performs one full pass: enumerate settings.Paths, find duplicates and
// write the JSON result to settings.Output. Nothing is written unless every
// stage succeeded.
func Run(ctx context.Context, settings *Settings, notifier *Notifier) (*RunResult, error) {
	defer VerboseEnter()()

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	algorithm, err := GetHashAlgorithm(settings.HashName)
	if err != nil {
		return nil, &ConfigError{Key: "hash", Err: err}
	}

	ignore, err := NewIgnoreManager(settings.Ignore)
	if err != nil {
		return nil, &ConfigError{Key: "ignore pattern", Err: err}
	}

	detector, err := NewDetector(Options{
		ChunkSize:  settings.ChunkSize,
		SampleSize: settings.SampleSize,
		Algorithm:  algorithm,
		Notifier:   notifier,
	})
	if err != nil {
		return nil, err
	}

	scanner := NewScanner(ScanOptions{
		SymlinkMode: settings.SymlinkMode,
		Ignore:      ignore,
		Notifier:    notifier,
	})

	files, err := scanner.Scan(ctx, settings.Paths)
	if err != nil {
		return nil, err
	}

	VerboseLog(1, "hashing with %s (%d-byte digest), chunk %d bytes, sample %d bytes", algorithm.Name, algorithm.Size, settings.ChunkSize, settings.SampleSize)
	duplicates, err := detector.FindDuplicates(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("duplicate detection aborted: %w", err)
	}

	groups := Paths(duplicates)
	if err := WriteResult(settings.Output, groups); err != nil {
		return nil, err
	}

	return &RunResult{
		Files:  len(files),
		Groups: groups,
		Stats:  detector.Stats(),
	}, nil
}
