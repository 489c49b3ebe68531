package dupedetector

import (
	"context"
	"errors"
	"time"
)

// Options configures a Detector
type Options struct {
	ChunkSize  int64          // bytes read per step, also the small-file divisor
	SampleSize int64          // bytes hashed at each sample anchor
	Algorithm  *HashAlgorithm // digest for samples and full hashes, md5 if nil
	Notifier   *Notifier      // progress reporting, silent if nil
}

// Detector finds groups of files with byte-identical content. It narrows
// candidates progressively: by size, then by digests of windows at the start,
// middle and end of each large file, and finally by a full-content digest.
//
// A Detector runs one pass at a time and is not safe for concurrent use.
type Detector struct {
	chunkSize  int64
	sampleSize int64
	sampler    *Sampler
	notifier   *Notifier
	stats      []StageStats
}

// NewDetector validates options and creates a detector
func NewDetector(opts Options) (*Detector, error) {
	if err := ValidateChunkSize(opts.ChunkSize); err != nil {
		return nil, &ConfigError{Key: "chunk size", Err: err}
	}
	if err := ValidateSampleSize(opts.SampleSize); err != nil {
		return nil, &ConfigError{Key: "sample size", Err: err}
	}

	algorithm := opts.Algorithm
	if algorithm == nil {
		var err error
		if algorithm, err = GetHashAlgorithm(DefaultHashName); err != nil {
			return nil, err
		}
	}

	return &Detector{
		chunkSize:  opts.ChunkSize,
		sampleSize: opts.SampleSize,
		sampler:    NewSampler(algorithm, opts.ChunkSize),
		notifier:   opts.Notifier,
	}, nil
}

// Stats returns the statistics of the most recent FindDuplicates call
func (d *Detector) Stats() []StageStats {
	return d.stats
}

// FindDuplicates returns the groups of files in files whose full contents are
// byte-identical. Every group has at least two members, no file appears in
// more than one group, and members keep the order they have in files.
//
// Any error aborts the whole pass; no partial result is returned.
func (d *Detector) FindDuplicates(ctx context.Context, files []*FileRecord) ([][]*FileRecord, error) {
	defer VerboseEnter()()
	d.stats = nil

	sizeGroups, err := runStage(ctx, d, StageSize, [][]*FileRecord{files}, func(f *FileRecord) (int64, error) {
		return f.Size()
	})
	if err != nil {
		return nil, err
	}

	small, large, err := splitBySize(sizeGroups, d.chunkSize)
	if err != nil {
		return nil, err
	}
	VerboseLog(2, "size policy: %d small groups, %d large groups (threshold %d bytes)", len(small), len(large), 2*d.chunkSize)
	d.notifier.RoutedSmallFiles(len(small), CountItems(small), len(large), CountItems(large))

	candidates, err := runStage(ctx, d, StageStart, large, func(f *FileRecord) (string, error) {
		return d.sampler.StartSample(ctx, f, d.sampleSize)
	})
	if err != nil {
		return nil, err
	}

	candidates, err = runStage(ctx, d, StageMiddle, candidates, func(f *FileRecord) (string, error) {
		return d.sampler.MiddleSample(ctx, f, d.sampleSize)
	})
	if err != nil {
		return nil, err
	}

	candidates, err = runStage(ctx, d, StageEnd, candidates, func(f *FileRecord) (string, error) {
		return d.sampler.EndSample(ctx, f, d.sampleSize)
	})
	if err != nil {
		return nil, err
	}

	// Small files were never sampled; they still need the full hash.
	candidates = append(candidates, small...)

	duplicates, err := runStage(ctx, d, StageFull, candidates, func(f *FileRecord) (string, error) {
		return d.sampler.FullHash(ctx, f)
	})
	if err != nil {
		return nil, err
	}

	if duplicates == nil {
		duplicates = [][]*FileRecord{}
	}
	d.notifier.Finished(duplicates)
	return duplicates, nil
}

// runStage applies one bucketing pass and records its statistics. Read
// failures are reported as a *ReadError naming the stage.
func runStage[K comparable](ctx context.Context, d *Detector, stage string, groups [][]*FileRecord, key func(*FileRecord) (K, error)) ([][]*FileRecord, error) {
	stats := StageStats{
		Stage:    stage,
		GroupsIn: len(groups),
		FilesIn:  CountItems(groups),
	}
	readBefore := d.sampler.BytesRead()
	start := time.Now()

	result, err := FilterGroups(groups, func(f *FileRecord) (K, error) {
		k, err := key(f)
		if err != nil {
			var zero K
			return zero, readError(stage, f.Path, err)
		}
		return k, nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats.GroupsOut = len(result)
	stats.FilesOut = CountItems(result)
	stats.BytesRead = d.sampler.BytesRead() - readBefore
	stats.Duration = time.Since(start)
	d.stats = append(d.stats, stats)

	VerboseLog(1, "%s: %d -> %d candidate files in %d groups", stage, stats.FilesIn, stats.FilesOut, stats.GroupsOut)
	d.notifier.StageFinished(stats)
	return result, nil
}

// readError converts a hashing failure into a *ReadError, leaving
// cancellation untouched
func readError(stage, path string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &ReadError{Stage: stage, Path: path, Err: err}
}
