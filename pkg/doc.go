// Package dupedetector finds groups of files with byte-identical content
// without hashing every byte of every file when it can be avoided.
//
// # Pipeline
//
// Files are first grouped by size. Groups of large files are then narrowed by
// digests of three sample windows (start, middle and end of each file), and
// the survivors, together with the groups of small files that skipped
// sampling, are confirmed by a digest of their whole content:
//
//	scanner := dupedetector.NewScanner(dupedetector.ScanOptions{})
//	files, err := scanner.Scan(ctx, []string{"/srv/photos"})
//
//	detector, err := dupedetector.NewDetector(dupedetector.Options{
//		ChunkSize:  dupedetector.DefaultChunkSize,
//		SampleSize: dupedetector.DefaultSampleSize,
//	})
//	groups, err := detector.FindDuplicates(ctx, files)
//
// Every stage is a call to FilterGroups, which re-partitions each candidate
// group by a key and drops partitions with a single member.
//
// # Errors
//
// Nothing is recovered locally. A missing input path is an
// *EnumerationError, a file that cannot be read while hashing is a
// *ReadError, and a result that cannot be written is an *OutputError.
//
// # Configuration
//
// Settings are layered: DefaultSettings, an ini file (LoadConfig), DUPEDETECTOR_*
// environment variables (ApplyEnvironment) and finally command line flags.
//
//	dupedetector.SetDebugFlags("scan,sample")
//	dupedetector.SetVerboseLevel(2)
//
// The digests are used for deduplication only; they are not an integrity
// check against an adversary.
package dupedetector
