package dupedetector

// Default sizing, matching the command line defaults
const (
	DefaultChunkSize  = 1000000 // bytes read from a file in one step
	DefaultSampleSize = 1000000 // bytes hashed at each sample anchor
	DefaultOutput     = "-"     // standard output
)

// MaxChunkSize bounds the read buffer a Sampler allocates
const MaxChunkSize = 1 << 30

// WholeFile passed as a sample size hashes the entire file
const WholeFile int64 = -1

// DefaultHashName is the digest used when nothing else is configured
const DefaultHashName = "md5"

// Symlink handling modes for the enumerator
const (
	SymlinkAll       = "all"       // follow every symlink
	SymlinkContained = "contained" // follow only symlinks resolving inside the scanned root
	SymlinkNone      = "none"      // never follow symlinks
)

// Pipeline stage names, used in logs and statistics
const (
	StageSize   = "size"
	StageStart  = "start-sample"
	StageMiddle = "middle-sample"
	StageEnd    = "end-sample"
	StageFull   = "full-hash"
)

// maxIovecs bounds one writev call (UIO_MAXIOV on Linux)
const maxIovecs = 1024
