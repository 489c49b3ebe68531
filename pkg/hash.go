package dupedetector

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// HashAlgorithm represents a hash algorithm configuration
type HashAlgorithm struct {
	Name    string
	Size    int // digest length in bytes
	NewFunc func() hash.Hash
}

// hashAlgorithms lists the supported digests by lower-case name
var hashAlgorithms = map[string]func() hash.Hash{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha256": sha256.New,
	"sha512": sha512.New,
}

// GetHashAlgorithm returns the hash algorithm configuration for the given name
func GetHashAlgorithm(name string) (*HashAlgorithm, error) {
	name = strings.ToLower(name)
	newFunc, ok := hashAlgorithms[name]
	if !ok {
		return nil, fmt.Errorf("unsupported hash algorithm: %s (supported: md5, sha1, sha256, sha512)", name)
	}
	return &HashAlgorithm{
		Name:    name,
		Size:    newFunc().Size(),
		NewFunc: newFunc,
	}, nil
}

// Sampler digests bounded, offset-anchored windows of files.
//
// A Sampler is not safe for concurrent use: it owns a single read buffer of
// the configured chunk size which is reused by every call, so at most one
// chunk is live at a time.
type Sampler struct {
	algorithm *HashAlgorithm
	chunkSize int64
	buffer    []byte
	bytesRead int64
}

// NewSampler creates a sampler reading chunkSize bytes per step
func NewSampler(algorithm *HashAlgorithm, chunkSize int64) *Sampler {
	return &Sampler{
		algorithm: algorithm,
		chunkSize: chunkSize,
	}
}

// Algorithm returns the digest algorithm used by the sampler
func (s *Sampler) Algorithm() *HashAlgorithm {
	return s.algorithm
}

// BytesRead returns the total number of bytes hashed so far
func (s *Sampler) BytesRead() int64 {
	return s.bytesRead
}

// Sample returns the hex digest of up to sampleSize bytes of the file at path,
// starting at offset. With sampleSize == WholeFile the file is hashed from
// offset to EOF. A file shorter than the window contributes what it has.
//
// The context is checked between chunks so a long read can be interrupted.
func (s *Sampler) Sample(ctx context.Context, path string, offset, sampleSize int64) (string, error) {
	chunkSize := s.chunkSize
	if sampleSize != WholeFile && sampleSize < chunkSize {
		chunkSize = sampleSize
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	fd := int(file.Fd())
	length := sampleSize
	if length == WholeFile {
		length = 0 // to EOF
	}
	// advisory, errors ignored
	_ = unix.Fadvise(fd, offset, length, unix.FADV_SEQUENTIAL)

	hasher := s.algorithm.NewFunc()
	buf := s.chunk(chunkSize)
	var consumed int64

	for {
		if sampleSize != WholeFile {
			remaining := sampleSize - consumed
			if remaining <= 0 {
				break
			}
			if remaining < int64(len(buf)) {
				buf = buf[:remaining]
			}
		}

		if err := ctx.Err(); err != nil {
			return "", err
		}

		n, err := unix.Pread(fd, buf, offset+consumed)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to read from file %s at offset %d: %w", path, offset+consumed, err)
		}
		if n == 0 {
			break
		}

		hasher.Write(buf[:n])
		consumed += int64(n)
	}

	s.bytesRead += consumed
	DebugLog("sample", "sampled %s offset=%d window=%d read=%d", path, offset, sampleSize, consumed)

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// chunk returns the shared read buffer resized to n bytes
func (s *Sampler) chunk(n int64) []byte {
	if int64(cap(s.buffer)) < n {
		s.buffer = make([]byte, n)
	}
	return s.buffer[:n]
}

// StartSample hashes sampleSize bytes from the start of a file
func (s *Sampler) StartSample(ctx context.Context, file *FileRecord, sampleSize int64) (string, error) {
	return s.Sample(ctx, file.Path, 0, sampleSize)
}

// MiddleSample hashes sampleSize bytes centred on the middle of a file
func (s *Sampler) MiddleSample(ctx context.Context, file *FileRecord, sampleSize int64) (string, error) {
	size, err := file.Size()
	if err != nil {
		return "", err
	}
	return s.Sample(ctx, file.Path, MiddleOffset(size, sampleSize), sampleSize)
}

// EndSample hashes the last sampleSize bytes of a file
func (s *Sampler) EndSample(ctx context.Context, file *FileRecord, sampleSize int64) (string, error) {
	size, err := file.Size()
	if err != nil {
		return "", err
	}
	return s.Sample(ctx, file.Path, EndOffset(size, sampleSize), sampleSize)
}

// FullHash hashes the entire content of a file
func (s *Sampler) FullHash(ctx context.Context, file *FileRecord) (string, error) {
	return s.Sample(ctx, file.Path, 0, WholeFile)
}

// MiddleOffset returns the offset of a sampleSize window around the middle of
// a file of the given size, never negative.
func MiddleOffset(size, sampleSize int64) int64 {
	offset := (size - sampleSize) / 2
	if offset < 0 {
		return 0
	}
	return offset
}

// EndOffset returns the offset of the last sampleSize bytes, never negative.
func EndOffset(size, sampleSize int64) int64 {
	offset := size - sampleSize
	if offset < 0 {
		return 0
	}
	return offset
}
