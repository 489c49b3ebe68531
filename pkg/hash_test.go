package dupedetector

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestFile creates a file under dir and returns its path
func writeTestFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

// sequentialBytes returns n bytes cycling through 0..250
func sequentialBytes(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func md5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

func newTestSampler(t *testing.T, chunkSize int64) *Sampler {
	t.Helper()
	algorithm, err := GetHashAlgorithm("md5")
	require.NoError(t, err)
	return NewSampler(algorithm, chunkSize)
}

func TestGetHashAlgorithm(t *testing.T) {
	testCases := []struct {
		name     string
		expected string
		size     int
	}{
		{"md5", "md5", 16},
		{"MD5", "md5", 16},
		{"sha1", "sha1", 20},
		{"sha256", "sha256", 32},
		{"Sha512", "sha512", 64},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			algorithm, err := GetHashAlgorithm(tc.name)
			require.NoError(t, err)

			assert.Equal(t, tc.expected, algorithm.Name)
			assert.Equal(t, tc.size, algorithm.Size)
			assert.Equal(t, tc.size, algorithm.NewFunc().Size())
		})
	}

	_, err := GetHashAlgorithm("crc32")
	assert.Error(t, err)
}

func TestSampler_WholeFile(t *testing.T) {
	data := sequentialBytes(10000)
	path := writeTestFile(t, t.TempDir(), "whole.bin", data)

	for _, chunkSize := range []int64{1, 7, 4096, 10000, 1000000} {
		sampler := newTestSampler(t, chunkSize)
		digest, err := sampler.Sample(context.Background(), path, 0, WholeFile)
		require.NoError(t, err, "chunk size %d", chunkSize)
		assert.Equal(t, md5Hex(data), digest, "chunk size %d", chunkSize)
		assert.Equal(t, int64(len(data)), sampler.BytesRead(), "chunk size %d", chunkSize)
	}
}

func TestSampler_WindowIsExact(t *testing.T) {
	data := sequentialBytes(10000)
	path := writeTestFile(t, t.TempDir(), "window.bin", data)

	testCases := []struct {
		name       string
		chunkSize  int64
		offset     int64
		sampleSize int64
	}{
		{"chunk smaller than sample", 300, 0, 1000},
		{"chunk not dividing sample", 300, 123, 1000},
		{"chunk larger than sample", 5000, 10, 100},
		{"chunk equal to sample", 250, 500, 250},
		{"window past end of file", 64, 9900, 1000},
		{"offset at end of file", 64, 10000, 100},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sampler := newTestSampler(t, tc.chunkSize)
			digest, err := sampler.Sample(context.Background(), path, tc.offset, tc.sampleSize)
			require.NoError(t, err)

			end := tc.offset + tc.sampleSize
			if end > int64(len(data)) {
				end = int64(len(data))
			}
			want := data[tc.offset:end]
			assert.Equal(t, md5Hex(want), digest, "digest should cover bytes [%d, %d)", tc.offset, end)
			assert.Equal(t, int64(len(want)), sampler.BytesRead())
		})
	}
}

func TestSampler_Anchors(t *testing.T) {
	data := sequentialBytes(5000)
	path := writeTestFile(t, t.TempDir(), "anchors.bin", data)
	record := NewFileRecord(path)
	sampler := newTestSampler(t, 128)
	ctx := context.Background()

	start, err := sampler.StartSample(ctx, record, 1000)
	require.NoError(t, err)
	assert.Equal(t, md5Hex(data[:1000]), start, "start sample covers the first 1000 bytes")

	middle, err := sampler.MiddleSample(ctx, record, 1000)
	require.NoError(t, err)
	assert.Equal(t, md5Hex(data[2000:3000]), middle, "middle sample covers bytes [2000, 3000)")

	end, err := sampler.EndSample(ctx, record, 1000)
	require.NoError(t, err)
	assert.Equal(t, md5Hex(data[4000:]), end, "end sample covers the last 1000 bytes")

	full, err := sampler.FullHash(ctx, record)
	require.NoError(t, err)
	assert.Equal(t, md5Hex(data), full)
}

func TestAnchorOffsets(t *testing.T) {
	testCases := []struct {
		size, sampleSize, middle, end int64
	}{
		{5000, 1000, 2000, 4000},
		{6, 3, 1, 3},
		{7, 3, 2, 4},
		{100, 1000, 0, 0},
		{0, 1000, 0, 0},
		{1000, 1000, 0, 0},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.middle, MiddleOffset(tc.size, tc.sampleSize), "MiddleOffset(%d, %d)", tc.size, tc.sampleSize)
		assert.Equal(t, tc.end, EndOffset(tc.size, tc.sampleSize), "EndOffset(%d, %d)", tc.size, tc.sampleSize)
	}
}

func TestSampler_SmallFileSamplesFromStart(t *testing.T) {
	data := []byte("short")
	path := writeTestFile(t, t.TempDir(), "short.txt", data)
	record := NewFileRecord(path)
	sampler := newTestSampler(t, 1024)

	for name, sample := range map[string]func(context.Context, *FileRecord, int64) (string, error){
		"start":  sampler.StartSample,
		"middle": sampler.MiddleSample,
		"end":    sampler.EndSample,
	} {
		digest, err := sample(context.Background(), record, 1000)
		require.NoError(t, err, name)
		assert.Equal(t, md5Hex(data), digest, "%s sample of a short file should cover the whole file", name)
	}
}

func TestSampler_AlgorithmSelection(t *testing.T) {
	data := []byte("the quick brown fox")
	path := writeTestFile(t, t.TempDir(), "fox.txt", data)

	algorithm, err := GetHashAlgorithm("sha256")
	require.NoError(t, err)
	sampler := NewSampler(algorithm, 4)

	digest, err := sampler.Sample(context.Background(), path, 0, WholeFile)
	require.NoError(t, err)
	sum := sha256.Sum256(data)
	assert.Equal(t, hex.EncodeToString(sum[:]), digest)
	assert.Len(t, digest, 2*algorithm.Size)
}

func TestSampler_MissingFile(t *testing.T) {
	sampler := newTestSampler(t, 1024)
	_, err := sampler.Sample(context.Background(), filepath.Join(t.TempDir(), "missing"), 0, WholeFile)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSampler_Cancelled(t *testing.T) {
	path := writeTestFile(t, t.TempDir(), "data.bin", sequentialBytes(4096))
	sampler := newTestSampler(t, 16)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sampler.Sample(ctx, path, 0, WholeFile)
	assert.ErrorIs(t, err, context.Canceled)
}
