package dupedetector

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings(output string, paths ...string) *Settings {
	settings := DefaultSettings()
	settings.Output = output
	settings.Paths = paths
	return settings
}

func TestRun_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	large := sequentialBytes(4096)

	a := writeTestFile(t, dir, "photos/a.jpg", large)
	b := writeTestFile(t, dir, "backup/photos/a.jpg", large)
	writeTestFile(t, dir, "photos/b.jpg", withByte(large, 2048, 0xff))
	n1 := writeTestFile(t, dir, "notes/1.txt", []byte("meeting notes"))
	n2 := writeTestFile(t, dir, "notes/2.txt", []byte("meeting notes"))
	writeTestFile(t, dir, "notes/3.txt", []byte("other content"))

	out := filepath.Join(t.TempDir(), "result.json")
	settings := testSettings(out, dir)
	settings.ChunkSize = 256
	settings.SampleSize = 128

	result, err := Run(context.Background(), settings, nil)
	require.NoError(t, err)

	assert.Equal(t, 6, result.Files)
	assert.Equal(t, [][]string{{b, a}, {n1, n2}}, result.Groups)
	assert.Len(t, result.Stats, 5)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var decoded [][]string
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, result.Groups, decoded)
}

func TestRun_NoDuplicatesWritesEmptyArray(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a", []byte("a"))
	writeTestFile(t, dir, "b", []byte("bb"))

	out := filepath.Join(t.TempDir(), "result.json")
	_, err := Run(context.Background(), testSettings(out, dir), nil)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestRun_MissingPathWritesNothing(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a", []byte("a"))

	out := filepath.Join(t.TempDir(), "result.json")
	_, err := Run(context.Background(), testSettings(out, dir, filepath.Join(dir, "missing")), nil)

	var enumErr *EnumerationError
	require.ErrorAs(t, err, &enumErr)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no output should be written")
}

func TestRun_InvalidSettings(t *testing.T) {
	settings := testSettings("-", t.TempDir())
	settings.HashName = "whirlpool"

	_, err := Run(context.Background(), settings, nil)

	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
	assert.Equal(t, "hash", configErr.Key)
}

func TestRun_OutputError(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a", []byte("same"))
	writeTestFile(t, dir, "b", []byte("same"))

	out := filepath.Join(dir, "no-such-dir", "result.json")
	_, err := Run(context.Background(), testSettings(out, dir), nil)

	var outErr *OutputError
	require.ErrorAs(t, err, &outErr)
	assert.Equal(t, out, outErr.Destination)
}

func TestRun_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a", []byte("same"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := filepath.Join(t.TempDir(), "result.json")
	_, err := Run(ctx, testSettings(out, dir), nil)
	assert.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no output should be written")
}

func TestRun_LogsDigestSize(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "a", []byte("same"))

	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer SetLogOutput(nil)
	defer SetVerboseLevel(GetVerboseLevel())
	SetVerboseLevel(1)

	settings := testSettings(filepath.Join(t.TempDir(), "result.json"), dir)
	settings.HashName = "sha256"
	_, err := Run(context.Background(), settings, nil)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "hashing with sha256 (32-byte digest)")
}
